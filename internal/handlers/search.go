package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tdesai7/secondbrain-backend/internal/apperr"
	"github.com/tdesai7/secondbrain-backend/internal/logger"
	"github.com/tdesai7/secondbrain-backend/internal/middleware"
	"github.com/tdesai7/secondbrain-backend/internal/services"
)

type SearchHandler struct {
	log           *logger.Logger
	searchService services.SearchService
	tagService    services.TagService
}

func NewSearchHandler(log *logger.Logger, searchService services.SearchService, tagService services.TagService) *SearchHandler {
	return &SearchHandler{
		log:           log.With("handler", "SearchHandler"),
		searchService: searchService,
		tagService:    tagService,
	}
}

type searchRequest struct {
	Query string `json:"query" binding:"required"`
	Limit int    `json:"limit"`
}

// POST /api/search
func (h *SearchHandler) Search(c *gin.Context) {
	userID, ok := middleware.RequestUserID(c)
	if !ok {
		respondErr(c, apperr.ErrUnauthorized)
		return
	}
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	results, err := h.searchService.Search(c.Request.Context(), userID, req.Query, req.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"results": results})
}

// GET /api/tags/trending
func (h *SearchHandler) TrendingTags(c *gin.Context) {
	tags, err := h.tagService.Trending(c.Request.Context(), 20)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"tags": tags})
}
