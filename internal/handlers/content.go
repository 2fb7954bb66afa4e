package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tdesai7/secondbrain-backend/internal/apperr"
	"github.com/tdesai7/secondbrain-backend/internal/logger"
	"github.com/tdesai7/secondbrain-backend/internal/middleware"
	"github.com/tdesai7/secondbrain-backend/internal/services"
	"github.com/tdesai7/secondbrain-backend/internal/types"
)

type ContentHandler struct {
	log            *logger.Logger
	contentService services.ContentService
}

func NewContentHandler(log *logger.Logger, contentService services.ContentService) *ContentHandler {
	return &ContentHandler{
		log:            log.With("handler", "ContentHandler"),
		contentService: contentService,
	}
}

type createContentRequest struct {
	Kind  string   `json:"kind" binding:"required"`
	Title string   `json:"title"`
	Link  string   `json:"link"`
	Text  string   `json:"text"`
	Tags  []string `json:"tags"`
}

// POST /api/content
func (h *ContentHandler) Create(c *gin.Context) {
	userID, ok := middleware.RequestUserID(c)
	if !ok {
		respondErr(c, apperr.ErrUnauthorized)
		return
	}
	var req createContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	content, err := h.contentService.Create(c.Request.Context(), userID, services.CreateContentInput{
		Kind:  types.ContentKind(req.Kind),
		Title: req.Title,
		Link:  req.Link,
		Text:  req.Text,
		Tags:  req.Tags,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	respondCreated(c, gin.H{"content": content})
}

// GET /api/content
func (h *ContentHandler) List(c *gin.Context) {
	userID, ok := middleware.RequestUserID(c)
	if !ok {
		respondErr(c, apperr.ErrUnauthorized)
		return
	}
	contents, err := h.contentService.List(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"content": contents})
}

// GET /api/content/bin
func (h *ContentHandler) ListBin(c *gin.Context) {
	userID, ok := middleware.RequestUserID(c)
	if !ok {
		respondErr(c, apperr.ErrUnauthorized)
		return
	}
	contents, err := h.contentService.ListBin(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"content": contents})
}

// GET /api/content/:id
func (h *ContentHandler) Get(c *gin.Context) {
	userID, contentID, ok := h.requestIDs(c)
	if !ok {
		return
	}
	content, err := h.contentService.Get(c.Request.Context(), userID, contentID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"content": content})
}

// DELETE /api/content/:id
func (h *ContentHandler) SoftDelete(c *gin.Context) {
	userID, contentID, ok := h.requestIDs(c)
	if !ok {
		return
	}
	if err := h.contentService.SoftDelete(c.Request.Context(), userID, contentID); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"message": "content moved to bin"})
}

// POST /api/content/:id/undo
func (h *ContentHandler) Undo(c *gin.Context) {
	userID, contentID, ok := h.requestIDs(c)
	if !ok {
		return
	}
	if err := h.contentService.Undo(c.Request.Context(), userID, contentID); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"message": "content restored"})
}

// DELETE /api/content/:id/hard
func (h *ContentHandler) HardDelete(c *gin.Context) {
	userID, contentID, ok := h.requestIDs(c)
	if !ok {
		return
	}
	if err := h.contentService.HardDelete(c.Request.Context(), userID, contentID); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"message": "content permanently deleted"})
}

type manualTextRequest struct {
	Text string `json:"text" binding:"required"`
}

// POST /api/content/:id/manual-text
func (h *ContentHandler) ManualText(c *gin.Context) {
	userID, contentID, ok := h.requestIDs(c)
	if !ok {
		return
	}
	var req manualTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	content, err := h.contentService.ManualText(c.Request.Context(), userID, contentID, req.Text)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"message": "manual text stored, embedding queued", "content": content})
}

// POST /api/content/:id/retry-ingestion
func (h *ContentHandler) RetryIngestion(c *gin.Context) {
	userID, contentID, ok := h.requestIDs(c)
	if !ok {
		return
	}
	if err := h.contentService.RetryIngestion(c.Request.Context(), userID, contentID); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"message": "re-queued for ingestion"})
}

// POST /api/content/:id/retry-embedding
func (h *ContentHandler) RetryEmbedding(c *gin.Context) {
	userID, contentID, ok := h.requestIDs(c)
	if !ok {
		return
	}
	if err := h.contentService.RetryEmbedding(c.Request.Context(), userID, contentID); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"message": "re-queued for embedding"})
}

func (h *ContentHandler) requestIDs(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := middleware.RequestUserID(c)
	if !ok {
		respondErr(c, apperr.ErrUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}
	contentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid content id"})
		return uuid.Nil, uuid.Nil, false
	}
	return userID, contentID, true
}
