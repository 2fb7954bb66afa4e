package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tdesai7/secondbrain-backend/internal/apperr"
	"github.com/tdesai7/secondbrain-backend/internal/logger"
	"github.com/tdesai7/secondbrain-backend/internal/middleware"
	"github.com/tdesai7/secondbrain-backend/internal/services"
)

type ShareHandler struct {
	log          *logger.Logger
	shareService services.ShareService
}

func NewShareHandler(log *logger.Logger, shareService services.ShareService) *ShareHandler {
	return &ShareHandler{
		log:          log.With("handler", "ShareHandler"),
		shareService: shareService,
	}
}

// POST /api/share
func (h *ShareHandler) Rotate(c *gin.Context) {
	userID, ok := middleware.RequestUserID(c)
	if !ok {
		respondErr(c, apperr.ErrUnauthorized)
		return
	}
	hash, err := h.shareService.Rotate(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"share_link": hash})
}

// GET /api/share/:hash
func (h *ShareHandler) Resolve(c *gin.Context) {
	contents, err := h.shareService.Resolve(c.Request.Context(), c.Param("hash"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"content": contents})
}
