package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tdesai7/secondbrain-backend/internal/apperr"
)

func respondOK(c *gin.Context, payload gin.H) {
	c.JSON(http.StatusOK, payload)
}

func respondCreated(c *gin.Context, payload gin.H) {
	c.JSON(http.StatusCreated, payload)
}

// respondErr maps the service error taxonomy onto HTTP statuses. Anything
// unrecognized is a 500 with a generic message; details stay in the logs.
func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, apperr.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrWindowExpired):
		c.JSON(http.StatusConflict, gin.H{"error": "undo window expired"})
	case errors.Is(err, apperr.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
