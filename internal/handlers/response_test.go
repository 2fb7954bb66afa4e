package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tdesai7/secondbrain-backend/internal/apperr"
)

func TestRespondErrStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("%w: bad input", apperr.ErrValidation), http.StatusBadRequest},
		{"not found", apperr.ErrNotFound, http.StatusNotFound},
		{"conflict", fmt.Errorf("%w: already done", apperr.ErrConflict), http.StatusConflict},
		{"window expired", apperr.ErrWindowExpired, http.StatusConflict},
		{"unauthorized", apperr.ErrUnauthorized, http.StatusUnauthorized},
		{"unknown", errors.New("db exploded"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondErr(c, tt.err)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestRespondErrHidesInternalDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondErr(c, errors.New("pq: connection refused at 10.0.0.3"))
	if body := w.Body.String(); body != `{"error":"internal error"}` {
		t.Errorf("body = %s, internal details must not leak", body)
	}
}
