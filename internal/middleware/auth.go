package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tdesai7/secondbrain-backend/internal/apperr"
	"github.com/tdesai7/secondbrain-backend/internal/logger"
)

const UserIDKey = "user_id"

// AuthMiddleware verifies the bearer token and attaches the opaque user id to
// the request context. Token issuance lives in a separate auth service; this
// layer only consumes the identity.
type AuthMiddleware struct {
	log    *logger.Logger
	secret []byte
}

func NewAuthMiddleware(log *logger.Logger, jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		log:    log.With("middleware", "AuthMiddleware"),
		secret: []byte(jwtSecret),
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			m.reject(c, "missing bearer token")
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return m.secret, nil
		})
		if err != nil || !token.Valid {
			m.reject(c, "invalid token")
			return
		}

		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			m.reject(c, "token missing subject")
			return
		}
		userID, err := uuid.Parse(sub)
		if err != nil {
			m.reject(c, "malformed subject")
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

func (m *AuthMiddleware) reject(c *gin.Context, reason string) {
	err := fmt.Errorf("%w: %s", apperr.ErrUnauthorized, reason)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
}

// RequestUserID reads the authenticated user id set by RequireAuth.
func RequestUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
