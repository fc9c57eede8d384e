package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mo-amir99/lms-progress-go/internal/utils/jwt"
	"github.com/mo-amir99/lms-progress-go/pkg/apperrors"
	"github.com/mo-amir99/lms-progress-go/pkg/response"
)

const userIDKey = "userId"

// AuthMiddleware verifies bearer tokens and stores the caller's id on the context.
type AuthMiddleware struct {
	jwtSecret string
	logger    *slog.Logger
}

// NewAuthMiddleware creates a new auth middleware instance.
func NewAuthMiddleware(jwtSecret string, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{jwtSecret: jwtSecret, logger: logger}
}

// AuthenticateToken rejects requests without a valid bearer token.
func (m *AuthMiddleware) AuthenticateToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserID(c); ok {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			m.reject(c, "No token provided", nil)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			m.reject(c, "No token provided", nil)
			return
		}

		claims, err := jwt.VerifyToken(token, m.jwtSecret)
		if err != nil {
			if errors.Is(err, jwt.ErrExpiredToken) {
				m.reject(c, "Token expired", err)
			} else {
				m.reject(c, "Invalid token", err)
			}
			return
		}

		if claims.UserID == uuid.Nil {
			m.reject(c, "Invalid token payload", nil)
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

func (m *AuthMiddleware) reject(c *gin.Context, message string, err error) {
	response.ErrorWithLog(m.logger, c, http.StatusUnauthorized, message, string(apperrors.ErrUnauthorized), err)
	c.Abort()
}

// UserID returns the authenticated caller's id.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// SetUserID stores id as the authenticated caller. Used by tools and tests that
// bypass token verification.
func SetUserID(c *gin.Context, id uuid.UUID) {
	c.Set(userIDKey, id)
}
