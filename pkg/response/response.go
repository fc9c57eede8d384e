package response

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope represents the standard API response shape.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
}

// Success writes a success response with optional message and data.
func Success(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// OK is a convenience helper for 200 responses.
func OK(c *gin.Context, data interface{}) {
	Success(c, http.StatusOK, data, "")
}

// Error writes an error response carrying a client-safe message and an error code.
func Error(c *gin.Context, status int, message string, code string) {
	c.JSON(status, Envelope{
		Success: false,
		Message: message,
		Error:   code,
	})
}

// ErrorWithLog writes an error response and logs the underlying error via slog.
// Client errors log at warn, server errors at error.
func ErrorWithLog(logger *slog.Logger, c *gin.Context, status int, message string, code string, err error) {
	if logger != nil && err != nil {
		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, message,
			slog.Int("status", status),
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()),
		)
	}

	Error(c, status, message, code)
}
