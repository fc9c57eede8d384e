package request

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mo-amir99/lms-progress-go/pkg/apperrors"
)

// UUIDParam parses a path parameter as a UUID. On failure it aborts the request
// with a 400 validation error and returns false.
func UUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		_ = c.Error(apperrors.New("Invalid "+name+".", http.StatusBadRequest, apperrors.ErrValidation, err))
		c.Abort()
		return uuid.Nil, false
	}
	return id, true
}
