package catalog

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mo-amir99/lms-progress-go/pkg/request"
	"github.com/mo-amir99/lms-progress-go/pkg/response"
)

// Handler serves read-only catalog views.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs a catalog handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

// Outline returns the course with its sections and videos in display order.
func (h *Handler) Outline(c *gin.Context) {
	courseID, ok := request.UUIDParam(c, "courseId")
	if !ok {
		return
	}

	course, err := GetCourseTree(h.db.WithContext(c.Request.Context()), courseID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.OK(c, course)
}
