package enrollment

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mo-amir99/lms-progress-go/internal/middleware"
	"github.com/mo-amir99/lms-progress-go/pkg/apperrors"
	"github.com/mo-amir99/lms-progress-go/pkg/pagination"
	"github.com/mo-amir99/lms-progress-go/pkg/response"
	"github.com/mo-amir99/lms-progress-go/pkg/types"
)

// Handler serves the caller's enrollments.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs an enrollment handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

// List returns a page of the caller's enrollments, optionally filtered by ?status=.
func (h *Handler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		_ = c.Error(apperrors.New("Authentication required.", http.StatusUnauthorized, apperrors.ErrUnauthorized, nil))
		return
	}

	status := types.EnrollmentStatus(strings.ToUpper(strings.TrimSpace(c.Query("status"))))

	params := pagination.Extract(c)

	records, total, err := PageByUser(h.db.WithContext(c.Request.Context()), userID, status, params)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.OK(c, gin.H{
		"enrollments": records,
		"pagination":  pagination.MetadataFrom(total, params),
	})
}
