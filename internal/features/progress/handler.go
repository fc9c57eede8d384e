package progress

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mo-amir99/lms-progress-go/internal/middleware"
	"github.com/mo-amir99/lms-progress-go/pkg/apperrors"
	"github.com/mo-amir99/lms-progress-go/pkg/request"
	"github.com/mo-amir99/lms-progress-go/pkg/response"
)

// Handler exposes the progress service over HTTP.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs a progress handler instance.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type updateRequest struct {
	Progress     *float64 `json:"progress" binding:"required"`
	LastPosition *float64 `json:"lastPosition" binding:"required"`
}

// List returns progress for all of the caller's active courses.
func (h *Handler) List(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	details, err := h.service.GetAllUserProgress(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.OK(c, details)
}

// Get returns the caller's progress in one course; data is null when not started.
func (h *Handler) Get(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	courseID, ok := request.UUIDParam(c, "courseId")
	if !ok {
		return
	}

	detail, err := h.service.GetCourseProgress(c.Request.Context(), userID, courseID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if detail == nil {
		response.Success(c, http.StatusOK, nil, "Course not started")
		return
	}

	response.OK(c, detail)
}

// Update records a watch event for a video.
func (h *Handler) Update(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	videoID, ok := request.UUIDParam(c, "videoId")
	if !ok {
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "Invalid progress payload.", string(apperrors.ErrValidation), err)
		return
	}
	if *req.LastPosition < 0 {
		_ = c.Error(ErrInvalidLastPosition)
		return
	}

	result, err := h.service.UpdateVideoProgress(c.Request.Context(), userID, videoID, UpdateInput{
		Progress:     *req.Progress,
		LastPosition: *req.LastPosition,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.OK(c, result)
}

// Reset deletes the caller's progress in a course.
func (h *Handler) Reset(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	courseID, ok := request.UUIDParam(c, "courseId")
	if !ok {
		return
	}

	if err := h.service.ResetProgress(c.Request.Context(), userID, courseID); err != nil {
		_ = c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, nil, "Progress reset")
}

func callerID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		_ = c.Error(apperrors.New("Authentication required.", http.StatusUnauthorized, apperrors.ErrUnauthorized, nil))
		c.Abort()
	}
	return userID, ok
}
