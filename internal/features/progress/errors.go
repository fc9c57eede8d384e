package progress

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/mo-amir99/lms-progress-go/pkg/apperrors"
)

var (
	ErrNotEnrolled           = apperrors.New("You are not enrolled in this course.", http.StatusForbidden, apperrors.ErrForbidden, nil)
	ErrVideoNotFound         = apperrors.New("Video not found.", http.StatusNotFound, apperrors.ErrNotFound, nil)
	ErrCourseProgressMissing = apperrors.New("Course progress could not be read back.", http.StatusInternalServerError, apperrors.ErrInternal, nil)
	ErrInvalidLastPosition   = apperrors.New("lastPosition must be a non-negative number of seconds.", http.StatusBadRequest, apperrors.ErrValidation, nil)

	// ErrPersistenceFailure marks store errors. It is always wrapped in a 500 AppError.
	ErrPersistenceFailure = errors.New("progress persistence failure")
)

// persistenceError wraps a store error unless it already is an application error.
func persistenceError(action string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Internal("Failed to "+action+".", fmt.Errorf("%w: %w", ErrPersistenceFailure, err))
}
