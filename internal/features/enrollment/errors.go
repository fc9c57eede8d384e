package enrollment

import (
	"net/http"

	"github.com/mo-amir99/lms-progress-go/pkg/apperrors"
)

var (
	ErrEnrollmentNotFound = apperrors.New("Enrollment not found.", http.StatusNotFound, apperrors.ErrNotFound, nil)
	ErrInvalidStatus      = apperrors.New("Invalid enrollment status.", http.StatusBadRequest, apperrors.ErrValidation, nil)
	ErrAlreadyEnrolled    = apperrors.New("User is already enrolled in this course.", http.StatusConflict, apperrors.ErrConflict, nil)
)
