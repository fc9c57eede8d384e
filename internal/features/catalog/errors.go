package catalog

import (
	"net/http"

	"github.com/mo-amir99/lms-progress-go/pkg/apperrors"
)

var (
	ErrCourseNotFound  = apperrors.New("Course not found.", http.StatusNotFound, apperrors.ErrNotFound, nil)
	ErrSectionNotFound = apperrors.New("Section not found.", http.StatusNotFound, apperrors.ErrNotFound, nil)
	ErrVideoNotFound   = apperrors.New("Video not found.", http.StatusNotFound, apperrors.ErrNotFound, nil)
	ErrTitleRequired   = apperrors.New("Title is required.", http.StatusBadRequest, apperrors.ErrValidation, nil)
)
