package enrollment

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mo-amir99/lms-progress-go/pkg/pagination"
	"github.com/mo-amir99/lms-progress-go/pkg/types"
)

// Status values re-exported for callers that only import this package.
const (
	StatusActive    = types.EnrollmentStatusActive
	StatusCompleted = types.EnrollmentStatusCompleted
	StatusExpired   = types.EnrollmentStatusExpired
	StatusCancelled = types.EnrollmentStatusCancelled
)

// Enrollment links a user to a course. At most one row exists per pair.
type Enrollment struct {
	types.BaseModel

	UserID   uuid.UUID              `gorm:"type:uuid;not null;column:user_id;uniqueIndex:idx_enrollments_user_course" json:"userId"`
	CourseID uuid.UUID              `gorm:"type:uuid;not null;column:course_id;uniqueIndex:idx_enrollments_user_course" json:"courseId"`
	Status   types.EnrollmentStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index" json:"status"`
}

// TableName overrides the default table name.
func (Enrollment) TableName() string { return "enrollments" }

// Create enrolls a user in a course with the given status (ACTIVE when empty).
func Create(db *gorm.DB, userID, courseID uuid.UUID, status types.EnrollmentStatus) (Enrollment, error) {
	if status == "" {
		status = StatusActive
	}
	if !status.Valid() {
		return Enrollment{}, ErrInvalidStatus
	}

	record := Enrollment{UserID: userID, CourseID: courseID, Status: status}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record)
	if result.Error != nil {
		return Enrollment{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Enrollment{}, ErrAlreadyEnrolled
	}
	return record, nil
}

// Get returns the enrollment for a (user, course) pair.
func Get(db *gorm.DB, userID, courseID uuid.UUID) (Enrollment, error) {
	var record Enrollment
	err := db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return record, ErrEnrollmentNotFound
		}
		return record, err
	}
	return record, nil
}

// Complete marks the enrollment COMPLETED from any other status. It reports
// whether this call changed the row; an already completed enrollment is a no-op.
func Complete(db *gorm.DB, userID, courseID uuid.UUID) (bool, error) {
	result := db.Model(&Enrollment{}).
		Where("user_id = ? AND course_id = ? AND status <> ?", userID, courseID, StatusCompleted).
		Update("status", StatusCompleted)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SetStatus moves an existing enrollment to status.
func SetStatus(db *gorm.DB, userID, courseID uuid.UUID, status types.EnrollmentStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	result := db.Model(&Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEnrollmentNotFound
	}
	return nil
}

func byUser(db *gorm.DB, userID uuid.UUID, status types.EnrollmentStatus) (*gorm.DB, error) {
	query := db.Model(&Enrollment{}).Where("user_id = ?", userID)
	if status != "" {
		if !status.Valid() {
			return nil, ErrInvalidStatus
		}
		query = query.Where("status = ?", status)
	}
	return query, nil
}

// ListByUser returns a user's enrollments, optionally filtered by status, oldest first.
func ListByUser(db *gorm.DB, userID uuid.UUID, status types.EnrollmentStatus) ([]Enrollment, error) {
	query, err := byUser(db, userID, status)
	if err != nil {
		return nil, err
	}

	var records []Enrollment
	if err := query.Order("created_at ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// PageByUser returns one page of ListByUser together with the unpaged total.
func PageByUser(db *gorm.DB, userID uuid.UUID, status types.EnrollmentStatus, params pagination.Params) ([]Enrollment, int64, error) {
	query, err := byUser(db, userID, status)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	records := []Enrollment{}
	if err := query.Scopes(params.Scope).Order("created_at ASC").Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}
