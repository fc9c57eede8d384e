package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EnrollmentStatus represents the lifecycle state of a user's enrollment in a course.
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentStatusExpired   EnrollmentStatus = "EXPIRED"
	EnrollmentStatusCancelled EnrollmentStatus = "CANCELLED"
)

// Valid reports whether the status is one of the known enrollment states.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentStatusActive, EnrollmentStatusCompleted, EnrollmentStatusExpired, EnrollmentStatusCancelled:
		return true
	}
	return false
}

// BaseModel contains common fields for all models
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// BeforeCreate assigns a random UUID when the caller did not provide one.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
