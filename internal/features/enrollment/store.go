package enrollment

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mo-amir99/lms-progress-go/pkg/types"
)

// Store adapts the package functions to callers that may hold a transaction.
// A nil tx runs against the store's own connection.
type Store struct {
	db *gorm.DB
}

// NewStore wires a Store to db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return s.db.WithContext(ctx)
}

// Find returns the enrollment or ErrEnrollmentNotFound.
func (s *Store) Find(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (Enrollment, error) {
	return Get(s.conn(ctx, tx), userID, courseID)
}

// SetStatus updates the enrollment status.
func (s *Store) SetStatus(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID, status types.EnrollmentStatus) error {
	return SetStatus(s.conn(ctx, tx), userID, courseID, status)
}

// Complete promotes the enrollment to COMPLETED and reports whether it changed.
func (s *Store) Complete(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (bool, error) {
	return Complete(s.conn(ctx, tx), userID, courseID)
}

// ListByStatus returns the user's enrollments in the given status.
func (s *Store) ListByStatus(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status types.EnrollmentStatus) ([]Enrollment, error) {
	return ListByUser(s.conn(ctx, tx), userID, status)
}
