package progress

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists progress rows with gorm. Every method accepts an optional
// transaction; a nil tx runs against the store's own connection.
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

// FindCourseProgress returns the row for (user, course) or nil when none exists.
func (s *Store) FindCourseProgress(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*CourseProgress, error) {
	var record CourseProgress
	err := s.conn(ctx, tx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// LockCourseProgress creates the (user, course) row at zero progress when missing
// and returns it locked for update until tx ends.
func (s *Store) LockCourseProgress(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*CourseProgress, error) {
	db := s.conn(ctx, tx)

	seed := CourseProgress{UserID: userID, CourseID: courseID}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoNothing: true,
	}).Create(&seed).Error; err != nil {
		return nil, err
	}

	var record CourseProgress
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// UpsertVideoProgress writes the (user, video) row. An existing row has its
// progress fields overwritten and is re-linked to row.CourseProgressID.
func (s *Store) UpsertVideoProgress(ctx context.Context, tx *gorm.DB, row VideoProgress) (*VideoProgress, error) {
	db := s.conn(ctx, tx)

	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "video_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"course_progress_id", "progress", "last_position", "watched", "updated_at"}),
	}).Create(&row).Error; err != nil {
		return nil, err
	}

	var stored VideoProgress
	if err := db.Where("user_id = ? AND video_id = ?", row.UserID, row.VideoID).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// WatchedVideoIDs returns the ids of watched videos linked to a course progress row.
func (s *Store) WatchedVideoIDs(ctx context.Context, tx *gorm.DB, courseProgressID uuid.UUID) (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	if err := s.conn(ctx, tx).
		Model(&VideoProgress{}).
		Where("course_progress_id = ? AND watched = ?", courseProgressID, true).
		Pluck("video_id", &ids).Error; err != nil {
		return nil, err
	}

	watched := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		watched[id] = true
	}
	return watched, nil
}

// SaveRollup stores the recomputed course percentage and completion flag.
func (s *Store) SaveRollup(ctx context.Context, tx *gorm.DB, courseProgressID uuid.UUID, progress float64, completed bool) error {
	return s.conn(ctx, tx).
		Model(&CourseProgress{}).
		Where("id = ?", courseProgressID).
		Updates(map[string]interface{}{
			"progress":   progress,
			"completed":  completed,
			"updated_at": time.Now(),
		}).Error
}

// DeleteCourseProgress removes the linked video rows first and then the course row.
// The course row is locked for update first so a concurrent writer cannot link
// new video rows to it mid-delete. It reports how many video rows were deleted.
func (s *Store) DeleteCourseProgress(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (int64, error) {
	db := s.conn(ctx, tx)

	var record CourseProgress
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}

	videos := db.Where("course_progress_id = ?", record.ID).Delete(&VideoProgress{})
	if videos.Error != nil {
		return 0, videos.Error
	}

	if err := db.Where("id = ?", record.ID).Delete(&CourseProgress{}).Error; err != nil {
		return 0, err
	}
	return videos.RowsAffected, nil
}

// ListCourseProgress returns the user's rows for the given courses.
func (s *Store) ListCourseProgress(ctx context.Context, tx *gorm.DB, userID uuid.UUID, courseIDs []uuid.UUID) ([]CourseProgress, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}

	var records []CourseProgress
	if err := s.conn(ctx, tx).
		Where("user_id = ? AND course_id IN ?", userID, courseIDs).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
