package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mo-amir99/lms-progress-go/pkg/memory"
)

// Reader exposes the read-only catalog lookups the progress engine depends on.
// Video ownership rarely changes, so positive lookups are kept in a short-lived
// cache; section structure is always read fresh.
type Reader struct {
	db     *gorm.DB
	owners *memory.Cache
}

// NewReader builds a Reader. A nil cache disables ownership caching.
func NewReader(db *gorm.DB, owners *memory.Cache) *Reader {
	return &Reader{db: db, owners: owners}
}

func (r *Reader) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

// SectionsWithVideos returns the course's current section outline.
func (r *Reader) SectionsWithVideos(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]SectionOutline, error) {
	return Outline(r.conn(ctx, tx), courseID)
}

// VideoCourseID returns the id of the course owning videoID or ErrVideoNotFound.
func (r *Reader) VideoCourseID(ctx context.Context, tx *gorm.DB, videoID uuid.UUID) (uuid.UUID, error) {
	if r.owners == nil {
		return VideoCourseID(r.conn(ctx, tx), videoID)
	}

	value, err := r.owners.GetOrSet("video-course:"+videoID.String(), func() (interface{}, error) {
		return VideoCourseID(r.conn(ctx, tx), videoID)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return value.(uuid.UUID), nil
}
