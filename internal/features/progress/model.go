package progress

import (
	"time"

	"github.com/google/uuid"

	"github.com/mo-amir99/lms-progress-go/pkg/types"
)

// CourseProgress is the per (user, course) rollup. Progress is always the value
// recomputed from the linked video rows at the last write.
type CourseProgress struct {
	types.BaseModel

	UserID    uuid.UUID       `gorm:"type:uuid;not null;column:user_id;uniqueIndex:idx_course_progress_user_course" json:"userId"`
	CourseID  uuid.UUID       `gorm:"type:uuid;not null;column:course_id;uniqueIndex:idx_course_progress_user_course" json:"courseId"`
	Progress  float64         `gorm:"not null;default:0" json:"progress"`
	Completed bool            `gorm:"not null;default:false" json:"completed"`
	Videos    []VideoProgress `gorm:"foreignKey:CourseProgressID" json:"videos,omitempty"`
}

// TableName overrides the default table name.
func (CourseProgress) TableName() string { return "course_progress" }

// VideoProgress records how far a user got through one video.
type VideoProgress struct {
	types.BaseModel

	UserID           uuid.UUID `gorm:"type:uuid;not null;column:user_id;uniqueIndex:idx_video_progress_user_video" json:"userId"`
	VideoID          uuid.UUID `gorm:"type:uuid;not null;column:video_id;uniqueIndex:idx_video_progress_user_video" json:"videoId"`
	CourseProgressID uuid.UUID `gorm:"type:uuid;not null;column:course_progress_id;index" json:"courseProgressId"`
	Progress         float64   `gorm:"not null;default:0" json:"progress"`
	LastPosition     float64   `gorm:"not null;default:0;column:last_position" json:"lastPosition"`
	Watched          bool      `gorm:"not null;default:false" json:"watched"`
}

// TableName overrides the default table name.
func (VideoProgress) TableName() string { return "video_progress" }

// SectionProgress is the computed state of one catalog section.
type SectionProgress struct {
	SectionID     uuid.UUID `json:"sectionId"`
	Title         string    `json:"title"`
	Progress      float64   `json:"progress"`
	WatchedVideos int       `json:"watchedVideos"`
	TotalVideos   int       `json:"totalVideos"`
}

// CourseProgressDetail is a course rollup together with its per-section breakdown.
type CourseProgressDetail struct {
	ID        uuid.UUID         `json:"id"`
	UserID    uuid.UUID         `json:"userId"`
	CourseID  uuid.UUID         `json:"courseId"`
	Progress  float64           `json:"progress"`
	Completed bool              `json:"completed"`
	Sections  []SectionProgress `json:"sections"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// UpdateInput is a single watch event. Progress is a percentage and is stored
// as given; LastPosition is the resume offset in seconds.
type UpdateInput struct {
	Progress     float64
	LastPosition float64
}

// UpdateResult is returned by UpdateVideoProgress.
type UpdateResult struct {
	Video  VideoProgress        `json:"videoProgress"`
	Course CourseProgressDetail `json:"courseProgress"`
}
