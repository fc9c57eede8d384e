package catalog

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mo-amir99/lms-progress-go/pkg/types"
)

// Course is the top level of the catalog tree.
type Course struct {
	types.BaseModel

	Title       string    `gorm:"type:varchar(200);not null" json:"title"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	Sections    []Section `gorm:"foreignKey:CourseID" json:"sections,omitempty"`
}

// TableName overrides the default table name.
func (Course) TableName() string { return "courses" }

// Section groups an ordered list of videos inside a course.
type Section struct {
	types.BaseModel

	CourseID uuid.UUID `gorm:"type:uuid;not null;column:course_id;index" json:"courseId"`
	Title    string    `gorm:"type:varchar(200);not null" json:"title"`
	Position int       `gorm:"not null;default:0;column:position" json:"position"`
	Videos   []Video   `gorm:"foreignKey:SectionID" json:"videos,omitempty"`
}

// TableName overrides the default table name.
func (Section) TableName() string { return "sections" }

// Video belongs to exactly one section.
type Video struct {
	types.BaseModel

	SectionID uuid.UUID `gorm:"type:uuid;not null;column:section_id;index" json:"sectionId"`
	Title     string    `gorm:"type:varchar(200);not null" json:"title"`
	Duration  int       `gorm:"not null;default:0" json:"duration"` // seconds
	Position  int       `gorm:"not null;default:0;column:position" json:"position"`
}

// TableName overrides the default table name.
func (Video) TableName() string { return "videos" }

// SectionOutline is the progress-relevant shape of a section: its id and the ids of its videos.
type SectionOutline struct {
	SectionID uuid.UUID   `json:"sectionId"`
	Title     string      `json:"title"`
	VideoIDs  []uuid.UUID `json:"videoIds"`
}

// CreateCourseInput carries data for creating a course.
type CreateCourseInput struct {
	Title       string
	Description *string
}

// CreateSectionInput carries data for creating a section.
type CreateSectionInput struct {
	CourseID uuid.UUID
	Title    string
	Position int
}

// CreateVideoInput carries data for creating a video.
type CreateVideoInput struct {
	SectionID uuid.UUID
	Title     string
	Duration  int
	Position  int
}

// CreateCourse inserts a new course.
func CreateCourse(db *gorm.DB, input CreateCourseInput) (Course, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return Course{}, ErrTitleRequired
	}

	course := Course{Title: title, Description: input.Description}
	if err := db.Create(&course).Error; err != nil {
		return Course{}, err
	}
	return course, nil
}

// CreateSection inserts a section into an existing course.
func CreateSection(db *gorm.DB, input CreateSectionInput) (Section, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return Section{}, ErrTitleRequired
	}
	if _, err := GetCourse(db, input.CourseID); err != nil {
		return Section{}, err
	}

	section := Section{CourseID: input.CourseID, Title: title, Position: input.Position}
	if err := db.Create(&section).Error; err != nil {
		return Section{}, err
	}
	return section, nil
}

// CreateVideo inserts a video into an existing section.
func CreateVideo(db *gorm.DB, input CreateVideoInput) (Video, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return Video{}, ErrTitleRequired
	}

	var section Section
	if err := db.First(&section, "id = ?", input.SectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Video{}, ErrSectionNotFound
		}
		return Video{}, err
	}

	video := Video{SectionID: input.SectionID, Title: title, Duration: input.Duration, Position: input.Position}
	if err := db.Create(&video).Error; err != nil {
		return Video{}, err
	}
	return video, nil
}

// GetCourse retrieves a course by ID.
func GetCourse(db *gorm.DB, id uuid.UUID) (Course, error) {
	var course Course
	if err := db.First(&course, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return course, ErrCourseNotFound
		}
		return course, err
	}
	return course, nil
}

// GetCourseTree retrieves a course with its sections and videos in display order.
func GetCourseTree(db *gorm.DB, id uuid.UUID) (Course, error) {
	var course Course
	err := db.
		Preload("Sections", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC, created_at ASC")
		}).
		Preload("Sections.Videos", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC, created_at ASC")
		}).
		First(&course, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return course, ErrCourseNotFound
		}
		return course, err
	}
	return course, nil
}

// Outline reads the current section/video structure of a course. A course with
// no sections (or an unknown course) yields an empty outline.
func Outline(db *gorm.DB, courseID uuid.UUID) ([]SectionOutline, error) {
	var sections []Section
	if err := db.
		Where("course_id = ?", courseID).
		Order("position ASC, created_at ASC").
		Find(&sections).Error; err != nil {
		return nil, err
	}

	outline := make([]SectionOutline, 0, len(sections))
	if len(sections) == 0 {
		return outline, nil
	}

	sectionIDs := make([]uuid.UUID, len(sections))
	for i, section := range sections {
		sectionIDs[i] = section.ID
	}

	var videos []Video
	if err := db.
		Select("id", "section_id").
		Where("section_id IN ?", sectionIDs).
		Order("position ASC, created_at ASC").
		Find(&videos).Error; err != nil {
		return nil, err
	}

	bySection := make(map[uuid.UUID][]uuid.UUID, len(sections))
	for _, video := range videos {
		bySection[video.SectionID] = append(bySection[video.SectionID], video.ID)
	}

	for _, section := range sections {
		ids := bySection[section.ID]
		if ids == nil {
			ids = []uuid.UUID{}
		}
		outline = append(outline, SectionOutline{SectionID: section.ID, Title: section.Title, VideoIDs: ids})
	}

	return outline, nil
}

// VideoCourseID resolves the course that owns a video through its section.
func VideoCourseID(db *gorm.DB, videoID uuid.UUID) (uuid.UUID, error) {
	var row struct {
		CourseID uuid.UUID
	}

	result := db.Table("videos").
		Select("sections.course_id AS course_id").
		Joins("JOIN sections ON sections.id = videos.section_id").
		Where("videos.id = ?", videoID).
		Limit(1).
		Scan(&row)
	if result.Error != nil {
		return uuid.Nil, result.Error
	}
	if result.RowsAffected == 0 || row.CourseID == uuid.Nil {
		return uuid.Nil, ErrVideoNotFound
	}

	return row.CourseID, nil
}
