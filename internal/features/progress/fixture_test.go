package progress

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mo-amir99/lms-progress-go/internal/features/catalog"
	"github.com/mo-amir99/lms-progress-go/internal/features/enrollment"
	"github.com/mo-amir99/lms-progress-go/internal/testutil"
	"github.com/mo-amir99/lms-progress-go/pkg/types"
)

type fixture struct {
	t       *testing.T
	ctx     context.Context
	db      *gorm.DB
	store   *Store
	service *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t,
		&catalog.Course{}, &catalog.Section{}, &catalog.Video{},
		&enrollment.Enrollment{},
		&CourseProgress{}, &VideoProgress{},
	)
	store := NewStore(db)

	return &fixture{
		t:       t,
		ctx:     context.Background(),
		db:      db,
		store:   store,
		service: NewService(db, store, catalog.NewReader(db, nil), enrollment.NewStore(db), testutil.Logger()),
	}
}

// withStore swaps the progress store, keeping the real catalog and enrollment collaborators.
func (f *fixture) withStore(store ProgressStore) *Service {
	return NewService(f.db, store, catalog.NewReader(f.db, nil), enrollment.NewStore(f.db), testutil.Logger())
}

func (f *fixture) course(title string) uuid.UUID {
	f.t.Helper()
	course, err := catalog.CreateCourse(f.db, catalog.CreateCourseInput{Title: title})
	require.NoError(f.t, err)
	return course.ID
}

func (f *fixture) section(courseID uuid.UUID, position int) uuid.UUID {
	f.t.Helper()
	section, err := catalog.CreateSection(f.db, catalog.CreateSectionInput{CourseID: courseID, Title: "Section", Position: position})
	require.NoError(f.t, err)
	return section.ID
}

// videos adds n videos to a section and returns their ids in order.
func (f *fixture) videos(sectionID uuid.UUID, n int) []uuid.UUID {
	f.t.Helper()
	ids := make([]uuid.UUID, n)
	for i := range ids {
		video, err := catalog.CreateVideo(f.db, catalog.CreateVideoInput{SectionID: sectionID, Title: "Video", Position: i})
		require.NoError(f.t, err)
		ids[i] = video.ID
	}
	return ids
}

func (f *fixture) enroll(userID, courseID uuid.UUID, status types.EnrollmentStatus) {
	f.t.Helper()
	_, err := enrollment.Create(f.db, userID, courseID, status)
	require.NoError(f.t, err)
}

func (f *fixture) status(userID, courseID uuid.UUID) types.EnrollmentStatus {
	f.t.Helper()
	record, err := enrollment.Get(f.db, userID, courseID)
	require.NoError(f.t, err)
	return record.Status
}

func (f *fixture) watch(userID, videoID uuid.UUID, progress float64) *UpdateResult {
	f.t.Helper()
	result, err := f.service.UpdateVideoProgress(f.ctx, userID, videoID, UpdateInput{Progress: progress, LastPosition: 30})
	require.NoError(f.t, err)
	return result
}

func (f *fixture) count(model interface{}) int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Model(model).Count(&n).Error)
	return n
}
