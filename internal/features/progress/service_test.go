package progress

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/mo-amir99/lms-progress-go/internal/features/enrollment"
	"github.com/mo-amir99/lms-progress-go/pkg/apperrors"
	"github.com/mo-amir99/lms-progress-go/pkg/types"
)

func TestGetCourseProgressNotStarted(t *testing.T) {
	f := newFixture(t)
	userID, courseID := uuid.New(), f.course("Intro")
	f.enroll(userID, courseID, types.EnrollmentStatusActive)

	detail, err := f.service.GetCourseProgress(f.ctx, userID, courseID)
	require.NoError(t, err)
	assert.Nil(t, detail)
}

func TestGetCourseProgressRequiresEnrollment(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.GetCourseProgress(f.ctx, uuid.New(), f.course("Intro"))
	assert.ErrorIs(t, err, ErrNotEnrolled)
}

func TestZeroSectionCourseIsZero(t *testing.T) {
	f := newFixture(t)
	userID, courseID := uuid.New(), f.course("Empty")
	f.enroll(userID, courseID, types.EnrollmentStatusActive)

	_, err := f.store.LockCourseProgress(f.ctx, nil, userID, courseID)
	require.NoError(t, err)

	detail, err := f.service.GetCourseProgress(f.ctx, userID, courseID)
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, 0.0, detail.Progress)
	assert.False(t, detail.Completed)
	assert.Empty(t, detail.Sections)
}

func TestEmptySectionCountsAsZero(t *testing.T) {
	f := newFixture(t)
	userID, courseID := uuid.New(), f.course("Half")
	videos := f.videos(f.section(courseID, 1), 1)
	f.section(courseID, 2)
	f.enroll(userID, courseID, types.EnrollmentStatusActive)

	result := f.watch(userID, videos[0], 100)

	require.Len(t, result.Course.Sections, 2)
	assert.Equal(t, 100.0, result.Course.Sections[0].Progress)
	assert.Equal(t, 0.0, result.Course.Sections[1].Progress)
	assert.Equal(t, 0, result.Course.Sections[1].TotalVideos)
	assert.Equal(t, 50.0, result.Course.Progress)
}

func TestUnweightedAverage(t *testing.T) {
	f := newFixture(t)
	userID, courseID := uuid.New(), f.course("Uneven")
	a := f.videos(f.section(courseID, 1), 1)
	f.videos(f.section(courseID, 2), 2)
	f.enroll(userID, courseID, types.EnrollmentStatusActive)

	result := f.watch(userID, a[0], 95)

	assert.Equal(t, 100.0, result.Course.Sections[0].Progress)
	assert.Equal(t, 0.0, result.Course.Sections[1].Progress)
	assert.Equal(t, 50.0, result.Course.Progress)

	stored, err := f.store.FindCourseProgress(f.ctx, nil, userID, courseID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, stored.Progress)
	assert.False(t, stored.Completed)
	assert.Equal(t, types.EnrollmentStatusActive, f.status(userID, courseID))
}

func TestWatchedFlagBoundary(t *testing.T) {
	f := newFixture(t)
	userID, courseID := uuid.New(), f.course("Boundary")
	videos := f.videos(f.section(courseID, 1), 2)
	f.enroll(userID, courseID, types.EnrollmentStatusActive)

	below := f.watch(userID, videos[0], 89.999)
	assert.False(t, below.Video.Watched)
	assert.Equal(t, 89.999, below.Video.Progress)
	assert.Equal(t, 0.0, below.Course.Progress)

	at := f.watch(userID, videos[1], 90)
	assert.True(t, at.Video.Watched)
	assert.Equal(t, 50.0, at.Course.Progress)
}

func TestUpdateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	userID, courseID := uuid.New(), f.course("Repeat")
	videos := f.videos(f.section(courseID, 1), 3)
	f.enroll(userID, courseID, types.EnrollmentStatusActive)

	first := f.watch(userID, videos[0], 92)
	second := f.watch(userID, videos[0], 92)

	assert.Equal(t, first.Course.Progress, second.Course.Progress)
	assert.Equal(t, first.Video.ID, second.Video.ID)
	assert.Equal(t, int64(1), f.count(&VideoProgress{}))
	assert.Equal(t, int64(1), f.count(&CourseProgress{}))
}

func TestUpdateOverwritesLastWriteWins(t *testing.T) {
	f := newFixture(t)
	userID, courseID := uuid.New(), f.course("Rewatch")
	videos := f.videos(f.section(courseID, 1), 1)
	f.enroll(userID, courseID, types.EnrollmentStatusActive)

	f.watch(userID, videos[0], 95)
	result, err := f.service.UpdateVideoProgress(f.ctx, userID, videos[0], UpdateInput{Progress: 10, LastPosition: 4})
	require.NoError(t, err)

	assert.Equal(t, 10.0, result.Video.Progress)
	assert.Equal(t, 4.0, result.Video.LastPosition)
	assert.False(t, result.Video.Watched)
	assert.Equal(t, 0.0, result.Course.Progress)
	assert.False(t, result.Course.Completed)
	// Promotion is a ratchet.
	assert.Equal(t, types.EnrollmentStatusCompleted, f.status(userID, courseID))
}

func TestUpdatePassesOutOfRangeProgressThrough(t *testing.T) {
	f := newFixture(t)
	userID, courseID := uuid.New(), f.course("Overflow")
	videos := f.videos(f.section(courseID, 1), 1)
	f.enroll(userID, courseID, types.EnrollmentStatusActive)

	result := f.watch(userID, videos[0], 150)
	assert.Equal(t, 150.0, result.Video.Progress)
	assert.True(t, result.Video.Watched)
	assert.Equal(t, 100.0, result.Course.Progress)
}

func TestUpdateFailures(t *testing.T) {
	f := newFixture(t)
	userID, courseID := uuid.New(), f.course("Guarded")
	videos := f.videos(f.section(courseID, 1), 1)

	_, err := f.service.UpdateVideoProgress(f.ctx, userID, uuid.New(), UpdateInput{Progress: 50})
	assert.ErrorIs(t, err, ErrVideoNotFound)

	_, err = f.service.UpdateVideoProgress(f.ctx, userID, videos[0], UpdateInput{Progress: 50})
	assert.ErrorIs(t, err, ErrNotEnrolled)

	assert.Zero(t, f.count(&CourseProgress{}))
	assert.Zero(t, f.count(&VideoProgress{}))
}

func TestCompletionPromotesAndSurvivesReset(t *testing.T) {
	f := newFixture(t)
	userID, courseID := uuid.New(), f.course("Finish")
	videos := f.videos(f.section(courseID, 1), 2)
	f.enroll(userID, courseID, types.EnrollmentStatusActive)

	f.watch(userID, videos[0], 100)
	assert.Equal(t, types.EnrollmentStatusActive, f.status(userID, courseID))

	result := f.watch(userID, videos[1], 91)
	assert.True(t, result.Course.Completed)
	assert.Equal(t, types.EnrollmentStatusCompleted, f.status(userID, courseID))

	require.NoError(t, f.service.ResetProgress(f.ctx, userID, courseID))

	assert.Zero(t, f.count(&CourseProgress{}))
	assert.Zero(t, f.count(&VideoProgress{}))
	assert.Equal(t, types.EnrollmentStatusCompleted, f.status(userID, courseID))

	detail, err := f.service.GetCourseProgress(f.ctx, userID, courseID)
	require.NoError(t, err)
	assert.Nil(t, detail)

	// A second reset deletes nothing and still succeeds.
	require.NoError(t, f.service.ResetProgress(f.ctx, userID, courseID))
}

func TestPromotionOverridesInactiveStatus(t *testing.T) {
	f := newFixture(t)
	userID, courseID := uuid.New(), f.course("Lapsed")
	videos := f.videos(f.section(courseID, 1), 1)
	f.enroll(userID, courseID, types.EnrollmentStatusCancelled)

	f.watch(userID, videos[0], 100)
	assert.Equal(t, types.EnrollmentStatusCompleted, f.status(userID, courseID))
}

func TestResetWithoutEnrollmentDeletesNothing(t *testing.T) {
	f := newFixture(t)
	userID, courseID := uuid.New(), f.course("Stranger")
	videos := f.videos(f.section(courseID, 1), 1)

	record, err := f.store.LockCourseProgress(f.ctx, nil, userID, courseID)
	require.NoError(t, err)
	_, err = f.store.UpsertVideoProgress(f.ctx, nil, VideoProgress{
		UserID: userID, VideoID: videos[0], CourseProgressID: record.ID, Progress: 100, Watched: true,
	})
	require.NoError(t, err)

	err = f.service.ResetProgress(f.ctx, userID, courseID)
	assert.ErrorIs(t, err, ErrNotEnrolled)
	assert.Equal(t, int64(1), f.count(&CourseProgress{}))
	assert.Equal(t, int64(1), f.count(&VideoProgress{}))
}

func TestResetOnlyTouchesOneCourse(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	first, second := f.course("One"), f.course("Two")
	a := f.videos(f.section(first, 1), 1)
	b := f.videos(f.section(second, 1), 1)
	f.enroll(userID, first, types.EnrollmentStatusActive)
	f.enroll(userID, second, types.EnrollmentStatusActive)

	f.watch(userID, a[0], 50)
	f.watch(userID, b[0], 50)

	require.NoError(t, f.service.ResetProgress(f.ctx, userID, first))

	assert.Equal(t, int64(1), f.count(&CourseProgress{}))
	assert.Equal(t, int64(1), f.count(&VideoProgress{}))
	detail, err := f.service.GetCourseProgress(f.ctx, userID, second)
	require.NoError(t, err)
	require.NotNil(t, detail)
}

func TestGetAllUserProgressOnlyActive(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	active, expired, untouched := f.course("Active"), f.course("Expired"), f.course("Untouched")
	a := f.videos(f.section(active, 1), 2)
	e := f.videos(f.section(expired, 1), 2)
	f.videos(f.section(untouched, 1), 1)
	f.enroll(userID, active, types.EnrollmentStatusActive)
	f.enroll(userID, expired, types.EnrollmentStatusActive)
	f.enroll(userID, untouched, types.EnrollmentStatusActive)

	f.watch(userID, a[0], 100)
	f.watch(userID, e[0], 100)
	require.NoError(t, enrollment.SetStatus(f.db, userID, expired, types.EnrollmentStatusExpired))

	all, err := f.service.GetAllUserProgress(f.ctx, userID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, active, all[0].CourseID)
	assert.Equal(t, 50.0, all[0].Progress)

	none, err := f.service.GetAllUserProgress(f.ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCatalogChangesAreReadFresh(t *testing.T) {
	f := newFixture(t)
	userID, courseID := uuid.New(), f.course("Growing")
	videos := f.videos(f.section(courseID, 1), 1)
	f.enroll(userID, courseID, types.EnrollmentStatusActive)

	f.watch(userID, videos[0], 100)
	f.videos(f.section(courseID, 2), 3)

	detail, err := f.service.GetCourseProgress(f.ctx, userID, courseID)
	require.NoError(t, err)
	require.Len(t, detail.Sections, 2)
	assert.Equal(t, 50.0, detail.Progress)
	assert.False(t, detail.Completed)
}

// slowRollupStore pauses between reading the watched set and returning it, so
// an unserialized writer would save a rollup computed from a stale read.
type slowRollupStore struct {
	*Store
}

func (s slowRollupStore) WatchedVideoIDs(ctx context.Context, tx *gorm.DB, courseProgressID uuid.UUID) (map[uuid.UUID]bool, error) {
	watched, err := s.Store.WatchedVideoIDs(ctx, tx, courseProgressID)
	time.Sleep(2 * time.Millisecond)
	return watched, err
}

// completions reads the process-wide course completion counter.
func completions(t *testing.T) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == "lms_course_completions_total" {
			return family.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

func TestConcurrentUpdatesConverge(t *testing.T) {
	f := newFixture(t)
	service := f.withStore(slowRollupStore{Store: f.store})
	rng := rand.New(rand.NewSource(1015))

	for round := 0; round < 6; round++ {
		userID, courseID := uuid.New(), f.course("Busy")
		f.enroll(userID, courseID, types.EnrollmentStatusActive)

		// Round 0 is fifty videos all fully watched; later rounds draw random shapes
		// with empty sections and some videos left below the threshold.
		shape := []int{10, 10, 10, 10, 10}
		if round > 0 {
			shape = make([]int, 1+rng.Intn(4))
			for i := range shape {
				shape[i] = rng.Intn(8)
			}
			shape[0]++
		}

		type event struct {
			videoID  uuid.UUID
			progress float64
		}
		var events []event
		var expected float64
		for position, size := range shape {
			watched := 0
			for _, videoID := range f.videos(f.section(courseID, position), size) {
				progress := 100.0
				if round > 0 && rng.Intn(3) == 0 {
					progress = 40
				}
				if progress >= WatchedThreshold {
					watched++
				}
				events = append(events, event{videoID, progress})
			}
			if size > 0 {
				expected += float64(watched) / float64(size) * 100
			}
		}
		expected /= float64(len(shape))
		videoCount := len(events)

		// Replay a few events to check repeated writes do not skew the rollup.
		replays := 1 + rng.Intn(videoCount)
		for i := 0; i < replays; i++ {
			events = append(events, events[rng.Intn(videoCount)])
		}
		rng.Shuffle(len(events), func(i, j int) { events[i], events[j] = events[j], events[i] })

		before := completions(t)

		var g errgroup.Group
		for _, e := range events {
			g.Go(func() error {
				_, err := service.UpdateVideoProgress(f.ctx, userID, e.videoID, UpdateInput{Progress: e.progress, LastPosition: 600})
				return err
			})
		}
		require.NoError(t, g.Wait(), "round %d", round)

		stored, err := f.store.FindCourseProgress(f.ctx, nil, userID, courseID)
		require.NoError(t, err)
		require.NotNil(t, stored, "round %d", round)
		assert.InDelta(t, expected, stored.Progress, 1e-9, "round %d shape %v", round, shape)
		assert.Equal(t, expected >= WatchedThreshold, stored.Completed, "round %d", round)

		detail, err := service.GetCourseProgress(f.ctx, userID, courseID)
		require.NoError(t, err)
		assert.InDelta(t, stored.Progress, detail.Progress, 1e-9, "round %d", round)

		var rows int64
		require.NoError(t, f.db.Model(&VideoProgress{}).Where("user_id = ?", userID).Count(&rows).Error)
		assert.Equal(t, int64(videoCount), rows, "round %d", round)

		if expected >= WatchedThreshold {
			assert.Equal(t, types.EnrollmentStatusCompleted, f.status(userID, courseID), "round %d", round)
			assert.Equal(t, before+1, completions(t), "round %d", round)
		} else {
			assert.Equal(t, types.EnrollmentStatusActive, f.status(userID, courseID), "round %d", round)
			assert.Equal(t, before, completions(t), "round %d", round)
		}
		assert.Zero(t, service.locks.Len())
	}
}

func TestUpdateRelinksStaleVideoRow(t *testing.T) {
	f := newFixture(t)
	userID, courseID := uuid.New(), f.course("Relinked")
	videos := f.videos(f.section(courseID, 1), 1)
	f.enroll(userID, courseID, types.EnrollmentStatusActive)

	// A video row pointing at a course progress row that no longer exists.
	_, err := f.store.UpsertVideoProgress(f.ctx, nil, VideoProgress{
		UserID: userID, VideoID: videos[0], CourseProgressID: uuid.New(), Progress: 100, Watched: true,
	})
	require.NoError(t, err)

	result := f.watch(userID, videos[0], 100)
	assert.Equal(t, result.Course.ID, result.Video.CourseProgressID)
	assert.Equal(t, 100.0, result.Course.Progress)
	assert.True(t, result.Course.Completed)

	require.NoError(t, f.service.ResetProgress(f.ctx, userID, courseID))
	assert.Zero(t, f.count(&VideoProgress{}))
	assert.Zero(t, f.count(&CourseProgress{}))
}

func TestRepeatedCompletionCountsOnce(t *testing.T) {
	f := newFixture(t)
	userID, courseID := uuid.New(), f.course("Rewatched")
	videos := f.videos(f.section(courseID, 1), 1)
	f.enroll(userID, courseID, types.EnrollmentStatusActive)

	before := completions(t)
	f.watch(userID, videos[0], 100)
	f.watch(userID, videos[0], 95)
	require.NoError(t, f.service.ResetProgress(f.ctx, userID, courseID))
	f.watch(userID, videos[0], 100)

	assert.Equal(t, before+1, completions(t))
	assert.Equal(t, types.EnrollmentStatusCompleted, f.status(userID, courseID))
}

// vanishingStore loses the course row between the upsert and the read-back.
type vanishingStore struct {
	*Store
}

func (s vanishingStore) FindCourseProgress(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*CourseProgress, error) {
	if tx != nil {
		return nil, nil
	}
	return s.Store.FindCourseProgress(ctx, tx, userID, courseID)
}

func TestUpdateReportsMissingCourseProgress(t *testing.T) {
	f := newFixture(t)
	userID, courseID := uuid.New(), f.course("Ghost")
	videos := f.videos(f.section(courseID, 1), 1)
	f.enroll(userID, courseID, types.EnrollmentStatusActive)

	service := f.withStore(vanishingStore{Store: f.store})
	_, err := service.UpdateVideoProgress(f.ctx, userID, videos[0], UpdateInput{Progress: 100})

	require.ErrorIs(t, err, ErrCourseProgressMissing)
	assert.Zero(t, f.count(&VideoProgress{}), "transaction must roll back")
	assert.Zero(t, f.count(&CourseProgress{}))
}

// failingStore fails every rollup write.
type failingStore struct {
	*Store
}

var errDiskFull = errors.New("disk full")

func (failingStore) SaveRollup(context.Context, *gorm.DB, uuid.UUID, float64, bool) error {
	return errDiskFull
}

func TestUpdateWrapsPersistenceFailure(t *testing.T) {
	f := newFixture(t)
	userID, courseID := uuid.New(), f.course("Broken")
	videos := f.videos(f.section(courseID, 1), 1)
	f.enroll(userID, courseID, types.EnrollmentStatusActive)

	service := f.withStore(failingStore{Store: f.store})
	_, err := service.UpdateVideoProgress(f.ctx, userID, videos[0], UpdateInput{Progress: 100})

	require.ErrorIs(t, err, ErrPersistenceFailure)
	assert.ErrorIs(t, err, errDiskFull)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusInternalServerError, appErr.StatusCode())

	assert.Zero(t, f.count(&VideoProgress{}))
	assert.Equal(t, types.EnrollmentStatusActive, f.status(userID, courseID))
}
