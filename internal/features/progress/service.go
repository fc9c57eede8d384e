package progress

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/mo-amir99/lms-progress-go/internal/features/catalog"
	"github.com/mo-amir99/lms-progress-go/internal/features/enrollment"
	"github.com/mo-amir99/lms-progress-go/pkg/keylock"
	"github.com/mo-amir99/lms-progress-go/pkg/metrics"
	"github.com/mo-amir99/lms-progress-go/pkg/types"
)

// CatalogReader is the read-only view of the course catalog.
type CatalogReader interface {
	SectionsWithVideos(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]catalog.SectionOutline, error)
	VideoCourseID(ctx context.Context, tx *gorm.DB, videoID uuid.UUID) (uuid.UUID, error)
}

// EnrollmentStore looks up and updates enrollment status.
type EnrollmentStore interface {
	Find(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (enrollment.Enrollment, error)
	Complete(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (bool, error)
	ListByStatus(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status types.EnrollmentStatus) ([]enrollment.Enrollment, error)
}

// ProgressStore is the persistence the service needs. *Store implements it.
type ProgressStore interface {
	FindCourseProgress(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*CourseProgress, error)
	LockCourseProgress(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*CourseProgress, error)
	UpsertVideoProgress(ctx context.Context, tx *gorm.DB, row VideoProgress) (*VideoProgress, error)
	WatchedVideoIDs(ctx context.Context, tx *gorm.DB, courseProgressID uuid.UUID) (map[uuid.UUID]bool, error)
	SaveRollup(ctx context.Context, tx *gorm.DB, courseProgressID uuid.UUID, progress float64, completed bool) error
	DeleteCourseProgress(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (int64, error)
	ListCourseProgress(ctx context.Context, tx *gorm.DB, userID uuid.UUID, courseIDs []uuid.UUID) ([]CourseProgress, error)
}

// maxParallelRollups bounds concurrent rollups in GetAllUserProgress.
const maxParallelRollups = 4

// Service aggregates video watch events into section and course progress and
// promotes enrollments once a course crosses WatchedThreshold.
//
// Writes for the same (user, course) are serialized twice: by an in-process key
// lock and by a row lock on the course progress row inside the transaction, so
// several server instances sharing one database stay consistent.
type Service struct {
	db          *gorm.DB
	store       ProgressStore
	catalog     CatalogReader
	enrollments EnrollmentStore
	locks       *keylock.Locker
	logger      *slog.Logger
}

// NewService builds a Service. It holds no per-request state and is safe for concurrent use.
func NewService(db *gorm.DB, store ProgressStore, reader CatalogReader, enrollments EnrollmentStore, logger *slog.Logger) *Service {
	return &Service{
		db:          db,
		store:       store,
		catalog:     reader,
		enrollments: enrollments,
		locks:       keylock.New(),
		logger:      logger,
	}
}

// GetCourseProgress returns the current rollup, or nil when the user has not started the course.
func (s *Service) GetCourseProgress(ctx context.Context, userID, courseID uuid.UUID) (*CourseProgressDetail, error) {
	if _, err := s.requireEnrollment(ctx, nil, userID, courseID); err != nil {
		return nil, err
	}

	record, err := s.store.FindCourseProgress(ctx, nil, userID, courseID)
	if err != nil {
		return nil, persistenceError("load course progress", err)
	}
	if record == nil {
		return nil, nil
	}

	return s.rollup(ctx, nil, record)
}

// UpdateVideoProgress records a watch event and recomputes the course rollup.
func (s *Service) UpdateVideoProgress(ctx context.Context, userID, videoID uuid.UUID, input UpdateInput) (*UpdateResult, error) {
	result, err := s.updateVideoProgress(ctx, userID, videoID, input)
	metrics.RecordProgressUpdate(outcome(err))
	return result, err
}

func (s *Service) updateVideoProgress(ctx context.Context, userID, videoID uuid.UUID, input UpdateInput) (*UpdateResult, error) {
	courseID, err := s.catalog.VideoCourseID(ctx, nil, videoID)
	if err != nil {
		if errors.Is(err, catalog.ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, persistenceError("resolve video", err)
	}

	current, err := s.requireEnrollment(ctx, nil, userID, courseID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userID.String() + ":" + courseID.String())
	defer unlock()

	var result UpdateResult
	promoted := false

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := s.store.LockCourseProgress(ctx, tx, userID, courseID)
		if err != nil {
			return persistenceError("open course progress", err)
		}

		video, err := s.store.UpsertVideoProgress(ctx, tx, VideoProgress{
			UserID:           userID,
			VideoID:          videoID,
			CourseProgressID: record.ID,
			Progress:         input.Progress,
			LastPosition:     input.LastPosition,
			Watched:          IsWatched(input.Progress),
		})
		if err != nil {
			return persistenceError("save video progress", err)
		}

		record, err = s.store.FindCourseProgress(ctx, tx, userID, courseID)
		if err != nil {
			return persistenceError("reload course progress", err)
		}
		if record == nil {
			return ErrCourseProgressMissing
		}

		detail, err := s.rollup(ctx, tx, record)
		if err != nil {
			return err
		}

		if err := s.store.SaveRollup(ctx, tx, record.ID, detail.Progress, detail.Completed); err != nil {
			return persistenceError("save course progress", err)
		}

		if detail.Completed {
			promoted, err = s.enrollments.Complete(ctx, tx, userID, courseID)
			if err != nil {
				return persistenceError("complete enrollment", err)
			}
		}

		result = UpdateResult{Video: *video, Course: *detail}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if promoted {
		metrics.RecordCourseCompletion()
		s.logger.Info("course completed",
			slog.String("userId", userID.String()),
			slog.String("courseId", courseID.String()),
			slog.String("previousStatus", string(current.Status)),
		)
	}

	return &result, nil
}

// ResetProgress deletes every progress row of the user in the course. The
// enrollment status is left untouched, so a completed course stays completed.
func (s *Service) ResetProgress(ctx context.Context, userID, courseID uuid.UUID) error {
	if _, err := s.requireEnrollment(ctx, nil, userID, courseID); err != nil {
		return err
	}

	unlock := s.locks.Lock(userID.String() + ":" + courseID.String())
	defer unlock()

	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		deleted, err = s.store.DeleteCourseProgress(ctx, tx, userID, courseID)
		return err
	})
	if err != nil {
		return persistenceError("reset course progress", err)
	}

	metrics.RecordProgressReset()
	s.logger.Debug("course progress reset",
		slog.String("userId", userID.String()),
		slog.String("courseId", courseID.String()),
		slog.Int64("videoRows", deleted),
	)
	return nil
}

// GetAllUserProgress returns rollups for the user's ACTIVE enrollments that have
// recorded progress, in enrollment order.
func (s *Service) GetAllUserProgress(ctx context.Context, userID uuid.UUID) ([]CourseProgressDetail, error) {
	active, err := s.enrollments.ListByStatus(ctx, nil, userID, types.EnrollmentStatusActive)
	if err != nil {
		return nil, persistenceError("list enrollments", err)
	}

	courseIDs := make([]uuid.UUID, len(active))
	for i, item := range active {
		courseIDs[i] = item.CourseID
	}

	records, err := s.store.ListCourseProgress(ctx, nil, userID, courseIDs)
	if err != nil {
		return nil, persistenceError("list course progress", err)
	}

	byCourse := make(map[uuid.UUID]CourseProgress, len(records))
	for _, record := range records {
		byCourse[record.CourseID] = record
	}

	details := make([]*CourseProgressDetail, len(courseIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelRollups)
	for i, courseID := range courseIDs {
		record, ok := byCourse[courseID]
		if !ok {
			continue
		}
		g.Go(func() error {
			detail, err := s.rollup(gctx, nil, &record)
			if err != nil {
				return err
			}
			details[i] = detail
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]CourseProgressDetail, 0, len(records))
	for _, detail := range details {
		if detail != nil {
			out = append(out, *detail)
		}
	}
	return out, nil
}

// rollup recomputes the course detail from the live catalog outline.
func (s *Service) rollup(ctx context.Context, tx *gorm.DB, record *CourseProgress) (*CourseProgressDetail, error) {
	outline, err := s.catalog.SectionsWithVideos(ctx, tx, record.CourseID)
	if err != nil {
		return nil, persistenceError("load course outline", err)
	}

	watched, err := s.store.WatchedVideoIDs(ctx, tx, record.ID)
	if err != nil {
		return nil, persistenceError("load video progress", err)
	}

	sections := rollupSections(outline, watched)
	overall := OverallPercent(sections)

	return &CourseProgressDetail{
		ID:        record.ID,
		UserID:    record.UserID,
		CourseID:  record.CourseID,
		Progress:  overall,
		Completed: IsWatched(overall),
		Sections:  sections,
		UpdatedAt: record.UpdatedAt,
	}, nil
}

func (s *Service) requireEnrollment(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (enrollment.Enrollment, error) {
	record, err := s.enrollments.Find(ctx, tx, userID, courseID)
	if err != nil {
		if errors.Is(err, enrollment.ErrEnrollmentNotFound) {
			return record, ErrNotEnrolled
		}
		return record, persistenceError("check enrollment", err)
	}
	return record, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotEnrolled):
		return "not_enrolled"
	case errors.Is(err, ErrVideoNotFound):
		return "video_not_found"
	default:
		return "error"
	}
}
