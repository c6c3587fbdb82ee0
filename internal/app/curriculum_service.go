package app

import (
	"context"
	"errors"

	"curriculum-service/internal/domain"
	"curriculum-service/internal/metrics"
	"go.uber.org/zap"
)

// CurriculumService loads curricula and reconciles edited trees into storage.
type CurriculumService struct {
	store     CurriculumStore
	curricula CurriculumRepository
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

func NewCurriculumService(store CurriculumStore, curricula CurriculumRepository, logger *zap.Logger, m *metrics.Metrics) *CurriculumService {
	return &CurriculumService{store: store, curricula: curricula, logger: logger, metrics: m}
}

// LoadCurriculum returns the stored tree of a course.
func (s *CurriculumService) LoadCurriculum(ctx context.Context, courseID string) (domain.Curriculum, error) {
	c, err := s.curricula.GetCurriculum(ctx, courseID)
	if err != nil {
		return domain.Curriculum{}, domain.Persistence("load curriculum", err)
	}
	return c, nil
}

// SaveCurriculum checks that userID owns the course, reconciles the change in
// one transaction and returns the stored snapshot. The change is expected to
// be validated by the caller.
func (s *CurriculumService) SaveCurriculum(ctx context.Context, userID string, change domain.CurriculumChange) (domain.Curriculum, error) {
	log := s.logger.With(zap.String("course_id", change.CourseID), zap.String("user_id", userID))

	course, err := s.store.GetCourse(ctx, change.CourseID)
	if err != nil {
		err = domain.Persistence("get course", err)
		s.metrics.CurriculumSave(saveResult(err))
		return domain.Curriculum{}, err
	}
	if course.OwnerID != userID {
		s.metrics.CurriculumSave("forbidden")
		log.Warn("curriculum save rejected: not the course owner")
		return domain.Curriculum{}, &domain.AuthorizationError{UserID: userID, CourseID: change.CourseID}
	}

	if err := s.store.Reconcile(ctx, change); err != nil {
		err = domain.Persistence("reconcile curriculum", err)
		s.metrics.CurriculumSave(saveResult(err))
		log.Error("curriculum save failed", zap.Error(err))
		return domain.Curriculum{}, err
	}
	s.metrics.CurriculumSave("ok")

	if err := s.curricula.Invalidate(ctx, change.CourseID); err != nil {
		log.Warn("curriculum cache invalidation failed", zap.Error(err))
	}

	stored, err := s.store.LoadCurriculum(ctx, change.CourseID)
	if err != nil {
		return domain.Curriculum{}, domain.Persistence("reload curriculum", err)
	}
	log.Info("curriculum saved",
		zap.Int("sections", len(stored.Sections)),
		zap.Int("lectures", stored.LectureCount()),
		zap.Int("deleted_sections", len(change.DeletedSections)),
		zap.Int("deleted_lectures", len(change.DeletedLectures)),
	)
	return stored, nil
}

func saveResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}
