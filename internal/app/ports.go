package app

import (
	"context"

	"curriculum-service/internal/domain"
)

// CurriculumStore is the transactional storage of courses and their trees.
type CurriculumStore interface {
	GetCourse(ctx context.Context, courseID string) (domain.Course, error)
	LoadCurriculum(ctx context.Context, courseID string) (domain.Curriculum, error)
	// Reconcile applies a change atomically: either all of it is committed or nothing is.
	Reconcile(ctx context.Context, change domain.CurriculumChange) error
}

// CurriculumRepository serves curriculum snapshots, usually from a cache.
type CurriculumRepository interface {
	GetCurriculum(ctx context.Context, courseID string) (domain.Curriculum, error)
	Invalidate(ctx context.Context, courseID string) error
}

// ProgressStore persists learner progress records.
type ProgressStore interface {
	GetLectureProgress(ctx context.Context, key domain.ProgressKey) (domain.LectureProgress, bool, error)
	SaveLectureProgress(ctx context.Context, progress domain.LectureProgress) error
	GetQuizProgress(ctx context.Context, key domain.ProgressKey) (domain.QuizProgress, bool, error)
	// SaveQuizProgress returns domain.ErrQuizCompleted when the stored record is already completed.
	SaveQuizProgress(ctx context.Context, progress domain.QuizProgress) error
	CompletedLectures(ctx context.Context, userID, courseID string) ([]string, error)
}
