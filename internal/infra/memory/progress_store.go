package memory

import (
	"context"
	"slices"
	"sync"

	"curriculum-service/internal/domain"
)

// ProgressStore keeps learner progress records in memory.
type ProgressStore struct {
	mu       sync.RWMutex
	lectures map[domain.ProgressKey]domain.LectureProgress
	quizzes  map[domain.ProgressKey]domain.QuizProgress
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{
		lectures: make(map[domain.ProgressKey]domain.LectureProgress),
		quizzes:  make(map[domain.ProgressKey]domain.QuizProgress),
	}
}

func (s *ProgressStore) GetLectureProgress(_ context.Context, key domain.ProgressKey) (domain.LectureProgress, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.lectures[key]
	return p, ok, nil
}

func (s *ProgressStore) SaveLectureProgress(_ context.Context, progress domain.LectureProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.lectures[progress.ProgressKey]; ok && existing.Completed {
		progress.Completed = true
		progress.Progress = 100
	}
	s.lectures[progress.ProgressKey] = progress
	return nil
}

func (s *ProgressStore) GetQuizProgress(_ context.Context, key domain.ProgressKey) (domain.QuizProgress, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.quizzes[key]
	if ok {
		p.Answers = slices.Clone(p.Answers)
	}
	return p, ok, nil
}

func (s *ProgressStore) SaveQuizProgress(_ context.Context, progress domain.QuizProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.quizzes[progress.ProgressKey]; ok && existing.Completed {
		return domain.ErrQuizCompleted
	}
	progress.Answers = slices.Clone(progress.Answers)
	s.quizzes[progress.ProgressKey] = progress
	return nil
}

// CompletedLectures lists the completed lecture ids of a user in a course.
func (s *ProgressStore) CompletedLectures(_ context.Context, userID, courseID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for key, p := range s.lectures {
		if key.UserID == userID && key.CourseID == courseID && p.Completed {
			ids = append(ids, key.LectureID)
		}
	}
	slices.Sort(ids)
	return ids, nil
}
