package app

import (
	"context"
	"errors"
	"math"
	"time"

	"curriculum-service/internal/domain"
	"curriculum-service/internal/metrics"
	"go.uber.org/zap"
)

// ProgressService records lecture progress and scores quizzes.
type ProgressService struct {
	store     ProgressStore
	curricula CurriculumRepository
	logger    *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewProgressService(store ProgressStore, curricula CurriculumRepository, logger *zap.Logger, m *metrics.Metrics) *ProgressService {
	return &ProgressService{
		store:     store,
		curricula: curricula,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

// RecordVideoProgress stores currentTime/duration as a percentage.
func (s *ProgressService) RecordVideoProgress(ctx context.Context, key domain.ProgressKey, currentTime, duration float64) (domain.LectureProgress, error) {
	if duration <= 0 || math.IsNaN(currentTime) || math.IsNaN(duration) {
		verr := &domain.ValidationError{}
		verr.Add("duration", "duration must be positive")
		return domain.LectureProgress{}, verr
	}
	pct := math.Max(0, math.Min(100, currentTime/duration*100))
	return s.SaveLectureProgress(ctx, key, pct, pct >= 100)
}

// VideoEnded marks a video lecture as fully watched.
func (s *ProgressService) VideoEnded(ctx context.Context, key domain.ProgressKey) (domain.LectureProgress, error) {
	return s.SaveLectureProgress(ctx, key, 100, true)
}

// MarkComplete is the explicit completion action used by exercises.
func (s *ProgressService) MarkComplete(ctx context.Context, key domain.ProgressKey) (domain.LectureProgress, error) {
	return s.SaveLectureProgress(ctx, key, 100, true)
}

// SaveLectureProgress writes a lecture progress record. Completion is
// sticky: once completed, later writes cannot lower the record.
func (s *ProgressService) SaveLectureProgress(ctx context.Context, key domain.ProgressKey, progress float64, completed bool) (domain.LectureProgress, error) {
	if _, err := s.lecture(ctx, key); err != nil {
		return domain.LectureProgress{}, err
	}
	if progress < 0 || progress > 100 || math.IsNaN(progress) {
		verr := &domain.ValidationError{}
		verr.Add("progress", "progress must be between 0 and 100")
		return domain.LectureProgress{}, verr
	}
	if completed {
		progress = 100
	}

	existing, found, err := s.store.GetLectureProgress(ctx, key)
	if err != nil {
		return domain.LectureProgress{}, domain.Persistence("get lecture progress", err)
	}
	if found && existing.Completed {
		completed = true
		progress = 100
	}

	record := domain.LectureProgress{
		ProgressKey: key,
		Progress:    progress,
		Completed:   completed,
		UpdatedAt:   s.now(),
	}
	err = s.store.SaveLectureProgress(ctx, record)
	s.metrics.ProgressWrite("lecture", metrics.Result(err))
	if err != nil {
		return domain.LectureProgress{}, domain.Persistence("save lecture progress", err)
	}
	return record, nil
}

// QuizProgress returns the learner's attempt; a zero record means not started.
func (s *ProgressService) QuizProgress(ctx context.Context, key domain.ProgressKey) (domain.QuizProgress, error) {
	if _, err := s.quiz(ctx, key); err != nil {
		return domain.QuizProgress{}, err
	}
	p, found, err := s.store.GetQuizProgress(ctx, key)
	if err != nil {
		return domain.QuizProgress{}, domain.Persistence("get quiz progress", err)
	}
	if !found {
		return domain.QuizProgress{ProgressKey: key, Answers: []domain.QuizAnswer{}}, nil
	}
	return p, nil
}

// SubmitQuizAnswer answers the next question of a quiz. The answer is
// persisted right away; the last answer completes the quiz and the lecture.
func (s *ProgressService) SubmitQuizAnswer(ctx context.Context, key domain.ProgressKey, questionID string, answerIndex int) (AnswerOutcome, error) {
	quiz, err := s.quiz(ctx, key)
	if err != nil {
		return AnswerOutcome{}, err
	}
	stored, found, err := s.store.GetQuizProgress(ctx, key)
	if err != nil {
		return AnswerOutcome{}, domain.Persistence("get quiz progress", err)
	}
	if !found {
		stored = domain.QuizProgress{ProgressKey: key}
	}

	attempt := ResumeQuizAttempt(quiz, stored)
	outcome, err := attempt.Submit(questionID, answerIndex)
	if err != nil {
		return AnswerOutcome{}, err
	}
	attempt.Advance()

	record := attempt.Progress()
	record.UpdatedAt = s.now()
	err = s.store.SaveQuizProgress(ctx, record)
	s.metrics.ProgressWrite("quiz", metrics.Result(err))
	if err != nil {
		if errors.Is(err, domain.ErrQuizCompleted) {
			return AnswerOutcome{}, err
		}
		return AnswerOutcome{}, domain.Persistence("save quiz progress", err)
	}

	if record.Completed {
		if _, err := s.SaveLectureProgress(ctx, key, 100, true); err != nil {
			return AnswerOutcome{}, err
		}
		s.logger.Info("quiz completed",
			zap.String("user_id", key.UserID),
			zap.String("lecture_id", key.LectureID),
			zap.Int("score", record.Score),
			zap.Int("questions", len(quiz.Questions)),
		)
	}
	return outcome, nil
}

// SaveQuizProgress stores a whole quiz record. Correctness and score are
// recomputed from the quiz instead of trusting the caller.
func (s *ProgressService) SaveQuizProgress(ctx context.Context, key domain.ProgressKey, answers []domain.QuizAnswer, completed bool) (domain.QuizProgress, error) {
	quiz, err := s.quiz(ctx, key)
	if err != nil {
		return domain.QuizProgress{}, err
	}
	if len(answers) > len(quiz.Questions) {
		return domain.QuizProgress{}, domain.ErrQuestionOutOfOrder
	}

	graded := make([]domain.QuizAnswer, len(answers))
	for i, ans := range answers {
		q := quiz.Questions[i]
		if ans.QuestionID != q.ID {
			return domain.QuizProgress{}, domain.ErrQuestionOutOfOrder
		}
		if ans.AnswerIndex < 0 || ans.AnswerIndex >= len(q.Options) {
			return domain.QuizProgress{}, domain.ErrInvalidAnswer
		}
		graded[i] = domain.QuizAnswer{QuestionID: q.ID, AnswerIndex: ans.AnswerIndex, IsCorrect: q.IsCorrect(ans.AnswerIndex)}
	}
	record := domain.QuizProgress{
		ProgressKey: key,
		Score:       countCorrect(graded),
		Answers:     graded,
		Completed:   completed || (len(graded) == len(quiz.Questions) && len(graded) > 0),
		UpdatedAt:   s.now(),
	}

	err = s.store.SaveQuizProgress(ctx, record)
	s.metrics.ProgressWrite("quiz", metrics.Result(err))
	if err != nil {
		if errors.Is(err, domain.ErrQuizCompleted) {
			return domain.QuizProgress{}, err
		}
		return domain.QuizProgress{}, domain.Persistence("save quiz progress", err)
	}
	if record.Completed {
		if _, err := s.SaveLectureProgress(ctx, key, 100, true); err != nil {
			return domain.QuizProgress{}, err
		}
	}
	return record, nil
}

// CourseProgress derives the share of completed lectures of a course.
func (s *ProgressService) CourseProgress(ctx context.Context, userID, courseID string) (domain.CourseProgress, error) {
	curriculum, err := s.curricula.GetCurriculum(ctx, courseID)
	if err != nil {
		return domain.CourseProgress{}, domain.Persistence("load curriculum", err)
	}
	completedIDs, err := s.store.CompletedLectures(ctx, userID, courseID)
	if err != nil {
		return domain.CourseProgress{}, domain.Persistence("count completed lectures", err)
	}

	completed := 0
	for _, id := range completedIDs {
		if _, ok := curriculum.FindLecture(id); ok {
			completed++
		}
	}
	out := domain.CourseProgress{
		CourseID:  courseID,
		Completed: completed,
		Total:     curriculum.LectureCount(),
	}
	if out.Total > 0 {
		out.Percent = float64(completed) / float64(out.Total) * 100
	}
	return out, nil
}

func (s *ProgressService) lecture(ctx context.Context, key domain.ProgressKey) (*domain.Lecture, error) {
	curriculum, err := s.curricula.GetCurriculum(ctx, key.CourseID)
	if err != nil {
		return nil, domain.Persistence("load curriculum", err)
	}
	l, ok := curriculum.FindLecture(key.LectureID)
	if !ok {
		return nil, &domain.NotFoundError{Kind: "lecture", ID: key.LectureID}
	}
	return l, nil
}

func (s *ProgressService) quiz(ctx context.Context, key domain.ProgressKey) (*domain.QuizLecture, error) {
	l, err := s.lecture(ctx, key)
	if err != nil {
		return nil, err
	}
	quiz, ok := l.Quiz()
	if !ok {
		return nil, domain.ErrNotQuizLecture
	}
	return quiz, nil
}
