package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"curriculum-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ProgressStore keeps learner progress in Postgres through pgx.
type ProgressStore struct {
	pool *pgxpool.Pool
}

func NewProgressStore(pool *pgxpool.Pool) *ProgressStore {
	return &ProgressStore{pool: pool}
}

func (s *ProgressStore) GetLectureProgress(ctx context.Context, key domain.ProgressKey) (domain.LectureProgress, bool, error) {
	p := domain.LectureProgress{ProgressKey: key}
	err := s.pool.QueryRow(ctx,
		`SELECT progress, completed, updated_at FROM user_lecture_progress
		 WHERE user_id=$1 AND course_id=$2 AND lecture_id=$3`,
		key.UserID, key.CourseID, key.LectureID,
	).Scan(&p.Progress, &p.Completed, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.LectureProgress{}, false, nil
	}
	if err != nil {
		return domain.LectureProgress{}, false, fmt.Errorf("get lecture progress: %w", err)
	}
	return p, true, nil
}

// SaveLectureProgress upserts the record; a completed row is never lowered.
func (s *ProgressStore) SaveLectureProgress(ctx context.Context, p domain.LectureProgress) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_lecture_progress (user_id, course_id, lecture_id, progress, completed, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, course_id, lecture_id) DO UPDATE SET
		   progress = CASE WHEN user_lecture_progress.completed THEN 100 ELSE EXCLUDED.progress END,
		   completed = user_lecture_progress.completed OR EXCLUDED.completed,
		   updated_at = EXCLUDED.updated_at`,
		p.UserID, p.CourseID, p.LectureID, p.Progress, p.Completed, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save lecture progress: %w", err)
	}
	return nil
}

func (s *ProgressStore) GetQuizProgress(ctx context.Context, key domain.ProgressKey) (domain.QuizProgress, bool, error) {
	p := domain.QuizProgress{ProgressKey: key}
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT score, answers, completed, updated_at FROM user_quiz_progress
		 WHERE user_id=$1 AND course_id=$2 AND lecture_id=$3`,
		key.UserID, key.CourseID, key.LectureID,
	).Scan(&p.Score, &raw, &p.Completed, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizProgress{}, false, nil
	}
	if err != nil {
		return domain.QuizProgress{}, false, fmt.Errorf("get quiz progress: %w", err)
	}
	if err := json.Unmarshal(raw, &p.Answers); err != nil {
		return domain.QuizProgress{}, false, fmt.Errorf("unmarshal quiz answers: %w", err)
	}
	return p, true, nil
}

// SaveQuizProgress upserts the attempt unless the stored one is completed.
func (s *ProgressStore) SaveQuizProgress(ctx context.Context, p domain.QuizProgress) error {
	answers := p.Answers
	if answers == nil {
		answers = []domain.QuizAnswer{}
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("marshal quiz answers: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO user_quiz_progress (user_id, course_id, lecture_id, score, answers, completed, updated_at)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)
		 ON CONFLICT (user_id, course_id, lecture_id) DO UPDATE SET
		   score = EXCLUDED.score,
		   answers = EXCLUDED.answers,
		   completed = EXCLUDED.completed,
		   updated_at = EXCLUDED.updated_at
		 WHERE user_quiz_progress.completed = FALSE`,
		p.UserID, p.CourseID, p.LectureID, p.Score, string(raw), p.Completed, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save quiz progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizCompleted
	}
	return nil
}

func (s *ProgressStore) CompletedLectures(ctx context.Context, userID, courseID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT lecture_id FROM user_lecture_progress
		 WHERE user_id=$1 AND course_id=$2 AND completed
		 ORDER BY lecture_id`,
		userID, courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("completed lectures: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan completed lecture: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
