package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"curriculum-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const maxWatchRetries = 5

// ProgressStore keeps learner progress in Redis. Layout:
//
//	HSET progress:{user}:{course}:lectures {lectureID} {json}
//	SADD progress:{user}:{course}:completed {lectureID}
//	SET  progress:{user}:{course}:quiz:{lectureID} {json}
//
// Writes run under WATCH so that completion stays sticky across instances.
type ProgressStore struct {
	client *redis.Client
}

func NewProgressStore(client *redis.Client) *ProgressStore {
	return &ProgressStore{client: client}
}

func (s *ProgressStore) GetLectureProgress(ctx context.Context, key domain.ProgressKey) (domain.LectureProgress, bool, error) {
	payload, err := s.client.HGet(ctx, s.lecturesKey(key.UserID, key.CourseID), key.LectureID).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.LectureProgress{}, false, nil
	}
	if err != nil {
		return domain.LectureProgress{}, false, fmt.Errorf("get lecture progress: %w", err)
	}
	var p domain.LectureProgress
	if err := json.Unmarshal(payload, &p); err != nil {
		return domain.LectureProgress{}, false, fmt.Errorf("decode lecture progress: %w", err)
	}
	return p, true, nil
}

func (s *ProgressStore) SaveLectureProgress(ctx context.Context, progress domain.LectureProgress) error {
	hashKey := s.lecturesKey(progress.UserID, progress.CourseID)
	doneKey := s.completedKey(progress.UserID, progress.CourseID)

	return s.watch(ctx, func(tx *redis.Tx) error {
		completed, err := tx.SIsMember(ctx, doneKey, progress.LectureID).Result()
		if err != nil {
			return err
		}
		if completed {
			progress.Completed = true
			progress.Progress = 100
		}
		payload, err := json.Marshal(progress)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, hashKey, progress.LectureID, payload)
			if progress.Completed {
				pipe.SAdd(ctx, doneKey, progress.LectureID)
			}
			return nil
		})
		return err
	}, doneKey)
}

func (s *ProgressStore) GetQuizProgress(ctx context.Context, key domain.ProgressKey) (domain.QuizProgress, bool, error) {
	payload, err := s.client.Get(ctx, s.quizKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.QuizProgress{}, false, nil
	}
	if err != nil {
		return domain.QuizProgress{}, false, fmt.Errorf("get quiz progress: %w", err)
	}
	var p domain.QuizProgress
	if err := json.Unmarshal(payload, &p); err != nil {
		return domain.QuizProgress{}, false, fmt.Errorf("decode quiz progress: %w", err)
	}
	return p, true, nil
}

func (s *ProgressStore) SaveQuizProgress(ctx context.Context, progress domain.QuizProgress) error {
	key := s.quizKey(progress.ProgressKey)
	if progress.Answers == nil {
		progress.Answers = []domain.QuizAnswer{}
	}
	payload, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("encode quiz progress: %w", err)
	}

	return s.watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if err == nil {
			var stored domain.QuizProgress
			if err := json.Unmarshal(current, &stored); err == nil && stored.Completed {
				return domain.ErrQuizCompleted
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}, key)
}

func (s *ProgressStore) CompletedLectures(ctx context.Context, userID, courseID string) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.completedKey(userID, courseID)).Result()
	if err != nil {
		return nil, fmt.Errorf("completed lectures: %w", err)
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *ProgressStore) watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error {
	var err error
	for i := 0; i < maxWatchRetries; i++ {
		err = s.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

func (s *ProgressStore) lecturesKey(userID, courseID string) string {
	return "progress:" + userID + ":" + courseID + ":lectures"
}

func (s *ProgressStore) completedKey(userID, courseID string) string {
	return "progress:" + userID + ":" + courseID + ":completed"
}

func (s *ProgressStore) quizKey(key domain.ProgressKey) string {
	return "progress:" + key.UserID + ":" + key.CourseID + ":quiz:" + key.LectureID
}
