package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"curriculum-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CurriculumLoader fetches a curriculum from the backing store (e.g. Postgres).
type CurriculumLoader interface {
	LoadCurriculum(ctx context.Context, courseID string) (domain.Curriculum, error)
}

// CurriculumCache caches curriculum snapshots in Redis as JSON and falls
// back to a loader on cache miss. Snapshots are stored as:
// SET curriculum:{courseID} {json} EX ttl
// INCR curriculum:{courseID}:version on every invalidation
type CurriculumCache struct {
	client *redis.Client
	loader CurriculumLoader
	ttl    time.Duration
	logger *zap.Logger
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCurriculumCache(client *redis.Client, loader CurriculumLoader, ttl time.Duration, logger *zap.Logger) *CurriculumCache {
	return &CurriculumCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		logger: logger,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CurriculumCache) GetCurriculum(ctx context.Context, courseID string) (domain.Curriculum, error) {
	if cur, ok := c.lookup(ctx, courseID); ok {
		return cur, nil
	}

	result, err, _ := c.sf.Do(courseID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if cur, ok := c.lookup(ctx, courseID); ok {
			return cur, nil
		}

		version, err := c.version(ctx, c.client, courseID)
		if err != nil {
			c.logger.Warn("curriculum cache version read failed", zap.String("course_id", courseID), zap.Error(err))
		}

		cur, err := c.loader.LoadCurriculum(ctx, courseID)
		if err != nil {
			return domain.Curriculum{}, err
		}

		payload, err := json.Marshal(cur)
		if err != nil {
			return domain.Curriculum{}, fmt.Errorf("encode curriculum: %w", err)
		}
		c.fill(ctx, courseID, version, payload)
		return cur, nil
	})
	if err != nil {
		return domain.Curriculum{}, err
	}
	cur := result.(domain.Curriculum)
	return domain.Curriculum{CourseID: cur.CourseID, Sections: domain.CloneSections(cur.Sections)}, nil
}

// fill stores the snapshot unless the course was invalidated after version
// was read. The version key is watched so a concurrent INCR aborts the SET.
func (c *CurriculumCache) fill(ctx context.Context, courseID string, version int64, payload []byte) {
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := c.version(ctx, tx, courseID)
		if err != nil {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(courseID), payload, c.ttlWithJitter())
			return nil
		})
		return err
	}, c.versionKey(courseID))
	if err != nil && !errors.Is(err, redis.TxFailedErr) {
		c.logger.Warn("curriculum cache fill failed", zap.String("course_id", courseID), zap.Error(err))
	}
}

// Invalidate removes the cached snapshot so the next read reloads it, and
// bumps the version so fills already in flight are discarded.
func (c *CurriculumCache) Invalidate(ctx context.Context, courseID string) error {
	c.sf.Forget(courseID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.versionKey(courseID))
		pipe.Del(ctx, c.key(courseID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate curriculum %s: %w", courseID, err)
	}
	return nil
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (c *CurriculumCache) version(ctx context.Context, cmd getter, courseID string) (int64, error) {
	v, err := cmd.Get(ctx, c.versionKey(courseID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// lookup treats every Redis failure as a miss; the loader stays the source of truth.
func (c *CurriculumCache) lookup(ctx context.Context, courseID string) (domain.Curriculum, bool) {
	payload, err := c.client.Get(ctx, c.key(courseID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("curriculum cache read failed", zap.String("course_id", courseID), zap.Error(err))
		}
		return domain.Curriculum{}, false
	}
	var cur domain.Curriculum
	if err := json.Unmarshal(payload, &cur); err != nil {
		c.logger.Warn("curriculum cache entry corrupt", zap.String("course_id", courseID), zap.Error(err))
		return domain.Curriculum{}, false
	}
	return cur, true
}

func (c *CurriculumCache) key(courseID string) string {
	return "curriculum:" + courseID
}

func (c *CurriculumCache) versionKey(courseID string) string {
	return "curriculum:" + courseID + ":version"
}

func (c *CurriculumCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
