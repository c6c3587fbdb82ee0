package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"curriculum-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CurriculumLoader fetches a curriculum from the backing store.
type CurriculumLoader interface {
	LoadCurriculum(ctx context.Context, courseID string) (domain.Curriculum, error)
}

// CurriculumCache caches curriculum snapshots with TTL to avoid rebuilding
// the tree from storage on every progress event.
type CurriculumCache struct {
	loader CurriculumLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedCurriculum

	// generations is bumped by Invalidate; a fill that started under an
	// older generation does not store its result.
	generations map[string]uint64
}

type cachedCurriculum struct {
	curriculum domain.Curriculum
	expiresAt  time.Time
}

func NewCurriculumCache(loader CurriculumLoader, ttl time.Duration) *CurriculumCache {
	return &CurriculumCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedCurriculum),

		generations: make(map[string]uint64),
	}
}

// GetCurriculum returns a copy of the cached snapshot, loading it on a miss.
func (c *CurriculumCache) GetCurriculum(ctx context.Context, courseID string) (domain.Curriculum, error) {
	if cur, ok := c.lookup(courseID); ok {
		return cur, nil
	}

	result, err, _ := c.sf.Do(courseID, func() (interface{}, error) {
		if cur, ok := c.lookup(courseID); ok {
			return cur, nil
		}

		c.mu.RLock()
		gen := c.generations[courseID]
		c.mu.RUnlock()

		cur, err := c.loader.LoadCurriculum(ctx, courseID)
		if err != nil {
			return domain.Curriculum{}, err
		}

		expiresAt := c.clock().Add(c.ttlWithJitter())
		c.mu.Lock()
		if c.generations[courseID] == gen {
			c.cache[courseID] = cachedCurriculum{curriculum: cur, expiresAt: expiresAt}
		}
		c.mu.Unlock()
		return cur, nil
	})
	if err != nil {
		return domain.Curriculum{}, err
	}
	cur := result.(domain.Curriculum)
	return domain.Curriculum{CourseID: cur.CourseID, Sections: domain.CloneSections(cur.Sections)}, nil
}

// Invalidate drops the cached snapshot of a course.
func (c *CurriculumCache) Invalidate(_ context.Context, courseID string) error {
	c.mu.Lock()
	delete(c.cache, courseID)
	c.generations[courseID]++
	c.mu.Unlock()
	c.sf.Forget(courseID)
	return nil
}

func (c *CurriculumCache) lookup(courseID string) (domain.Curriculum, bool) {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[courseID]
	if !ok || !entry.expiresAt.After(now) {
		return domain.Curriculum{}, false
	}
	return domain.Curriculum{CourseID: entry.curriculum.CourseID, Sections: domain.CloneSections(entry.curriculum.Sections)}, true
}

func (c *CurriculumCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
