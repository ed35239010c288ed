package memory

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"csv-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionSource loads and replaces the backing question bank (e.g. a CSV file).
type QuestionSource interface {
	Load(ctx context.Context) ([]domain.Question, error)
	Replace(ctx context.Context, r io.Reader) ([]domain.Question, error)
}

// QuestionCache keeps the parsed bank in memory. It loads on first use, reloads
// after Invalidate or once the optional TTL passes, and lets only one caller
// parse the file at a time.
type QuestionCache struct {
	source QuestionSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	gen       uint64
	loaded    bool
	questions []domain.Question
	byID      map[string]domain.Question
	expiresAt time.Time
}

// NewQuestionCache wraps source. A ttl of zero caches until Invalidate.
func NewQuestionCache(source QuestionSource, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Questions returns the whole bank in file order.
func (c *QuestionCache) Questions(ctx context.Context) ([]domain.Question, error) {
	questions, _, err := c.get(ctx)
	return questions, err
}

// Question looks up one question by ID.
func (c *QuestionCache) Question(ctx context.Context, id string) (domain.Question, error) {
	_, byID, err := c.get(ctx)
	if err != nil {
		return domain.Question{}, err
	}
	q, ok := byID[id]
	if !ok {
		return domain.Question{}, fmt.Errorf("%w: %s", domain.ErrQuestionNotFound, id)
	}
	return q, nil
}

// Replace writes a new bank through the source and drops the cached copy.
func (c *QuestionCache) Replace(ctx context.Context, r io.Reader) ([]domain.Question, error) {
	questions, err := c.source.Replace(ctx, r)
	if err != nil {
		return nil, err
	}
	c.Invalidate()
	return questions, nil
}

// Invalidate forces the next read to reload the bank. A load already in
// flight when Invalidate runs is not cached.
func (c *QuestionCache) Invalidate() {
	c.mu.Lock()
	c.gen++
	c.loaded = false
	c.questions = nil
	c.byID = nil
	c.mu.Unlock()
	c.sf.Forget("bank")
}

// maxReloads bounds how often get retries a load that an Invalidate overtook.
const maxReloads = 3

type snapshot struct {
	questions []domain.Question
	byID      map[string]domain.Question
	stale     bool
}

func (c *QuestionCache) get(ctx context.Context) ([]domain.Question, map[string]domain.Question, error) {
	var snap snapshot
	for attempt := 0; attempt < maxReloads; attempt++ {
		if questions, byID, ok := c.fresh(); ok {
			return questions, byID, nil
		}
		result, err, _ := c.sf.Do("bank", c.load(ctx))
		if err != nil {
			return nil, nil, err
		}
		snap = result.(snapshot)
		if !snap.stale {
			break
		}
	}
	return snap.questions, snap.byID, nil
}

// load reads the bank and caches it unless Invalidate ran meanwhile.
func (c *QuestionCache) load(ctx context.Context) func() (interface{}, error) {
	return func() (interface{}, error) {
		c.mu.RLock()
		gen := c.gen
		c.mu.RUnlock()

		// Re-check in case another goroutine filled it.
		if questions, byID, ok := c.fresh(); ok {
			return snapshot{questions: questions, byID: byID}, nil
		}

		questions, err := c.source.Load(ctx)
		if err != nil {
			return nil, err
		}
		byID := make(map[string]domain.Question, len(questions))
		for _, q := range questions {
			byID[q.ID] = q
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen != gen {
			return snapshot{questions: questions, byID: byID, stale: true}, nil
		}
		c.loaded = true
		c.questions = questions
		c.byID = byID
		if c.ttl > 0 {
			c.expiresAt = c.clock().Add(c.ttlWithJitter())
		}
		return snapshot{questions: questions, byID: byID}, nil
	}
}

func (c *QuestionCache) fresh() ([]domain.Question, map[string]domain.Question, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return nil, nil, false
	}
	if c.ttl > 0 && !c.expiresAt.After(c.clock()) {
		return nil, nil, false
	}
	return c.questions, c.byID, true
}

// ttlWithJitter must be called with c.mu held for writing; rnd is not safe
// for concurrent use.
func (c *QuestionCache) ttlWithJitter() time.Duration {
	// add up to 10% jitter to spread reloads across instances
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
