package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"bookofh-service/internal/app"
	"bookofh-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CachedQuestionnaires caches stored questionnaires with TTL to avoid
// repeated DB hits. Saves write through to the backing store and refresh
// the cached copy.
type CachedQuestionnaires struct {
	backing app.QuestionnaireStore
	ttl     time.Duration
	clock   func() time.Time
	sf      singleflight.Group
	rnd     *rand.Rand
	rndMu   sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedQuestionnaire
}

type cachedQuestionnaire struct {
	q         domain.Questionnaire
	expiresAt time.Time
}

func NewCachedQuestionnaires(backing app.QuestionnaireStore, ttl time.Duration) *CachedQuestionnaires {
	return &CachedQuestionnaires{
		backing: backing,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:   make(map[string]cachedQuestionnaire),
	}
}

func (c *CachedQuestionnaires) GetByUser(ctx context.Context, userID string) (domain.Questionnaire, error) {
	if q, ok := c.lookup(userID); ok {
		return q, nil
	}

	result, err, _ := c.sf.Do(userID, func() (interface{}, error) {
		if q, ok := c.lookup(userID); ok {
			return q, nil
		}
		q, err := c.backing.GetByUser(ctx, userID)
		if err != nil {
			return domain.Questionnaire{}, err
		}
		c.store(q)
		return q, nil
	})
	if err != nil {
		return domain.Questionnaire{}, err
	}
	return copyQuestionnaire(result.(domain.Questionnaire)), nil
}

func (c *CachedQuestionnaires) Save(ctx context.Context, q domain.Questionnaire) (domain.Questionnaire, error) {
	saved, err := c.backing.Save(ctx, q)
	if err != nil {
		c.mu.Lock()
		delete(c.cache, q.UserID)
		c.mu.Unlock()
		return domain.Questionnaire{}, err
	}
	c.store(saved)
	return saved, nil
}

func (c *CachedQuestionnaires) lookup(userID string) (domain.Questionnaire, bool) {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	if entry, ok := c.cache[userID]; ok && entry.expiresAt.After(now) {
		return copyQuestionnaire(entry.q), true
	}
	return domain.Questionnaire{}, false
}

func (c *CachedQuestionnaires) store(q domain.Questionnaire) {
	expiresAt := c.clock().Add(c.ttlWithJitter())
	c.mu.Lock()
	c.cache[q.UserID] = cachedQuestionnaire{q: copyQuestionnaire(q), expiresAt: expiresAt}
	c.mu.Unlock()
}

func (c *CachedQuestionnaires) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
