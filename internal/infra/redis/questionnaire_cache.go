package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"bookofh-service/internal/app"
	"bookofh-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionnaireCache caches stored questionnaires in Redis and falls back to
// the backing store on a miss.
// Entries are stored as JSON: SET questionnaire:{userID} {json} EX ttl
type QuestionnaireCache struct {
	client  *redis.Client
	backing app.QuestionnaireStore
	ttl     time.Duration
	sf      singleflight.Group
	rnd     *rand.Rand
	rndMu   sync.Mutex
}

func NewQuestionnaireCache(client *redis.Client, backing app.QuestionnaireStore, ttl time.Duration) *QuestionnaireCache {
	return &QuestionnaireCache{
		client:  client,
		backing: backing,
		ttl:     ttl,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionnaireCache) GetByUser(ctx context.Context, userID string) (domain.Questionnaire, error) {
	if q, ok := c.lookup(ctx, userID); ok {
		return q, nil
	}

	result, err, _ := c.sf.Do(userID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if q, ok := c.lookup(ctx, userID); ok {
			return q, nil
		}
		q, err := c.backing.GetByUser(ctx, userID)
		if err != nil {
			return domain.Questionnaire{}, err
		}
		c.store(ctx, q)
		return q, nil
	})
	if err != nil {
		return domain.Questionnaire{}, err
	}
	return result.(domain.Questionnaire), nil
}

// Save writes through to the backing store. The cached entry is replaced on
// success and dropped on failure.
func (c *QuestionnaireCache) Save(ctx context.Context, q domain.Questionnaire) (domain.Questionnaire, error) {
	saved, err := c.backing.Save(ctx, q)
	if err != nil {
		_ = c.client.Del(ctx, c.key(q.UserID)).Err()
		return domain.Questionnaire{}, err
	}
	c.store(ctx, saved)
	return saved, nil
}

// lookup treats Redis errors and undecodable entries as misses.
func (c *QuestionnaireCache) lookup(ctx context.Context, userID string) (domain.Questionnaire, bool) {
	data, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		return domain.Questionnaire{}, false
	}
	var q domain.Questionnaire
	if err := json.Unmarshal(data, &q); err != nil {
		return domain.Questionnaire{}, false
	}
	return q, true
}

// store is best-effort.
func (c *QuestionnaireCache) store(ctx context.Context, q domain.Questionnaire) {
	data, err := json.Marshal(q)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.key(q.UserID), data, c.ttlWithJitter()).Err()
}

func (c *QuestionnaireCache) key(userID string) string {
	return "questionnaire:" + userID
}

func (c *QuestionnaireCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
