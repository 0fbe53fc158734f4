package redis

import (
	"context"
	"fmt"
	"time"

	"bookofh-service/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it still holds our token, so an
// expired lock taken over by another instance is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SubmissionLocker is a Redis-backed app.SubmissionLocker shared by every
// service instance. Locks are held as:
//
//	SET questionnaire:lock:{userID} {token} NX PX ttl
//
// The TTL bounds how long a crashed holder can block a user.
type SubmissionLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSubmissionLocker(client *redis.Client, ttl time.Duration) *SubmissionLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &SubmissionLocker{client: client, ttl: ttl}
}

func (l *SubmissionLocker) Acquire(ctx context.Context, userID string) (func(), error) {
	key := l.key(userID)
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire submission lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrSubmissionInProgress
	}
	return func() {
		_ = releaseScript.Run(context.Background(), l.client, []string{key}, token).Err()
	}, nil
}

func (l *SubmissionLocker) key(userID string) string {
	return "questionnaire:lock:" + userID
}
