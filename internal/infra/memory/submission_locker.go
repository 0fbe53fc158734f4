package memory

import (
	"context"
	"sync"

	"bookofh-service/internal/domain"
)

// SubmissionLocker is an in-process implementation of app.SubmissionLocker.
type SubmissionLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewSubmissionLocker() *SubmissionLocker {
	return &SubmissionLocker{held: make(map[string]struct{})}
}

func (l *SubmissionLocker) Acquire(_ context.Context, userID string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[userID]; ok {
		return nil, domain.ErrSubmissionInProgress
	}
	l.held[userID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, userID)
			l.mu.Unlock()
		})
	}, nil
}
