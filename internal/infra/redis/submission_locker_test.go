package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"bookofh-service/internal/domain"
)

func TestSubmissionLockerSetsAndClearsKey(t *testing.T) {
	mr, client := newTestRedis(t)
	locks := NewSubmissionLocker(client, time.Minute)

	release, err := locks.Acquire(context.Background(), "u1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !mr.Exists("questionnaire:lock:u1") {
		t.Fatalf("expected redis lock key to be set")
	}
	if mr.TTL("questionnaire:lock:u1") != time.Minute {
		t.Fatalf("expected lock ttl of one minute, got %v", mr.TTL("questionnaire:lock:u1"))
	}

	release()
	if mr.Exists("questionnaire:lock:u1") {
		t.Fatalf("expected redis lock key to be removed")
	}
}

func TestSubmissionLockerRejectsSecondHolder(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()
	first := NewSubmissionLocker(client, time.Minute)
	second := NewSubmissionLocker(client, time.Minute)

	release, err := first.Acquire(ctx, "u1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := second.Acquire(ctx, "u1"); !errors.Is(err, domain.ErrSubmissionInProgress) {
		t.Fatalf("expected in-progress error, got %v", err)
	}
	if _, err := second.Acquire(ctx, "u2"); err != nil {
		t.Fatalf("expected other users unaffected, got %v", err)
	}

	release()
	if _, err := second.Acquire(ctx, "u1"); err != nil {
		t.Fatalf("expected acquire after release, got %v", err)
	}
}

func TestSubmissionLockerReleaseKeepsForeignLock(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()
	locks := NewSubmissionLocker(client, time.Second)

	stale, err := locks.Acquire(ctx, "u1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	mr.FastForward(2 * time.Second)

	if _, err := locks.Acquire(ctx, "u1"); err != nil {
		t.Fatalf("expected acquire after expiry, got %v", err)
	}
	stale()
	if !mr.Exists("questionnaire:lock:u1") {
		t.Fatalf("expected stale release to leave the new holder's lock")
	}
}
