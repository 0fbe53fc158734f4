package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"bookofh-service/internal/domain"
	"github.com/google/uuid"
)

// UserDirectory is an in-memory implementation of app.UserDirectory.
type UserDirectory struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string
}

// NewUserDirectory returns a directory holding the seed users.
func NewUserDirectory(seed ...domain.User) *UserDirectory {
	d := &UserDirectory{
		byID:    make(map[string]domain.User, len(seed)),
		byEmail: make(map[string]string, len(seed)),
	}
	for _, u := range seed {
		d.byID[u.ID] = u
		if u.Email != "" {
			d.byEmail[strings.ToLower(u.Email)] = u.ID
		}
	}
	return d
}

// Create registers a new user with a generated ID.
func (d *UserDirectory) Create(_ context.Context, email string) (domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := strings.ToLower(email)
	if _, ok := d.byEmail[key]; ok {
		return domain.User{}, domain.ErrUserExists
	}
	u := domain.User{ID: uuid.NewString(), Email: email, CreatedAt: time.Now().UTC()}
	d.byID[u.ID] = u
	d.byEmail[key] = u.ID
	return u, nil
}

func (d *UserDirectory) Exists(_ context.Context, userID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.byID[userID]
	return ok, nil
}
