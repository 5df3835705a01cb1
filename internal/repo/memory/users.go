package memory

import (
	"context"
	"sync"

	"github.com/geocoder89/solarml/internal/domain/user"
)

// UsersRepo is an in-memory credential store with the same semantics as the
// postgres repo. Used by the verification service tests and local hacking.
type UsersRepo struct {
	mu    sync.RWMutex
	items map[string]user.User // keyed by id
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items: make(map[string]user.User),
	}
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.items {
		if u.Email == email {
			return u, nil
		}
	}

	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.Email == u.Email {
			return user.ErrEmailTaken
		}
	}

	r.items[u.ID] = u

	return nil
}

func (r *UsersRepo) Save(ctx context.Context, u user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[u.ID]; !ok {
		return user.ErrNotFound
	}

	r.items[u.ID] = u

	return nil
}

func (r *UsersRepo) DeleteUnverifiedByEmail(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, u := range r.items {
		if u.Email == email && !u.IsVerified {
			delete(r.items, id)
			return nil
		}
	}

	return user.ErrNotFound
}
