package user

import (
	"context"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use the PostgreSQL implementation.
type InMemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]*User
}

// NewInMemoryRepository creates a new in-memory user repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		users: make(map[int64]*User),
	}
}

// FindByID retrieves a user by internal ID.
func (r *InMemoryRepository) FindByID(_ context.Context, id int64) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	return copyUser(u), nil
}

// FindByUsername retrieves a user by username.
func (r *InMemoryRepository) FindByUsername(_ context.Context, username string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}

	return nil, ErrUserNotFound
}

// ExistsByUsernameOrGmail reports whether any user has the username or the gmail.
func (r *InMemoryRepository) ExistsByUsernameOrGmail(_ context.Context, username, gmail string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.taken(username, gmail), nil
}

// Create inserts a user. Uniqueness is checked under the write lock, standing
// in for the table's unique constraints.
func (r *InMemoryRepository) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.taken(u.Username, u.Gmail) {
		return ErrUserExists
	}

	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now().UTC()
	r.users[u.ID] = copyUser(u)

	return nil
}

// UpdateExpoToken replaces the stored push token of a user.
func (r *InMemoryRepository) UpdateExpoToken(_ context.Context, id int64, expoToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.ExpoToken = &expoToken

	return nil
}

// Delete removes a user. Used by tests to simulate stale tokens.
func (r *InMemoryRepository) Delete(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

func (r *InMemoryRepository) taken(username, gmail string) bool {
	for _, u := range r.users {
		if u.Username == username || u.Gmail == gmail {
			return true
		}
	}
	return false
}

func copyUser(u *User) *User {
	c := *u
	if u.ExpoToken != nil {
		token := *u.ExpoToken
		c.ExpoToken = &token
	}
	return &c
}
