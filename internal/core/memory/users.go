// Package memory provides process-local repositories guarded by a read/write lock.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tuan28064/Hono-demo/internal/core"
)

// Users is an in-memory core.UserRepository.
type Users struct {
	mu    sync.RWMutex
	users []core.User
	clock func() time.Time
}

var _ core.UserRepository = (*Users)(nil)

// UsersOption configures a Users repository.
type UsersOption func(*Users)

// WithClock replaces the wall clock used for created/updated timestamps.
func WithClock(clock func() time.Time) UsersOption {
	return func(s *Users) { s.clock = clock }
}

// NewUsers returns a repository pre-populated with the given users.
func NewUsers(seed []core.User, opts ...UsersOption) *Users {
	users := make([]core.User, len(seed))
	copy(users, seed)
	s := &Users{users: users}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Users) now() time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return time.Now().UTC()
}

// List returns a snapshot of all users ordered by insertion.
func (s *Users) List(ctx context.Context) ([]core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.User, len(s.users))
	copy(out, s.users)
	return out, nil
}

// Get returns a user by id.
func (s *Users) Get(ctx context.Context, id int64) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, core.ErrNotFound
	}
	u := s.users[idx]
	return &u, nil
}

// Create appends a user. The id is one more than the current maximum.
func (s *Users) Create(ctx context.Context, in core.UserInput) (*core.User, error) {
	if err := in.ValidateCreate(); err != nil {
		return nil, err
	}
	in = in.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emailTaken(*in.Email, 0) {
		return nil, core.ErrDuplicateEmail
	}

	var next int64 = 1
	for _, u := range s.users {
		if u.ID >= next {
			next = u.ID + 1
		}
	}

	now := s.now()
	u := core.User{
		ID:        next,
		Name:      *in.Name,
		Email:     *in.Email,
		CreatedAt: &now,
		UpdatedAt: &now,
	}
	s.users = append(s.users, u)
	return &u, nil
}

// Update applies the provided fields to an existing user.
func (s *Users) Update(ctx context.Context, id int64, in core.UserInput) (*core.User, error) {
	in = in.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, core.ErrNotFound
	}
	if in.Empty() {
		return nil, core.ErrNoFields
	}
	if in.Email != nil && s.emailTaken(*in.Email, id) {
		return nil, core.ErrDuplicateEmail
	}

	u := s.users[idx]
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	now := s.now()
	u.UpdatedAt = &now
	s.users[idx] = u
	return &u, nil
}

// Delete removes exactly one user.
func (s *Users) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return core.ErrNotFound
	}
	s.users = append(s.users[:idx], s.users[idx+1:]...)
	return nil
}

// Search filters users by substring on name or email.
func (s *Users) Search(ctx context.Context, query string, limit int) (*core.SearchResult, error) {
	if limit <= 0 {
		limit = core.DefaultSearchLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := []core.User{}
	for _, u := range s.users {
		if core.MatchesQuery(u, query) {
			matches = append(matches, u)
		}
	}

	total := len(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return &core.SearchResult{Query: query, Results: matches, Total: total}, nil
}

// Count returns the number of stored users.
func (s *Users) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

// CheckHealth always succeeds for the in-memory store.
func (s *Users) CheckHealth(ctx context.Context) error {
	return nil
}

func (s *Users) indexOf(id int64) int {
	for i, u := range s.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func (s *Users) emailTaken(email string, except int64) bool {
	for _, u := range s.users {
		if u.Email == email && u.ID != except {
			return true
		}
	}
	return false
}
