package core

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when a user email is already taken.
	ErrDuplicateEmail = errors.New("email already in use")
	// ErrNoFields is returned by updates that carry nothing to change.
	ErrNoFields = errors.New("no fields to update")
	// ErrMissingFields is returned when a create request omits name or email.
	ErrMissingFields = errors.New("name and email are required")
)

// DefaultSearchLimit caps search results when the caller supplies no limit.
const DefaultSearchLimit = 10

// User is a registered user record.
type User struct {
	ID        int64      `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Email     string     `json:"email" yaml:"email"`
	CreatedAt *time.Time `json:"created_at,omitempty" yaml:"-"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" yaml:"-"`
}

// UserInput carries the mutable user fields. Nil pointers mean "not provided".
type UserInput struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// Normalize trims provided fields and drops empty ones.
func (in UserInput) Normalize() UserInput {
	out := UserInput{}
	if in.Name != nil {
		if v := strings.TrimSpace(*in.Name); v != "" {
			out.Name = &v
		}
	}
	if in.Email != nil {
		if v := strings.TrimSpace(*in.Email); v != "" {
			out.Email = &v
		}
	}
	return out
}

// ValidateCreate requires both name and email.
func (in UserInput) ValidateCreate() error {
	n := in.Normalize()
	if n.Name == nil || n.Email == nil {
		return ErrMissingFields
	}
	return nil
}

// Empty reports whether no field was provided.
func (in UserInput) Empty() bool {
	n := in.Normalize()
	return n.Name == nil && n.Email == nil
}

// Product is a catalog entry.
type Product struct {
	ID    int64   `json:"id" yaml:"id"`
	Name  string  `json:"name" yaml:"name"`
	Price float64 `json:"price" yaml:"price"`
}

// SearchResult is the payload of a user search.
type SearchResult struct {
	Query   string `json:"query"`
	Results []User `json:"results"`
	Total   int    `json:"total"`
}

// UserRepository stores users.
type UserRepository interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, in UserInput) (*User, error)
	Update(ctx context.Context, id int64, in UserInput) (*User, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, query string, limit int) (*SearchResult, error)
	Count(ctx context.Context) (int, error)
}

// ProductRepository exposes the read-only product catalog.
type ProductRepository interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int64) (*Product, error)
}

// MatchesQuery reports whether a user matches a case-sensitive substring query
// on name or email. An empty query matches everything.
func MatchesQuery(u User, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(u.Name, query) || strings.Contains(u.Email, query)
}
