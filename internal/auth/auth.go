// Package auth verifies request credentials and carries the resulting
// principal through the request context.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
)

var (
	// ErrMissingCredential is returned when no credential was presented.
	ErrMissingCredential = errors.New("missing authentication token")
	// ErrInvalidCredential is returned when a credential does not verify.
	ErrInvalidCredential = errors.New("invalid authentication token")
)

// Principal is the identity a verified credential resolves to.
type Principal struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Verifier turns a raw Authorization header value into a Principal.
type Verifier interface {
	Verify(ctx context.Context, credential string) (*Principal, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, credential string) (*Principal, error)

// Verify calls f.
func (f VerifierFunc) Verify(ctx context.Context, credential string) (*Principal, error) {
	return f(ctx, credential)
}

// DefaultPrincipal is returned by StaticToken when no principal is configured.
var DefaultPrincipal = Principal{ID: 1, Username: "admin", Role: "administrator"}

// StaticToken accepts exactly one bearer token.
type StaticToken struct {
	expected  []byte
	principal Principal
}

// NewStaticToken returns a verifier accepting "Bearer <token>".
func NewStaticToken(token string, principal *Principal) *StaticToken {
	p := DefaultPrincipal
	if principal != nil {
		p = *principal
	}
	return &StaticToken{
		expected:  []byte("Bearer " + token),
		principal: p,
	}
}

var _ Verifier = (*StaticToken)(nil)

// Verify compares the credential with the configured header value in
// constant time. The comparison is exact: no trimming or case folding.
func (s *StaticToken) Verify(_ context.Context, credential string) (*Principal, error) {
	if credential == "" {
		return nil, ErrMissingCredential
	}
	if len(s.expected) == len("Bearer ") {
		return nil, ErrInvalidCredential
	}
	if subtle.ConstantTimeCompare([]byte(credential), s.expected) != 1 {
		return nil, ErrInvalidCredential
	}

	p := s.principal
	return &p, nil
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored by WithPrincipal.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
