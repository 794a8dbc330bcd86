package middleware

import (
	"context"
	"sync"
)

// ValueRequestID is the Values slot holding the request id.
const ValueRequestID = "requestId"

// Values is the per-request extension bag. The dispatcher creates one at
// request entry; stages deeper in the chain write to it so outer stages can
// read what was derived after they ran (notably the request id for the error
// boundary). It is never shared between requests.
type Values struct {
	mu sync.RWMutex
	m  map[string]any
}

// NewValues returns an empty bag.
func NewValues() *Values {
	return &Values{m: make(map[string]any)}
}

// Set stores a value.
func (v *Values) Set(key string, value any) {
	if v == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.m[key] = value
}

// Get returns a value and whether it was present.
func (v *Values) Get(key string) (any, bool) {
	if v == nil {
		return nil, false
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.m[key]
	return val, ok
}

// String returns a string value or "".
func (v *Values) String(key string) string {
	val, _ := v.Get(key)
	s, _ := val.(string)
	return s
}

type valuesKey struct{}

// WithValues attaches a bag to ctx.
func WithValues(ctx context.Context, v *Values) context.Context {
	return context.WithValue(ctx, valuesKey{}, v)
}

// ValuesFrom returns the bag attached to ctx, or nil.
func ValuesFrom(ctx context.Context) *Values {
	if ctx == nil {
		return nil
	}
	v, _ := ctx.Value(valuesKey{}).(*Values)
	return v
}
