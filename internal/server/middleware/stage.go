// Package middleware holds the request pipeline stages.
//
// A Stage sees the request before the rest of the pipeline and either
// continues by calling next.ServeHTTP or short-circuits by writing a response
// and returning. Chain composes stages outermost first.
package middleware

import "net/http"

// Stage is one step of the request pipeline.
type Stage interface {
	Process(w http.ResponseWriter, r *http.Request, next http.Handler)
}

// StageFunc adapts a function to Stage.
type StageFunc func(w http.ResponseWriter, r *http.Request, next http.Handler)

// Process calls f.
func (f StageFunc) Process(w http.ResponseWriter, r *http.Request, next http.Handler) {
	f(w, r, next)
}

// Chain composes stages into chi-compatible middleware. The first stage is the
// outermost. A request whose context is already done is not handed to any
// further stage or to the final handler.
func Chain(stages ...Stage) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		h := guard(final)
		for i := len(stages) - 1; i >= 0; i-- {
			if stages[i] == nil {
				continue
			}
			h = &link{stage: stages[i], next: h}
		}
		return h
	}
}

type link struct {
	stage Stage
	next  http.Handler
}

func (l *link) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Context().Err() != nil {
		return
	}
	l.stage.Process(w, r, l.next)
}

func guard(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Context().Err() != nil {
			return
		}
		h.ServeHTTP(w, r)
	})
}
