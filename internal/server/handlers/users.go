package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tuan28064/Hono-demo/internal/core"
	apperrors "github.com/tuan28064/Hono-demo/internal/errors"
	"github.com/tuan28064/Hono-demo/internal/metrics"
)

const (
	msgUserNotFound   = "user not found"
	msgInvalidBody    = "invalid request body"
	msgUserCreated    = "user created"
	msgUserUpdated    = "user updated"
	msgUserDeleted    = "user deleted"
	maxUserBodyLength = 1 << 20
)

// Users serves the user CRUD and search endpoints.
type Users struct {
	repo core.UserRepository
}

// NewUsers returns user handlers backed by repo.
func NewUsers(repo core.UserRepository) *Users {
	return &Users{repo: repo}
}

// List handles GET /users.
func (h *Users) List(w http.ResponseWriter, r *http.Request) error {
	users, err := h.repo.List(r.Context())
	if err != nil {
		return apperrors.FromRepositoryError(r.Context(), err, msgUserNotFound)
	}
	return writeJSON(w, http.StatusOK, okList(users, len(users)))
}

// Get handles GET /users/{id}.
func (h *Users) Get(w http.ResponseWriter, r *http.Request) error {
	id, err := parseID(r, chi.URLParam(r, "id"), msgUserNotFound)
	if err != nil {
		return err
	}

	user, err := h.repo.Get(r.Context(), id)
	if err != nil {
		return apperrors.FromRepositoryError(r.Context(), err, msgUserNotFound)
	}
	return writeJSON(w, http.StatusOK, ok(user))
}

// Create handles POST /users.
func (h *Users) Create(w http.ResponseWriter, r *http.Request) error {
	in, err := decodeUserInput(r)
	if err != nil {
		return err
	}

	user, err := h.repo.Create(r.Context(), in)
	metrics.RecordOperation("user_create", err == nil)
	if err != nil {
		return apperrors.FromRepositoryError(r.Context(), err, msgUserNotFound)
	}
	return writeJSON(w, http.StatusCreated, Response{Success: true, Message: msgUserCreated, Data: user})
}

// Update handles PUT /users/{id}. Only provided, non-blank fields change.
func (h *Users) Update(w http.ResponseWriter, r *http.Request) error {
	id, err := parseID(r, chi.URLParam(r, "id"), msgUserNotFound)
	if err != nil {
		return err
	}

	in, decodeErr := decodeUserInput(r)
	if decodeErr != nil {
		// An unknown id wins over a bad body.
		if _, err := h.repo.Get(r.Context(), id); err != nil {
			return apperrors.FromRepositoryError(r.Context(), err, msgUserNotFound)
		}
		return decodeErr
	}

	user, err := h.repo.Update(r.Context(), id, in)
	metrics.RecordOperation("user_update", err == nil)
	if err != nil {
		return apperrors.FromRepositoryError(r.Context(), err, msgUserNotFound)
	}
	return writeJSON(w, http.StatusOK, Response{Success: true, Message: msgUserUpdated, Data: user})
}

// Delete handles DELETE /users/{id}.
func (h *Users) Delete(w http.ResponseWriter, r *http.Request) error {
	id, err := parseID(r, chi.URLParam(r, "id"), msgUserNotFound)
	if err != nil {
		return err
	}

	err = h.repo.Delete(r.Context(), id)
	metrics.RecordOperation("user_delete", err == nil)
	if err != nil {
		return apperrors.FromRepositoryError(r.Context(), err, msgUserNotFound)
	}
	return writeJSON(w, http.StatusOK, Response{Success: true, Message: msgUserDeleted})
}

// Search handles GET /search?q=&limit=. A missing or unparsable limit
// falls back to the default.
func (h *Users) Search(w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query().Get("q")

	limit := core.DefaultSearchLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	result, err := h.repo.Search(r.Context(), query, limit)
	if err != nil {
		return apperrors.FromRepositoryError(r.Context(), err, msgUserNotFound)
	}
	return writeJSON(w, http.StatusOK, ok(result))
}

func decodeUserInput(r *http.Request) (core.UserInput, error) {
	var in core.UserInput
	dec := json.NewDecoder(io.LimitReader(r.Body, maxUserBodyLength))
	if err := dec.Decode(&in); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty request body")
		}
		return core.UserInput{}, apperrors.WrapInvalidInput(r.Context(), err, msgInvalidBody)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return core.UserInput{}, apperrors.WrapInvalidInput(r.Context(), errors.New("trailing data after JSON body"), msgInvalidBody)
	}
	return in, nil
}
