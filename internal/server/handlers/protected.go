package handlers

import (
	"net/http"

	"github.com/tuan28064/Hono-demo/internal/auth"
	"github.com/tuan28064/Hono-demo/internal/core"
	apperrors "github.com/tuan28064/Hono-demo/internal/errors"
)

// Protected serves the bearer-token gated group.
type Protected struct {
	users    core.UserRepository
	products core.ProductRepository
}

// NewProtected returns the gated handlers.
func NewProtected(users core.UserRepository, products core.ProductRepository) *Protected {
	return &Protected{users: users, products: products}
}

// Profile handles GET /protected/profile and echoes the verified principal.
func (h *Protected) Profile(w http.ResponseWriter, r *http.Request) error {
	principal, found := auth.PrincipalFrom(r.Context())
	if !found {
		return apperrors.NewUnauthorizedError(auth.ErrMissingCredential.Error())
	}
	return writeJSON(w, http.StatusOK, ok(principal))
}

// DashboardStats are live collection sizes.
type DashboardStats struct {
	Users    int `json:"users"`
	Products int `json:"products"`
}

// Dashboard handles GET /protected/dashboard.
func (h *Protected) Dashboard(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	userCount, err := h.users.Count(ctx)
	if err != nil {
		return apperrors.WrapDatabaseError(ctx, err, "failed to count users")
	}
	products, err := h.products.List(ctx)
	if err != nil {
		return apperrors.WrapDatabaseError(ctx, err, "failed to list products")
	}

	return writeJSON(w, http.StatusOK, ok(map[string]any{
		"stats": DashboardStats{Users: userCount, Products: len(products)},
	}))
}
