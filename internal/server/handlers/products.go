package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tuan28064/Hono-demo/internal/core"
	apperrors "github.com/tuan28064/Hono-demo/internal/errors"
)

const msgProductNotFound = "product not found"

// Products serves the read-only catalog.
type Products struct {
	repo core.ProductRepository
}

// NewProducts returns product handlers backed by repo.
func NewProducts(repo core.ProductRepository) *Products {
	return &Products{repo: repo}
}

// List handles GET /products.
func (h *Products) List(w http.ResponseWriter, r *http.Request) error {
	products, err := h.repo.List(r.Context())
	if err != nil {
		return apperrors.FromRepositoryError(r.Context(), err, msgProductNotFound)
	}
	return writeJSON(w, http.StatusOK, okList(products, len(products)))
}

// Get handles GET /products/{id}.
func (h *Products) Get(w http.ResponseWriter, r *http.Request) error {
	id, err := parseID(r, chi.URLParam(r, "id"), msgProductNotFound)
	if err != nil {
		return err
	}

	product, err := h.repo.Get(r.Context(), id)
	if err != nil {
		return apperrors.FromRepositoryError(r.Context(), err, msgProductNotFound)
	}
	return writeJSON(w, http.StatusOK, ok(product))
}
