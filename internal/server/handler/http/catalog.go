package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/atinyakov/GophShop/internal/catalog"
	"github.com/atinyakov/GophShop/internal/models"
	"github.com/go-chi/chi/v5"
)

// CatalogService defines the catalog lookups required by the handlers.
type CatalogService interface {
	Categories(ctx context.Context) ([]models.Category, error)
	ByCategory(ctx context.Context, slug string) ([]models.Product, error)
	Product(ctx context.Context, id int) (models.Product, error)
	Search(ctx context.Context, query string) ([]models.Product, error)
}

// CatalogHandler proxies catalog lookups.
type CatalogHandler struct {
	CatalogService CatalogService
}

func catalogError(w http.ResponseWriter, err error) {
	var se *catalog.StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	http.Error(w, "catalog unavailable", http.StatusBadGateway)
}

// Categories handles GET /api/catalog/categories.
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.CatalogService.Categories(r.Context())
	if err != nil {
		catalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

// Category handles GET /api/catalog/categories/{slug}.
func (h *CatalogHandler) Category(w http.ResponseWriter, r *http.Request) {
	products, err := h.CatalogService.ByCategory(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		catalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// Product handles GET /api/catalog/products/{id}.
func (h *CatalogHandler) Product(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	p, err := h.CatalogService.Product(r.Context(), id)
	if err != nil {
		catalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Search handles GET /api/catalog/search?q=.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusOK, []models.Product{})
		return
	}
	products, err := h.CatalogService.Search(r.Context(), q)
	if err != nil {
		catalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}
