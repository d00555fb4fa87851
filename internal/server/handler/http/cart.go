package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/atinyakov/GophShop/internal/models"
)

// CartService defines the cart and favorites operations required by the handlers.
type CartService interface {
	Cart() []models.LineItem
	Favorites() []models.LineItem
	InCart(id int) bool
	Total() float64
	Count() int
	AddToCart(ctx context.Context, item models.LineItem)
	RemoveFromCart(ctx context.Context, id int)
	Increment(ctx context.Context, id int)
	Decrement(ctx context.Context, id int)
	ToggleFavorite(ctx context.Context, item models.LineItem) bool
	RemoveFromFavorites(ctx context.Context, id int)
}

// CartHandler handles cart and favorites requests.
type CartHandler struct {
	CartService CartService
}

// CartResponse is the cart as returned by the API.
type CartResponse struct {
	Items []models.LineItem `json:"items"`
	Total float64           `json:"total"`
	Count int               `json:"count"`
}

func (h *CartHandler) cart() CartResponse {
	return CartResponse{
		Items: h.CartService.Cart(),
		Total: h.CartService.Total(),
		Count: h.CartService.Count(),
	}
}

func decodeItem(r *http.Request) (models.LineItem, bool) {
	var item models.LineItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		return item, false
	}
	if item.ID <= 0 || item.Price < 0 || (item.Quantity != nil && *item.Quantity < 1) {
		return item, false
	}
	return item, true
}

// Cart handles GET /api/cart.
func (h *CartHandler) Cart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cart())
}

// Add handles POST /api/cart. A product already in the cart is rejected
// with 409.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	item, ok := decodeItem(r)
	if !ok {
		http.Error(w, "invalid item", http.StatusBadRequest)
		return
	}
	if h.CartService.InCart(item.ID) {
		http.Error(w, "product already in cart", http.StatusConflict)
		return
	}
	h.CartService.AddToCart(r.Context(), item)
	writeJSON(w, http.StatusCreated, h.cart())
}

// Remove handles DELETE /api/cart/{id}.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	h.CartService.RemoveFromCart(r.Context(), id)
	writeJSON(w, http.StatusOK, h.cart())
}

// Increment handles POST /api/cart/{id}/increment.
func (h *CartHandler) Increment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	h.CartService.Increment(r.Context(), id)
	writeJSON(w, http.StatusOK, h.cart())
}

// Decrement handles POST /api/cart/{id}/decrement.
func (h *CartHandler) Decrement(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	h.CartService.Decrement(r.Context(), id)
	writeJSON(w, http.StatusOK, h.cart())
}

// Favorites handles GET /api/favorites.
func (h *CartHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.CartService.Favorites())
}

// ToggleFavorite handles POST /api/favorites/toggle.
func (h *CartHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	item, ok := decodeItem(r)
	if !ok {
		http.Error(w, "invalid item", http.StatusBadRequest)
		return
	}
	added := h.CartService.ToggleFavorite(r.Context(), item)
	writeJSON(w, http.StatusOK, map[string]any{
		"added": added,
		"items": h.CartService.Favorites(),
	})
}

// RemoveFavorite handles DELETE /api/favorites/{id}.
func (h *CartHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	h.CartService.RemoveFromFavorites(r.Context(), id)
	writeJSON(w, http.StatusOK, h.CartService.Favorites())
}
