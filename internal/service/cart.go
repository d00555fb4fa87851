package service

import (
	"context"
	"sync"

	"github.com/atinyakov/GophShop/internal/client/storage"
	"github.com/atinyakov/GophShop/internal/metrics"
	"github.com/atinyakov/GophShop/internal/models"
	"go.uber.org/zap"
)

// CartEvent is published after every cart or favorites mutation.
type CartEvent struct {
	// Op names the mutation, e.g. "add_to_cart".
	Op string
	// Cart and Favorites are snapshots taken after the mutation.
	Cart      []models.LineItem
	Favorites []models.LineItem
	// Persisted is false when the change could not be written to storage
	// and lives in memory only.
	Persisted bool
}

// CartStore owns the cart and favorites collections.
// Re-adding an id that is already present appends a second entry; callers
// that want one entry per product check InCart or InFavorites first.
type CartStore struct {
	mu        sync.Mutex
	adapter   *storage.Adapter
	log       *zap.Logger
	cart      []models.LineItem
	favorites []models.LineItem
	events    notifier[CartEvent]

	// unread holds keys whose initial read failed. Mutations of such a
	// collection are dropped until it can be read.
	unread map[string]bool
}

// NewCartStore loads both collections from adapter. Missing or malformed
// values start empty. A collection the backend fails to return is retried
// on its next mutation.
func NewCartStore(ctx context.Context, adapter *storage.Adapter, log *zap.Logger) *CartStore {
	if log == nil {
		log = zap.NewNop()
	}
	s := &CartStore{adapter: adapter, log: log, unread: map[string]bool{}}
	var ok bool
	if s.cart, ok = s.load(ctx, storage.KeyCart); !ok {
		s.unread[storage.KeyCart] = true
	}
	if s.favorites, ok = s.load(ctx, storage.KeyFavorites); !ok {
		s.unread[storage.KeyFavorites] = true
	}
	return s
}

func (s *CartStore) load(ctx context.Context, key string) ([]models.LineItem, bool) {
	var items []models.LineItem
	found, err := restore(ctx, s.adapter, s.log, key, &items)
	if err != nil {
		return []models.LineItem{}, false
	}
	if !found || items == nil {
		items = []models.LineItem{}
	}
	return items, true
}

// Subscribe registers fn for change events and returns its cancel function.
func (s *CartStore) Subscribe(fn func(CartEvent)) func() {
	return s.events.subscribe(fn)
}

// Cart returns a copy of the cart.
func (s *CartStore) Cart() []models.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.cart)
}

// Favorites returns a copy of the favorites list.
func (s *CartStore) Favorites() []models.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.favorites)
}

// InCart reports whether an item with id is in the cart.
func (s *CartStore) InCart(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.cart, id) >= 0
}

// InFavorites reports whether an item with id is in the favorites list.
func (s *CartStore) InFavorites(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.favorites, id) >= 0
}

// Total is the sum of price times quantity over the cart.
func (s *CartStore) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, it := range s.cart {
		total += it.Price * float64(it.Qty())
	}
	return total
}

// Count is the number of units in the cart.
func (s *CartStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.cart {
		n += it.Qty()
	}
	return n
}

// AddToCart appends item to the cart.
func (s *CartStore) AddToCart(ctx context.Context, item models.LineItem) {
	s.mutateCart(ctx, "add_to_cart", func(items []models.LineItem) []models.LineItem {
		return append(items, item)
	})
}

// RemoveFromCart drops every cart entry with id.
func (s *CartStore) RemoveFromCart(ctx context.Context, id int) {
	s.mutateCart(ctx, "remove_from_cart", func(items []models.LineItem) []models.LineItem {
		return without(items, id)
	})
}

// Increment raises the quantity of the cart entry with id by one.
func (s *CartStore) Increment(ctx context.Context, id int) {
	s.mutateCart(ctx, "increment", func(items []models.LineItem) []models.LineItem {
		for i, it := range items {
			if it.ID == id {
				items[i] = it.WithQty(it.Qty() + 1)
			}
		}
		return items
	})
}

// Decrement lowers the quantity of the cart entry with id by one, never
// below 1. It does not remove the entry.
func (s *CartStore) Decrement(ctx context.Context, id int) {
	s.mutateCart(ctx, "decrement", func(items []models.LineItem) []models.LineItem {
		for i, it := range items {
			if it.ID == id && it.Qty() > 1 {
				items[i] = it.WithQty(it.Qty() - 1)
			}
		}
		return items
	})
}

// ClearCart empties the cart.
func (s *CartStore) ClearCart(ctx context.Context) {
	s.mutateCart(ctx, "clear_cart", func([]models.LineItem) []models.LineItem {
		return []models.LineItem{}
	})
}

// AddToFavorites appends item to the favorites list.
func (s *CartStore) AddToFavorites(ctx context.Context, item models.LineItem) {
	s.mutateFavorites(ctx, "add_to_favorites", func(items []models.LineItem) []models.LineItem {
		return append(items, item)
	})
}

// RemoveFromFavorites drops every favorite with id.
func (s *CartStore) RemoveFromFavorites(ctx context.Context, id int) {
	s.mutateFavorites(ctx, "remove_from_favorites", func(items []models.LineItem) []models.LineItem {
		return without(items, id)
	})
}

// ToggleFavorite removes item from favorites when present and adds it
// otherwise. It reports whether the item ended up in the list.
func (s *CartStore) ToggleFavorite(ctx context.Context, item models.LineItem) bool {
	var added bool
	applied := s.mutateFavorites(ctx, "toggle_favorite", func(items []models.LineItem) []models.LineItem {
		if indexOf(items, item.ID) >= 0 {
			return without(items, item.ID)
		}
		added = true
		return append(items, item)
	})
	if !applied {
		return s.InFavorites(item.ID)
	}
	return added
}

func (s *CartStore) mutateCart(ctx context.Context, op string, fn func([]models.LineItem) []models.LineItem) bool {
	return s.mutate(ctx, "cart", op, storage.KeyCart, &s.cart, fn)
}

func (s *CartStore) mutateFavorites(ctx context.Context, op string, fn func([]models.LineItem) []models.LineItem) bool {
	return s.mutate(ctx, "favorites", op, storage.KeyFavorites, &s.favorites, fn)
}

// mutate applies fn to a copy of *items, then persists and publishes. It
// reports false, changing nothing, when key still cannot be read.
func (s *CartStore) mutate(ctx context.Context, store, op, key string, items *[]models.LineItem, fn func([]models.LineItem) []models.LineItem) bool {
	s.mu.Lock()
	if s.unread[key] {
		restored, ok := s.load(ctx, key)
		if !ok {
			s.mu.Unlock()
			metrics.PersistFailures.WithLabelValues(key).Inc()
			s.log.Warn("local storage unreadable, change dropped", zap.String("key", key), zap.String("op", op))
			return false
		}
		*items = restored
		delete(s.unread, key)
	}
	*items = fn(clone(*items))
	persisted := persist(ctx, s.adapter, s.log, key, *items)
	ev := CartEvent{Op: op, Cart: clone(s.cart), Favorites: clone(s.favorites), Persisted: persisted}
	s.mu.Unlock()

	metrics.StoreOps.WithLabelValues(store, op).Inc()
	s.events.publish(ev)
	return true
}

func clone(items []models.LineItem) []models.LineItem {
	out := make([]models.LineItem, len(items))
	for i, it := range items {
		if it.Quantity != nil {
			it = it.WithQty(*it.Quantity)
		}
		out[i] = it
	}
	return out
}

func indexOf(items []models.LineItem, id int) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func without(items []models.LineItem, id int) []models.LineItem {
	out := make([]models.LineItem, 0, len(items))
	for _, it := range items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}
