package http

import (
	"net/http"

	"github.com/atinyakov/GophShop/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter constructs and returns an HTTP handler that serves the
// storefront API.
//
// Routes:
//
//	GET    /api/catalog/categories         → catalogHandler.Categories
//	GET    /api/catalog/categories/{slug}  → catalogHandler.Category
//	GET    /api/catalog/products/{id}      → catalogHandler.Product
//	GET    /api/catalog/search?q=          → catalogHandler.Search
//	POST   /api/session/register           → sessionHandler.Register
//	POST   /api/session/login              → sessionHandler.Login
//	POST   /api/session/logout             → sessionHandler.Logout
//	GET    /api/session/me                 → sessionHandler.Me (session required)
//	PATCH  /api/session/me                 → sessionHandler.UpdateMe (session required)
//	GET    /api/cart                       → cartHandler.Cart
//	POST   /api/cart                       → cartHandler.Add (session required)
//	DELETE /api/cart/{id}                  → cartHandler.Remove
//	POST   /api/cart/{id}/increment        → cartHandler.Increment
//	POST   /api/cart/{id}/decrement        → cartHandler.Decrement
//	GET    /api/favorites                  → cartHandler.Favorites
//	POST   /api/favorites/toggle           → cartHandler.ToggleFavorite (session required)
//	DELETE /api/favorites/{id}             → cartHandler.RemoveFavorite
//	GET    /metrics                        → Prometheus exposition
//
// Middleware chain (applied in order):
//  1. Recoverer                            — turns panics into 500
//  2. WithRequestLogging(logger)           — logs incoming requests
//  3. cors.Handler(allowedOrigins)         — answers browser preflights
//  4. AllowContentType("application/json") — rejects non-JSON bodies under /api
func NewRouter(
	catalogHandler *CatalogHandler,
	sessionHandler *SessionHandler,
	cartHandler *CartHandler,
	session middleware.SessionSource,
	allowedOrigins []string,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         600,
	}))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Only allow requests with Content-Type: application/json
		r.Use(chiMiddleware.AllowContentType("application/json"))

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/categories", catalogHandler.Categories)
			r.Get("/categories/{slug}", catalogHandler.Category)
			r.Get("/products/{id}", catalogHandler.Product)
			r.Get("/search", catalogHandler.Search)
		})

		r.Route("/session", func(r chi.Router) {
			r.Post("/register", sessionHandler.Register)
			r.Post("/login", sessionHandler.Login)
			r.Post("/logout", sessionHandler.Logout)
			r.With(middleware.RequireSession(session)).Get("/me", sessionHandler.Me)
			r.With(middleware.RequireSession(session)).Patch("/me", sessionHandler.UpdateMe)
		})

		r.Get("/cart", cartHandler.Cart)
		r.Get("/favorites", cartHandler.Favorites)

		// Protected group: mutations need a logged-in user. The session is
		// process-wide, see the package doc.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(session))
			r.Post("/cart", cartHandler.Add)
			r.Delete("/cart/{id}", cartHandler.Remove)
			r.Post("/cart/{id}/increment", cartHandler.Increment)
			r.Post("/cart/{id}/decrement", cartHandler.Decrement)
			r.Post("/favorites/toggle", cartHandler.ToggleFavorite)
			r.Delete("/favorites/{id}", cartHandler.RemoveFavorite)
		})
	})

	return r
}
