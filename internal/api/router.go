/**
 * @description
 * This file sets up the HTTP router for the points ledger engine. It defines
 * the API endpoints, associates them with their corresponding handlers, and
 * applies any necessary middleware, such as for authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// LedgerRoutes creates and returns a new router for the points ledger engine.
func LedgerRoutes(h *LedgerHandlers, jwksURL string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Group routes that require authentication.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(jwksURL))

		// Account lifecycle and ledger snapshot
		r.Post("/accounts", h.ProvisionAccountHandler)
		r.Get("/accounts/me", h.GetAccountHandler)
		r.Put("/accounts/me/active", h.SetAccountActiveHandler)

		// Point movement endpoints
		r.Post("/transfers", h.TransferHandler)
		r.Post("/appreciations", h.AppreciateHandler)
		r.Get("/posts/{postID}/appreciations", h.ListPostAppreciationsHandler)
		r.Post("/awards", h.AwardBatchHandler)

		// Streak evaluation
		r.Post("/streak/evaluate", h.EvaluateStreakHandler)
	})

	return r
}
