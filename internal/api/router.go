package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/mimir/internal/cardservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// onEvent, if non-nil, is invoked after each successful mutation.
func NewRouter(svc *cardservice.Service, authEnabled bool, token string, sseHandler http.Handler, onEvent CardEventFunc) chi.Router {
	h := NewHandler(svc, onEvent)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Cards CRUD and review.
	r.Get("/cards", h.ListCards)
	r.Post("/cards", h.CreateCard)
	r.Get("/cards/due", h.DueCards)
	r.Get("/cards/{id}", h.GetCard)
	r.Patch("/cards/{id}", h.UpdateCard)
	r.Delete("/cards/{id}", h.DeleteCard)
	r.Post("/cards/{id}/review", h.ReviewCard)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
