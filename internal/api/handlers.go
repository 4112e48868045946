package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/mimir/internal/apperr"
	"github.com/starford/mimir/internal/cardservice"
	"github.com/starford/mimir/internal/fsrs"
	"github.com/starford/mimir/internal/models"
)

// CardEventFunc is called after a successful mutation so the SSE layer can
// notify connected clients. kind is "created", "updated", "deleted", or
// "reviewed".
type CardEventFunc func(kind, id string)

// Handler holds API route handlers.
type Handler struct {
	svc     *cardservice.Service
	onEvent CardEventFunc
}

// NewHandler creates a new Handler. onEvent may be nil.
func NewHandler(svc *cardservice.Service, onEvent CardEventFunc) *Handler {
	return &Handler{svc: svc, onEvent: onEvent}
}

func (h *Handler) notify(kind, id string) {
	if h.onEvent != nil {
		h.onEvent(kind, id)
	}
}

// writeServiceError maps the error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("card not found"))
	case errors.Is(err, apperr.ErrInvalidContent), errors.Is(err, apperr.ErrInvalidRating):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrDuplicateID):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListCards handles GET /cards.
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	cards := h.svc.ListCards(r.Context())
	if cards == nil {
		cards = []*models.Card{}
	}
	writeJSON(w, http.StatusOK, CardListResponse{Cards: cards, Total: len(cards)})
}

// DueCards handles GET /cards/due?limit=N.
func (h *Handler) DueCards(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	cards := h.svc.DueCards(r.Context(), limit)
	if cards == nil {
		cards = []*models.Card{}
	}
	writeJSON(w, http.StatusOK, CardListResponse{Cards: cards, Total: len(cards)})
}

// GetCard handles GET /cards/{id}.
func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	card, err := h.svc.GetCard(r.Context(), id)
	if err != nil {
		writeServiceError(w, "get card", err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// CreateCard handles POST /cards.
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	card, err := h.svc.AddCard(r.Context(), cardservice.AddCardParams{
		Kind:     models.Kind(req.Kind),
		Question: req.Question,
		Answer:   req.Answer,
		Concept:  req.Concept,
		Tags:     req.Tags,
	})
	if err != nil {
		writeServiceError(w, "create card", err)
		return
	}
	h.notify("created", card.ID)
	writeJSON(w, http.StatusCreated, card)
}

// UpdateCard handles PATCH /cards/{id}.
func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req UpdateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	card, err := h.svc.EditCard(r.Context(), id, cardservice.EditCardParams{
		Question: req.Question,
		Answer:   req.Answer,
		Concept:  req.Concept,
		Tags:     req.Tags,
	})
	if err != nil {
		writeServiceError(w, "update card", err)
		return
	}
	h.notify("updated", card.ID)
	writeJSON(w, http.StatusOK, card)
}

// DeleteCard handles DELETE /cards/{id}.
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.RemoveCard(r.Context(), id); err != nil {
		writeServiceError(w, "delete card", err)
		return
	}
	h.notify("deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

// ReviewCard handles POST /cards/{id}/review.
func (h *Handler) ReviewCard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req ReviewCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	card, err := h.svc.ReviewCard(r.Context(), id, fsrs.Rating(req.Rating))
	if err != nil {
		writeServiceError(w, "review card", err)
		return
	}
	h.notify("reviewed", card.ID)
	writeJSON(w, http.StatusOK, card)
}
