package api

import "github.com/starford/mimir/internal/models"

// CreateCardRequest is the request body for creating a card.
type CreateCardRequest struct {
	Kind     string   `json:"kind"`
	Question string   `json:"question,omitempty"`
	Answer   string   `json:"answer,omitempty"`
	Concept  string   `json:"concept,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// UpdateCardRequest is the request body for editing card content. Omitted
// fields are left unchanged.
type UpdateCardRequest struct {
	Question *string   `json:"question,omitempty"`
	Answer   *string   `json:"answer,omitempty"`
	Concept  *string   `json:"concept,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
}

// ReviewCardRequest is the request body for recording a review outcome.
type ReviewCardRequest struct {
	Rating int `json:"rating"`
}

// CardListResponse wraps card listings.
type CardListResponse struct {
	Cards []*models.Card `json:"cards"`
	Total int            `json:"total"`
}
