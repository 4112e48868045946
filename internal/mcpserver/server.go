// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the Mimir card tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/mimir/internal/apperr"
	"github.com/starford/mimir/internal/cardservice"
	"github.com/starford/mimir/internal/fsrs"
	"github.com/starford/mimir/internal/models"
)

// Server wraps the MCP server with Mimir tools.
type Server struct {
	mcp *server.MCPServer
	svc *cardservice.Service
}

// New creates a new MCP server with all Mimir tools registered.
func New(svc *cardservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Mimir",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("add_card",
		mcp.WithDescription("Add a new spaced repetition card. Fact cards need "+
			"question and answer; concept cards need a concept description. "+
			"New cards are due immediately."),
		mcp.WithString("card_type", mcp.Required(),
			mcp.Description("Type of card: 'fact' for Q&A pairs, 'concept' for agent-generated questions"),
			mcp.Enum("fact", "concept")),
		mcp.WithString("question", mcp.Description("Question text (required for fact cards)")),
		mcp.WithString("answer", mcp.Description("Answer text (required for fact cards)")),
		mcp.WithString("concept", mcp.Description("Concept description (required for concept cards)")),
		mcp.WithArray("tags", mcp.Description("Optional tags for organizing cards"),
			mcp.Items(map[string]any{"type": "string"})),
	), s.addCard)

	s.mcp.AddTool(mcp.NewTool("remove_card",
		mcp.WithDescription("Permanently remove a card by ID."),
		mcp.WithString("card_id", mcp.Required(), mcp.Description("ID of the card to remove")),
	), s.removeCard)

	s.mcp.AddTool(mcp.NewTool("get_next_due_card",
		mcp.WithDescription("Get the next cards due for review, earliest first. "+
			"An empty list means nothing is currently due."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of due cards to return (default: 1)")),
	), s.getNextDueCard)

	s.mcp.AddTool(mcp.NewTool("update_card",
		mcp.WithDescription("Update a card's content or tags. Fields must match the "+
			"card's type; scheduling state is never changed by an update."),
		mcp.WithString("card_id", mcp.Required(), mcp.Description("ID of the card to update")),
		mcp.WithString("question", mcp.Description("Updated question (fact cards only)")),
		mcp.WithString("answer", mcp.Description("Updated answer (fact cards only)")),
		mcp.WithString("concept", mcp.Description("Updated concept description (concept cards only)")),
		mcp.WithArray("tags", mcp.Description("Replacement tag list"),
			mcp.Items(map[string]any{"type": "string"})),
	), s.updateCard)

	s.mcp.AddTool(mcp.NewTool("review_card",
		mcp.WithDescription("Record a review outcome. The FSRS model reschedules the "+
			"card and returns its new due date, stability, and difficulty."),
		mcp.WithString("card_id", mcp.Required(), mcp.Description("ID of the reviewed card")),
		mcp.WithNumber("rating", mcp.Required(),
			mcp.Description("Recall rating: 1=Again, 2=Hard, 3=Good, 4=Easy")),
	), s.reviewCard)

	s.mcp.AddTool(mcp.NewTool("get_review_contract",
		mcp.WithDescription("Returns the Mimir review workflow contract. "+
			"Call this before running a review session."),
	), s.getReviewContract)

	// Resource: review workflow contract.
	s.mcp.AddResource(
		mcp.NewResource("mimir://review-workflow", "Review Workflow Contract",
			mcp.WithResourceDescription("How an agent should drive review sessions against the Mimir tools."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readReviewWorkflowResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// toolError maps service errors onto tool error results. Unknown errors are
// passed through verbatim; the taxonomy is small and caller-recoverable.
func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("card not found")
	case errors.Is(err, apperr.ErrInvalidContent),
		errors.Is(err, apperr.ErrInvalidRating),
		errors.Is(err, apperr.ErrDuplicateID):
		return mcp.NewToolResultError(err.Error())
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func cardResult(card *models.Card) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(card, "", "  ")
	return mcp.NewToolResultText(string(out))
}

func (s *Server) addCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cardType, err := req.RequireString("card_type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	card, err := s.svc.AddCard(ctx, cardservice.AddCardParams{
		Kind:     models.Kind(cardType),
		Question: req.GetString("question", ""),
		Answer:   req.GetString("answer", ""),
		Concept:  req.GetString("concept", ""),
		Tags:     req.GetStringSlice("tags", nil),
	})
	if err != nil {
		return toolError(err), nil
	}
	return cardResult(card), nil
}

func (s *Server) removeCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("card_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.RemoveCard(ctx, id); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("removed: %s", id)), nil
}

func (s *Server) getNextDueCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 1)

	cards := s.svc.DueCards(ctx, limit)
	if len(cards) == 0 {
		return mcp.NewToolResultText(`{"cards": [], "message": "No cards due for review"}`), nil
	}
	out, _ := json.MarshalIndent(map[string]any{"cards": cards}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) updateCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("card_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var p cardservice.EditCardParams
	args := req.GetArguments()
	if _, ok := args["question"]; ok {
		v := req.GetString("question", "")
		p.Question = &v
	}
	if _, ok := args["answer"]; ok {
		v := req.GetString("answer", "")
		p.Answer = &v
	}
	if _, ok := args["concept"]; ok {
		v := req.GetString("concept", "")
		p.Concept = &v
	}
	if _, ok := args["tags"]; ok {
		v := req.GetStringSlice("tags", nil)
		p.Tags = &v
	}

	card, err := s.svc.EditCard(ctx, id, p)
	if err != nil {
		return toolError(err), nil
	}
	return cardResult(card), nil
}

func (s *Server) reviewCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("card_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rating, err := req.RequireInt("rating")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	card, err := s.svc.ReviewCard(ctx, id, fsrs.Rating(rating))
	if err != nil {
		return toolError(err), nil
	}
	return cardResult(card), nil
}

func (s *Server) getReviewContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ReviewWorkflowContract), nil
}

func (s *Server) readReviewWorkflowResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "mimir://review-workflow",
			MIMEType: "text/markdown",
			Text:     ReviewWorkflowContract,
		},
	}, nil
}
