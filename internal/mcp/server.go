// Package mcp exposes the signed-in user's notes as MCP tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ahsanfayaz52/notespark/internal/auth"
	"github.com/ahsanfayaz52/notespark/internal/liveview"
	"github.com/ahsanfayaz52/notespark/internal/models"
	"github.com/ahsanfayaz52/notespark/internal/store"
)

// Store is the part of store.Store the tools read from.
type Store interface {
	liveview.NoteStore
	store.Reader
}

// NewServer creates an MCP server with read-only note tools. Every tool acts
// for the identity found in the request context.
func NewServer(s Store) *server.MCPServer {
	srv := server.NewMCPServer(
		"NoteSpark",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	srv.AddTool(
		mcp.NewTool("list_notes",
			mcp.WithDescription("List your notes, newest first."),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of notes to return (default: 50, max: 200)"),
			),
		),
		handleListNotes(s),
	)

	srv.AddTool(
		mcp.NewTool("search_notes",
			mcp.WithDescription("Find notes whose title or any tag contains the query, ignoring case."),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Text to look for in titles and tags"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of notes to return (default: 50, max: 200)"),
			),
		),
		handleSearchNotes(s),
	)

	srv.AddTool(
		mcp.NewTool("get_note",
			mcp.WithDescription("Get one of your notes by its ID."),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("The note ID"),
			),
		),
		handleGetNote(s),
	)

	return srv
}

// NewHTTPHandler serves srv over streamable HTTP. Mount it behind
// auth.JWTMiddleware so the identity reaches the tools.
func NewHTTPHandler(srv *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(srv,
		server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			if id, ok := auth.IdentityFromContext(r.Context()); ok {
				return auth.WithIdentity(ctx, id)
			}
			return ctx
		}),
	)
}

type NoteResult struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Tags      []string   `json:"tags"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

func handleListNotes(s Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, ok := auth.IdentityFromContext(ctx)
		if !ok {
			return mcp.NewToolResultError("not authenticated"), nil
		}

		notes, err := liveview.Fetch(ctx, s, id.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list notes: %v", err)), nil
		}
		return jsonResult(notesToResults(limit(notes, req.GetInt("limit", 50))))
	}
}

func handleSearchNotes(s Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, ok := auth.IdentityFromContext(ctx)
		if !ok {
			return mcp.NewToolResultError("not authenticated"), nil
		}
		query, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query is required"), nil
		}

		notes, err := liveview.Fetch(ctx, s, id.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to search notes: %v", err)), nil
		}
		notes = liveview.Filter(notes, query)
		return jsonResult(notesToResults(limit(notes, req.GetInt("limit", 50))))
	}
}

func handleGetNote(s Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		user, ok := auth.IdentityFromContext(ctx)
		if !ok {
			return mcp.NewToolResultError("not authenticated"), nil
		}
		id, err := req.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}

		note, err := s.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) || (err == nil && note.UserID != user.ID) {
			return mcp.NewToolResultError("note not found"), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to get note: %v", err)), nil
		}
		return jsonResult(toResult(note))
	}
}

func limit(notes []models.Note, n int) []models.Note {
	if n <= 0 {
		n = 50
	}
	if n > 200 {
		n = 200
	}
	if len(notes) > n {
		return notes[:n]
	}
	return notes
}

func toResult(n models.Note) NoteResult {
	return NoteResult{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		Tags:      n.Tags,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func notesToResults(notes []models.Note) []NoteResult {
	results := make([]NoteResult, len(notes))
	for i, n := range notes {
		results[i] = toResult(n)
	}
	return results
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
