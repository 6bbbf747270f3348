package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/ahsanfayaz52/notespark/internal/auth"
	"github.com/ahsanfayaz52/notespark/internal/middleware"
	"github.com/ahsanfayaz52/notespark/internal/render"
	"github.com/ahsanfayaz52/notespark/internal/store"
)

// Deps are the services the HTTP API is built from. Assistant and MCP may be nil.
type Deps struct {
	Accounts  Accounts
	JWT       *auth.JWTService
	Store     store.Store
	Renderer  *render.Renderer
	Assistant Assistant
	MCP       http.Handler
	Log       zerolog.Logger
}

// Register mounts the API on r.
func Register(r *mux.Router, d Deps) {
	if d.Renderer == nil {
		d.Renderer = render.New()
	}
	log := d.Log

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, map[string]string{"status": "ok"}, http.StatusOK)
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/auth/signup", SignUpHandler(d.Accounts, d.JWT, log)).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/signin", SignInHandler(d.Accounts, d.JWT, log)).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/signout", SignOutHandler()).Methods(http.MethodPost)

	// Authenticated routes
	s := r.PathPrefix("/").Subrouter()
	s.Use(auth.JWTMiddleware(d.JWT), middleware.RequestUser)

	s.HandleFunc("/api/me", MeHandler()).Methods(http.MethodGet)
	s.HandleFunc("/api/notes", ListNotesHandler(d.Store, d.Renderer, log)).Methods(http.MethodGet)
	s.HandleFunc("/api/notes", CreateNoteHandler(d.Store, log)).Methods(http.MethodPost)
	s.HandleFunc("/api/notes/live", LiveNotesHandler(d.Store, d.Renderer, log)).Methods(http.MethodGet)
	s.HandleFunc("/api/notes/{id}", GetNoteHandler(d.Store, d.Renderer, log)).Methods(http.MethodGet)
	s.HandleFunc("/api/notes/{id}", UpdateNoteHandler(d.Store, log)).Methods(http.MethodPut)
	s.HandleFunc("/api/notes/{id}", DeleteNoteHandler(d.Store, log)).Methods(http.MethodDelete)
	s.HandleFunc("/api/assist", AssistHandler(d.Assistant, d.Renderer, log)).Methods(http.MethodPost)

	if d.MCP != nil {
		s.Handle("/mcp", d.MCP).Methods(http.MethodGet, http.MethodPost, http.MethodDelete)
	}
}
