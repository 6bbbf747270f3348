package handlers

import (
	"context"
	"errors"
	"html/template"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ahsanfayaz52/notespark/internal/assist"
	"github.com/ahsanfayaz52/notespark/internal/render"
)

// Assistant rewrites text; *assist.Assistant implements it.
type Assistant interface {
	Process(ctx context.Context, action assist.Action, text string) (string, error)
}

type assistRequest struct {
	Text   string `json:"text"`
	Action string `json:"action"`
}

type assistResponse struct {
	Text string        `json:"text"`
	HTML template.HTML `json:"html"`
}

// AssistHandler serves POST /api/assist. A nil assistant answers 503.
func AssistHandler(a Assistant, renderer *render.Renderer, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a == nil {
			jsonError(w, "writing assist is not configured", http.StatusServiceUnavailable)
			return
		}

		var req assistRequest
		if err := decodeJSON(w, r, &req); err != nil {
			jsonError(w, "Invalid request", http.StatusBadRequest)
			return
		}
		action, err := assist.ParseAction(req.Action)
		if err != nil {
			jsonError(w, "Invalid action", http.StatusBadRequest)
			return
		}

		text, err := a.Process(r.Context(), action, req.Text)
		if errors.Is(err, assist.ErrEmptyText) {
			jsonError(w, "Text is required", http.StatusBadRequest)
			return
		}
		if err != nil {
			log.Error().Err(err).Str("action", string(action)).Msg("assist")
			jsonError(w, "AI processing failed", http.StatusBadGateway)
			return
		}

		html, err := renderer.HTML(text)
		if err != nil {
			log.Warn().Err(err).Msg("render assist output")
		}
		jsonResponse(w, assistResponse{Text: text, HTML: html}, http.StatusOK)
	}
}
