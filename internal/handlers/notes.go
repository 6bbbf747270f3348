package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/ahsanfayaz52/notespark/internal/auth"
	"github.com/ahsanfayaz52/notespark/internal/editor"
	"github.com/ahsanfayaz52/notespark/internal/liveview"
	"github.com/ahsanfayaz52/notespark/internal/models"
	"github.com/ahsanfayaz52/notespark/internal/notify"
	"github.com/ahsanfayaz52/notespark/internal/render"
	"github.com/ahsanfayaz52/notespark/internal/session"
	"github.com/ahsanfayaz52/notespark/internal/store"
)

type writeResponse struct {
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}

func ListNotesHandler(s store.Store, renderer *render.Renderer, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			jsonError(w, "not authenticated", http.StatusUnauthorized)
			return
		}

		notes, err := liveview.Fetch(r.Context(), s, id.ID)
		if err != nil {
			log.Error().Err(err).Str("user_id", id.ID).Msg("list notes")
			jsonError(w, "Failed to load notes", http.StatusInternalServerError)
			return
		}

		out, err := renderer.Notes(liveview.Filter(notes, r.URL.Query().Get("search")))
		if err != nil {
			log.Error().Err(err).Msg("render notes")
			jsonError(w, "Failed to render notes", http.StatusInternalServerError)
			return
		}
		jsonResponse(w, out, http.StatusOK)
	}
}

func CreateNoteHandler(s store.Store, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var draft models.Draft
		if err := decodeJSON(w, r, &draft); err != nil {
			jsonError(w, "invalid request body", http.StatusBadRequest)
			return
		}

		ed, rec := requestEditor(r, s, log)
		defer ed.Close()
		ed.SetDraft(draft)

		id, err := ed.Submit(r.Context())
		if err != nil {
			jsonError(w, rec.Last().Text, errorStatus(err))
			return
		}
		jsonResponse(w, writeResponse{ID: id, Message: rec.Last().Text}, http.StatusCreated)
	}
}

func GetNoteHandler(s store.Store, renderer *render.Renderer, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		note, ok := ownedNote(w, r, s, log)
		if !ok {
			return
		}
		out, err := renderer.Note(note)
		if err != nil {
			log.Error().Err(err).Msg("render note")
			jsonError(w, "Failed to render note", http.StatusInternalServerError)
			return
		}
		jsonResponse(w, out, http.StatusOK)
	}
}

func UpdateNoteHandler(s store.Store, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var draft models.Draft
		if err := decodeJSON(w, r, &draft); err != nil {
			jsonError(w, "invalid request body", http.StatusBadRequest)
			return
		}

		ed, rec := requestEditor(r, s, log)
		defer ed.Close()
		if err := ed.Load(r.Context(), mux.Vars(r)["id"]); err != nil {
			jsonError(w, rec.Last().Text, errorStatus(err))
			return
		}
		ed.SetDraft(draft)

		id, err := ed.Submit(r.Context())
		if err != nil {
			jsonError(w, rec.Last().Text, errorStatus(err))
			return
		}
		jsonResponse(w, writeResponse{ID: id, Message: rec.Last().Text}, http.StatusOK)
	}
}

func DeleteNoteHandler(s store.Store, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		note, ok := ownedNote(w, r, s, log)
		if !ok {
			return
		}

		rec := &notify.Recorder{}
		view := liveview.New(s, liveview.WithNotifier(rec), liveview.WithLogger(log))
		defer view.Stop()
		if err := view.Delete(r.Context(), note.ID); err != nil {
			jsonError(w, rec.Last().Text, errorStatus(err))
			return
		}
		jsonResponse(w, writeResponse{ID: note.ID, Message: rec.Last().Text}, http.StatusOK)
	}
}

// requestEditor builds an editor acting for the identity of r.
func requestEditor(r *http.Request, s store.Store, log zerolog.Logger) (*editor.Editor, *notify.Recorder) {
	var src session.Source = session.Static(nil)
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		src = session.Static(&id)
	}
	rec := &notify.Recorder{}
	return editor.New(s, src, editor.WithNotifier(rec), editor.WithLogger(log)), rec
}

// ownedNote loads the note named in the path. Notes of other users are
// reported as missing.
func ownedNote(w http.ResponseWriter, r *http.Request, s store.Store, log zerolog.Logger) (models.Note, bool) {
	user, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		jsonError(w, "not authenticated", http.StatusUnauthorized)
		return models.Note{}, false
	}

	note, err := s.Get(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) || (err == nil && note.UserID != user.ID) {
		jsonError(w, "Note not found.", http.StatusNotFound)
		return models.Note{}, false
	}
	if err != nil {
		log.Error().Err(err).Msg("get note")
		jsonError(w, "Failed to fetch note", http.StatusInternalServerError)
		return models.Note{}, false
	}
	return note, true
}
