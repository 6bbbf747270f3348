package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ahsanfayaz52/notespark/internal/auth"
	"github.com/ahsanfayaz52/notespark/internal/liveview"
	"github.com/ahsanfayaz52/notespark/internal/render"
	"github.com/ahsanfayaz52/notespark/internal/store"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// liveFrame is pushed to the client after every change.
type liveFrame struct {
	State  string        `json:"state"`
	Search string        `json:"search"`
	Notes  []render.Note `json:"notes"`
	Error  string        `json:"error,omitempty"`
}

type liveCommand struct {
	Search *string `json:"search"`
}

// LiveNotesHandler streams the user's notes over a WebSocket. Clients send
// {"search": "..."} to change the filter.
func LiveNotesHandler(s store.Store, renderer *render.Renderer, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			jsonError(w, "not authenticated", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade")
			return
		}
		defer conn.Close()
		// the server's read timeout must not end a long-lived stream
		conn.SetReadDeadline(time.Time{})

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		log := log.With().Str("user_id", id.ID).Logger()
		view := liveview.New(s, liveview.WithLogger(log))
		defer view.Stop()
		view.Search(r.URL.Query().Get("search"))

		go readCommands(ctx, cancel, conn, view)

		if err := view.SetOwner(ctx, id.ID); err != nil {
			writeFrame(conn, frameOf(view, renderer, log))
			return
		}

		for {
			select {
			case <-ctx.Done():
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeWait))
				return
			case <-view.Updates():
				frame := frameOf(view, renderer, log)
				if frame.State == liveview.Subscribing.String() {
					continue
				}
				if err := writeFrame(conn, frame); err != nil {
					log.Debug().Err(err).Msg("live write")
					return
				}
			}
		}
	}
}

func readCommands(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, view *liveview.View) {
	defer cancel()
	for {
		var cmd liveCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		if cmd.Search != nil {
			view.Search(*cmd.Search)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func frameOf(view *liveview.View, renderer *render.Renderer, log zerolog.Logger) liveFrame {
	m := view.Current()
	frame := liveFrame{State: m.State.String(), Search: m.Search}
	notes, err := renderer.Notes(m.Visible)
	if err != nil {
		log.Warn().Err(err).Msg("render notes")
	}
	frame.Notes = notes
	if frame.Notes == nil {
		frame.Notes = []render.Note{}
	}
	if m.Err != nil {
		frame.Error = "Failed to load notes"
	}
	return frame
}

func writeFrame(conn *websocket.Conn, frame liveFrame) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(frame)
}
