package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ahsanfayaz52/notespark/internal/assist"
	"github.com/ahsanfayaz52/notespark/internal/auth"
	"github.com/ahsanfayaz52/notespark/internal/db"
	"github.com/ahsanfayaz52/notespark/internal/identity"
	"github.com/ahsanfayaz52/notespark/internal/store"
)

type fixture struct {
	router *mux.Router
	store  *store.Live
}

func newFixture(t *testing.T, a Assistant) *fixture {
	t.Helper()
	conn, err := db.Open(context.Background(), "sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	live := store.NewLive(store.NewSQLBackend(conn), store.NewHub())
	r := mux.NewRouter()
	Register(r, Deps{
		Accounts:  identity.NewAccounts(identity.NewSQLDirectory(conn), identity.WithHashCost(bcrypt.MinCost)),
		JWT:       auth.NewJWTService("test-secret", time.Hour),
		Store:     live,
		Assistant: a,
		Log:       zerolog.Nop(),
	})
	return &fixture{router: r, store: live}
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func (f *fixture) signUp(t *testing.T, email string) string {
	t.Helper()
	rr := f.do(t, http.MethodPost, "/api/auth/signup", "", credentials{Email: email, Password: "hunter22"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

type noteJSON struct {
	ID      string   `json:"id"`
	UserID  string   `json:"user_id"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	HTML    string   `json:"html"`
	TagLine string   `json:"tag_line"`
}

func TestAuthFlow(t *testing.T) {
	f := newFixture(t, nil)

	rr := f.do(t, http.MethodPost, "/api/auth/signup", "", credentials{Email: "Ada@Example.com", Password: "hunter22"})
	require.Equal(t, http.StatusCreated, rr.Code)
	resp := decodeBody[sessionResponse](t, rr)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.Equal(t, "Account created successfully!", resp.Message)
	require.NotEmpty(t, rr.Result().Cookies())
	assert.Equal(t, auth.CookieName, rr.Result().Cookies()[0].Name)

	rr = f.do(t, http.MethodPost, "/api/auth/signup", "", credentials{Email: "ada@example.com", Password: "hunter22"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = f.do(t, http.MethodPost, "/api/auth/signin", "", credentials{Email: "ada@example.com", Password: "wrong!!"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Failed to sign in. Please check your credentials.", decodeBody[errorResponse](t, rr).Error)

	rr = f.do(t, http.MethodPost, "/api/auth/signin", "", credentials{Email: "ada@example.com", Password: "hunter22"})
	require.Equal(t, http.StatusOK, rr.Code)
	token := decodeBody[sessionResponse](t, rr).Token

	rr = f.do(t, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ada@example.com")

	rr = f.do(t, http.MethodPost, "/api/auth/signout", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, -1, rr.Result().Cookies()[0].MaxAge)
}

func TestSignUpInvalidInput(t *testing.T) {
	f := newFixture(t, nil)
	rr := f.do(t, http.MethodPost, "/api/auth/signup", "", credentials{Email: "not-an-email", Password: "hunter22"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodPost, "/api/auth/signup", "", map[string]any{"email": 42})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestNotesRequireAuth(t *testing.T) {
	f := newFixture(t, nil)
	for _, path := range []string{"/api/notes", "/api/notes/x", "/api/me"} {
		rr := f.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}
	rr := f.do(t, http.MethodGet, "/api/notes", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestNotesCRUD(t *testing.T) {
	f := newFixture(t, nil)
	token := f.signUp(t, "ada@example.com")

	rr := f.do(t, http.MethodPost, "/api/notes", token, map[string]string{"title": "Groceries", "content": "*milk*", "tags": "home"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decodeBody[writeResponse](t, rr)
	assert.Equal(t, "Note saved successfully!", created.Message)

	rr = f.do(t, http.MethodPost, "/api/notes", token, map[string]string{"title": "Work plan", "tags": "work, q2"})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = f.do(t, http.MethodGet, "/api/notes", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decodeBody[[]noteJSON](t, rr)
	require.Len(t, list, 2)
	assert.Equal(t, "Work plan", list[0].Title, "newest first")
	assert.Equal(t, []string{"work", "q2"}, list[0].Tags)

	rr = f.do(t, http.MethodGet, "/api/notes?search=wor", token, nil)
	list = decodeBody[[]noteJSON](t, rr)
	require.Len(t, list, 1)
	assert.Equal(t, "Work plan", list[0].Title)

	rr = f.do(t, http.MethodGet, "/api/notes/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	got := decodeBody[noteJSON](t, rr)
	assert.Equal(t, "<p><em>milk</em></p>\n", got.HTML)
	assert.Equal(t, "home", got.TagLine)

	rr = f.do(t, http.MethodPut, "/api/notes/"+created.ID, token, map[string]string{"title": "Groceries", "content": "eggs", "tags": "home, weekly"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "Note updated successfully!", decodeBody[writeResponse](t, rr).Message)

	n, err := f.store.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "eggs", n.Content)
	assert.Equal(t, []string{"home", "weekly"}, n.Tags)
	assert.NotNil(t, n.UpdatedAt)

	rr = f.do(t, http.MethodDelete, "/api/notes/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Note deleted successfully!", decodeBody[writeResponse](t, rr).Message)

	rr = f.do(t, http.MethodGet, "/api/notes/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestNotesOfOthersAreHidden(t *testing.T) {
	f := newFixture(t, nil)
	ada := f.signUp(t, "ada@example.com")
	bob := f.signUp(t, "bob@example.com")

	rr := f.do(t, http.MethodPost, "/api/notes", ada, map[string]string{"title": "private"})
	require.Equal(t, http.StatusCreated, rr.Code)
	id := decodeBody[writeResponse](t, rr).ID

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/notes/"+id, bob, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPut, "/api/notes/"+id, bob, map[string]string{"title": "mine"}).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/api/notes/"+id, bob, nil).Code)

	rr = f.do(t, http.MethodGet, "/api/notes", bob, nil)
	assert.Empty(t, decodeBody[[]noteJSON](t, rr))
}

func TestLiveNotes(t *testing.T) {
	f := newFixture(t, nil)
	token := f.signUp(t, "ada@example.com")

	srv := httptest.NewServer(f.router)
	defer srv.Close()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/notes/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()

	readFrame := func() liveFrame {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var frame liveFrame
		require.NoError(t, conn.ReadJSON(&frame))
		return frame
	}

	first := readFrame()
	assert.Equal(t, "live", first.State)
	assert.Empty(t, first.Notes)

	rr := f.do(t, http.MethodPost, "/api/notes", token, map[string]string{"title": "Work plan", "tags": "work"})
	require.Equal(t, http.StatusCreated, rr.Code)
	rr = f.do(t, http.MethodPost, "/api/notes", token, map[string]string{"title": "Groceries", "tags": "home"})
	require.Equal(t, http.StatusCreated, rr.Code)

	var frame liveFrame
	for len(frame.Notes) < 2 {
		frame = readFrame()
	}

	require.NoError(t, conn.WriteJSON(map[string]string{"search": "wor"}))
	for len(frame.Notes) != 1 {
		frame = readFrame()
	}
	assert.Equal(t, "wor", frame.Search)
	assert.Equal(t, "Work plan", frame.Notes[0].Title)
}

type fakeAssistant struct{ out string }

func (f fakeAssistant) Process(_ context.Context, _ assist.Action, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", assist.ErrEmptyText
	}
	return f.out, nil
}

func TestAssist(t *testing.T) {
	f := newFixture(t, fakeAssistant{out: "**Fixed.**"})
	token := f.signUp(t, "ada@example.com")

	rr := f.do(t, http.MethodPost, "/api/assist", token, assistRequest{Action: "fix", Text: "fixd"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp := decodeBody[map[string]string](t, rr)
	assert.Equal(t, "**Fixed.**", resp["text"])
	assert.Equal(t, "<p><strong>Fixed.</strong></p>\n", resp["html"])

	rr = f.do(t, http.MethodPost, "/api/assist", token, assistRequest{Action: "poem", Text: "x"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodPost, "/api/assist", token, assistRequest{Action: "fix"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAssistNotConfigured(t *testing.T) {
	f := newFixture(t, nil)
	token := f.signUp(t, "ada@example.com")
	rr := f.do(t, http.MethodPost, "/api/assist", token, assistRequest{Action: "fix", Text: "x"})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	rr := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}
