package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ahsanfayaz52/notespark/internal/auth"
	"github.com/ahsanfayaz52/notespark/internal/models"
)

// Accounts registers and authenticates users; *identity.Accounts implements it.
type Accounts interface {
	Register(ctx context.Context, email, password string) (models.Identity, error)
	Authenticate(ctx context.Context, email, password string) (models.Identity, error)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token   string          `json:"token"`
	User    models.Identity `json:"user"`
	Message string          `json:"message"`
}

func SignUpHandler(accounts Accounts, jwtService *auth.JWTService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c credentials
		if err := decodeJSON(w, r, &c); err != nil {
			jsonError(w, "invalid request body", http.StatusBadRequest)
			return
		}

		id, err := accounts.Register(r.Context(), c.Email, c.Password)
		if err != nil {
			log.Info().Err(err).Msg("sign up failed")
			jsonError(w, "Failed to sign up. The email may already be in use.", errorStatus(err))
			return
		}
		startSession(w, jwtService, id, "Account created successfully!", http.StatusCreated, log)
	}
}

func SignInHandler(accounts Accounts, jwtService *auth.JWTService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c credentials
		if err := decodeJSON(w, r, &c); err != nil {
			jsonError(w, "invalid request body", http.StatusBadRequest)
			return
		}

		id, err := accounts.Authenticate(r.Context(), c.Email, c.Password)
		if err != nil {
			log.Info().Err(err).Msg("sign in failed")
			jsonError(w, "Failed to sign in. Please check your credentials.", errorStatus(err))
			return
		}
		startSession(w, jwtService, id, "Successfully signed in!", http.StatusOK, log)
	}
}

func SignOutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     auth.CookieName,
			Value:    "",
			HttpOnly: true,
			Path:     "/",
			MaxAge:   -1,
		})
		jsonResponse(w, map[string]string{"message": "Logged out successfully!"}, http.StatusOK)
	}
}

// MeHandler reports the identity of the request.
func MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			jsonError(w, "not authenticated", http.StatusUnauthorized)
			return
		}
		jsonResponse(w, id, http.StatusOK)
	}
}

func startSession(w http.ResponseWriter, jwtService *auth.JWTService, id models.Identity, msg string, status int, log zerolog.Logger) {
	token, err := jwtService.GenerateToken(id)
	if err != nil {
		log.Error().Err(err).Msg("generate token")
		jsonError(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(jwtService.TTL()),
	})
	jsonResponse(w, sessionResponse{Token: token, User: id, Message: msg}, status)
}
