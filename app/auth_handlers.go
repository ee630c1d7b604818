package cinevault

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cinevault/cinevault/core"
	"github.com/cinevault/cinevault/pkg/router"
)

type AuthHandler struct {
	users    core.UserStore
	verifier *core.LocalVerifier
	sessions core.SessionManager
	tokens   *core.TokenIssuer
	flow     string
	idle     time.Duration
}

func NewAuthHandler(users core.UserStore, verifier *core.LocalVerifier,
	sessions core.SessionManager, tokens *core.TokenIssuer, flow string, idle time.Duration) *AuthHandler {
	return &AuthHandler{
		users:    users,
		verifier: verifier,
		sessions: sessions,
		tokens:   tokens,
		flow:     flow,
		idle:     idle,
	}
}

var errUnauthenticated = router.NewJsonError(http.StatusUnauthorized, "unauthenticated")

type RegisterPayload struct {
	Name     string `json:"name"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=4"`
}

type RegisterResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (h *AuthHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) error {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return router.NewJsonError(http.StatusBadRequest, "invalid input")
	}
	defer r.Body.Close()

	if err := validate.Struct(payload); err != nil {
		return router.NewJsonError(http.StatusBadRequest, "invalid input")
	}

	user, err := h.users.CreateUser(r.Context(), core.User{
		Name:     payload.Name,
		Username: payload.Username,
		Password: payload.Password,
	})
	if err != nil {
		if errors.Is(err, core.ErrConflictedUser) {
			return router.NewJsonError(http.StatusConflict, "username taken")
		}
		return err
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(RegisterResponse{ID: user.ID, Username: user.Username}); err != nil {
		return fmt.Errorf("Encode: %w", err)
	}
	return nil
}

type LoginPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginHandler verifies the credentials and hands out the credential the
// configured flow calls for: a session cookie or a bearer token in the body.
func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) error {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return router.NewJsonError(http.StatusBadRequest, "invalid input")
	}
	defer r.Body.Close()

	if err := validate.Struct(payload); err != nil {
		return errUnauthenticated
	}

	result, err := h.verifier.Verify(r.Context(), payload.Username, payload.Password)
	if err != nil {
		return err
	}
	if !result.OK() {
		return errUnauthenticated
	}

	if h.flow == SessionFlow {
		sessionID, err := h.sessions.Create(r.Context(), result.UserID)
		if err != nil {
			return err
		}

		exp := time.Now().Add(h.idle)
		http.SetCookie(w, core.NewSessionCookie(sessionID, exp))

		if err := json.NewEncoder(w).Encode(LoginResponse{UserID: result.UserID, ExpiresAt: exp}); err != nil {
			return fmt.Errorf("Encode: %w", err)
		}
		return nil
	}

	token, exp, err := h.tokens.Issue(result.UserID)
	if err != nil {
		return fmt.Errorf("issuing token: %w", err)
	}

	if err := json.NewEncoder(w).Encode(LoginResponse{UserID: result.UserID, Token: token, ExpiresAt: exp}); err != nil {
		return fmt.Errorf("Encode: %w", err)
	}
	return nil
}

// LogoutHandler destroys the session named by the cookie, if any. It succeeds
// whether or not a live session exists; destroying twice observes the same
// result. In the token flow there is nothing server-side to revoke, so an
// outstanding token stays valid until it expires.
func (h *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(core.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if err := h.sessions.Destroy(r.Context(), cookie.Value); err != nil {
			return err
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     core.SessionCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Path:     "/",
	})
	w.WriteHeader(http.StatusOK)
	return nil
}
