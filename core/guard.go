package core

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cinevault/cinevault/pkg/router"
)

const (
	identityKey ctxKey = "identity"

	// SessionCookieName is the cookie carrying the opaque session id.
	SessionCookieName = "cinevault_session"
)

type ctxKey = string

// Identity is the authenticated principal the guard attaches to the request
// context before the resource handlers run.
type Identity struct {
	UserID string
}

func contextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func identityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}

// IdentityFromRequest extracts the identity from the request context.
// It must be called in handlers that sit behind the Guard.
// It panics if the identity is not found in the request context.
func IdentityFromRequest(r *http.Request) Identity {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		panic("identity not found in request context: call this function in handlers that are protected by the guard")
	}
	return identity
}

// Strategy is a single credential verification algorithm. Verify inspects the
// request's credential carrier and never writes to the response. A non-nil
// error means the backing store failed, not that the credential is bad.
type Strategy interface {
	Verify(r *http.Request) (AuthResult, error)
}

// SessionStrategy authenticates the session cookie against the session
// manager.
type SessionStrategy struct {
	sessions SessionManager
}

func NewSessionStrategy(sessions SessionManager) *SessionStrategy {
	return &SessionStrategy{sessions: sessions}
}

func (s *SessionStrategy) Verify(r *http.Request) (AuthResult, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return Rejected(NoCredentials), nil
	}

	return s.sessions.Validate(r.Context(), cookie.Value)
}

// TokenStrategy authenticates the bearer token in the Authorization header.
type TokenStrategy struct {
	tokens *TokenIssuer
}

func NewTokenStrategy(tokens *TokenIssuer) *TokenStrategy {
	return &TokenStrategy{tokens: tokens}
}

func (s *TokenStrategy) Verify(r *http.Request) (AuthResult, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return Rejected(NoCredentials), nil
	}

	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return Rejected(NoCredentials), nil
	}

	return s.tokens.Verify(token), nil
}

// Guard gates a route behind the given strategies, tried in order. The first
// strategy to authenticate wins and its user id is attached to the request
// context; if every strategy rejects, the request terminates with a generic
// 401 carrying no hint of the reason. The reason is only logged.
func Guard(logger *slog.Logger, strategies ...Strategy) router.Middleware {

	return func(next http.Handler) router.HandlerFunc {

		authErr := router.NewJsonError(http.StatusUnauthorized, "unauthenticated")

		return router.HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
			var last AuthResult

			for _, strategy := range strategies {
				result, err := strategy.Verify(r)
				if err != nil {
					// Store failure is an operational error, never mapped to
					// unauthorized.
					return err
				}

				if result.OK() {
					next.ServeHTTP(w, r.WithContext(
						contextWithIdentity(r.Context(), Identity{UserID: result.UserID})))
					return nil
				}

				last = result
			}

			logger.Info("request rejected by guard",
				slog.String("reason", string(last.Reason)),
				slog.String("path", r.URL.Path))

			return authErr
		})
	}
}

// NewSessionCookie builds the HTTP-only cookie carrying a session id.
func NewSessionCookie(sessionID string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	}
}
