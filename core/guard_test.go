package core

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinevault/cinevault/pkg/router"
)

func newGuardedServer(strategies ...Strategy) *router.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := router.New(router.WithLogger(logger))
	r.With(Guard(logger, strategies...)).Get("/protected", func(w http.ResponseWriter, req *http.Request) error {
		identity := IdentityFromRequest(req)
		return json.NewEncoder(w).Encode(map[string]string{"user_id": identity.UserID})
	})
	return r
}

func doRequest(h http.Handler, build func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if build != nil {
		build(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGuardWithTokenStrategy(t *testing.T) {
	issuer := NewTokenIssuer(tokenSecret, WithTokenExp(time.Hour))
	r := newGuardedServer(NewTokenStrategy(issuer))

	t.Run("no credentials", func(t *testing.T) {
		rec := doRequest(r, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed authorization header", func(t *testing.T) {
		rec := doRequest(r, func(req *http.Request) {
			req.Header.Set("Authorization", "Basic whatever")
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid bearer token", func(t *testing.T) {
		token, _, err := issuer.Issue("42")
		require.Nil(t, err)

		rec := doRequest(r, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+token)
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]string
		require.Nil(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "42", body["user_id"])
	})

	t.Run("expired token", func(t *testing.T) {
		stale := NewTokenIssuer(tokenSecret, WithTokenExp(-time.Second))
		token, _, err := stale.Issue("42")
		require.Nil(t, err)

		rec := doRequest(r, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+token)
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGuardWithSessionStrategy(t *testing.T) {
	ctx := context.Background()
	sessions := NewMemorySessionManager(WithIdleTimeout(time.Hour))
	r := newGuardedServer(NewSessionStrategy(sessions))

	t.Run("no cookie", func(t *testing.T) {
		rec := doRequest(r, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid session cookie", func(t *testing.T) {
		id, err := sessions.Create(ctx, "42")
		require.Nil(t, err)

		rec := doRequest(r, func(req *http.Request) {
			req.AddCookie(NewSessionCookie(id, time.Now().Add(time.Hour)))
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]string
		require.Nil(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "42", body["user_id"])
	})

	t.Run("destroyed session", func(t *testing.T) {
		id, err := sessions.Create(ctx, "42")
		require.Nil(t, err)
		require.Nil(t, sessions.Destroy(ctx, id))

		rec := doRequest(r, func(req *http.Request) {
			req.AddCookie(NewSessionCookie(id, time.Now().Add(time.Hour)))
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGuardUniformRejectionBody(t *testing.T) {
	issuer := NewTokenIssuer(tokenSecret)
	r := newGuardedServer(NewTokenStrategy(issuer))

	// whatever the internal reason, the client sees one generic body
	noCreds := doRequest(r, nil)
	badToken := doRequest(r, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer garbage")
	})

	assert.Equal(t, noCreds.Code, badToken.Code)
	assert.Equal(t, noCreds.Body.String(), badToken.Body.String())
}

type failingStrategy struct{}

func (failingStrategy) Verify(r *http.Request) (AuthResult, error) {
	return AuthResult{}, errors.New("store unavailable")
}

func TestGuardStoreFailureIsNotUnauthorized(t *testing.T) {
	r := newGuardedServer(failingStrategy{})

	rec := doRequest(r, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGuardStrategyOrder(t *testing.T) {
	issuer := NewTokenIssuer(tokenSecret, WithTokenExp(time.Hour))
	sessions := NewMemorySessionManager()
	r := newGuardedServer(NewSessionStrategy(sessions), NewTokenStrategy(issuer))

	// the first strategy rejects, the second authenticates
	token, _, err := issuer.Issue("42")
	require.Nil(t, err)

	rec := doRequest(r, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}
