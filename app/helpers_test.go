package cinevault

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"

	"github.com/cinevault/cinevault/core"
	"github.com/cinevault/cinevault/pkg/router"
)

var testSecret = []byte("c2VjcmV0")

// testApp wires the stores, handlers and guard exactly the way App does, but
// serves through httptest instead of a listening server.
type testApp struct {
	t        *testing.T
	handler  http.Handler
	sessions core.SessionManager
	tokens   *core.TokenIssuer
	db       *sql.DB
	tearDown func()
}

func newTestApp(t *testing.T, flow string) *testApp {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatal(err)
	}

	migrationfs := os.DirFS("../migrations")
	goose.SetBaseFS(migrationfs)
	if err := goose.SetDialect("sqlite3"); err != nil {
		t.Fatal(err)
	}
	if err := goose.Up(db, "."); err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	userStore := core.NewSQLiteUserStore(db)
	movieStore := core.NewSQLiteMovieStore(db)
	verifier := core.NewLocalVerifier(userStore)
	sessions := core.NewMemorySessionManager(core.WithIdleTimeout(time.Hour))
	tokens := core.NewTokenIssuer(testSecret, core.WithTokenExp(time.Hour))

	var guard router.Middleware
	if flow == SessionFlow {
		guard = core.Guard(logger, core.NewSessionStrategy(sessions))
	} else {
		guard = core.Guard(logger, core.NewTokenStrategy(tokens))
	}

	authHandler := NewAuthHandler(userStore, verifier, sessions, tokens, flow, time.Hour)
	movieHandler := NewMovieHandler(movieStore)

	root := router.New(router.WithLogger(logger))
	root.Mount("/api", apiRouter(logger, authHandler, movieHandler, guard))

	return &testApp{
		t:        t,
		handler:  root,
		sessions: sessions,
		tokens:   tokens,
		db:       db,
		tearDown: func() {
			db.Close()
		},
	}
}

type requestOption func(*http.Request)

func withJSONBody(t *testing.T, v any) requestOption {
	return func(req *http.Request) {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(v); err != nil {
			t.Fatal(err)
		}
		req.Body = io.NopCloser(&buf)
		req.Header.Set("Content-Type", "application/json")
	}
}

func withBearer(token string) requestOption {
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func withCookie(cookie *http.Cookie) requestOption {
	return func(req *http.Request) {
		req.AddCookie(cookie)
	}
}

func (a *testApp) do(method, path string, opts ...requestOption) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatal(err)
	}
	return v
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == core.SessionCookieName {
			return c
		}
	}
	return nil
}
