package cinevault

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/cors"

	"github.com/cinevault/cinevault/core"
	"github.com/cinevault/cinevault/pkg/router"
)

type App struct {
	config  *Config
	db      *core.SQLiteDB
	context context.Context
	server  *http.Server
	logger  *slog.Logger
	router  *router.Router

	exit chan int

	userStore  core.UserStore
	movieStore core.MovieStore
	sessions   core.SessionManager
	tokens     *core.TokenIssuer
	verifier   *core.LocalVerifier

	authHandler  *AuthHandler
	movieHandler *MovieHandler

	cleanupFuncs []func(context.Context)

	wg sync.WaitGroup
}

func New(ctx context.Context, config *Config) *App {
	var err error
	app := &App{
		exit: make(chan int),
	}
	if ctx == nil {
		ctx, _ = signal.NotifyContext(
			context.Background(),
			syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	}
	app.context = ctx

	if config == nil {
		var err error
		config, err = LoadConfig()
		if err != nil {
			failed(1, "failed to load config: %v\n", err)
		}
	}
	if err := config.Validate(); err != nil {
		failed(1, FormatValidationErrors(err))
	}
	app.config = config

	app.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				source, _ := a.Value.Any().(*slog.Source)
				if source != nil {
					source.File = filepath.Base(source.File)
				}
			}
			return a
		},
	}))

	sqliteOptions := &core.SQLiteDBOption{
		Mode:        "rwc",
		Cache:       "shared",
		JournalMode: "WAL",
		ForeignKeys: true,
	}
	app.db, err = core.NewSQLiteDB(app.config.SQLite.File, app.config.SQLite.Migrations, sqliteOptions)
	if err != nil {
		failed(1, "failed to open database: %v\n", err)
	}
	app.AddCleanupFunc(func(ctx context.Context) {
		app.db.Close()
	})
	if err := app.db.Migrate(); err != nil {
		failed(1, "failed to migrate database: %v\n", err)
	}

	app.userStore = core.NewSQLiteUserStore(app.db.DB)
	app.movieStore = core.NewSQLiteMovieStore(app.db.DB)
	app.verifier = core.NewLocalVerifier(app.userStore)

	sessions := core.NewMemorySessionManager(core.WithIdleTimeout(app.config.Auth.SessionIdle))
	app.sessions = sessions
	app.startSessionPruner(sessions)

	app.tokens = core.NewTokenIssuer(app.config.Auth.Secret,
		core.WithTokenExp(app.config.Auth.TokenExp))

	// The catalog routes are guarded by exactly one strategy, picked by the
	// configured flow.
	var guard router.Middleware
	if app.config.Auth.Flow == SessionFlow {
		guard = core.Guard(app.logger, core.NewSessionStrategy(app.sessions))
	} else {
		guard = core.Guard(app.logger, core.NewTokenStrategy(app.tokens))
	}

	app.authHandler = NewAuthHandler(app.userStore, app.verifier, app.sessions,
		app.tokens, app.config.Auth.Flow, app.config.Auth.SessionIdle)
	app.movieHandler = NewMovieHandler(app.movieStore)

	app.router = router.New(router.WithLogger(app.logger))

	app.router.Router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	app.router.Mount("/api", apiRouter(app.logger, app.authHandler, app.movieHandler, guard))

	app.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", app.config.Hostname, app.config.Port),
		Handler: app.router.Router,
		BaseContext: func(listener net.Listener) context.Context {
			return app.context
		},
	}
	if app.config.TLS.Key != "" && app.config.TLS.Crt != "" {
		app.server.TLSConfig = &defaultTLSConfig
	}

	return app
}

// apiRouter mounts the auth routes and the guarded movie catalog routes.
func apiRouter(logger *slog.Logger, authHandler *AuthHandler,
	movieHandler *MovieHandler, guard router.Middleware) *router.Router {
	api := router.New(router.WithLogger(logger))

	api.Post("/register", authHandler.RegisterHandler)
	api.Post("/login", authHandler.LoginHandler)
	api.Get("/logout", authHandler.LogoutHandler)

	api.Group(func(r *router.Router) {
		r.Use(guard)
		r.Get("/list", movieHandler.ListMoviesHandler)
		r.Get("/find/{id}", movieHandler.FindMovieHandler)
		r.Post("/add", movieHandler.AddMovieHandler)
		r.Put("/update/{id}", movieHandler.UpdateMovieHandler)
		r.Delete("/delete/{id}", movieHandler.DeleteMovieHandler)
	})

	return api
}

func (app *App) Start() {
	// listen for shutdown signal
	go func() {
		<-app.context.Done()
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeCancel()
		var wg sync.WaitGroup

		for _, f := range app.cleanupFuncs {
			wg.Add(1)
			func(wg *sync.WaitGroup) {
				defer wg.Done()
				f(closeCtx)
			}(&wg)
		}

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			app.logger.Info("app shutdown gracefully")
			app.exit <- 0
		case <-closeCtx.Done():
			app.logger.Info("app shutdown timed out")
			app.exit <- 1
		}
	}()

	app.AddCleanupFunc(func(ctx context.Context) {
		app.server.Shutdown(ctx)
	})
	app.logger.Info(fmt.Sprintf("app running on: %s:%d", app.config.Hostname, app.config.Port))

	var err error
	if app.config.TLS.Key != "" && app.config.TLS.Crt != "" {
		err = app.server.ListenAndServeTLS(app.config.TLS.Crt, app.config.TLS.Key)
	} else {
		err = app.server.ListenAndServe()
	}
	if err != nil && err != http.ErrServerClosed {
		failed(1, "server error: %v\n", err)
	}

	code := <-app.exit
	os.Exit(code)
}

// startSessionPruner sweeps expired sessions in the background until the app
// context is cancelled.
func (app *App) startSessionPruner(sessions *core.MemorySessionManager) {
	ticker := time.NewTicker(app.config.Auth.SessionIdle / 2)
	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-app.context.Done():
				return
			case <-ticker.C:
				sessions.PruneExpired()
			}
		}
	}()
}

func (app *App) AddCleanupFunc(f func(context.Context)) {
	app.cleanupFuncs = append(app.cleanupFuncs, f)
}

func failed(code int, s string, args ...interface{}) {
	fmt.Printf(s, args...)
	os.Exit(code)
}
