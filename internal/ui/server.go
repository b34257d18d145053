// Package ui provides the browser front end for the leads page.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/leadsync/internal/page"
	"github.com/leapstack-labs/leadsync/internal/poller"
	"github.com/leapstack-labs/leadsync/internal/table"
	"golang.org/x/sync/errgroup"
)

// DefaultSessionTTL is how long an idle session keeps its page state.
const DefaultSessionTTL = 30 * time.Minute

// Server is the UI server.
type Server struct {
	port           int
	allowedOrigins []string
	logger         *slog.Logger
	sessions       *registry
	reapEvery      time.Duration
}

// Config holds configuration for the UI server.
type Config struct {
	Client page.Client
	Port   int
	// SessionSecret signs the session cookie. A random key is used when empty.
	SessionSecret string
	SessionTTL    time.Duration
	// AllowedOrigins enables CORS for the listed origins.
	AllowedOrigins []string
	// SecureCookie restricts the session cookie to HTTPS.
	SecureCookie bool
	Table        []table.Option
	Poll         bool
	PollOptions  poller.Options
	Logger       *slog.Logger
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	key := []byte(cfg.SessionSecret)
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
	}
	sessionStore := sessions.NewCookieStore(key)
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode
	// The UI is served over plain http by default.
	sessionStore.Options.Secure = cfg.SecureCookie

	ttl := cfg.SessionTTL
	if ttl == 0 {
		ttl = DefaultSessionTTL
	}

	newPage := func() *page.Page {
		return page.New(cfg.Client, page.Options{
			Logger:      logger.With("component", "page"),
			Table:       cfg.Table,
			Poll:        cfg.Poll,
			PollOptions: cfg.PollOptions,
		})
	}

	reapEvery := ttl / 2
	if reapEvery <= 0 || reapEvery > time.Minute {
		reapEvery = time.Minute
	}

	return &Server{
		port:           cfg.Port,
		allowedOrigins: cfg.AllowedOrigins,
		logger:         logger,
		sessions:       newRegistry(sessionStore, newPage, ttl, logger.With("component", "sessions")),
		reapEvery:      reapEvery,
	}
}

// Handler returns the HTTP handler with every route and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)
	if len(s.allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.allowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", "Datastar-Request"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	setupRoutes(r, &handlers{sessions: s.sessions, logger: s.logger})
	return r
}

// Serve starts the UI server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting UI server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		return s.sessions.reapLoop(egctx, s.reapEvery)
	})

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		err := srv.Shutdown(shutdownCtx)
		s.sessions.closeAll()
		return err
	})

	return eg.Wait()
}
