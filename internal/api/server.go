// Package api implements the multi-realm OIDC HTTP surface: discovery
// documents, JWKS publication, and the authorize/token/userinfo endpoints
// (§4.G–§4.I, §6).
//
// The server implements the middleware chain as specified in the architecture:
// RequestID -> RealIP -> Logger -> Recoverer -> Timeout -> CORS -> CleanPath
//
// Usage:
//
//	cfg := config.MustLoad()
//	server := api.NewServer(cfg, deps)
//	if err := server.Start(ctx); err != nil {
//	    log.Fatal("Server failed:", err)
//	}
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nftoidc/provider/internal/claims"
	"github.com/nftoidc/provider/internal/config"
	"github.com/nftoidc/provider/internal/nft"
	"github.com/nftoidc/provider/internal/session"
	"github.com/nftoidc/provider/internal/token"
)

// Server represents the HTTP API server.
type Server struct {
	config     *config.Config
	logger     *config.Logger
	router     *chi.Mux
	httpServer *http.Server

	sessions *session.Store
	minter   *token.Minter
	prover   *nft.Prover
}

// Dependencies holds the constructed dependencies the server is built from.
type Dependencies struct {
	Sessions *session.Store
	Minter   *token.Minter
	Prover   *nft.Prover
}

// NewServer creates a new API server instance.
func NewServer(cfg *config.Config, deps *Dependencies) *Server {
	s := &Server{
		config:   cfg,
		logger:   config.L(),
		router:   chi.NewRouter(),
		sessions: deps.Sessions,
		minter:   deps.Minter,
		prover:   deps.Prover,
	}

	s.setupMiddleware()
	s.registerRoutes()

	return s
}

// setupMiddleware configures the middleware chain in the correct order.
func (s *Server) setupMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.RequestLogger(&slogLogFormatter{logger: s.logger.Logger}))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.Timeout(60 * time.Second))
	s.router.Use(corsMiddleware)
	s.router.Use(chimiddleware.CleanPath)
}

// registerRoutes mounts the OIDC surface described in §6. Both the
// default-realm route and the realm-scoped route are registered for every
// endpoint; §9 notes the duplication is a framework accommodation rather
// than a design feature, so both paths dispatch to the same handler with
// the realm resolved by realmOrDefault.
func (s *Server) registerRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Get("/authorize", s.handleAuthorize)
	s.router.Get("/{realm}/authorize", s.handleAuthorize)

	s.router.Get("/token", s.handleToken)
	s.router.Post("/token", s.handleToken)
	s.router.Get("/{realm}/token", s.handleToken)
	s.router.Post("/{realm}/token", s.handleToken)

	s.router.Get("/userinfo", s.handleUserinfo)
	s.router.Options("/userinfo", s.handleUserinfoOptions)
	s.router.Get("/{realm}/userinfo", s.handleUserinfo)
	s.router.Options("/{realm}/userinfo", s.handleUserinfoOptions)

	s.router.Get("/.well-known/openid-configuration", s.handleDiscovery)
	s.router.Get("/{realm}/.well-known/openid-configuration", s.handleDiscovery)
	s.router.Get("/{realm}/authorize/.well-known/openid-configuration", s.handleDiscovery)
	s.router.Get("/.well-known/oauth-authorization-server/{realm}/authorize", s.handleDiscovery)

	s.router.Get("/jwk", s.handleJWKS)
	s.router.Get("/{realm}/jwk", s.handleJWKS)

	s.router.Get("/", s.handleLoginUI)
	s.router.Get("/{realm}", s.handleLoginUI)
}

// Start starts the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.ListenAddr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	s.logger.Info("starting OIDC provider",
		slog.String("address", s.config.ListenAddr),
		slog.String("environment", string(s.config.Environment)),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server listen error: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server due to context cancellation")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("shutting down OIDC provider")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("server shutdown error", slog.Any("error", err))
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("OIDC provider shutdown complete")
	return nil
}

// Router returns the chi router for testing purposes.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// handleLoginUI serves the login UI. Static HTML/JS/CSS assets are an
// out-of-scope external collaborator (§1); this handler is the seam where a
// real deployment would mount its embedded asset bundle.
func (s *Server) handleLoginUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("<!doctype html><title>Sign in</title><p>connect a wallet to continue</p>"))
}

// realmOrDefault resolves the realm for a request. The {realm} path
// parameter wins when the route is realm-scoped; otherwise a plain
// "realm" query parameter is honored (§8 scenario 1 hits /authorize with
// no path segment but a realm query param), falling back to
// config.DefaultRealm when neither is present (§3).
func realmOrDefault(r *http.Request) string {
	if realm := chi.URLParam(r, "realm"); realm != "" {
		return realm
	}
	if realm := r.URL.Query().Get("realm"); realm != "" {
		return realm
	}
	return config.DefaultRealm
}

// userInfoClaims is a small convenience pairing used when
// responding to /userinfo (§4.H).
type userInfoClaims struct {
	claims.StandardClaims
	claims.AdditionalClaims
}

// slogLogFormatter implements chi's LogFormatter interface using slog.
type slogLogFormatter struct {
	logger *slog.Logger
}

func (f *slogLogFormatter) NewLogEntry(r *http.Request) chimiddleware.LogEntry {
	return &slogLogEntry{logger: f.logger, r: r}
}

type slogLogEntry struct {
	logger *slog.Logger
	r      *http.Request
}

func (e *slogLogEntry) Write(status, bytes int, header http.Header, elapsed time.Duration, extra interface{}) {
	e.logger.Info("request completed",
		slog.String("method", e.r.Method),
		slog.String("path", e.r.URL.Path),
		slog.Int("status", status),
		slog.Int("bytes", bytes),
		slog.Duration("elapsed", elapsed),
		slog.String("request_id", chimiddleware.GetReqID(e.r.Context())),
	)
}

func (e *slogLogEntry) Panic(v interface{}, stack []byte) {
	e.logger.Error("request panic",
		slog.Any("panic", v),
		slog.String("stack", string(stack)),
		slog.String("request_id", chimiddleware.GetReqID(e.r.Context())),
	)
}
