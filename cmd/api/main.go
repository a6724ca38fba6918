// Package main provides the entry point for the NFT-gated OIDC provider.
//
// The API server handles:
// - Discovery and JWKS publication
// - The authorize/token/userinfo OIDC endpoints
// - EIP-191 signature verification and ERC-721 ownership proofs
//
// Usage:
//
//	go run ./cmd/api
//
// Environment variables:
//
//	APP_ENV             - development | production
//	LOG_LEVEL           - debug | info | warn | error
//	EXT_HOSTNAME        - base URL for issuer/authorize/token/userinfo/jwk URLs
//	KEY_ID              - kid embedded in signed ID Tokens and the published JWK
//	NODE_PROVIDER_MAP   - "realm1=url1,realm2=url2,..."
//	NODE_PROVIDER_DEFAULT - node URL used when NODE_PROVIDER_MAP has no "default"
//	                      entry (default: "http://localhost:8545")
//	CHAIN_ID_MAP        - "realm1=1,realm2=42,..."
//	RSA_KEY_PEM/RSA_KEY_PATH - the RSA signing key, inline or by file path
//	REDIS_URL           - optional, loaded into Config.RedisURL for use with
//	                      internal/nonce; this binary does not construct a nonce store
//	LISTEN_ADDR         - HTTP listen address (default: ":8080")
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nftoidc/provider/internal/api"
	"github.com/nftoidc/provider/internal/config"
	"github.com/nftoidc/provider/internal/nft"
	"github.com/nftoidc/provider/internal/session"
	"github.com/nftoidc/provider/internal/token"
)

func main() {
	logger := setupLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	config.InitLogger(string(cfg.Environment), cfg.LogLevel)
	cfg.LogConfig(logger)

	deps, err := initializeDependencies(cfg)
	if err != nil {
		logger.Error("failed to initialize dependencies", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	server := api.NewServer(cfg, deps)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.Error("server error", slog.Any("error", err))
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	}

	logger.Info("OIDC provider stopped")
}

// setupLogger creates and configures the structured logger.
func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if os.Getenv("APP_ENV") == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// initializeDependencies constructs the session store, NFT ownership
// prover, and ID-token minter the server depends on.
func initializeDependencies(cfg *config.Config) (*api.Dependencies, error) {
	prover, err := nft.NewProver()
	if err != nil {
		return nil, err
	}

	return &api.Dependencies{
		Sessions: session.New(),
		Minter:   token.NewMinter(cfg.RSAKey, cfg.KeyID),
		Prover:   prover,
	}, nil
}
