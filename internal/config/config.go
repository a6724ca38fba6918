// Package config loads the process-wide configuration for the NFT-gated OIDC
// provider from environment variables.
//
// Configuration is immutable once loaded: it is read once at startup and
// handed to every request handler by reference. There is no hot reload.
//
// Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal("failed to load configuration:", err)
//	}
package config

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Environment represents the application environment.
type Environment string

const (
	// EnvDevelopment indicates a development environment.
	EnvDevelopment Environment = "development"
	// EnvProduction indicates a production environment.
	EnvProduction Environment = "production"
)

// DefaultChainID is the fallback chain id used when a realm cannot be
// resolved against the configured chain_id map.
const DefaultChainID int32 = 42

// DefaultRealm is the sentinel realm meaning "use the configured default".
const DefaultRealm = "default"

// Config is the process-wide immutable configuration record.
type Config struct {
	Environment Environment
	LogLevel    string

	// ExtHostname is the base URL used to build issuer, authorization, token,
	// userinfo and jwk URLs.
	ExtHostname string

	// KeyID is the `kid` embedded in signed ID Tokens and the published JWK.
	KeyID string

	// NodeProvider maps a realm label to its JSON-RPC node URL. Must contain
	// "default".
	NodeProvider map[string]string

	// ChainID maps a realm label to its signed 32-bit chain id.
	ChainID map[string]int32

	// RSAKey is the private key used to sign ID Tokens and to derive the
	// published public JWK.
	RSAKey *rsa.PrivateKey

	// RedisURL optionally backs the server-side nonce store (internal/nonce).
	// Empty disables Redis and falls back to an in-memory nonce store.
	RedisURL string

	ListenAddr      string
	ShutdownTimeout int
}

// Load reads configuration from the environment. It returns an error rather
// than exiting so callers can decide how to fail.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:     parseEnvironment(getEnv("APP_ENV", "development")),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ExtHostname:     strings.TrimRight(getEnv("EXT_HOSTNAME", "http://localhost:8080"), "/"),
		KeyID:           getEnv("KEY_ID", "default"),
		NodeProvider:    parseMapEnv("NODE_PROVIDER"),
		ChainID:         parseChainIDMap("CHAIN_ID"),
		RedisURL:        getEnv("REDIS_URL", ""),
		ListenAddr:      getEnv("LISTEN_ADDR", ":8080"),
		ShutdownTimeout: getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 30),
	}

	if _, ok := cfg.NodeProvider[DefaultRealm]; !ok {
		cfg.NodeProvider[DefaultRealm] = getEnv("NODE_PROVIDER_DEFAULT", "http://localhost:8545")
	}

	key, err := loadRSAKey()
	if err != nil {
		return nil, fmt.Errorf("rsa key: %w", err)
	}
	cfg.RSAKey = key

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on failure. Intended for use in
// cmd/ entry points and tests that require a valid configuration to proceed.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}

// Validate checks startup preconditions: the "default" node provider entry
// exists, an RSA key is loaded, and ext_hostname is non-empty.
func (c *Config) Validate() error {
	if _, ok := c.NodeProvider[DefaultRealm]; !ok {
		return errors.New("config: node_provider must contain a \"default\" entry")
	}
	if c.RSAKey == nil {
		return errors.New("config: rsa key is required")
	}
	if c.ExtHostname == "" {
		return errors.New("config: ext_hostname is required")
	}
	return nil
}

// IsProduction reports whether the configured environment is production.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// ChainIDOf implements §4.A chain_id_of: if realm parses as an integer and
// that integer is among configured values, return it; else look up the
// label; else return the default fallback.
func (c *Config) ChainIDOf(realm string) int32 {
	if n, err := strconv.ParseInt(realm, 10, 32); err == nil {
		for _, id := range c.ChainID {
			if int32(n) == id {
				return int32(n)
			}
		}
	}
	if id, ok := c.ChainID[realm]; ok {
		return id
	}
	return DefaultChainID
}

// NodeOf implements §4.A node_of: resolve the chain id for realm, find the
// realm label whose configured chain id matches, and return its node URL;
// fall back to the "default" entry.
func (c *Config) NodeOf(realm string) string {
	id := c.ChainIDOf(realm)
	for label, chainID := range c.ChainID {
		if chainID == id {
			if node, ok := c.NodeProvider[label]; ok {
				return node
			}
		}
	}
	return c.NodeProvider[DefaultRealm]
}

// LogConfig logs a redacted summary of the loaded configuration.
func (c *Config) LogConfig(logger *slog.Logger) {
	logger.Info("configuration loaded",
		slog.String("environment", string(c.Environment)),
		slog.String("ext_hostname", c.ExtHostname),
		slog.String("key_id", c.KeyID),
		slog.Int("realm_count", len(c.NodeProvider)),
		slog.Bool("redis_configured", c.RedisURL != ""),
		slog.Group("server",
			slog.String("listen_addr", c.ListenAddr),
		),
	)
}

func parseEnvironment(s string) Environment {
	switch strings.ToLower(s) {
	case "production", "prod":
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

// loadRSAKey loads the RSA signing key from RSA_KEY_PEM (inline PEM) or
// RSA_KEY_PATH (a PEM file), preferring the inline variable.
func loadRSAKey() (*rsa.PrivateKey, error) {
	var raw []byte
	if pemStr := os.Getenv("RSA_KEY_PEM"); pemStr != "" {
		raw = []byte(pemStr)
	} else if path := os.Getenv("RSA_KEY_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		raw = data
	} else {
		return nil, errors.New("neither RSA_KEY_PEM nor RSA_KEY_PATH is set")
	}

	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.New("invalid PEM block")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not RSA")
	}
	return rsaKey, nil
}

// parseMapEnv parses a "label1=value1,label2=value2" string from
// <prefix>_MAP. Individual <prefix>_<LABEL> variables are not read.
func parseMapEnv(prefix string) map[string]string {
	out := make(map[string]string)
	if raw := os.Getenv(prefix + "_MAP"); raw != "" {
		for _, pair := range strings.Split(raw, ",") {
			kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
			if len(kv) == 2 && kv[0] != "" {
				out[kv[0]] = kv[1]
			}
		}
	}
	return out
}

// parseChainIDMap parses a "label1=1,label2=42" string from <prefix>_MAP
// into a map of realm label to signed 32-bit chain id.
func parseChainIDMap(prefix string) map[string]int32 {
	out := make(map[string]int32)
	if raw := os.Getenv(prefix + "_MAP"); raw != "" {
		for _, pair := range strings.Split(raw, ",") {
			kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
			if len(kv) != 2 || kv[0] == "" {
				continue
			}
			if n, err := strconv.ParseInt(kv[1], 10, 32); err == nil {
				out[kv[0]] = int32(n)
			}
		}
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as an integer or returns a
// default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
