package api

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nftoidc/provider/internal/config"
	"github.com/nftoidc/provider/internal/nft"
	"github.com/nftoidc/provider/internal/session"
	"github.com/nftoidc/provider/internal/token"
)

// testRSAKey generates a throwaway RSA key for signing test ID Tokens.
func testRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating test key: %v", err)
	}
	return key
}

// jsonRPCRequest is the minimal shape of a JSON-RPC 2.0 request the ethclient
// sends for eth_call.
type jsonRPCRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
}

// newMockNode starts an httptest server answering every eth_call's
// balanceOf with a fixed nonzero-or-zero uint256 result depending on owner.
func newMockNode(t *testing.T, owner bool) *httptest.Server {
	t.Helper()
	balance := "0"
	if owner {
		balance = "1"
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req jsonRPCRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding rpc request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		switch req.Method {
		case "eth_call":
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":"0x%s"}`, string(req.ID), zeroPadded(balance))
		case "eth_chainId":
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":"0x1"}`, string(req.ID))
		default:
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":"0x0"}`, string(req.ID))
		}
	}))
}

func zeroPadded(lastByte string) string {
	return strings.Repeat("0", 64-len(lastByte)) + lastByte
}

// newTestServer wires a Server with a mock chain node that reports
// ownership according to owner.
func newTestServer(t *testing.T, owner bool) (*Server, *httptest.Server) {
	t.Helper()
	node := newMockNode(t, owner)

	cfg := &config.Config{
		Environment: config.EnvDevelopment,
		ExtHostname: "https://idp.example.com",
		KeyID:       "test-kid",
		NodeProvider: map[string]string{
			config.DefaultRealm: node.URL,
		},
		ChainID:         map[string]int32{},
		RSAKey:          testRSAKey(t),
		ListenAddr:      ":0",
		ShutdownTimeout: 5,
	}

	prover, err := nft.NewProver()
	if err != nil {
		t.Fatalf("NewProver: %v", err)
	}

	srv := NewServer(cfg, &Dependencies{
		Sessions: session.New(),
		Minter:   token.NewMinter(cfg.RSAKey, cfg.KeyID),
		Prover:   prover,
	})

	return srv, node
}
