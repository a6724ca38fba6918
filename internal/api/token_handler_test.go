package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestToken_InvalidCode(t *testing.T) {
	srv, node := newTestServer(t, true)
	defer node.Close()

	req := httptest.NewRequest(http.MethodGet, "/token?code=does-not-exist", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid Code") {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestToken_PostFormExchange(t *testing.T) {
	srv, node := newTestServer(t, true)
	defer node.Close()

	code := authorizeAndGetCode(t, srv)

	form := url.Values{}
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", "ignored")

	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		IDToken     string `json:"id_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.TokenType != "Bearer" {
		t.Errorf("token_type = %s, want Bearer", resp.TokenType)
	}
	if resp.AccessToken == "" || resp.IDToken == "" {
		t.Error("expected access_token and id_token to be populated")
	}
}

// authorizeAndGetCode drives a full owner authorize flow and returns the
// issued authorization code.
func authorizeAndGetCode(t *testing.T, srv *Server) string {
	t.Helper()

	q := url.Values{}
	q.Set("account", "0x9c9e8eabd947658bdb713e0d3ebfe56860abdb8d")
	q.Set("nonce", "dotzxrenodo")
	q.Set("signature", "0x87b709d1e84aab056cf089af31e8d7c891d6f363663ff3eeb4bbb4c4e0602b2e3edf117fe548626b8d83e3b2c530cb55e2baff29ca54dbd495bb45764d9aa44c1c")
	q.Set("redirect_uri", "https://app.example.com/cb")
	q.Set("client_id", "0x886B6781CD7dF75d8440Aba84216b2671AEFf9A4")
	q.Set("response_type", "code")

	req := httptest.NewRequest(http.MethodGet, "/authorize?"+q.Encode(), nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected 307 from /authorize, got %d: %s", w.Code, w.Body.String())
	}

	loc, err := url.Parse(w.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parsing Location: %v", err)
	}
	code := loc.Query().Get("code")
	if code == "" {
		t.Fatal("expected a code parameter from /authorize")
	}
	return code
}
