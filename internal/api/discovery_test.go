package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscovery_DefaultRealm(t *testing.T) {
	srv, node := newTestServer(t, true)
	defer node.Close()

	req := httptest.NewRequest(http.MethodGet, "/.well-known/openid-configuration", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var meta providerMetadata
	require.NoError(t, json.NewDecoder(w.Body).Decode(&meta))

	assert.Equal(t, "https://idp.example.com/default", meta.Issuer)
	assert.Equal(t, meta.Issuer+"/token", meta.TokenEndpoint)
	assert.Equal(t, meta.Issuer+"/jwk", meta.JWKSURI)
	assert.Equal(t, []string{"PS256"}, meta.IDTokenSigningAlgValuesSupported)
}

func TestDiscovery_AllRouteVariants(t *testing.T) {
	srv, node := newTestServer(t, true)
	defer node.Close()

	paths := []string{
		"/.well-known/openid-configuration",
		"/kovan/.well-known/openid-configuration",
		"/kovan/authorize/.well-known/openid-configuration",
		"/.well-known/oauth-authorization-server/kovan/authorize",
	}
	for _, p := range paths {
		req := httptest.NewRequest(http.MethodGet, p, nil)
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, req)
		assert.Equalf(t, http.StatusOK, w.Code, "path %s", p)
	}
}

func TestJWKS_PublishesConfiguredKey(t *testing.T) {
	srv, node := newTestServer(t, true)
	defer node.Close()

	req := httptest.NewRequest(http.MethodGet, "/jwk", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var set struct {
		Keys []struct {
			Kid string `json:"kid"`
			Alg string `json:"alg"`
			Use string `json:"use"`
		} `json:"keys"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&set))
	require.Len(t, set.Keys, 1)
	assert.Equal(t, "test-kid", set.Keys[0].Kid)
	assert.Equal(t, "sig", set.Keys[0].Use)
}
