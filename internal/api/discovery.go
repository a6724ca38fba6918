package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// providerMetadata is the OIDC Provider Metadata document (§4.I).
type providerMetadata struct {
	Issuer                           string     `json:"issuer"`
	AuthorizationEndpoint            string     `json:"authorization_endpoint"`
	TokenEndpoint                    string     `json:"token_endpoint"`
	UserinfoEndpoint                 string     `json:"userinfo_endpoint"`
	JWKSURI                          string     `json:"jwks_uri"`
	ResponseTypesSupported           [][]string `json:"response_types_supported"`
	SubjectTypesSupported            []string   `json:"subject_types_supported"`
	IDTokenSigningAlgValuesSupported []string   `json:"id_token_signing_alg_values_supported"`
	ScopesSupported                  []string   `json:"scopes_supported"`
	ClaimsSupported                  []string   `json:"claims_supported"`
}

// handleDiscovery implements §4.I: all four discovery route variants serve
// the same metadata document, parameterized by realm.
//
// The document advertises id_token_signing_alg_values_supported=["PS256"]
// while tokens are actually signed RS256 (internal/token.Minter). This is
// the documented §9 open question, preserved as-is rather than silently
// reconciled — flip one side if strict RP verification is required.
func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	realm := realmOrDefault(r)
	base := fmt.Sprintf("%s/%s", s.config.ExtHostname, realm)

	meta := providerMetadata{
		Issuer:                 base,
		AuthorizationEndpoint:  base + "/authorize",
		TokenEndpoint:          base + "/token",
		UserinfoEndpoint:       base + "/userinfo",
		JWKSURI:                base + "/jwk",
		ResponseTypesSupported: [][]string{{"code"}, {"token", "id_token"}},
		SubjectTypesSupported:  []string{"pairwise"},
		IDTokenSigningAlgValuesSupported: []string{"PS256"},
		ScopesSupported:                  []string{"openid", "email"},
		ClaimsSupported:                  []string{"sub", "aud", "email", "email_verified", "exp", "iat", "iss", "name"},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(meta)
}

// handleJWKS implements §4.I /jwk: the published JWK Set containing the
// one RSA public key, keyed by Config.key_id.
func (s *Server) handleJWKS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(s.minter.JWKS())
}
