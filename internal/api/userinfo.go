package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/nftoidc/provider/internal/apierr"
)

const bearerPrefix = "Bearer "

// handleUserinfo implements §4.H /userinfo: extract the bearer access
// token, look up both claim maps, and return their union. A claim-map miss
// is a 404, never a panic (§7, §9) — it is the documented fix for the
// source repo's unwrap-on-miss bug, not an open question.
func (s *Server) handleUserinfo(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, bearerPrefix) {
		apierr.ErrMissingBearer.Write(w)
		return
	}
	accessToken := strings.TrimPrefix(authHeader, bearerPrefix)

	std, ok := s.sessions.StandardClaims(accessToken)
	if !ok {
		apierr.ErrUnknownToken.Write(w)
		return
	}
	add, ok := s.sessions.AdditionalClaims(accessToken)
	if !ok {
		apierr.ErrUnknownToken.Write(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(userInfoClaims{StandardClaims: std, AdditionalClaims: add})
}

// handleUserinfoOptions answers CORS preflight with an empty 200 (§4.H).
func (s *Server) handleUserinfoOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
