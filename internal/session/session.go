// Package session implements the four in-memory, concurrency-safe maps
// that back the authorization-code exchange and claims lookup (§4.F).
//
// There is no persistence and no eviction: both are explicit non-goals (§1,
// §9). The maps grow for the process lifetime.
package session

import (
	"sync"

	"github.com/nftoidc/provider/internal/claims"
	"github.com/nftoidc/provider/internal/token"
)

// Store holds the four maps of §4.F, each guarded by its own mutex so that
// no operation ever holds two locks simultaneously.
type Store struct {
	bearerMu sync.RWMutex
	bearer   map[string]string // code -> access_token

	tokensMu sync.RWMutex
	tokens   map[string]token.Response // access_token -> TokenResponse

	standardMu sync.RWMutex
	standard   map[string]claims.StandardClaims // access_token -> StandardClaims

	additionalMu sync.RWMutex
	additional   map[string]claims.AdditionalClaims // access_token -> AdditionalClaims
}

// New returns an empty session store.
func New() *Store {
	return &Store{
		bearer:     make(map[string]string),
		tokens:     make(map[string]token.Response),
		standard:   make(map[string]claims.StandardClaims),
		additional: make(map[string]claims.AdditionalClaims),
	}
}

// Record implements the §4.F insert-order invariant for a successful
// /authorize: standard_claims, then additional_claims, then bearer, then
// muted. Each insert acquires and releases its own map's lock in turn.
func (s *Store) Record(code, accessToken string, resp token.Response, std claims.StandardClaims, add claims.AdditionalClaims) {
	s.standardMu.Lock()
	s.standard[accessToken] = std
	s.standardMu.Unlock()

	s.additionalMu.Lock()
	s.additional[accessToken] = add
	s.additionalMu.Unlock()

	s.bearerMu.Lock()
	s.bearer[code] = accessToken
	s.bearerMu.Unlock()

	s.tokensMu.Lock()
	s.tokens[accessToken] = resp
	s.tokensMu.Unlock()
}

// AccessTokenForCode looks up the access token bound to an authorization
// code. The bool is false if code is unknown.
func (s *Store) AccessTokenForCode(code string) (string, bool) {
	s.bearerMu.RLock()
	defer s.bearerMu.RUnlock()
	accessToken, ok := s.bearer[code]
	return accessToken, ok
}

// TokenResponse looks up the full token response for an access token. The
// bool is false if the access token is unknown — callers must treat this as
// a 404, never as a programming error, since a concurrent /token request
// can race the final write of /authorize (§5).
func (s *Store) TokenResponse(accessToken string) (token.Response, bool) {
	s.tokensMu.RLock()
	defer s.tokensMu.RUnlock()
	resp, ok := s.tokens[accessToken]
	return resp, ok
}

// StandardClaims looks up the standard claims for an access token.
func (s *Store) StandardClaims(accessToken string) (claims.StandardClaims, bool) {
	s.standardMu.RLock()
	defer s.standardMu.RUnlock()
	c, ok := s.standard[accessToken]
	return c, ok
}

// AdditionalClaims looks up the additional claims for an access token.
func (s *Store) AdditionalClaims(accessToken string) (claims.AdditionalClaims, bool) {
	s.additionalMu.RLock()
	defer s.additionalMu.RUnlock()
	c, ok := s.additional[accessToken]
	return c, ok
}
