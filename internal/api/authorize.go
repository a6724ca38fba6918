package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/nftoidc/provider/internal/apierr"
	"github.com/nftoidc/provider/internal/chainsig"
	"github.com/nftoidc/provider/internal/claims"
	"github.com/nftoidc/provider/internal/config"
)

// handleAuthorize implements the §4.G state machine: NO_ACCOUNT ->
// MISSING_NONCE -> MISSING_SIGNATURE -> BAD_REDIRECT -> BAD_SIGNATURE ->
// RESOLVE -> OWNERSHIP_CHECK -> MINT -> RESPOND. Each state either returns
// a terminal error response or falls through to the next.
func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	realm := realmOrDefault(r)
	q := r.URL.Query()

	clientID := q.Get("client_id")
	redirectURI := q.Get("redirect_uri")
	state := q.Get("state")
	responseType := q.Get("response_type")
	nonce := q.Get("nonce")
	account := q.Get("account")
	signature := q.Get("signature")
	chainIDParam := q.Get("chain_id")
	contractParam := q.Get("contract")

	// NO_ACCOUNT
	if account == "" {
		s.bounceToLoginUI(w, r, realm, q, clientID)
		return
	}

	// MISSING_NONCE
	if nonce == "" {
		apierr.ErrNonceMissing.Write(w)
		return
	}

	// MISSING_SIGNATURE
	if signature == "" {
		apierr.ErrSignatureMissing.Write(w)
		return
	}

	// BAD_REDIRECT
	if !isAbsoluteURL(redirectURI) {
		apierr.ErrBadRedirect.Write(w)
		return
	}

	// BAD_SIGNATURE
	if !chainsig.Verify(account, nonce, signature) {
		apierr.ErrBadSignature.Write(w)
		return
	}

	// RESOLVE
	realmOrChainID := realm
	if realm == config.DefaultRealm {
		realmOrChainID = chainIDParam
		if realmOrChainID == "" {
			realmOrChainID = config.DefaultRealm
		}
	}
	node := s.config.NodeOf(realmOrChainID)
	contract := contractParam
	if contract == "" {
		contract = clientID
	}

	// OWNERSHIP_CHECK
	owner, err := s.prover.IsOwner(r.Context(), node, contract, account)
	s.logger.LogOwnershipCheck(r.Context(), realm, contract, account, owner, err)
	if err != nil || !owner {
		apierr.ErrNotOwner.Write(w)
		return
	}

	// MINT
	chainID := s.config.ChainIDOf(realmOrChainID)
	accessToken := uuid.NewString()
	code := uuid.NewString()

	std := claims.StandardClaimsFor(account)
	add := claims.AdditionalClaimsFor(account, nonce, signature, chainID, node, contract)

	issuer := fmt.Sprintf("%s/%s", s.config.ExtHostname, realm)
	resp, err := s.minter.Mint(issuer, clientID, accessToken, code, std, add)
	if err != nil {
		http.Error(w, "failed to mint id token", http.StatusInternalServerError)
		return
	}
	s.sessions.Record(code, accessToken, resp, std, add)
	s.logger.LogMintResult(r.Context(), realm, account)

	// RESPOND
	s.respondAuthorized(w, r, redirectURI, responseType, state, code, resp.IDToken)
}

// bounceToLoginUI implements NO_ACCOUNT: redirect to the login UI carrying
// the entire login context, defaulting chain_id to realm and contract to
// client_id.
func (s *Server) bounceToLoginUI(w http.ResponseWriter, r *http.Request, realm string, q url.Values, clientID string) {
	loginURL, err := url.Parse(fmt.Sprintf("%s/%s", s.config.ExtHostname, realm))
	if err != nil {
		http.Error(w, "invalid issuer configuration", http.StatusInternalServerError)
		return
	}

	out := url.Values{}
	for k, v := range q {
		out[k] = v
	}
	out.Set("realm", realm)
	if out.Get("chain_id") == "" {
		out.Set("chain_id", realm)
	}
	if out.Get("contract") == "" {
		out.Set("contract", clientID)
	}

	loginURL.RawQuery = out.Encode()
	http.Redirect(w, r, loginURL.String(), http.StatusTemporaryRedirect)
}

// respondAuthorized implements RESPOND: append query params to redirect_uri
// per response_type and 307-redirect. Both response_type=token and
// response_type=id_token write the id_token parameter — intentional,
// preserved per §9.
func (s *Server) respondAuthorized(w http.ResponseWriter, r *http.Request, redirectURI, responseType, state, code, idToken string) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		http.Error(w, "invalid redirect uri", http.StatusInternalServerError)
		return
	}

	out := u.Query()
	if responseType == "" || strings.Contains(responseType, "code") {
		out.Set("code", code)
	}
	if strings.Contains(responseType, "id_token") || strings.Contains(responseType, "token") {
		out.Set("id_token", idToken)
	}
	if state != "" {
		out.Set("state", state)
	}
	u.RawQuery = out.Encode()

	http.Redirect(w, r, u.String(), http.StatusTemporaryRedirect)
}

// isAbsoluteURL reports whether raw parses as a URL with both a scheme and
// a host, rejecting bare path-like strings such as "wrong_uri".
func isAbsoluteURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
