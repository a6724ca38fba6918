package api

import (
	"encoding/json"
	"net/http"

	"github.com/nftoidc/provider/internal/apierr"
)

// handleToken implements §4.H /token: exchange an authorization code for
// the previously-minted token response. GET reads code from the query
// string; POST form-decodes it, accepting (and ignoring) grant_type,
// client_id, client_secret, and redirect_uri since client authentication
// beyond bearer presentation is a non-goal (§1).
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var code string
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			apierr.ErrInvalidCode.Write(w)
			return
		}
		code = r.FormValue("code")
	} else {
		code = r.URL.Query().Get("code")
	}

	accessToken, ok := s.sessions.AccessTokenForCode(code)
	if !ok {
		apierr.ErrInvalidCode.Write(w)
		return
	}

	resp, ok := s.sessions.TokenResponse(accessToken)
	if !ok {
		// §5: a concurrent /authorize write may not yet have populated the
		// muted map when this request races it. Re-check and 404 rather
		// than assume the code implies a token.
		apierr.ErrInvalidCode.Write(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}
