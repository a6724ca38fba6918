// Package claims assembles the standard and custom OIDC claim sets (§4.D).
package claims

// StandardClaims is the OIDC-defined record returned by /userinfo and
// embedded in the ID Token.
type StandardClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// AdditionalClaims is the custom claim set binding the on-chain proof to
// the issued token.
type AdditionalClaims struct {
	Account   string `json:"account"`
	Nonce     string `json:"nonce"`
	Signature string `json:"signature"`
	ChainID   int32  `json:"chain_id"`
	Node      string `json:"node"`
	Contract  string `json:"contract"`
}

// placeholderEmail is the synthetic, unverified email assigned to every
// subject; this identity provider authenticates by on-chain proof, not
// email, so there is no real address to report.
const placeholderEmail = "no-reply@example.com"

// placeholderName is the synthetic display name assigned to every subject.
const placeholderName = "anonymous"

// StandardClaimsFor builds the standard claim set for a verified account.
func StandardClaimsFor(account string) StandardClaims {
	return StandardClaims{
		Subject:       account,
		Email:         placeholderEmail,
		EmailVerified: false,
		Name:          placeholderName,
	}
}

// AdditionalClaimsFor builds the custom claim set from the inputs supplied
// to the authorize endpoint and the resolved chain/node.
func AdditionalClaimsFor(account, nonce, signature string, chainID int32, node, contract string) AdditionalClaims {
	return AdditionalClaims{
		Account:   account,
		Nonce:     nonce,
		Signature: signature,
		ChainID:   chainID,
		Node:      node,
		Contract:  contract,
	}
}
