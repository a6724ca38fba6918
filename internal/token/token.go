// Package token builds, signs, and packages OIDC ID Tokens (§4.E), and
// publishes the provider's public JWK Set (§4.I).
//
// ID-Token signing reuses the teacher's github.com/golang-jwt/jwt/v5
// dependency. JWKS publication is grounded on the gopkg.in/square/go-jose.v2
// JSONWebKey/JSONWebKeySet usage in
// other_examples/857fade5_dexidp-dex__server-oauth2.go.go, using the
// go-jose/go-jose/v4 successor module.
package token

import (
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	josejwk "github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"

	"github.com/nftoidc/provider/internal/claims"
)

// idTokenLifetime is the fixed ID Token validity window (§4.E: exp = now + 300s).
const idTokenLifetime = 300 * time.Second

// Response is the OIDC StandardTokenResponse returned from /authorize (as
// id_token) and /token (as the full JSON body).
type Response struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	IDToken     string `json:"id_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// idTokenClaims is the JWS payload described in §3/§4.E.
type idTokenClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	AtHash        string `json:"at_hash"`
	CHash         string `json:"c_hash"`
	claims.AdditionalClaims
}

// Minter signs ID Tokens with an RSA key and publishes its public half as a
// JWK Set.
type Minter struct {
	key   *rsa.PrivateKey
	keyID string
}

// NewMinter constructs a Minter from the RSA private key and kid configured
// at startup (§3 Config.rsa_pem, Config.key_id).
func NewMinter(key *rsa.PrivateKey, keyID string) *Minter {
	return &Minter{key: key, keyID: keyID}
}

// Mint implements §4.E: build IdTokenClaims, sign with RS256, compute
// at_hash/c_hash from accessToken/code, and wrap into a StandardTokenResponse.
func (m *Minter) Mint(issuer, clientID, accessToken, code string, std claims.StandardClaims, add claims.AdditionalClaims) (Response, error) {
	now := time.Now()
	c := idTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   std.Subject,
			Audience:  jwt.ClaimStrings{clientID},
			ExpiresAt: jwt.NewNumericDate(now.Add(idTokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email:            std.Email,
		EmailVerified:    std.EmailVerified,
		Name:             std.Name,
		AtHash:           leftHalfHash(accessToken),
		CHash:            leftHalfHash(code),
		AdditionalClaims: add,
	}

	jwtToken := jwt.NewWithClaims(jwt.SigningMethodRS256, c)
	jwtToken.Header["kid"] = m.keyID

	signed, err := jwtToken.SignedString(m.key)
	if err != nil {
		return Response{}, fmt.Errorf("token: signing id token: %w", err)
	}

	return Response{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		IDToken:     signed,
		ExpiresIn:   int64(idTokenLifetime.Seconds()),
	}, nil
}

// JWKS returns the published JWK Set (§4.I /jwk): a single RSA public key
// whose kid matches Config.key_id and the signed ID Tokens' JWS header.
func (m *Minter) JWKS() josejwk.JSONWebKeySet {
	return josejwk.JSONWebKeySet{
		Keys: []josejwk.JSONWebKey{
			{
				Key:       &m.key.PublicKey,
				KeyID:     m.keyID,
				Algorithm: string(josejwk.RS256),
				Use:       "sig",
			},
		},
	}
}

// leftHalfHash implements the OIDC at_hash/c_hash derivation: SHA-256 the
// ASCII octets of value, take the left half, base64url-encode without
// padding. RS256 always uses SHA-256 regardless of key size.
func leftHalfHash(value string) string {
	sum := sha256.Sum256([]byte(value))
	half := sum[:len(sum)/2]
	return base64.RawURLEncoding.EncodeToString(half)
}
