package token

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nftoidc/provider/internal/claims"
)

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating test key: %v", err)
	}
	return key
}

func TestMint_RoundTrip(t *testing.T) {
	key := testKey(t)
	minter := NewMinter(key, "test-kid")

	std := claims.StandardClaimsFor("0x9c9e8eabd947658bdb713e0d3ebfe56860abdb8d")
	add := claims.AdditionalClaimsFor(
		"0x9c9e8eabd947658bdb713e0d3ebfe56860abdb8d",
		"dotzxrenodo",
		"0x87b7...44c1c",
		66,
		"https://okt.example.com",
		"0x886B6781CD7dF75d8440Aba84216b2671AEFf9A4",
	)

	resp, err := minter.Mint("https://idp.example.com/okt", "foo", "access-token-1", "code-1", std, add)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	if resp.TokenType != "Bearer" {
		t.Errorf("expected token_type Bearer, got %s", resp.TokenType)
	}
	if resp.AccessToken != "access-token-1" {
		t.Errorf("expected access token to round-trip, got %s", resp.AccessToken)
	}

	parsed, err := jwt.ParseWithClaims(resp.IDToken, &idTokenClaims{}, func(tok *jwt.Token) (interface{}, error) {
		return &key.PublicKey, nil
	})
	if err != nil {
		t.Fatalf("parsing minted id token: %v", err)
	}

	claimsOut, ok := parsed.Claims.(*idTokenClaims)
	if !ok {
		t.Fatalf("unexpected claims type %T", parsed.Claims)
	}

	if claimsOut.Subject != std.Subject {
		t.Errorf("sub = %s, want %s", claimsOut.Subject, std.Subject)
	}
	if claimsOut.Issuer != "https://idp.example.com/okt" {
		t.Errorf("iss = %s, want https://idp.example.com/okt", claimsOut.Issuer)
	}
	if len(claimsOut.Audience) != 1 || claimsOut.Audience[0] != "foo" {
		t.Errorf("aud = %v, want [foo]", claimsOut.Audience)
	}
	if claimsOut.Account != add.Account || claimsOut.Contract != add.Contract {
		t.Errorf("additional claims did not round-trip: %+v", claimsOut.AdditionalClaims)
	}
	if claimsOut.AtHash == "" || claimsOut.CHash == "" {
		t.Error("expected at_hash and c_hash to be populated")
	}

	if parsed.Header["kid"] != "test-kid" {
		t.Errorf("kid header = %v, want test-kid", parsed.Header["kid"])
	}
	if parsed.Header["alg"] != "RS256" {
		t.Errorf("alg header = %v, want RS256", parsed.Header["alg"])
	}
}

func TestJWKS_ContainsConfiguredKeyID(t *testing.T) {
	key := testKey(t)
	minter := NewMinter(key, "kid-123")

	set := minter.JWKS()
	if len(set.Keys) != 1 {
		t.Fatalf("expected exactly one key, got %d", len(set.Keys))
	}
	if set.Keys[0].KeyID != "kid-123" {
		t.Errorf("jwk kid = %s, want kid-123", set.Keys[0].KeyID)
	}
	if !set.Keys[0].Valid() {
		t.Error("expected published jwk to be valid")
	}
}

func TestLeftHalfHash_Deterministic(t *testing.T) {
	a := leftHalfHash("access-token-1")
	b := leftHalfHash("access-token-1")
	if a != b {
		t.Error("expected leftHalfHash to be deterministic")
	}
	if a == leftHalfHash("access-token-2") {
		t.Error("expected different inputs to hash differently")
	}
}
