// Package chainsig verifies EIP-191 "Ethereum Signed Message" signatures by
// recovering the signer's address and comparing it against an asserted
// account, trying both ECDSA recovery parity bits.
//
// Grounded on the EIP-191 prefix-hash + crypto.SigToPub recovery pattern
// used by other_examples/412e9177_ForrestCrew-worldland-sdk (internal/auth/siwe.go).
package chainsig

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

const signaturePrefix = "\x19Ethereum Signed Message:\n"

// eip191Digest computes keccak256(prefix || len(msg) || msg) per EIP-191.
func eip191Digest(msg []byte) []byte {
	prefixed := signaturePrefix + strconv.Itoa(len(msg))
	hash := crypto.Keccak256Hash([]byte(prefixed), msg)
	return hash.Bytes()
}

// Verify implements §4.B: it constructs "{account};{nonce}", computes the
// EIP-191 digest, recovers the signer's address with both v=0 and v=1, and
// returns true iff either recovered address equals account (compared
// case-insensitively). Failures — malformed signature, decode errors — are
// reported as false, never as an error; the caller cannot distinguish "bad
// input" from "does not match".
func Verify(account, nonce, signature string) bool {
	message := fmt.Sprintf("%s;%s", account, nonce)
	digest := eip191Digest([]byte(message))

	sig, ok := decodeSignature(signature)
	if !ok {
		return false
	}

	want := normalize(account)
	for _, v := range []byte{0, 1} {
		candidate := append(append([]byte{}, sig...), v)
		pub, err := crypto.SigToPub(digest, candidate)
		if err != nil {
			continue
		}
		recovered := crypto.PubkeyToAddress(*pub).Hex()
		if normalize(recovered) == want {
			return true
		}
	}
	return false
}

// decodeSignature strips the 0x prefix and hex-decodes the 64-byte r||s
// portion of a signature, discarding any trailing recovery byte the caller
// supplied since §4.B recovers with both v=0 and v=1 regardless.
func decodeSignature(signature string) ([]byte, bool) {
	if len(signature) < 2 {
		return nil, false
	}
	s := strings.TrimPrefix(signature, "0x")
	s = strings.TrimPrefix(s, "0X")
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) < 64 {
		return nil, false
	}
	return raw[:64], true
}

// normalize lowercases a hex address for case-insensitive comparison,
// fixing the Rust original's `{:02X?}` debug-format bug (§9).
func normalize(addr string) string {
	return strings.ToLower(strings.TrimPrefix(addr, "0x"))
}
