package main

import (
	"crypto/hmac"
	"crypto/sha1" // #nosec G505 - legacy signature header support, not used for new digests
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"net/http"
	"strings"

	"msgvault/internal/constants"
)

// ValidateSignature checks the HMAC signature header against the raw request
// body. It fails closed: an empty secret, an empty header, or a header that
// does not parse all yield false rather than an error. The header format is
// "<algorithm>=<hex-digest>" with the algorithm matched case-insensitively
// against sha256 and sha1.
func ValidateSignature(secret string, rawBody []byte, signatureHeader string) bool {
	if secret == "" || signatureHeader == "" {
		return false
	}

	parts := strings.SplitN(signatureHeader, "=", 2)
	if len(parts) != 2 {
		return false
	}

	var newHash func() hash.Hash
	switch strings.ToLower(parts[0]) {
	case "sha256":
		newHash = sha256.New
	case "sha1":
		newHash = sha1.New
	default:
		return false
	}

	mac := hmac.New(newHash, []byte(secret))
	mac.Write(rawBody)
	computed := hex.EncodeToString(mac.Sum(nil))

	// hmac.Equal compares in constant time; a naive string compare would
	// leak the position of the first mismatching digest byte.
	return hmac.Equal([]byte(computed), []byte(strings.ToLower(parts[1])))
}

// signatureFromRequest returns the signature header value, preferring the
// current SHA-256 header over the legacy one when both are present.
func signatureFromRequest(r *http.Request) string {
	if sig := r.Header.Get(constants.SignatureHeaderPrimary); sig != "" {
		return sig
	}
	return r.Header.Get(constants.SignatureHeaderLegacy)
}
