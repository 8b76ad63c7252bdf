package main

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"net/http/httptest"
	"strings"
	"testing"

	"msgvault/internal/constants"

	"github.com/stretchr/testify/assert"
)

func sign256(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func sign1(secret string, body []byte) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestValidateSignature(t *testing.T) {
	secret := "test-secret"
	body := []byte(`{"object":"page","entry":[]}`)

	tests := []struct {
		name   string
		secret string
		header string
		want   bool
	}{
		{"valid sha256", secret, "sha256=" + sign256(secret, body), true},
		{"valid sha1", secret, "sha1=" + sign1(secret, body), true},
		{"algorithm case insensitive", secret, "SHA256=" + sign256(secret, body), true},
		{"uppercase digest accepted", secret, "sha256=" + strings.ToUpper(sign256(secret, body)), true},
		{"empty secret", "", "sha256=" + sign256(secret, body), false},
		{"empty header", secret, "", false},
		{"no delimiter", secret, sign256(secret, body), false},
		{"empty digest", secret, "sha256=", false},
		{"unsupported algorithm", secret, "md5=" + sign256(secret, body), false},
		{"wrong secret", "other-secret", "sha256=" + sign256(secret, body), false},
		{"truncated digest", secret, "sha256=" + sign256(secret, body)[:32], false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateSignature(tt.secret, body, tt.header))
		})
	}
}

func TestValidateSignatureAnyFlippedCharFails(t *testing.T) {
	secret := "test-secret"
	body := []byte(`{"entry":[]}`)
	digest := sign256(secret, body)

	for i := range digest {
		flipped := []byte(digest)
		if flipped[i] == '0' {
			flipped[i] = '1'
		} else {
			flipped[i] = '0'
		}
		if string(flipped) == digest {
			continue
		}
		assert.False(t, ValidateSignature(secret, body, "sha256="+string(flipped)),
			"flipped digest char %d must not validate", i)
	}
}

func TestValidateSignatureBodySensitivity(t *testing.T) {
	secret := "test-secret"
	body := []byte(`{"entry":[]}`)
	header := "sha256=" + sign256(secret, body)

	assert.True(t, ValidateSignature(secret, body, header))
	assert.False(t, ValidateSignature(secret, []byte(`{"entry":[] }`), header))
}

func TestSignatureFromRequest(t *testing.T) {
	t.Run("prefers primary header", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/webhook", nil)
		r.Header.Set(constants.SignatureHeaderPrimary, "sha256=abc")
		r.Header.Set(constants.SignatureHeaderLegacy, "sha1=def")
		assert.Equal(t, "sha256=abc", signatureFromRequest(r))
	})

	t.Run("falls back to legacy header", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/webhook", nil)
		r.Header.Set(constants.SignatureHeaderLegacy, "sha1=def")
		assert.Equal(t, "sha1=def", signatureFromRequest(r))
	})

	t.Run("empty when absent", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/webhook", nil)
		assert.Equal(t, "", signatureFromRequest(r))
	})
}
