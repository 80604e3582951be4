package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// VerifyShopifyHMAC checks X-Shopify-Hmac-Sha256: base64 HMAC-SHA256 of the
// raw request body.
func VerifyShopifyHMAC(body []byte, hmacHeader, secret string) bool {
	if hmacHeader == "" || secret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := mac.Sum(nil)

	got, err := base64.StdEncoding.DecodeString(strings.TrimSpace(hmacHeader))
	if err != nil {
		return false
	}
	return hmac.Equal(expected, got)
}

// SignWappingPayload returns the hex HMAC-SHA256 of "<ts>.<body>".
func SignWappingPayload(secret string, ts int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWappingSignature checks the Wapping-Signature and Wapping-Timestamp
// headers. The timestamp (unix seconds) must lie within maxSkew of now.
func VerifyWappingSignature(body []byte, signature, timestamp, secret string, maxSkew time.Duration, now time.Time) bool {
	if signature == "" || timestamp == "" || secret == "" {
		return false
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(timestamp), 10, 64)
	if err != nil {
		return false
	}
	skew := now.Unix() - ts
	if skew < 0 {
		skew = -skew
	}
	if time.Duration(skew)*time.Second > maxSkew {
		return false
	}

	expected, _ := hex.DecodeString(SignWappingPayload(secret, ts, body))
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	return hmac.Equal(expected, got)
}

// SecretMatches compares a shared-secret header in constant time.
func SecretMatches(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
