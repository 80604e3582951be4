package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func shopifySignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifyShopifyHMAC(t *testing.T) {
	body := []byte(`{"id":42,"handle":"classic-shirt"}`)
	sig := shopifySignature("s3cret", body)

	assert.True(t, VerifyShopifyHMAC(body, sig, "s3cret"))
	assert.False(t, VerifyShopifyHMAC(body, sig, "other"))
	assert.False(t, VerifyShopifyHMAC([]byte(`{"id":42, "handle":"classic-shirt"}`), sig, "s3cret"))
	assert.False(t, VerifyShopifyHMAC(body, "", "s3cret"))
	assert.False(t, VerifyShopifyHMAC(body, "not base64!", "s3cret"))
}

func TestVerifyWappingSignature(t *testing.T) {
	body := []byte(`{"entityCode":"Customer","eventCode":"updated"}`)
	now := time.Unix(1700000000, 0)
	sig := SignWappingPayload("w-secret", now.Unix(), body)

	assert.True(t, VerifyWappingSignature(body, sig, "1700000000", "w-secret", 300*time.Second, now))
	assert.True(t, VerifyWappingSignature(body, sig, "1700000000", "w-secret", 300*time.Second, now.Add(299*time.Second)))
	assert.False(t, VerifyWappingSignature(body, sig, "1700000000", "w-secret", 300*time.Second, now.Add(301*time.Second)))
	assert.False(t, VerifyWappingSignature(body, sig, "1700000000", "w-secret", 300*time.Second, now.Add(-301*time.Second)))
	assert.False(t, VerifyWappingSignature(body, sig, "1700000001", "w-secret", 300*time.Second, now))
	assert.False(t, VerifyWappingSignature(body, sig, "soon", "w-secret", 300*time.Second, now))
	assert.False(t, VerifyWappingSignature(body, "zz", "1700000000", "w-secret", 300*time.Second, now))
	assert.False(t, VerifyWappingSignature(body, sig, "1700000000", "", 300*time.Second, now))
}

func TestSecretMatches(t *testing.T) {
	assert.True(t, SecretMatches("flow", "flow"))
	assert.False(t, SecretMatches("flow", "flow2"))
	assert.False(t, SecretMatches("", "flow"))
}
