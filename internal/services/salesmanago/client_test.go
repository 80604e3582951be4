package salesmanago

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shipsync/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(Config{
		ClientID:    "client",
		APIKey:      "key",
		APISecret:   "secret",
		Owner:       "owner@example.com",
		UpsertURL:   srv.URL + "/api/contact/upsert",
		ListByIDURL: srv.URL + "/api/contact/listById",
		HTTPClient:  srv.Client(),
	}, logger.New("error"))
	c.now = func() time.Time { return time.UnixMilli(1700000000123) }
	return c
}

func TestUpsertSignsRequest(t *testing.T) {
	sum := sha1.Sum([]byte("keyclientsecret"))
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/contact/upsert", r.URL.Path)
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, hex.EncodeToString(sum[:]), body["sha"])
		assert.Equal(t, "client", body["clientId"])
		assert.Equal(t, float64(1700000000123), body["requestTime"])
		contact := body["contact"].(map[string]interface{})
		assert.Equal(t, "ana@example.com", contact["email"])
		assert.Equal(t, "PROSPECT", contact["state"])
		io.WriteString(w, `{"success":true,"contactId":"abc"}`)
	})

	raw, err := client.Upsert(context.Background(), Contact{Email: "ana@example.com", Name: "Ana"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"contactId":"abc"}`, string(raw))

	_, err = client.Upsert(context.Background(), Contact{})
	assert.Error(t, err)
}

func TestNewsletterStatus(t *testing.T) {
	tests := []struct {
		name    string
		resp    string
		found   bool
		accepts *bool
		raw     interface{}
	}{
		{"opted out", `{"contacts":[{"details":{"newsletterOptOut":true}}]}`, true, boolPtr(false), true},
		{"opted in", `{"contact":{"optOut":false}}`, true, boolPtr(true), false},
		{"non boolean flag", `{"contacts":[{"contactDetails":{"optout":"N"}}]}`, true, nil, "N"},
		{"no flag", `{"contacts":[{"email":"a@example.com"}]}`, true, nil, nil},
		{"not found", `{"contacts":[]}`, false, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				var body map[string]interface{}
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, []interface{}{"c-1"}, body["contactId"])
				io.WriteString(w, tt.resp)
			})

			status, err := client.NewsletterStatus(context.Background(), "c-1")
			require.NoError(t, err)
			assert.Equal(t, tt.found, status.Found)
			assert.Equal(t, tt.accepts, status.AcceptsNewsletter)
			assert.Equal(t, tt.raw, status.RawFlag)
		})
	}
}

func TestNewsletterStatusUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"message":"bad sha"}`)
	})

	_, err := client.NewsletterStatus(context.Background(), "c-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func boolPtr(b bool) *bool { return &b }
