package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"shipsync/internal/config"
	"shipsync/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testLogger = logger.New("error")

func testConfig() *config.Config {
	return &config.Config{
		WebhookSecret:         "shpss_secret",
		FlowSecret:            "flow-secret",
		WappingSecret:         "wapping-secret",
		WappingMaxSkew:        300 * time.Second,
		SalesmanagoRuleID:     "rule-1",
		SalesmanagoAllowedIPs: []string{"89.25.223.94", "89.25.223.95"},
	}
}

func perform(router *gin.Engine, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}
