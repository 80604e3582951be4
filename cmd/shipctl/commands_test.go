package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"shipsync/internal/database"
	"shipsync/internal/models"
	"shipsync/internal/reports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyCommand(t *testing.T) {
	payload := `{"handle":"classic-shirt","variants":[
		{"id":1,"price":"100.00","compare_at_price":"150.00"},
		{"id":2,"price":"30.00","compare_at_price":null},
		{"id":3,"price":"20.00","compare_at_price":"20.00"}
	]}`

	cmd := classifyCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(payload))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "gid://shopify/ProductVariant/1\tdiscounted"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "gid://shopify/ProductVariant/2\tstandard"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "gid://shopify/ProductVariant/3\tstandard"), lines[2])
	assert.Equal(t, "handle=classic-shirt discounted=1 standard=2", lines[3])
}

func TestClassifyRejectsInvalidPayload(t *testing.T) {
	var out bytes.Buffer
	err := runClassify(strings.NewReader("{"), &out)
	assert.Error(t, err)
}

type shopServer struct {
	mu        sync.Mutex
	mutations []map[string]interface{}
	orderHits int
}

// newShop serves the REST product and order endpoints. GraphQL mutations
// succeed unless bulkFails, in which case every GraphQL call answers 500.
func newShop(t *testing.T, bulkFails bool) (*httptest.Server, *shopServer) {
	t.Helper()
	state := &shopServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/api/2025-01/products/42.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"product":{"handle":"classic-shirt","variants":[
			{"id":1,"price":"100.00","compare_at_price":"150.00"},
			{"id":2,"price":"30.00","compare_at_price":null}
		]}}`))
	})
	mux.HandleFunc("/admin/api/2025-01/orders.json", func(w http.ResponseWriter, r *http.Request) {
		state.mu.Lock()
		state.orderHits++
		state.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"orders":[]}`))
	})
	mux.HandleFunc("/admin/api/2025-01/graphql.json", func(w http.ResponseWriter, r *http.Request) {
		if bulkFails {
			http.Error(w, "unavailable", http.StatusInternalServerError)
			return
		}
		var body struct {
			Variables map[string]interface{} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		state.mu.Lock()
		state.mutations = append(state.mutations, body.Variables)
		state.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"deliveryProfileUpdate":{"profile":{"id":"p"},"userErrors":[]}}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, state
}

func setShopEnv(t *testing.T, shopURL string) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	t.Setenv("SHIP_SHOP_DOMAIN", shopURL)
	t.Setenv("SHIP_ADMIN_TOKEN", "shpat_test")
	t.Setenv("SHIP_API_VERSION", "2025-01")
	t.Setenv("SHIP_PROFILE_REBAJAS_ID", "gid://shopify/DeliveryProfile/1")
	t.Setenv("SHIP_PROFILE_GENERAL_ID", "gid://shopify/DeliveryProfile/2")
	t.Setenv("SHIP_EXPLICIT_DISSOCIATE", "false")
	t.Setenv("DATABASE_URL", "sqlite://"+dbPath)
	t.Setenv("REPORT_RECIPIENTS", "ops@example.com")
	t.Setenv("REPORT_TIMEZONE", "Europe/Madrid")
	t.Setenv("SMTP_HOST", "")
	t.Setenv("SMTP_FROM", "")
	t.Setenv("LOG_LEVEL", "error")
	return "sqlite://" + dbPath
}

func execute(args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestReconcileCommandDissociates(t *testing.T) {
	srv, shop := newShop(t, false)
	setShopEnv(t, srv.URL)

	out, err := execute("reconcile", "42", "--dissociate")

	require.NoError(t, err)
	assert.Equal(t, "classic-shirt: rebajas=1 general=1 calls=4\n", out)

	dissociations := map[string]interface{}{}
	for _, vars := range shop.mutations {
		profile := vars["profile"].(map[string]interface{})
		if ids, ok := profile["variantsToDissociate"]; ok {
			dissociations[vars["id"].(string)] = ids
		}
	}
	assert.Len(t, shop.mutations, 4)
	assert.Equal(t, []interface{}{"gid://shopify/ProductVariant/2"}, dissociations["gid://shopify/DeliveryProfile/1"])
	assert.Equal(t, []interface{}{"gid://shopify/ProductVariant/1"}, dissociations["gid://shopify/DeliveryProfile/2"])
}

func TestReconcileCommandWithoutDissociate(t *testing.T) {
	srv, shop := newShop(t, false)
	setShopEnv(t, srv.URL)

	out, err := execute("reconcile", "42")

	require.NoError(t, err)
	assert.Equal(t, "classic-shirt: rebajas=1 general=1 calls=2\n", out)
	assert.Len(t, shop.mutations, 2)
}

func TestReconcileCommandRequiresShop(t *testing.T) {
	t.Setenv("SHIP_SHOP_DOMAIN", "")
	t.Setenv("SHOP_DOMAIN", "")
	t.Setenv("SHIP_ADMIN_TOKEN", "shpat_test")

	_, err := execute("reconcile", "42")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHIP_SHOP_DOMAIN")
}

func seedSucceededRun(t *testing.T, databaseURL, day string) {
	t.Helper()
	db, err := database.New(databaseURL)
	require.NoError(t, err)
	defer db.Close()

	store := reports.NewStore(db.DB)
	run := &models.ReportRun{Kind: reports.KindDailyOrders, PeriodKey: day, Trigger: "schedule"}
	require.NoError(t, store.Start(run))
	require.NoError(t, store.Finish(run, nil))
}

func TestReportRunCommandSkipsReportedDay(t *testing.T) {
	srv, shop := newShop(t, true)
	databaseURL := setShopEnv(t, srv.URL)
	seedSucceededRun(t, databaseURL, "2026-03-01")

	out, err := execute("report", "run", "--day", "2026-03-01")

	require.NoError(t, err)
	assert.Equal(t, "report already sent; use --force to send it again\n", out)
	assert.Zero(t, shop.orderHits)
}

func TestReportRunCommandForceRecordsFailure(t *testing.T) {
	srv, shop := newShop(t, true)
	databaseURL := setShopEnv(t, srv.URL)
	seedSucceededRun(t, databaseURL, "2026-03-01")

	_, err := execute("report", "run", "--day", "2026-03-01", "--force")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp not configured")
	assert.Equal(t, 1, shop.orderHits)

	db, err := database.New(databaseURL)
	require.NoError(t, err)
	defer db.Close()
	runs, total, err := reports.NewStore(db.DB).List(1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)

	var failed *models.ReportRun
	for i := range runs {
		if runs[i].Status == models.ReportRunStatusFailed {
			failed = &runs[i]
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, "2026-03-01", failed.PeriodKey)
	assert.Equal(t, "cli", failed.Trigger)
	assert.Contains(t, *failed.Error, "smtp not configured")
}
