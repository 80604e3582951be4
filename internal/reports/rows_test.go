package reports

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBulkOrders(t *testing.T) {
	rows, err := ParseBulkOrders(strings.NewReader(exportJSONL + "\n"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "#1002", rows[0].Name)
	assert.True(t, decimal.RequireFromString("40.10").Equal(rows[0].Total))

	_, err = ParseBulkOrders(strings.NewReader("{not json}\n"))
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []OrderRow{{
		Name:      "#1001",
		CreatedAt: time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC),
		Email:     "a,b@example.com",
		Total:     decimal.RequireFromString("5"),
		Currency:  "EUR",
	}}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "order,created_at,email,financial_status,fulfillment_status,total,currency\n#1001,2026-02-28 09:00:00,\"a,b@example.com\",,,5.00,EUR\n", buf.String())
}

func TestTotals(t *testing.T) {
	totals := Totals([]OrderRow{
		{Total: decimal.RequireFromString("0.10"), Currency: "EUR"},
		{Total: decimal.RequireFromString("0.20"), Currency: "EUR"},
		{Total: decimal.RequireFromString("3"), Currency: "USD"},
	})
	assert.Equal(t, "0.30", totals["EUR"].StringFixed(2))
	assert.Equal(t, "3.00", totals["USD"].StringFixed(2))
}
