package reports

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"shipsync/internal/services/shopify"

	"github.com/shopspring/decimal"
)

// OrderRow is one line of the daily order report.
type OrderRow struct {
	Name              string
	CreatedAt         time.Time
	Email             string
	FinancialStatus   string
	FulfillmentStatus string
	Total             decimal.Decimal
	Currency          string
}

var csvHeader = []string{"order", "created_at", "email", "financial_status", "fulfillment_status", "total", "currency"}

// bulkOrder is one JSONL line of the bulk order export.
type bulkOrder struct {
	ID                       string    `json:"id"`
	Name                     string    `json:"name"`
	CreatedAt                time.Time `json:"createdAt"`
	Email                    string    `json:"email"`
	DisplayFinancialStatus   string    `json:"displayFinancialStatus"`
	DisplayFulfillmentStatus string    `json:"displayFulfillmentStatus"`
	TotalPriceSet            struct {
		ShopMoney struct {
			Amount       string `json:"amount"`
			CurrencyCode string `json:"currencyCode"`
		} `json:"shopMoney"`
	} `json:"totalPriceSet"`
	ParentID string `json:"__parentId"`
}

// ParseBulkOrders reads a bulk export JSONL stream. Child lines (those with
// __parentId) are skipped.
func ParseBulkOrders(r io.Reader) ([]OrderRow, error) {
	var rows []OrderRow
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var order bulkOrder
		if err := json.Unmarshal([]byte(text), &order); err != nil {
			return nil, fmt.Errorf("failed to parse line %d: %w", line, err)
		}
		if order.ParentID != "" {
			continue
		}
		total, err := parseAmount(order.TotalPriceSet.ShopMoney.Amount)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, OrderRow{
			Name:              order.Name,
			CreatedAt:         order.CreatedAt,
			Email:             order.Email,
			FinancialStatus:   order.DisplayFinancialStatus,
			FulfillmentStatus: order.DisplayFulfillmentStatus,
			Total:             total,
			Currency:          order.TotalPriceSet.ShopMoney.CurrencyCode,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}
	return rows, nil
}

// RowsFromOrders converts REST orders into report rows.
func RowsFromOrders(orders []shopify.Order) ([]OrderRow, error) {
	rows := make([]OrderRow, 0, len(orders))
	for _, o := range orders {
		total, err := parseAmount(o.TotalPrice.String())
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", o.Name, err)
		}
		fulfillment := ""
		if o.FulfillmentStatus != nil {
			fulfillment = *o.FulfillmentStatus
		}
		rows = append(rows, OrderRow{
			Name:              o.Name,
			CreatedAt:         o.CreatedAt,
			Email:             o.Email,
			FinancialStatus:   strings.ToUpper(o.FinancialStatus),
			FulfillmentStatus: strings.ToUpper(fulfillment),
			Total:             total,
			Currency:          o.Currency,
		})
	}
	return rows, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// WriteCSV writes rows with a header line. Times are rendered in loc.
func WriteCSV(w io.Writer, rows []OrderRow, loc *time.Location) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.Name,
			row.CreatedAt.In(loc).Format("2006-01-02 15:04:05"),
			row.Email,
			row.FinancialStatus,
			row.FulfillmentStatus,
			row.Total.StringFixed(2),
			row.Currency,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Totals sums the order totals per currency.
func Totals(rows []OrderRow) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, row := range rows {
		totals[row.Currency] = totals[row.Currency].Add(row.Total)
	}
	return totals
}
