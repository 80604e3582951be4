package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tomnomnom/linkheader"
)

const maxOrderPages = 100

// ListOrders returns every order created in [since, until), following the
// REST Link header page by page.
func (c *Client) ListOrders(ctx context.Context, since, until time.Time) ([]Order, error) {
	params := url.Values{
		"status":         {"any"},
		"limit":          {"250"},
		"created_at_min": {since.Format(time.RFC3339)},
		"created_at_max": {until.Add(-time.Second).Format(time.RFC3339)},
	}
	next := c.adminURL("orders.json") + "?" + params.Encode()

	var orders []Order
	for page := 0; next != ""; page++ {
		if page >= maxOrderPages {
			return orders, fmt.Errorf("order listing exceeded %d pages", maxOrderPages)
		}

		var ordersResp struct {
			Orders []Order `json:"orders"`
		}
		link, err := c.getPage(ctx, next, &ordersResp)
		if err != nil {
			return nil, err
		}
		orders = append(orders, ordersResp.Orders...)
		next = nextPageURL(link)
	}
	return orders, nil
}

func nextPageURL(header string) string {
	for _, link := range linkheader.Parse(header) {
		if link.Rel == "next" {
			return link.URL
		}
	}
	return ""
}

func (c *Client) getPage(ctx context.Context, pageURL string, out interface{}) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.Header.Get("Link"), nil
}
