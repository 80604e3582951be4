package shopify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListOrdersFollowsLinkHeader(t *testing.T) {
	var baseURL string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/api/2025-01/orders.json", r.URL.Path)
		assert.Equal(t, "shpat_test", r.Header.Get("X-Shopify-Access-Token"))
		if r.URL.Query().Get("page_info") == "" {
			assert.Equal(t, "2026-02-28T00:00:00Z", r.URL.Query().Get("created_at_min"))
			assert.Equal(t, "2026-02-28T23:59:59Z", r.URL.Query().Get("created_at_max"))
			w.Header().Set("Link", fmt.Sprintf(`<%s/admin/api/2025-01/orders.json?limit=250&page_info=abc>; rel="next"`, baseURL))
			io.WriteString(w, `{"orders":[{"id":1,"name":"#1001"}]}`)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/admin/api/2025-01/orders.json?limit=250&page_info=xyz>; rel="previous"`, baseURL))
		io.WriteString(w, `{"orders":[{"id":2,"name":"#1002"}]}`)
	})
	baseURL = client.baseURL

	day := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	orders, err := client.ListOrders(context.Background(), day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "#1001", orders[0].Name)
	assert.Equal(t, "#1002", orders[1].Name)
}

func TestNextPageURL(t *testing.T) {
	header := `<https://shop/orders.json?page_info=p>; rel="previous", <https://shop/orders.json?page_info=n>; rel="next"`
	assert.Equal(t, "https://shop/orders.json?page_info=n", nextPageURL(header))
	assert.Equal(t, "", nextPageURL(""))
}
