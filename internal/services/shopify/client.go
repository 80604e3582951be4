package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shipsync/internal/logger"

	"github.com/machinebox/graphql"
)

type Config struct {
	ShopDomain  string
	AccessToken string
	APIVersion  string
	HTTPClient  *http.Client
}

type Client struct {
	baseURL     string
	apiVersion  string
	accessToken string
	httpClient  *http.Client
	gql         *graphql.Client
	logger      *logger.Logger
}

func NewClient(cfg Config, logger *logger.Logger) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}
	c := &Client{
		baseURL:     normalizeDomain(cfg.ShopDomain),
		apiVersion:  cfg.APIVersion,
		accessToken: cfg.AccessToken,
		httpClient:  httpClient,
		logger:      logger,
	}
	// graphql.Client.Log is left unset: it dumps request headers, token included.
	c.gql = graphql.NewClient(c.adminURL("graphql.json"), graphql.WithHTTPClient(statusCheckingClient(httpClient)))
	return c
}

// statusCheckingClient copies base with a transport that fails non-2xx
// responses. The graphql client decodes any JSON body as success otherwise.
func statusCheckingClient(base *http.Client) *http.Client {
	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	client := *base
	client.Transport = statusTransport{base: transport}
	return &client
}

type statusTransport struct {
	base http.RoundTripper
}

func (t statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return resp, nil
}

// normalizeDomain accepts "shop.myshopify.com", "https://shop.myshopify.com/"
// or a full base URL (tests) and returns a scheme-qualified base.
func normalizeDomain(domain string) string {
	domain = strings.TrimSpace(domain)
	if !strings.HasPrefix(domain, "http://") && !strings.HasPrefix(domain, "https://") {
		domain = "https://" + domain
	}
	return strings.TrimRight(domain, "/")
}

func (c *Client) adminURL(path string) string {
	return fmt.Sprintf("%s/admin/api/%s/%s", c.baseURL, c.apiVersion, path)
}

// Run executes a GraphQL document against the Admin API and decodes "data"
// into out. Errors are *GraphQLError, *HTTPStatusError or transport errors.
func (c *Client) Run(ctx context.Context, query string, vars map[string]interface{}, out interface{}) error {
	req := graphql.NewRequest(query)
	for k, v := range vars {
		req.Var(k, v)
	}
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)

	if err := c.gql.Run(ctx, req, out); err != nil {
		err = classifyRunError(err)
		c.logger.Debug("admin graphql request failed: %v", err)
		return err
	}
	return nil
}

func classifyRunError(err error) error {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr
	}
	if msg := err.Error(); strings.HasPrefix(msg, "graphql: ") {
		return &GraphQLError{Message: strings.TrimPrefix(msg, "graphql: ")}
	}
	return fmt.Errorf("failed to make request: %w", err)
}

// GetProduct fetches handle and variants of a product through the REST API.
func (c *Client) GetProduct(ctx context.Context, productID string) (*Product, error) {
	endpoint := c.adminURL(fmt.Sprintf("products/%s.json", url.PathEscape(productID)))

	var productResp struct {
		Product *Product `json:"product"`
	}
	if err := c.getJSON(ctx, endpoint, url.Values{"fields": {"handle,variants"}}, &productResp); err != nil {
		return nil, err
	}
	if productResp.Product == nil {
		return &Product{}, nil
	}
	return productResp.Product, nil
}

// GetOrderByName looks an order up by its display name ("1001" or "#1001").
// It returns nil when no order matches.
func (c *Client) GetOrderByName(ctx context.Context, name string) (*Order, error) {
	var ordersResp struct {
		Orders []Order `json:"orders"`
	}
	params := url.Values{
		"name":   {strings.TrimPrefix(name, "#")},
		"status": {"any"},
	}
	if err := c.getJSON(ctx, c.adminURL("orders.json"), params, &ordersResp); err != nil {
		return nil, err
	}
	if len(ordersResp.Orders) == 0 {
		return nil, nil
	}
	return &ordersResp.Orders[0], nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	if len(params) > 0 {
		req.URL.RawQuery = params.Encode()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
