package shopify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const bulkRunMutation = `
mutation bulkOperationRunQuery($query: String!) {
	bulkOperationRunQuery(query: $query) {
		bulkOperation { id status }
		userErrors { field message }
	}
}`

// RunBulkQuery starts an asynchronous bulk export of query.
func (c *Client) RunBulkQuery(ctx context.Context, query string) (*BulkOperation, error) {
	var data struct {
		BulkOperationRunQuery struct {
			BulkOperation *BulkOperation `json:"bulkOperation"`
			UserErrors    []UserError    `json:"userErrors"`
		} `json:"bulkOperationRunQuery"`
	}
	if err := c.Run(ctx, bulkRunMutation, map[string]interface{}{"query": query}, &data); err != nil {
		return nil, err
	}
	if err := userErrorsToError("bulkOperationRunQuery", data.BulkOperationRunQuery.UserErrors); err != nil {
		return nil, err
	}
	if data.BulkOperationRunQuery.BulkOperation == nil {
		return nil, errors.New("shopify bulk operation not created")
	}
	return data.BulkOperationRunQuery.BulkOperation, nil
}

const bulkStatusQuery = `
query BulkOperation($id: ID!) {
	node(id: $id) {
		... on BulkOperation { id status errorCode objectCount url partialDataUrl }
	}
}`

// BulkOperation returns the current state of a bulk operation.
func (c *Client) BulkOperation(ctx context.Context, id string) (*BulkOperation, error) {
	var data struct {
		Node *BulkOperation `json:"node"`
	}
	if err := c.Run(ctx, bulkStatusQuery, map[string]interface{}{"id": id}, &data); err != nil {
		return nil, err
	}
	if data.Node == nil {
		return nil, fmt.Errorf("shopify bulk operation %s not found", id)
	}
	return data.Node, nil
}

// Download opens the result file of a completed bulk operation. The URL is
// pre-signed, so no access token is sent. Callers close the body.
func (c *Client) Download(ctx context.Context, fileURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return resp.Body, nil
}
