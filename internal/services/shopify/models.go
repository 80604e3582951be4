package shopify

import (
	"bytes"
	"encoding/json"
	"time"
)

// FlexString accepts a JSON string, number or null. Shopify sends prices as
// strings, but hand-built Flow payloads and older webhook versions do not.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(data)
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// Product represents a Shopify product as returned by REST reads and
// products/* webhooks.
type Product struct {
	ID                FlexString `json:"id"`
	Title             string     `json:"title"`
	Handle            string     `json:"handle"`
	Status            string     `json:"status"`
	Variants          []Variant  `json:"variants"`
	AdminGraphQLAPIID string     `json:"admin_graphql_api_id"`
}

// Variant represents a product variant. Price and CompareAtPrice are empty
// when absent from the payload.
type Variant struct {
	ID                FlexString `json:"id"`
	ProductID         FlexString `json:"product_id"`
	Title             string     `json:"title"`
	Price             FlexString `json:"price"`
	CompareAtPrice    FlexString `json:"compare_at_price"`
	Sku               string     `json:"sku"`
	AdminGraphQLAPIID string     `json:"admin_graphql_api_id"`
}

// WebhookPayload represents a products/update webhook body.
type WebhookPayload struct {
	ID                FlexString `json:"id"`
	Title             string     `json:"title"`
	Handle            string     `json:"handle"`
	Variants          []Variant  `json:"variants"`
	AdminGraphQLAPIID string     `json:"admin_graphql_api_id"`
	UpdatedAt         *time.Time `json:"updated_at"`
}

// Order is the subset of the REST order resource exposed by the order lookup.
type Order struct {
	ID                FlexString `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	CreatedAt         time.Time  `json:"created_at"`
	FinancialStatus   string     `json:"financial_status"`
	FulfillmentStatus *string    `json:"fulfillment_status"`
	TotalPrice        FlexString `json:"total_price"`
	Currency          string     `json:"currency"`
	LineItems         []LineItem `json:"line_items"`
}

type LineItem struct {
	ID        FlexString `json:"id"`
	Title     string     `json:"title"`
	Sku       string     `json:"sku"`
	Quantity  int        `json:"quantity"`
	Price     FlexString `json:"price"`
	VariantID FlexString `json:"variant_id"`
}

// UserError is an application-level error returned inside a mutation payload.
type UserError struct {
	Field   []string `json:"field,omitempty"`
	Message string   `json:"message"`
}

// BulkOperation mirrors the Admin API BulkOperation object.
type BulkOperation struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	ErrorCode      string `json:"errorCode"`
	ObjectCount    string `json:"objectCount"`
	URL            string `json:"url"`
	PartialDataURL string `json:"partialDataUrl"`
}

const (
	BulkStatusCreated   = "CREATED"
	BulkStatusRunning   = "RUNNING"
	BulkStatusCompleted = "COMPLETED"
	BulkStatusFailed    = "FAILED"
	BulkStatusCanceled  = "CANCELED"
	BulkStatusExpired   = "EXPIRED"
)

// Done reports whether the operation reached a terminal status.
func (b *BulkOperation) Done() bool {
	switch b.Status {
	case BulkStatusCompleted, BulkStatusFailed, BulkStatusCanceled, BulkStatusExpired:
		return true
	}
	return false
}
