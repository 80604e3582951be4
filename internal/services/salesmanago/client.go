package salesmanago

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"shipsync/internal/logger"
)

type Config struct {
	ClientID    string
	APIKey      string
	APISecret   string
	Owner       string
	UpsertURL   string
	ListByIDURL string
	HTTPClient  *http.Client
}

type Client struct {
	config     Config
	httpClient *http.Client
	logger     *logger.Logger
	now        func() time.Time
}

func NewClient(cfg Config, logger *logger.Logger) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 10 * time.Second,
		}
	}
	return &Client{
		config:     cfg,
		httpClient: httpClient,
		logger:     logger,
		now:        time.Now,
	}
}

// Contact is the contact block of an upsert request.
type Contact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	State string `json:"state,omitempty"`
}

// NewsletterStatus is the normalised opt-out state of a contact.
// AcceptsNewsletter is nil when the account exposes no boolean flag.
type NewsletterStatus struct {
	ContactID         string      `json:"contactId"`
	AcceptsNewsletter *bool       `json:"acceptsNewsletter"`
	RawFlag           interface{} `json:"rawFlag"`
	Found             bool        `json:"found"`
}

type authFields struct {
	ClientID    string `json:"clientId"`
	APIKey      string `json:"apiKey"`
	SHA         string `json:"sha"`
	RequestTime int64  `json:"requestTime"`
	Owner       string `json:"owner"`
}

func (c *Client) auth() authFields {
	sum := sha1.Sum([]byte(c.config.APIKey + c.config.ClientID + c.config.APISecret))
	return authFields{
		ClientID:    c.config.ClientID,
		APIKey:      c.config.APIKey,
		SHA:         hex.EncodeToString(sum[:]),
		RequestTime: c.now().UnixMilli(),
		Owner:       c.config.Owner,
	}
}

// Upsert creates or updates a contact and returns the raw API answer.
func (c *Client) Upsert(ctx context.Context, contact Contact) (json.RawMessage, error) {
	if contact.Email == "" {
		return nil, errors.New("contact email is required")
	}
	if contact.State == "" {
		contact.State = "PROSPECT"
	}

	body := struct {
		authFields
		Contact Contact `json:"contact"`
	}{c.auth(), contact}

	var raw json.RawMessage
	if err := c.post(ctx, c.config.UpsertURL, body, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// NewsletterStatus looks a contact up by id and reads its opt-out flag.
func (c *Client) NewsletterStatus(ctx context.Context, contactID string) (*NewsletterStatus, error) {
	if contactID == "" {
		return nil, errors.New("contactId is empty")
	}

	body := struct {
		authFields
		ContactID []string `json:"contactId"`
	}{c.auth(), []string{contactID}}

	c.logger.Debug("[salesmanago] listById contact=%s owner=%s", contactID, c.config.Owner)

	var resp struct {
		Contacts []map[string]interface{} `json:"contacts"`
		Contact  map[string]interface{}   `json:"contact"`
	}
	if err := c.post(ctx, c.config.ListByIDURL, body, &resp); err != nil {
		return nil, err
	}

	contact := resp.Contact
	if len(resp.Contacts) > 0 {
		contact = resp.Contacts[0]
	}
	if contact == nil {
		c.logger.Warn("[salesmanago] no contact for %s", contactID)
		return &NewsletterStatus{ContactID: contactID}, nil
	}

	status := &NewsletterStatus{
		ContactID: contactID,
		RawFlag:   optOutFlag(contact),
		Found:     true,
	}
	if flag, ok := status.RawFlag.(bool); ok {
		accepts := !flag
		status.AcceptsNewsletter = &accepts
	}
	return status, nil
}

var optOutKeys = []string{"newsletterOptOut", "optOut", "optout", "newsletterOptin"}

// optOutFlag finds the first opt-out style field, looking into details
// objects before the contact itself.
func optOutFlag(contact map[string]interface{}) interface{} {
	details := contact
	for _, key := range []string{"details", "contactDetails"} {
		if nested, ok := contact[key].(map[string]interface{}); ok {
			details = nested
			break
		}
	}
	for _, key := range optOutKeys {
		if v, ok := details[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func (c *Client) post(ctx context.Context, endpoint string, body, out interface{}) error {
	if endpoint == "" {
		return errors.New("salesmanago endpoint not configured")
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("salesmanago request failed: %d - %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
