package zendesk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"
)

type Config struct {
	Subdomain  string
	Email      string
	Token      string
	BaseURL    string
	HTTPClient *http.Client
}

type Client struct {
	baseURL    string
	email      string
	token      string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 15 * time.Second,
		}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" && cfg.Subdomain != "" {
		baseURL = fmt.Sprintf("https://%s.zendesk.com", cfg.Subdomain)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		email:      cfg.Email,
		token:      cfg.Token,
		httpClient: httpClient,
	}
}

// ContactMessage is a storefront contact-form submission.
type ContactMessage struct {
	Country string
	Name    string
	Email   string
	Phone   string
	Subject string
	Order   string
	Body    string
}

type Ticket struct {
	ID     int64    `json:"id"`
	Status string   `json:"status"`
	Tags   []string `json:"tags"`
}

const (
	contactFormTag     = "shopify_contact_form"
	contactFormSubject = "Recibiste un nuevo mensaje del formulario de contacto de tu tienda online."
	fallbackRequester  = "Cliente tienda"
)

// CreateContactTicket opens a public ticket carrying the form as an HTML table.
func (c *Client) CreateContactTicket(ctx context.Context, msg ContactMessage) (*Ticket, error) {
	if c.baseURL == "" || c.email == "" || c.token == "" {
		return nil, errors.New("zendesk credentials not configured")
	}

	html, err := RenderContactHTML(msg)
	if err != nil {
		return nil, err
	}

	requester := map[string]string{"name": msg.Name}
	if requester["name"] == "" {
		requester["name"] = fallbackRequester
	}
	if msg.Email != "" {
		requester["email"] = msg.Email
	}

	payload := map[string]interface{}{
		"ticket": map[string]interface{}{
			"subject": contactFormSubject,
			"comment": map[string]interface{}{
				"html_body": html,
				"public":    true,
			},
			"requester": requester,
			"tags":      []string{contactFormTag},
			"priority":  "normal",
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ticket: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v2/tickets.json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.email+"/token", c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("zendesk %d: %s", resp.StatusCode, string(text))
	}

	var ticketResp struct {
		Ticket Ticket `json:"ticket"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ticketResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &ticketResp.Ticket, nil
}

var contactTemplate = template.Must(template.New("contact").Parse(`<div style="font:14px/1.5 -apple-system,BlinkMacSystemFont,Segoe UI,Roboto,Helvetica,Arial,sans-serif;color:#111827;">
<p style="margin:0 0 12px 0;">Recibiste un nuevo mensaje del formulario de contacto de tu tienda online.</p>
<table role="presentation" cellpadding="0" cellspacing="0" style="border-collapse:separate;border-spacing:0;width:100%;max-width:760px;">
{{- range .}}
<tr>
<td style="padding:8px 12px;color:#374151;width:220px;white-space:nowrap;"><strong>{{.Label}}</strong></td>
<td style="padding:8px 12px;"><div style="padding:10px 12px;border:1px solid #e5e7eb;border-radius:6px;background:#f9fafb;">{{if .Value}}{{.Value}}{{else}}-{{end}}</div></td>
</tr>
{{- end}}
</table>
<div style="margin-top:16px;color:#6b7280;font-size:13px;">Puedes habilitar el filtro de correo no deseado para los formularios de contacto en las preferencias de la tienda online.</div>
</div>`))

type contactRow struct {
	Label string
	Value string
}

// RenderContactHTML renders the ticket body. Field values are escaped.
func RenderContactHTML(msg ContactMessage) (string, error) {
	country := msg.Country
	if country == "" {
		country = "ES"
	}
	rows := []contactRow{
		{"Código de país:", country},
		{"Name:", msg.Name},
		{"Correo electrónico:", msg.Email},
		{"Teléfono:", msg.Phone},
		{"Custom Field 0:", msg.Subject},
		{"Order:", msg.Order},
		{"Cuerpo:", msg.Body},
	}

	var buf bytes.Buffer
	if err := contactTemplate.Execute(&buf, rows); err != nil {
		return "", fmt.Errorf("failed to render contact html: %w", err)
	}
	return buf.String(), nil
}
