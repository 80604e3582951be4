package handlers

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"shipsync/internal/logger"
	"shipsync/internal/services/zendesk"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// TicketCreator opens support tickets.
type TicketCreator interface {
	CreateContactTicket(ctx context.Context, msg zendesk.ContactMessage) (*zendesk.Ticket, error)
}

type ContactHandler struct {
	tickets  TicketCreator
	validate *validator.Validate
	logger   *logger.Logger
}

func NewContactHandler(tickets TicketCreator, logger *logger.Logger) *ContactHandler {
	return &ContactHandler{
		tickets:  tickets,
		validate: validator.New(),
		logger:   logger,
	}
}

type contactForm struct {
	Country string `json:"country" validate:"max=10"`
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone"`
	Order   string `json:"order"`
	Subject string `json:"subject"`
	Body    string `json:"body" validate:"required"`
}

var fieldMessages = map[string]string{
	"Name":    "nombre vacío",
	"Email":   "email inválido",
	"Body":    "mensaje vacío",
	"Country": "país inválido",
}

// Submit turns a storefront contact form into a support ticket.
func (h *ContactHandler) Submit(c *gin.Context) {
	var form contactForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "errors": []string{"payload inválido"}})
		return
	}
	form.sanitize()

	if errs := h.validateForm(form); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "errors": errs})
		return
	}

	ticket, err := h.tickets.CreateContactTicket(c.Request.Context(), zendesk.ContactMessage{
		Country: form.Country,
		Name:    form.Name,
		Email:   form.Email,
		Phone:   form.Phone,
		Subject: form.Subject,
		Order:   form.Order,
		Body:    form.Body,
	})
	if err != nil {
		h.logger.Error("[contact] ticket creation failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "No se pudo enviar el mensaje"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "ticketId": ticket.ID})
}

func (h *ContactHandler) validateForm(form contactForm) []string {
	err := h.validate.Struct(form)
	if err == nil {
		return nil
	}
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	var errs []string
	seen := map[string]bool{}
	for _, fe := range validationErrs {
		msg, ok := fieldMessages[fe.Field()]
		if !ok {
			msg = strings.ToLower(fe.Field()) + " inválido"
		}
		if !seen[msg] {
			seen[msg] = true
			errs = append(errs, msg)
		}
	}
	return errs
}

var htmlTags = regexp.MustCompile(`<[^>]*>`)

// sanitizeField strips NUL bytes and markup, trims, then truncates to max runes.
func sanitizeField(s string, max int) string {
	s = strings.ReplaceAll(s, "\x00", "")
	s = htmlTags.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > max {
		s = string(r[:max])
	}
	return s
}

func (f *contactForm) sanitize() {
	f.Country = sanitizeField(f.Country, 10)
	f.Name = sanitizeField(f.Name, 150)
	f.Email = sanitizeField(f.Email, 200)
	f.Phone = sanitizeField(f.Phone, 50)
	f.Order = sanitizeField(f.Order, 100)
	f.Subject = sanitizeField(f.Subject, 200)
	f.Body = sanitizeField(f.Body, 5000)
}
