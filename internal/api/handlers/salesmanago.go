package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"shipsync/internal/config"
	"shipsync/internal/logger"
	"shipsync/internal/services/salesmanago"

	"github.com/gin-gonic/gin"
)

// ContactDirectory is the marketing-automation contact API.
type ContactDirectory interface {
	Upsert(ctx context.Context, contact salesmanago.Contact) (json.RawMessage, error)
	NewsletterStatus(ctx context.Context, contactID string) (*salesmanago.NewsletterStatus, error)
}

type SalesmanagoHandler struct {
	contacts ContactDirectory
	config   *config.Config
	logger   *logger.Logger
}

func NewSalesmanagoHandler(contacts ContactDirectory, config *config.Config, logger *logger.Logger) *SalesmanagoHandler {
	return &SalesmanagoHandler{
		contacts: contacts,
		config:   config,
		logger:   logger.With("[salesmanago]"),
	}
}

func (h *SalesmanagoHandler) Upsert(c *gin.Context) {
	var contact salesmanago.Contact
	if err := c.ShouldBindJSON(&contact); err != nil || strings.TrimSpace(contact.Email) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	raw, err := h.contacts.Upsert(c.Request.Context(), contact)
	if err != nil {
		h.logger.Error("upsert failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Falló la conexión con Salesmanago"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

func (h *SalesmanagoHandler) Newsletter(c *gin.Context) {
	status, err := h.contacts.NewsletterStatus(c.Request.Context(), c.Param("contactId"))
	if err != nil {
		h.logger.Error("listById failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo consultar el contacto"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// ConfirmedReceived is called by Salesmanago once a rule confirms delivery.
func (h *SalesmanagoHandler) ConfirmedReceived(c *gin.Context) {
	ip := c.ClientIP()
	if !contains(h.config.SalesmanagoAllowedIPs, ip) {
		h.logger.Warn("IP not allowed: %s", ip)
		c.JSON(http.StatusForbidden, gin.H{"error": "IP no autorizada"})
		return
	}

	var request struct {
		RuleID   string          `json:"ruleId"`
		Contacts json.RawMessage `json:"contacts"`
	}
	_ = c.ShouldBindJSON(&request)

	if request.RuleID != h.config.SalesmanagoRuleID {
		h.logger.Warn("invalid ruleId: %s", request.RuleID)
		c.JSON(http.StatusForbidden, gin.H{"error": "ruleId inválido"})
		return
	}

	var contacts []struct {
		Email string `json:"email"`
	}
	if !bytes.HasPrefix(bytes.TrimSpace(request.Contacts), []byte("[")) || json.Unmarshal(request.Contacts, &contacts) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Formato de contactos no válido"})
		return
	}

	receivedAt := time.Now().UTC().Format(time.RFC3339)
	for _, contact := range contacts {
		h.logger.Info("delivery confirmed: email=%s receivedAt=%s", contact.Email, receivedAt)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "received": len(contacts)})
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
