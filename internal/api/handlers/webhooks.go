package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"shipsync/internal/config"
	"shipsync/internal/logger"
	"shipsync/internal/services/shopify"
	"shipsync/internal/shipping"
	"shipsync/internal/webhook"

	"github.com/gin-gonic/gin"
)

// ProductSyncer is the shipping-profile use case behind the webhooks.
type ProductSyncer interface {
	SyncProduct(ctx context.Context, payload *shopify.WebhookPayload) (*shipping.Outcome, error)
	AssignVariant(ctx context.Context, variantGID, profileID string) (*shipping.AssignOutcome, error)
}

type WebhookHandler struct {
	syncer ProductSyncer
	config *config.Config
	logger *logger.Logger
	now    func() time.Time
}

func NewWebhookHandler(syncer ProductSyncer, config *config.Config, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		syncer: syncer,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// ProductsUpdate handles products/update: it moves every variant of the
// product into the shipping profile matching its discount state.
func (h *WebhookHandler) ProductsUpdate(c *gin.Context) {
	log := h.logger.With("[products/update]")
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic: %v", r)
			if !c.Writer.Written() {
				c.JSON(http.StatusOK, gin.H{"ok": false, "error": "internal_error"})
			}
		}
	}()

	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"ok": false, "error": "failed to read payload"})
		return
	}

	if h.config.WebhookSecret != "" && !webhook.VerifyShopifyHMAC(payload, c.GetHeader("X-Shopify-Hmac-Sha256"), h.config.WebhookSecret) {
		log.Warn("invalid HMAC from %s", c.GetHeader("X-Shopify-Shop-Domain"))
		c.JSON(http.StatusOK, gin.H{"ok": false, "error": "invalid_hmac"})
		return
	}

	var product shopify.WebhookPayload
	if err := json.Unmarshal(payload, &product); err != nil {
		log.Warn("invalid payload: %v", err)
		c.JSON(http.StatusOK, gin.H{"ok": false, "error": "invalid_payload"})
		return
	}

	// In-flight Admin API calls finish even if Shopify drops the connection.
	ctx := context.WithoutCancel(c.Request.Context())
	out, err := h.syncer.SyncProduct(ctx, &product)
	if err != nil {
		log.Error("product %s: %v", product.ID, err)
	}
	c.JSON(productsUpdateResponse(out, err))
}

// AssignProfile handles the Shopify Flow action that assigns one variant
// to a given profile.
func (h *WebhookHandler) AssignProfile(c *gin.Context) {
	if h.config.FlowSecret != "" && !webhook.SecretMatches(c.GetHeader("X-Flow-Secret"), h.config.FlowSecret) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid secret"})
		return
	}

	var request struct {
		VariantID shopify.FlexString `json:"variantId"`
		ProfileID string             `json:"profileId"`
	}
	_ = c.ShouldBindJSON(&request)

	variantGID := shopify.GID("ProductVariant", request.VariantID.String())
	if variantGID == "" || request.ProfileID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing variantId or profileId"})
		return
	}

	out, err := h.syncer.AssignVariant(c.Request.Context(), variantGID, request.ProfileID)
	if err != nil {
		h.logger.Error("[assign-profile] variant %s: %v", variantGID, err)
	}
	c.JSON(assignProfileResponse(out, err))
}

// Wapping handles CRM webhooks. It always answers 200; unverifiable
// deliveries are dropped silently.
func (h *WebhookHandler) Wapping(c *gin.Context) {
	defer c.JSON(http.StatusOK, gin.H{"ok": true})

	if h.config.WappingSecret == "" {
		return
	}

	payload, err := c.GetRawData()
	if err != nil {
		return
	}
	if !webhook.VerifyWappingSignature(payload, c.GetHeader("Wapping-Signature"), c.GetHeader("Wapping-Timestamp"), h.config.WappingSecret, h.config.WappingMaxSkew, h.now()) {
		h.logger.Debug("[wapping] signature rejected")
		return
	}

	var event struct {
		EntityCode string          `json:"entityCode"`
		EventCode  string          `json:"eventCode"`
		Entity     json.RawMessage `json:"entity"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return
	}
	if event.EntityCode != "Customer" {
		return
	}
	h.logger.Info("[wapping] %s %s", event.EventCode, string(event.Entity))
}
