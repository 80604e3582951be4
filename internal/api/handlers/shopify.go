package handlers

import (
	"context"
	"net/http"
	"strings"

	"shipsync/internal/logger"
	"shipsync/internal/services/shopify"

	"github.com/gin-gonic/gin"
)

// ShopClient is the part of the Admin API client used by storefront endpoints.
type ShopClient interface {
	GetOrderByName(ctx context.Context, name string) (*shopify.Order, error)
	AddCustomerTag(ctx context.Context, customerGID, tag string) (string, error)
}

type ShopifyHandler struct {
	shop   ShopClient
	logger *logger.Logger
}

func NewShopifyHandler(shop ShopClient, logger *logger.Logger) *ShopifyHandler {
	return &ShopifyHandler{
		shop:   shop,
		logger: logger,
	}
}

// GetOrder looks an order up by its number, with or without "#".
func (h *ShopifyHandler) GetOrder(c *gin.Context) {
	orderNumber := strings.TrimSpace(c.Param("id"))

	order, err := h.shop.GetOrderByName(c.Request.Context(), orderNumber)
	if err != nil {
		h.logger.Error("Failed to fetch order %s: %v", orderNumber, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al obtener el pedido"})
		return
	}
	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Pedido no encontrado"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// TagCustomer adds a tag to a customer.
func (h *ShopifyHandler) TagCustomer(c *gin.Context) {
	var request struct {
		CustomerID shopify.FlexString `json:"customerId" binding:"required"`
		Tag        string             `json:"tag" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customerGID := shopify.GID("Customer", request.CustomerID.String())
	if !strings.HasPrefix(customerGID, "gid://shopify/Customer/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid customerId"})
		return
	}

	id, err := h.shop.AddCustomerTag(c.Request.Context(), customerGID, request.Tag)
	if err != nil {
		h.logger.Error("Failed to tag customer %s: %v", customerGID, err)
		c.JSON(upstreamStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "id": id})
}
