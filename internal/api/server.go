package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"shipsync/internal/api/handlers"
	"shipsync/internal/api/middleware"
	"shipsync/internal/config"
	"shipsync/internal/logger"

	"github.com/gin-gonic/gin"
)

// Dependencies are the collaborators behind the HTTP handlers.
type Dependencies struct {
	Syncer      handlers.ProductSyncer
	Shop        handlers.ShopClient
	Salesmanago handlers.ContactDirectory
	Tickets     handlers.TicketCreator
	Reports     handlers.ReportPublisher
	Ledger      handlers.ReportLedger
}

type Server struct {
	config *config.Config
	logger *logger.Logger
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, logger *logger.Logger, deps Dependencies) *Server {
	// Set Gin mode
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	// Middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	// Initialize handlers
	webhookHandler := handlers.NewWebhookHandler(deps.Syncer, cfg, logger)
	shopifyHandler := handlers.NewShopifyHandler(deps.Shop, logger)
	salesmanagoHandler := handlers.NewSalesmanagoHandler(deps.Salesmanago, cfg, logger)
	contactHandler := handlers.NewContactHandler(deps.Tickets, logger)
	reportHandler := handlers.NewReportHandler(deps.Reports, deps.Ledger, logger)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	// Routes
	api := router.Group("/api")
	{
		// Webhooks
		api.POST("/webhooks/products-update", webhookHandler.ProductsUpdate)
		api.POST("/webhooks/wapping", webhookHandler.Wapping)
		api.POST("/assign-profile", webhookHandler.AssignProfile)

		// Shopify
		api.GET("/order/:id", shopifyHandler.GetOrder)

		// Salesmanago
		api.POST("/sm-upsert", salesmanagoHandler.Upsert)
		api.GET("/sm-newsletter/:contactId", salesmanagoHandler.Newsletter)
		api.POST("/sm-confirmed-received", salesmanagoHandler.ConfirmedReceived)

		// Storefront contact form
		api.POST("/contact", contactHandler.Submit)

	}

	// Operator endpoints
	admin := api.Group("", middleware.RequireSecret(middleware.AdminSecretHeader, cfg.AdminSecret))
	{
		admin.POST("/customers/tag", shopifyHandler.TagCustomer)
		admin.GET("/reports", reportHandler.List)
		admin.GET("/reports/:id", reportHandler.Get)
		admin.POST("/reports", reportHandler.Request)
	}

	return &Server{
		config: cfg,
		logger: logger,
		router: router,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.config.HTTPTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on " + addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}
