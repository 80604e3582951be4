package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"shipsync/internal/events"
	"shipsync/internal/logger"
	"shipsync/internal/models"
	"shipsync/internal/reports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReportPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type ReportLedger interface {
	List(page, limit int) ([]models.ReportRun, int64, error)
	Get(id string) (*models.ReportRun, error)
}

type ReportHandler struct {
	publisher ReportPublisher
	ledger    ReportLedger
	logger    *logger.Logger
}

func NewReportHandler(publisher ReportPublisher, ledger ReportLedger, logger *logger.Logger) *ReportHandler {
	return &ReportHandler{
		publisher: publisher,
		ledger:    ledger,
		logger:    logger,
	}
}

// Request queues an on-demand report for the worker.
func (h *ReportHandler) Request(c *gin.Context) {
	var request struct {
		Day       string `json:"day"`
		Force     bool   `json:"force"`
		Requester string `json:"requester"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if request.Day != "" {
		if _, err := time.Parse("2006-01-02", request.Day); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "day must be YYYY-MM-DD"})
			return
		}
	}

	event := events.Event{
		ID:        uuid.New().String(),
		Type:      events.TypeReportRequested,
		Day:       request.Day,
		Force:     request.Force,
		Requester: request.Requester,
	}
	if err := h.publisher.Publish(c.Request.Context(), event); err != nil {
		h.logger.Error("Failed to publish report request: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue report"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"ok": true, "id": event.ID})
}

// List returns the report ledger, newest first.
func (h *ReportHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	page, limit = reports.PageBounds(page, limit)

	runs, total, err := h.ledger.List(page, limit)
	if err != nil {
		h.logger.Error("Failed to list report runs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list report runs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// Get returns a single report run.
func (h *ReportHandler) Get(c *gin.Context) {
	run, err := h.ledger.Get(c.Param("id"))
	if err != nil {
		h.logger.Error("Failed to load report run %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load report run"})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Report run not found"})
		return
	}

	c.JSON(http.StatusOK, run)
}
