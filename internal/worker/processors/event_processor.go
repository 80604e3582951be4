package processors

import (
	"context"
	"errors"

	"shipsync/internal/events"
	"shipsync/internal/logger"
	"shipsync/internal/models"
	"shipsync/internal/reports"
)

// ReportRunner produces one report.
type ReportRunner interface {
	Run(ctx context.Context, req reports.Request) (*models.ReportRun, error)
}

type EventProcessor struct {
	reports ReportRunner
	logger  *logger.Logger
}

func NewEventProcessor(reports ReportRunner, logger *logger.Logger) *EventProcessor {
	return &EventProcessor{
		reports: reports,
		logger:  logger,
	}
}

// Process dispatches an event by type. Unknown types are acknowledged and ignored.
func (ep *EventProcessor) Process(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.TypeReportRequested:
		return ep.processReportRequest(ctx, event)
	default:
		ep.logger.Debug("ignoring event %s of type %q", event.ID, event.Type)
		return nil
	}
}

func (ep *EventProcessor) processReportRequest(ctx context.Context, event events.Event) error {
	trigger := "kafka"
	if event.Requester != "" {
		trigger = "kafka:" + event.Requester
	}

	run, err := ep.reports.Run(ctx, reports.Request{
		Day:     event.Day,
		Force:   event.Force,
		Trigger: trigger,
	})
	if errors.Is(err, reports.ErrAlreadyDone) {
		ep.logger.Info("report request %s skipped: period already sent", event.ID)
		return nil
	}
	if err != nil {
		return err
	}
	ep.logger.Info("report request %s done: run=%s rows=%d", event.ID, run.ID, run.Rows)
	return nil
}
