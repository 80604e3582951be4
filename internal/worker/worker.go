package worker

import (
	"context"

	"shipsync/internal/config"
	"shipsync/internal/events"
	"shipsync/internal/logger"
	"shipsync/internal/reports"
	"shipsync/internal/worker/processors"
)

const groupID = "shipsync-worker"

type Worker struct {
	config    *config.Config
	logger    *logger.Logger
	consumer  *events.Consumer
	scheduler *reports.Scheduler
	processor *processors.EventProcessor
}

func New(cfg *config.Config, logger *logger.Logger, scheduler *reports.Scheduler) *Worker {
	return &Worker{
		config:    cfg,
		logger:    logger,
		consumer:  events.NewConsumer(events.Brokers(cfg.KafkaBrokers), cfg.ReportTopic, groupID, logger.With("[kafka]")),
		scheduler: scheduler,
		processor: processors.NewEventProcessor(scheduler, logger.With("[events]")),
	}
}

// Start runs the report ticker and the event consumer until ctx is done.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Worker started, topic=%s", w.config.ReportTopic)

	go w.scheduler.Start(ctx)

	if err := w.consumer.Run(ctx, w.processor.Process); err != nil {
		w.logger.Error("consumer stopped: %v", err)
	}
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	if err := w.consumer.Close(); err != nil {
		w.logger.Error("failed to close consumer: %v", err)
	}
}
