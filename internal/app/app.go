// Package app wires the long-lived clients shared by the entrypoints.
package app

import (
	"fmt"
	"net/http"
	"time"

	"shipsync/internal/api"
	"shipsync/internal/config"
	"shipsync/internal/database"
	"shipsync/internal/events"
	"shipsync/internal/logger"
	"shipsync/internal/mailer"
	"shipsync/internal/reports"
	"shipsync/internal/services/salesmanago"
	"shipsync/internal/services/shopify"
	"shipsync/internal/services/zendesk"
	"shipsync/internal/shipping"
)

func NewShopClient(cfg *config.Config, log *logger.Logger) *shopify.Client {
	return shopify.NewClient(shopify.Config{
		ShopDomain:  cfg.ShopDomain,
		AccessToken: cfg.AdminToken,
		APIVersion:  cfg.APIVersion,
		HTTPClient:  &http.Client{Timeout: cfg.HTTPTimeout},
	}, log.With("[shopify]"))
}

func NewSyncer(cfg *config.Config, shop *shopify.Client, log *logger.Logger) *shipping.Syncer {
	reconciler := shipping.NewReconciler(shop, log.With("[reconcile]"))
	return shipping.NewSyncer(shop, reconciler, shipping.Options{
		RebajasProfileID:   cfg.ProfileRebajasID,
		GeneralProfileID:   cfg.ProfileGeneralID,
		ExcludeHandle:      cfg.ExcludeHandle,
		ExplicitDissociate: cfg.ExplicitDissociate,
	}, log.With("[shipping]"))
}

// NewScheduler builds the daily order report. An unknown timezone is an error.
func NewScheduler(cfg *config.Config, shop *shopify.Client, db *database.Database, log *logger.Logger) (*reports.Scheduler, error) {
	location, err := time.LoadLocation(cfg.ReportTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid REPORT_TIMEZONE %q: %w", cfg.ReportTimezone, err)
	}

	mail := mailer.New(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})

	return reports.NewScheduler(shop, mail, reports.NewStore(db.DB), reports.Options{
		Recipients:   cfg.ReportRecipients,
		Location:     location,
		PollInterval: cfg.ReportPollInterval,
		MaxWait:      cfg.ReportMaxWait,
		Interval:     cfg.ReportInterval,
	}, log.With("[reports]")), nil
}

// API holds everything the HTTP server depends on.
type API struct {
	DB        *database.Database
	Publisher *events.Publisher
	Deps      api.Dependencies
}

func NewAPI(cfg *config.Config, log *logger.Logger) (*API, error) {
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	shop := NewShopClient(cfg, log)
	publisher := events.NewPublisher(events.Brokers(cfg.KafkaBrokers), cfg.ReportTopic)

	return &API{
		DB:        db,
		Publisher: publisher,
		Deps: api.Dependencies{
			Syncer: NewSyncer(cfg, shop, log),
			Shop:   shop,
			Salesmanago: salesmanago.NewClient(salesmanago.Config{
				ClientID:    cfg.SalesmanagoClientID,
				APIKey:      cfg.SalesmanagoAPIKey,
				APISecret:   cfg.SalesmanagoAPISecret,
				Owner:       cfg.SalesmanagoOwner,
				UpsertURL:   cfg.SalesmanagoUpsertURL,
				ListByIDURL: cfg.SalesmanagoListByIDURL,
			}, log),
			Tickets: zendesk.NewClient(zendesk.Config{
				Subdomain: cfg.ZendeskSubdomain,
				Email:     cfg.ZendeskEmail,
				Token:     cfg.ZendeskToken,
			}),
			Reports: publisher,
			Ledger:  reports.NewStore(db.DB),
		},
	}, nil
}

func (a *API) Close() error {
	if err := a.Publisher.Close(); err != nil {
		return err
	}
	return a.DB.Close()
}
