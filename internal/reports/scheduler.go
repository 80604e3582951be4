package reports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"shipsync/internal/logger"
	"shipsync/internal/mailer"
	"shipsync/internal/models"
	"shipsync/internal/services/shopify"
)

const KindDailyOrders = "daily_orders"

// ErrAlreadyDone is returned when the period already has a successful run.
var ErrAlreadyDone = errors.New("report already sent for this period")

// OrderSource exports orders from the shop.
type OrderSource interface {
	RunBulkQuery(ctx context.Context, query string) (*shopify.BulkOperation, error)
	BulkOperation(ctx context.Context, id string) (*shopify.BulkOperation, error)
	Download(ctx context.Context, url string) (io.ReadCloser, error)
	ListOrders(ctx context.Context, since, until time.Time) ([]shopify.Order, error)
}

type Sender interface {
	Send(msg mailer.Message) error
}

type Options struct {
	Recipients   []string
	Location     *time.Location
	PollInterval time.Duration
	MaxWait      time.Duration
	Interval     time.Duration
}

// Request asks for the report of one day. An empty Day means yesterday.
type Request struct {
	Day     string
	Force   bool
	Trigger string
}

type Scheduler struct {
	source OrderSource
	sender Sender
	store  *Store
	opts   Options
	logger *logger.Logger
	now    func() time.Time
}

func NewScheduler(source OrderSource, sender Sender, store *Store, opts Options, logger *logger.Logger) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 10 * time.Second
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = 30 * time.Minute
	}
	return &Scheduler{
		source: source,
		sender: sender,
		store:  store,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// Start runs yesterday's report on every tick until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	if s.opts.Interval <= 0 {
		s.logger.Info("report ticker disabled")
		return
	}
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	s.logger.Info("report ticker started, interval %s", s.opts.Interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Run(ctx, Request{Trigger: "ticker"}); err != nil && !errors.Is(err, ErrAlreadyDone) {
				s.logger.Error("scheduled report failed: %v", err)
			}
		}
	}
}

// Run produces, mails and records the report described by req.
func (s *Scheduler) Run(ctx context.Context, req Request) (*models.ReportRun, error) {
	start, end, err := s.period(req.Day)
	if err != nil {
		return nil, err
	}
	periodKey := start.Format("2006-01-02")

	if !req.Force {
		done, err := s.store.Succeeded(KindDailyOrders, periodKey)
		if err != nil {
			return nil, fmt.Errorf("failed to check report ledger: %w", err)
		}
		if done {
			s.logger.Info("report %s already sent, skipping", periodKey)
			return nil, ErrAlreadyDone
		}
	}
	if len(s.opts.Recipients) == 0 {
		return nil, errors.New("no report recipients configured")
	}

	run := &models.ReportRun{
		Kind:       KindDailyOrders,
		PeriodKey:  periodKey,
		Trigger:    req.Trigger,
		Recipients: append([]string(nil), s.opts.Recipients...),
	}
	if err := s.store.Start(run); err != nil {
		return nil, fmt.Errorf("failed to record report run: %w", err)
	}

	runErr := s.produce(ctx, run, start, end)
	if err := s.store.Finish(run, runErr); err != nil {
		s.logger.Error("failed to finish report run %s: %v", run.ID, err)
	}
	if runErr != nil {
		return run, runErr
	}
	s.logger.Info("report %s sent: %d orders to %s", periodKey, run.Rows, strings.Join(run.Recipients, ","))
	return run, nil
}

func (s *Scheduler) produce(ctx context.Context, run *models.ReportRun, start, end time.Time) error {
	rows, err := s.exportOrders(ctx, run, start, end)
	if err != nil {
		return err
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })
	run.Rows = len(rows)

	var csvBuf bytes.Buffer
	if err := WriteCSV(&csvBuf, rows, s.opts.Location); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}

	msg := mailer.Message{
		To:      run.Recipients,
		Subject: fmt.Sprintf("Informe de pedidos %s", run.PeriodKey),
		Text:    summary(run.PeriodKey, rows),
		Attachments: []mailer.Attachment{{
			Filename: fmt.Sprintf("pedidos-%s.csv", run.PeriodKey),
			Data:     csvBuf.Bytes(),
		}},
	}
	if err := s.sender.Send(msg); err != nil {
		return err
	}
	return nil
}

// exportOrders runs a bulk export and falls back to paginated REST reads
// when the bulk operation does not complete.
func (s *Scheduler) exportOrders(ctx context.Context, run *models.ReportRun, start, end time.Time) ([]OrderRow, error) {
	rows, bulkErr := s.bulkExport(ctx, run, start, end)
	if bulkErr == nil {
		return rows, nil
	}
	s.logger.Warn("bulk export failed, falling back to REST: %v", bulkErr)

	orders, err := s.source.ListOrders(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("order export failed: %w", errors.Join(bulkErr, err))
	}
	return RowsFromOrders(orders)
}

func (s *Scheduler) bulkExport(ctx context.Context, run *models.ReportRun, start, end time.Time) ([]OrderRow, error) {
	op, err := s.source.RunBulkQuery(ctx, ordersBulkQuery(start, end))
	if err != nil {
		return nil, err
	}
	run.BulkID = op.ID

	waitCtx, cancel := context.WithTimeout(ctx, s.opts.MaxWait)
	defer cancel()
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for !op.Done() {
		select {
		case <-waitCtx.Done():
			return nil, fmt.Errorf("bulk operation %s did not finish: %w", op.ID, waitCtx.Err())
		case <-ticker.C:
		}
		op, err = s.source.BulkOperation(waitCtx, op.ID)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("bulk operation %s status=%s objects=%s", op.ID, op.Status, op.ObjectCount)
	}

	if op.Status != shopify.BulkStatusCompleted {
		return nil, fmt.Errorf("bulk operation %s ended %s %s", op.ID, op.Status, op.ErrorCode)
	}
	if op.URL == "" {
		// Completed exports with no matching objects carry no file.
		return nil, nil
	}

	body, err := s.source.Download(ctx, op.URL)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return ParseBulkOrders(body)
}

func ordersBulkQuery(start, end time.Time) string {
	filter := fmt.Sprintf("created_at:>='%s' AND created_at:<'%s'", start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
	return fmt.Sprintf(`{
	orders(query: %q) {
		edges {
			node {
				id
				name
				createdAt
				email
				displayFinancialStatus
				displayFulfillmentStatus
				totalPriceSet { shopMoney { amount currencyCode } }
			}
		}
	}
}`, filter)
}

// period resolves day (YYYY-MM-DD, empty for yesterday) to [start, end) in
// the report time zone.
func (s *Scheduler) period(day string) (time.Time, time.Time, error) {
	loc := s.opts.Location
	var start time.Time
	if day == "" {
		now := s.now().In(loc)
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -1)
	} else {
		parsed, err := time.ParseInLocation("2006-01-02", day, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid report day %q: %w", day, err)
		}
		start = parsed
	}
	return start, start.AddDate(0, 0, 1), nil
}

func summary(period string, rows []OrderRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pedidos del %s: %d\n", period, len(rows))

	totals := Totals(rows)
	currencies := make([]string, 0, len(totals))
	for currency := range totals {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)
	for _, currency := range currencies {
		fmt.Fprintf(&b, "Total %s: %s\n", currency, totals[currency].StringFixed(2))
	}
	return b.String()
}
