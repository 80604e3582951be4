package reports

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"shipsync/internal/database"
	"shipsync/internal/logger"
	"shipsync/internal/mailer"
	"shipsync/internal/models"
	"shipsync/internal/services/shopify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exportJSONL = `{"id":"gid://shopify/Order/2","name":"#1002","createdAt":"2026-02-28T18:00:00Z","email":"b@example.com","displayFinancialStatus":"PAID","displayFulfillmentStatus":"UNFULFILLED","totalPriceSet":{"shopMoney":{"amount":"40.10","currencyCode":"EUR"}}}
{"id":"gid://shopify/LineItem/9","__parentId":"gid://shopify/Order/2"}
{"id":"gid://shopify/Order/1","name":"#1001","createdAt":"2026-02-28T09:15:00Z","email":"a@example.com","displayFinancialStatus":"PAID","displayFulfillmentStatus":"FULFILLED","totalPriceSet":{"shopMoney":{"amount":"59.90","currencyCode":"EUR"}}}
`

type fakeSource struct {
	mu         sync.Mutex
	finalState string
	polls      int
	restOrders []shopify.Order
	restCalls  int
	lastQuery  string
}

func (f *fakeSource) RunBulkQuery(ctx context.Context, query string) (*shopify.BulkOperation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = query
	return &shopify.BulkOperation{ID: "gid://shopify/BulkOperation/1", Status: shopify.BulkStatusCreated}, nil
}

func (f *fakeSource) BulkOperation(ctx context.Context, id string) (*shopify.BulkOperation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.polls < 2 {
		return &shopify.BulkOperation{ID: id, Status: shopify.BulkStatusRunning}, nil
	}
	return &shopify.BulkOperation{ID: id, Status: f.finalState, URL: "https://storage.example.com/export.jsonl"}, nil
}

func (f *fakeSource) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(exportJSONL)), nil
}

func (f *fakeSource) ListOrders(ctx context.Context, since, until time.Time) ([]shopify.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restCalls++
	return f.restOrders, nil
}

type fakeSender struct {
	sent []mailer.Message
	err  error
}

func (f *fakeSender) Send(msg mailer.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newTestScheduler(t *testing.T, source OrderSource, sender Sender) (*Scheduler, *Store) {
	t.Helper()
	db, err := database.New("sqlite://" + filepath.Join(t.TempDir(), "reports.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	madrid, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)

	store := NewStore(db.DB)
	s := NewScheduler(source, sender, store, Options{
		Recipients:   []string{"ops@example.com"},
		Location:     madrid,
		PollInterval: time.Millisecond,
		MaxWait:      time.Second,
	}, logger.New("error"))
	s.now = func() time.Time { return time.Date(2026, 3, 1, 6, 0, 0, 0, madrid) }
	return s, store
}

func TestRunSendsReport(t *testing.T) {
	source := &fakeSource{finalState: shopify.BulkStatusCompleted}
	sender := &fakeSender{}
	s, store := newTestScheduler(t, source, sender)

	run, err := s.Run(context.Background(), Request{Trigger: "test"})
	require.NoError(t, err)
	assert.Equal(t, "2026-02-28", run.PeriodKey)
	assert.Equal(t, 2, run.Rows)
	assert.Equal(t, models.ReportRunStatusSucceeded, run.Status)
	assert.Equal(t, "gid://shopify/BulkOperation/1", run.BulkID)
	assert.Contains(t, source.lastQuery, "created_at:>='2026-02-27T23:00:00Z'")

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, []string{"ops@example.com"}, msg.To)
	assert.Contains(t, msg.Text, "Pedidos del 2026-02-28: 2")
	assert.Contains(t, msg.Text, "Total EUR: 100.00")
	require.Len(t, msg.Attachments, 1)
	csv := string(msg.Attachments[0].Data)
	assert.True(t, strings.Index(csv, "#1001") < strings.Index(csv, "#1002"))
	assert.Contains(t, csv, "#1001,2026-02-28 10:15:00,a@example.com,PAID,FULFILLED,59.90,EUR")

	stored, err := store.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportRunStatusSucceeded, stored.Status)
	assert.Equal(t, []string{"ops@example.com"}, []string(stored.Recipients))

	_, err = s.Run(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrAlreadyDone)
	assert.Len(t, sender.sent, 1)

	_, err = s.Run(context.Background(), Request{Force: true})
	require.NoError(t, err)
	assert.Len(t, sender.sent, 2)

	runs, total, err := store.List(1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, runs, 2)
}

func TestRunFallsBackToREST(t *testing.T) {
	source := &fakeSource{
		finalState: shopify.BulkStatusFailed,
		restOrders: []shopify.Order{
			{Name: "#2001", Email: "c@example.com", FinancialStatus: "paid", TotalPrice: "12.5", Currency: "EUR", CreatedAt: time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)},
		},
	}
	sender := &fakeSender{}
	s, _ := newTestScheduler(t, source, sender)

	run, err := s.Run(context.Background(), Request{Day: "2026-02-10"})
	require.NoError(t, err)
	assert.Equal(t, 1, source.restCalls)
	assert.Equal(t, 1, run.Rows)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, string(sender.sent[0].Attachments[0].Data), "#2001,2026-02-10 13:00:00,c@example.com,PAID,,12.50,EUR")
}

func TestRunRecordsFailure(t *testing.T) {
	source := &fakeSource{finalState: shopify.BulkStatusCompleted}
	sender := &fakeSender{err: errors.New("smtp: 554 rejected")}
	s, store := newTestScheduler(t, source, sender)

	run, err := s.Run(context.Background(), Request{Day: "2026-02-28"})
	require.Error(t, err)
	require.NotNil(t, run)

	stored, err := store.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportRunStatusFailed, stored.Status)
	require.NotNil(t, stored.Error)
	assert.Contains(t, *stored.Error, "554")

	done, err := store.Succeeded(KindDailyOrders, "2026-02-28")
	require.NoError(t, err)
	assert.False(t, done)
}

func TestRunRejectsBadDay(t *testing.T) {
	s, _ := newTestScheduler(t, &fakeSource{}, &fakeSender{})
	_, err := s.Run(context.Background(), Request{Day: "28/02/2026"})
	assert.Error(t, err)
}
