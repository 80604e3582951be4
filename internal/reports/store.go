package reports

import (
	"errors"
	"time"

	"shipsync/internal/models"

	"gorm.io/gorm"
)

// Store is the report run ledger.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Succeeded reports whether kind already has a successful run for period.
func (s *Store) Succeeded(kind, period string) (bool, error) {
	var count int64
	err := s.db.Model(&models.ReportRun{}).
		Where("kind = ? AND period_key = ? AND status = ?", kind, period, models.ReportRunStatusSucceeded).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) Start(run *models.ReportRun) error {
	run.Status = models.ReportRunStatusRunning
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	return s.db.Create(run).Error
}

// Finish marks run as succeeded, or failed when runErr is set.
func (s *Store) Finish(run *models.ReportRun, runErr error) error {
	now := time.Now()
	run.FinishedAt = &now
	run.Status = models.ReportRunStatusSucceeded
	run.Error = nil
	if runErr != nil {
		msg := runErr.Error()
		run.Status = models.ReportRunStatusFailed
		run.Error = &msg
	}
	return s.db.Save(run).Error
}

func (s *Store) Get(id string) (*models.ReportRun, error) {
	var run models.ReportRun
	if err := s.db.First(&run, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

// PageBounds clamps the paging parameters accepted by List.
func PageBounds(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// List returns a page of runs, newest first, and the total count.
func (s *Store) List(page, limit int) ([]models.ReportRun, int64, error) {
	page, limit = PageBounds(page, limit)

	var total int64
	if err := s.db.Model(&models.ReportRun{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var runs []models.ReportRun
	err := s.db.Order("started_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}
