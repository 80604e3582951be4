package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ReportRun is one attempt at producing and mailing a periodic report.
type ReportRun struct {
	ID         string          `json:"id" gorm:"primaryKey;size:36"`
	Kind       string          `json:"kind" gorm:"not null;index:idx_report_runs_period"`
	PeriodKey  string          `json:"period_key" gorm:"not null;index:idx_report_runs_period"`
	Status     ReportRunStatus `json:"status" gorm:"not null"`
	Trigger    string          `json:"trigger"`
	Rows       int             `json:"rows"`
	Recipients pq.StringArray  `json:"recipients" gorm:"type:text"`
	BulkID     string          `json:"bulk_id"`
	Error      *string         `json:"error"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type ReportRunStatus string

const (
	ReportRunStatusRunning   ReportRunStatus = "RUNNING"
	ReportRunStatusSucceeded ReportRunStatus = "SUCCEEDED"
	ReportRunStatusFailed    ReportRunStatus = "FAILED"
)

func (r *ReportRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
