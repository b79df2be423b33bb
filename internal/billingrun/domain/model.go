// Package domain holds the billing-run audit record and batch summary types.
// The BillingRun row doubles as the concurrency and idempotency guard: its
// (customer_id, period) pair is unique.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"

	"github.com/recordbay/recordbay/internal/charge"
	directorydomain "github.com/recordbay/recordbay/internal/directory/domain"
	"github.com/recordbay/recordbay/internal/period"
)

// ErrDuplicateRun means a run for (customer, period) already exists. Callers
// treat it as a benign no-op so scheduler retries stay idempotent.
var ErrDuplicateRun = errors.New("duplicate_billing_run")

type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

type BillingRun struct {
	ID         snowflake.ID                `gorm:"primaryKey" json:"id"`
	CustomerID snowflake.ID                `gorm:"not null;uniqueIndex:ux_billing_runs_customer_period" json:"customer_id"`
	Period     period.Period               `gorm:"type:text;not null;uniqueIndex:ux_billing_runs_customer_period" json:"period"`
	Mode       directorydomain.BillingMode `gorm:"type:text;not null" json:"mode"`
	Status     RunStatus                   `gorm:"type:text;not null;index" json:"status"`
	Error      *string                     `gorm:"type:text" json:"error,omitempty"`

	InvoiceIDs datatypes.JSONSlice[string]                    `json:"invoice_ids"`
	Failures   datatypes.JSONType[[]charge.DepartmentFailure] `json:"failures"`

	StartedAt  time.Time  `gorm:"not null" json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	CreatedAt  time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (BillingRun) TableName() string { return "billing_runs" }

type RunError struct {
	CustomerID   snowflake.ID `json:"customer_id"`
	CustomerName string       `json:"customer_name"`
	Error        string       `json:"error"`
}

// RunSummary is the operator-facing report for one batch execution.
type RunSummary struct {
	BatchID    string        `json:"batch_id"`
	Period     period.Period `json:"period"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Errors     []RunError    `json:"errors"`
}

// Runner is the batch entry point invoked by the scheduler and the API.
type Runner interface {
	RunBilling(ctx context.Context, p period.Period) (*RunSummary, error)
	RunCustomerBilling(ctx context.Context, customerID snowflake.ID, p period.Period) (*RunSummary, error)
	ListRuns(ctx context.Context, p period.Period) ([]BillingRun, error)
}
