// Package domain contains the invoice document models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"

	"github.com/recordbay/recordbay/internal/period"
)

type Status string

const (
	StatusDraft Status = "draft"
	StatusFinal Status = "final"
)

// Kind tells readers how a document relates to the customer's billing mode.
type Kind string

const (
	// KindConsolidated covers every department on one document.
	KindConsolidated Kind = "consolidated"
	// KindDepartment is one department's document in separate mode.
	KindDepartment Kind = "department"
	// KindStorage is the pooled storage document in hybrid mode.
	KindStorage Kind = "storage"
	// KindService is a per-department service document in hybrid mode.
	KindService Kind = "service"
)

type LineKind string

const (
	LineStorage           LineKind = "storage"
	LineService           LineKind = "service"
	LineMinimumAdjustment LineKind = "minimum_adjustment"
)

type InvoiceLine struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	InvoiceID snowflake.ID `gorm:"not null;index" json:"invoice_id"`
	// DepartmentID is nil on the company-level minimum adjustment line.
	DepartmentID *snowflake.ID `gorm:"index" json:"department_id,omitempty"`
	Kind         LineKind      `gorm:"type:text;not null" json:"kind"`
	AmountCents  int64         `gorm:"not null" json:"amount_cents"`
	Description  string        `gorm:"type:text;not null" json:"description"`
	// ServiceChargeID links a service line back to the ledger row it bills.
	ServiceChargeID *snowflake.ID `gorm:"index" json:"service_charge_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (InvoiceLine) TableName() string { return "invoice_lines" }

type Invoice struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	CustomerID snowflake.ID  `gorm:"not null;index" json:"customer_id"`
	Number     string        `gorm:"type:text;not null;uniqueIndex" json:"number"`
	Period     period.Period `gorm:"type:text;not null;index" json:"period"`
	Kind       Kind          `gorm:"type:text;not null" json:"kind"`
	Status     Status        `gorm:"type:text;not null;index" json:"status"`
	Currency   string        `gorm:"type:text;not null" json:"currency"`

	DepartmentIDs datatypes.JSONSlice[string] `json:"department_ids"`
	Lines         []InvoiceLine               `gorm:"foreignKey:InvoiceID" json:"lines"`
	TotalCents    int64                       `gorm:"not null" json:"total_cents"`

	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Invoice) TableName() string { return "invoices" }
