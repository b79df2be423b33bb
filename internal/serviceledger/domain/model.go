// Package domain holds the service-charge ledger models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/recordbay/recordbay/internal/period"
)

type ChargeStatus string

const (
	StatusPending   ChargeStatus = "pending"
	StatusCompleted ChargeStatus = "completed"
	// StatusBilled marks a charge consumed by a billing run; billed charges
	// are never read again.
	StatusBilled ChargeStatus = "billed"
)

// ServiceCharge is one completed service request (retrieval, destruction,
// re-file, ...) priced at request completion time.
type ServiceCharge struct {
	ID           snowflake.ID  `gorm:"primaryKey" json:"id"`
	DepartmentID snowflake.ID  `gorm:"not null;index" json:"department_id"`
	Period       period.Period `gorm:"type:text;not null;index" json:"period"`
	AmountCents  int64         `gorm:"not null" json:"amount_cents"`
	Description  string        `gorm:"type:text;not null" json:"description"`
	Status       ChargeStatus  `gorm:"type:text;not null;index" json:"status"`

	InvoiceID *snowflake.ID `gorm:"index" json:"invoice_id,omitempty"`
	BilledAt  *time.Time    `json:"billed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (ServiceCharge) TableName() string { return "service_charges" }
