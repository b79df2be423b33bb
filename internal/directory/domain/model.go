// Package domain holds the customer/department directory models the billing
// engine reads as its per-run snapshot.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// BillingMode controls how a customer's departmental charges fold into
// invoices and how minimum fees are evaluated.
type BillingMode string

const (
	// ModeConsolidated pools every department onto one invoice; the minimum
	// fee applies to the pooled storage total.
	ModeConsolidated BillingMode = "consolidated"
	// ModeSeparate bills each department on its own invoice with its own
	// minimum fee.
	ModeSeparate BillingMode = "separate"
	// ModeHybrid pools storage onto one invoice (company minimum) while
	// services stay on per-department invoices.
	ModeHybrid BillingMode = "hybrid"
)

func (m BillingMode) Valid() bool {
	switch m {
	case ModeConsolidated, ModeSeparate, ModeHybrid:
		return true
	}
	return false
}

type Customer struct {
	ID   snowflake.ID `gorm:"primaryKey" json:"id"`
	Name string       `gorm:"type:text;not null" json:"name"`
	Code string       `gorm:"type:text;not null;uniqueIndex" json:"code"`
	Mode BillingMode  `gorm:"type:text;not null" json:"billing_mode"`

	// Customer-level rate book overrides; nil falls through to the
	// company-wide defaults.
	StorageRateCents *int64 `json:"storage_rate_cents,omitempty"`
	MinimumFeeCents  *int64 `json:"minimum_fee_cents,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Customer) TableName() string { return "customers" }

type Department struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID snowflake.ID `gorm:"not null;index" json:"customer_id"`
	Name       string       `gorm:"type:text;not null" json:"name"`
	Code       string       `gorm:"type:text;not null" json:"code"`

	// ContainerCount counts standard boxes; dimensioned containers are
	// tracked individually in Container rows.
	ContainerCount int64 `gorm:"not null;default:0" json:"container_count"`

	StorageRateCents *int64 `json:"storage_rate_cents,omitempty"`
	MinimumFeeCents  *int64 `json:"minimum_fee_cents,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Department) TableName() string { return "departments" }

// Container is a non-standard, individually dimensioned container. Standard
// boxes are only counted on the department.
type Container struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	DepartmentID snowflake.ID `gorm:"not null;index" json:"department_id"`
	Length       float64      `gorm:"not null" json:"length"`
	Width        float64      `gorm:"not null" json:"width"`
	Height       float64      `gorm:"not null" json:"height"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Container) TableName() string { return "containers" }
