package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/recordbay/recordbay/internal/period"
)

type Repository interface {
	// Create inserts the run record, returning ErrDuplicateRun when the
	// (customer, period) uniqueness constraint rejects it.
	Create(ctx context.Context, db *gorm.DB, run *BillingRun) error
	FindByCustomerPeriod(ctx context.Context, db *gorm.DB, customerID snowflake.ID, p period.Period) (*BillingRun, error)
	// TakeOverFailed flips an existing failed run back to running so a retry
	// can reuse the row; reports whether a row transitioned.
	TakeOverFailed(ctx context.Context, db *gorm.DB, customerID snowflake.ID, p period.Period, at time.Time) (bool, error)
	Update(ctx context.Context, db *gorm.DB, run *BillingRun) error
	ListByPeriod(ctx context.Context, db *gorm.DB, p period.Period) ([]BillingRun, error)
}
