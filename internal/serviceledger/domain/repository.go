package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/recordbay/recordbay/internal/period"
)

// ErrChargeAlreadyBilled signals that a MarkBilled update matched fewer rows
// than requested: some charge was consumed by another run.
var ErrChargeAlreadyBilled = errors.New("service_charge_already_billed")

type Repository interface {
	ListCompleted(ctx context.Context, db *gorm.DB, departmentID snowflake.ID, p period.Period) ([]ServiceCharge, error)
	// MarkBilled flips completed charges to billed and stamps the consuming
	// invoice. It must run inside the same transaction that inserts the
	// invoice lines.
	MarkBilled(ctx context.Context, db *gorm.DB, ids []snowflake.ID, invoiceID snowflake.ID, at time.Time) error
}
