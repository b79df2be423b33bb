package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/recordbay/recordbay/internal/period"
	ledgerdomain "github.com/recordbay/recordbay/internal/serviceledger/domain"
)

type repository struct{}

func New() ledgerdomain.Repository {
	return &repository{}
}

func (r *repository) ListCompleted(ctx context.Context, db *gorm.DB, departmentID snowflake.ID, p period.Period) ([]ledgerdomain.ServiceCharge, error) {
	var rows []ledgerdomain.ServiceCharge
	err := db.WithContext(ctx).
		Where("department_id = ? AND period = ? AND status = ?",
			departmentID, p.String(), ledgerdomain.StatusCompleted).
		Order("id").
		Find(&rows).Error
	return rows, err
}

func (r *repository) MarkBilled(ctx context.Context, db *gorm.DB, ids []snowflake.ID, invoiceID snowflake.ID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	res := db.WithContext(ctx).
		Model(&ledgerdomain.ServiceCharge{}).
		Where("id IN ? AND status = ?", ids, ledgerdomain.StatusCompleted).
		Updates(map[string]any{
			"status":     ledgerdomain.StatusBilled,
			"invoice_id": invoiceID,
			"billed_at":  at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != int64(len(ids)) {
		return fmt.Errorf("%w: expected %d rows, updated %d",
			ledgerdomain.ErrChargeAlreadyBilled, len(ids), res.RowsAffected)
	}
	return nil
}
