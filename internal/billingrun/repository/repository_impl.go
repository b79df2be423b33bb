package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	billingrundomain "github.com/recordbay/recordbay/internal/billingrun/domain"
	"github.com/recordbay/recordbay/internal/charge"
	"github.com/recordbay/recordbay/internal/period"
)

type repository struct{}

func New() billingrundomain.Repository {
	return &repository{}
}

func (r *repository) Create(ctx context.Context, db *gorm.DB, run *billingrundomain.BillingRun) error {
	err := db.WithContext(ctx).Create(run).Error
	if err != nil {
		if isDuplicateKey(err) {
			return billingrundomain.ErrDuplicateRun
		}
		return err
	}
	return nil
}

// isDuplicateKey covers both drivers: postgres violations arrive translated
// as gorm.ErrDuplicatedKey, the sqlite dialector does not translate and the
// constraint error surfaces raw.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (r *repository) FindByCustomerPeriod(ctx context.Context, db *gorm.DB, customerID snowflake.ID, p period.Period) (*billingrundomain.BillingRun, error) {
	var row billingrundomain.BillingRun
	err := db.WithContext(ctx).
		Where("customer_id = ? AND period = ?", customerID, p.String()).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) TakeOverFailed(ctx context.Context, db *gorm.DB, customerID snowflake.ID, p period.Period, at time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&billingrundomain.BillingRun{}).
		Where("customer_id = ? AND period = ? AND status = ?",
			customerID, p.String(), billingrundomain.StatusFailed).
		Updates(map[string]any{
			"status":      billingrundomain.StatusRunning,
			"error":       nil,
			"invoice_ids": datatypes.JSONSlice[string]{},
			"failures":    datatypes.NewJSONType([]charge.DepartmentFailure(nil)),
			"started_at":  at,
			"finished_at": nil,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) Update(ctx context.Context, db *gorm.DB, run *billingrundomain.BillingRun) error {
	return db.WithContext(ctx).Save(run).Error
}

func (r *repository) ListByPeriod(ctx context.Context, db *gorm.DB, p period.Period) ([]billingrundomain.BillingRun, error) {
	var rows []billingrundomain.BillingRun
	err := db.WithContext(ctx).
		Where("period = ?", p.String()).
		Order("id").
		Find(&rows).Error
	return rows, err
}
