// Package seed provides a deterministic demo dataset for local bring-up.
package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	directorydomain "github.com/recordbay/recordbay/internal/directory/domain"
	"github.com/recordbay/recordbay/internal/period"
	ledgerdomain "github.com/recordbay/recordbay/internal/serviceledger/domain"
)

func cents(v int64) *int64 { return &v }

// EnsureDemoData seeds three customers, one per billing mode, with department
// shapes that exercise minimum-fee adjustments both ways. Existing data is
// left untouched.
func EnsureDemoData(db *gorm.DB, node *snowflake.Node, p period.Period) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		acme, err := ensureCustomerTx(ctx, tx, node, "Acme Manufacturing", directorydomain.ModeSeparate)
		if err != nil {
			return err
		}
		if acme != nil {
			// HR lands under the $45 minimum, Legal clears it.
			hr, err := ensureDepartmentTx(ctx, tx, node, acme, "HR", 10)
			if err != nil {
				return err
			}
			if _, err := ensureDepartmentTx(ctx, tx, node, acme, "Legal", 200); err != nil {
				return err
			}
			if err := ensureServiceChargeTx(ctx, tx, node, hr, p, 1500, "Retrieval request"); err != nil {
				return err
			}
		}

		globex, err := ensureCustomerTx(ctx, tx, node, "Globex Insurance", directorydomain.ModeConsolidated)
		if err != nil {
			return err
		}
		if globex != nil {
			if _, err := ensureDepartmentTx(ctx, tx, node, globex, "Claims", 420); err != nil {
				return err
			}
			if _, err := ensureDepartmentTx(ctx, tx, node, globex, "Underwriting", 90); err != nil {
				return err
			}
		}

		initech, err := ensureCustomerTx(ctx, tx, node, "Initech Software", directorydomain.ModeHybrid)
		if err != nil {
			return err
		}
		if initech != nil {
			eng, err := ensureDepartmentTx(ctx, tx, node, initech, "Engineering", 35)
			if err != nil {
				return err
			}
			if _, err := ensureDepartmentTx(ctx, tx, node, initech, "Finance", 12); err != nil {
				return err
			}
			if err := ensureServiceChargeTx(ctx, tx, node, eng, p, 2500, "Destruction certificate"); err != nil {
				return err
			}
			// One oversized container priced by volume.
			if err := ensureContainerTx(ctx, tx, node, eng, 18, 28, 12); err != nil {
				return err
			}
		}
		return nil
	})
}

func ensureCustomerTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, name string, mode directorydomain.BillingMode) (*directorydomain.Customer, error) {
	code := slug.Make(name)

	var existing directorydomain.Customer
	err := tx.WithContext(ctx).Where("code = ?", code).First(&existing).Error
	if err == nil {
		return nil, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	customer := &directorydomain.Customer{
		ID:   node.Generate(),
		Name: name,
		Code: code,
		Mode: mode,
	}
	if err := tx.WithContext(ctx).Create(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

func ensureDepartmentTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, customer *directorydomain.Customer, name string, containers int64) (*directorydomain.Department, error) {
	dept := &directorydomain.Department{
		ID:             node.Generate(),
		CustomerID:     customer.ID,
		Name:           name,
		Code:           slug.Make(customer.Name + " " + name),
		ContainerCount: containers,
		// Demo rates match the published price card.
		StorageRateCents: cents(32),
		MinimumFeeCents:  cents(4500),
	}
	if err := tx.WithContext(ctx).Create(dept).Error; err != nil {
		return nil, err
	}
	return dept, nil
}

func ensureContainerTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, dept *directorydomain.Department, l, w, h float64) error {
	return tx.WithContext(ctx).Create(&directorydomain.Container{
		ID:           node.Generate(),
		DepartmentID: dept.ID,
		Length:       l,
		Width:        w,
		Height:       h,
	}).Error
}

func ensureServiceChargeTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, dept *directorydomain.Department, p period.Period, amount int64, desc string) error {
	return tx.WithContext(ctx).Create(&ledgerdomain.ServiceCharge{
		ID:           node.Generate(),
		DepartmentID: dept.ID,
		Period:       p,
		AmountCents:  amount,
		Description:  desc,
		Status:       ledgerdomain.StatusCompleted,
	}).Error
}
