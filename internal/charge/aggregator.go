// Package charge aggregates per-department storage and service subtotals for
// one customer and period.
package charge

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/recordbay/recordbay/internal/config"
	directorydomain "github.com/recordbay/recordbay/internal/directory/domain"
	"github.com/recordbay/recordbay/internal/period"
	"github.com/recordbay/recordbay/internal/rate"
	ledgerdomain "github.com/recordbay/recordbay/internal/serviceledger/domain"
	"github.com/recordbay/recordbay/internal/volume"
)

// DepartmentCharge is one department's aggregated subtotals plus the policy
// snapshot the enforcer and assembler need downstream.
type DepartmentCharge struct {
	Department       directorydomain.Department
	StorageRateCents int64
	MinimumFeeCents  int64
	StorageCents     int64
	ServiceCents     int64
	Services         []ledgerdomain.ServiceCharge
}

func (c *DepartmentCharge) TotalCents() int64 {
	return c.StorageCents + c.ServiceCents
}

// DepartmentFailure records a department excluded from the run; the run
// proceeds for its siblings and the failure is surfaced for remediation.
type DepartmentFailure struct {
	DepartmentID   snowflake.ID `json:"department_id"`
	DepartmentName string       `json:"department_name"`
	Reason         string       `json:"reason"`
}

type Aggregator struct {
	log        *zap.Logger
	dirRepo    directorydomain.Repository
	ledgerRepo ledgerdomain.Repository
	resolver   *rate.Resolver
	pricer     *volume.Pricer
}

type AggregatorParam struct {
	fx.In

	Log        *zap.Logger
	Cfg        config.Config
	DirRepo    directorydomain.Repository
	LedgerRepo ledgerdomain.Repository
}

func NewAggregator(p AggregatorParam) (*Aggregator, error) {
	pricer, err := volume.NewPricer(volume.Dimensions{
		Length: p.Cfg.Billing.StandardBoxLength,
		Width:  p.Cfg.Billing.StandardBoxWidth,
		Height: p.Cfg.Billing.StandardBoxHeight,
	}, p.Cfg.Billing.StandardBoxRateCents)
	if err != nil {
		return nil, err
	}

	return &Aggregator{
		log:        p.Log.Named("charge.aggregator"),
		dirRepo:    p.DirRepo,
		ledgerRepo: p.LedgerRepo,
		resolver: rate.NewResolver(rate.Book{
			Currency:                p.Cfg.Billing.Currency,
			DefaultStorageRateCents: p.Cfg.Billing.DefaultStorageRateCents,
			DefaultMinimumFeeCents:  p.Cfg.Billing.DefaultMinimumFeeCents,
		}),
		pricer: pricer,
	}, nil
}

func (a *Aggregator) Resolver() *rate.Resolver { return a.resolver }

func (a *Aggregator) Pricer() *volume.Pricer { return a.pricer }

// Aggregate reads the customer's departments from the given snapshot handle
// and computes storage and service subtotals per department. A department
// whose rate lookup or container pricing fails is excluded and reported; the
// remaining departments still aggregate.
func (a *Aggregator) Aggregate(
	ctx context.Context,
	db *gorm.DB,
	customer *directorydomain.Customer,
	p period.Period,
) (map[snowflake.ID]*DepartmentCharge, []DepartmentFailure, error) {
	departments, err := a.dirRepo.ListDepartments(ctx, db, customer.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list departments: %w", err)
	}

	charges := make(map[snowflake.ID]*DepartmentCharge, len(departments))
	var failures []DepartmentFailure

	for i := range departments {
		dept := departments[i]
		dc, err := a.aggregateDepartment(ctx, db, customer, &dept, p)
		if err != nil {
			a.log.Warn("department excluded from billing",
				zap.String("customer_id", customer.ID.String()),
				zap.String("department_id", dept.ID.String()),
				zap.Error(err))
			failures = append(failures, DepartmentFailure{
				DepartmentID:   dept.ID,
				DepartmentName: dept.Name,
				Reason:         err.Error(),
			})
			continue
		}
		charges[dept.ID] = dc
	}

	return charges, failures, nil
}

func (a *Aggregator) aggregateDepartment(
	ctx context.Context,
	db *gorm.DB,
	customer *directorydomain.Customer,
	dept *directorydomain.Department,
	p period.Period,
) (*DepartmentCharge, error) {
	res, err := a.resolver.Resolve(customer, dept)
	if err != nil {
		return nil, err
	}

	storage := dept.ContainerCount * res.StorageRateCents

	containers, err := a.dirRepo.ListDimensionedContainers(ctx, db, dept.ID)
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}
	for _, c := range containers {
		price, err := a.pricer.Price(volume.Dimensions{
			Length: c.Length,
			Width:  c.Width,
			Height: c.Height,
		})
		if err != nil {
			return nil, fmt.Errorf("container %s: %w", c.ID, err)
		}
		storage += price
	}

	services, err := a.ledgerRepo.ListCompleted(ctx, db, dept.ID, p)
	if err != nil {
		return nil, fmt.Errorf("list service charges: %w", err)
	}
	var serviceTotal int64
	for _, s := range services {
		serviceTotal += s.AmountCents
	}

	return &DepartmentCharge{
		Department:       *dept,
		StorageRateCents: res.StorageRateCents,
		MinimumFeeCents:  res.MinimumFeeCents,
		StorageCents:     storage,
		ServiceCents:     serviceTotal,
		Services:         services,
	}, nil
}
