package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	billingrundomain "github.com/recordbay/recordbay/internal/billingrun/domain"
	"github.com/recordbay/recordbay/internal/billingrun/repository"
	"github.com/recordbay/recordbay/internal/charge"
	"github.com/recordbay/recordbay/internal/clock"
	"github.com/recordbay/recordbay/internal/config"
	directorydomain "github.com/recordbay/recordbay/internal/directory/domain"
	invoicedomain "github.com/recordbay/recordbay/internal/invoice/domain"
	invoiceservice "github.com/recordbay/recordbay/internal/invoice/service"
	"github.com/recordbay/recordbay/internal/minimum"
	"github.com/recordbay/recordbay/internal/period"
	ledgerdomain "github.com/recordbay/recordbay/internal/serviceledger/domain"
)

// Orchestrator executes billing runs: one per (customer, period), customers
// in parallel, failures isolated per customer.
type Orchestrator struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	genID *snowflake.Node

	workers    int
	runTimeout time.Duration

	dirRepo     directorydomain.Repository
	ledgerRepo  ledgerdomain.Repository
	invoiceRepo invoicedomain.Repository
	runRepo     billingrundomain.Repository
	aggregator  *charge.Aggregator
	assembler   *invoiceservice.Assembler
}

type OrchestratorParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	GenID       *snowflake.Node
	Cfg         config.Config
	DirRepo     directorydomain.Repository
	LedgerRepo  ledgerdomain.Repository
	InvoiceRepo invoicedomain.Repository
	Aggregator  *charge.Aggregator
	Assembler   *invoiceservice.Assembler
}

func NewOrchestrator(p OrchestratorParam) billingrundomain.Runner {
	workers := p.Cfg.Billing.Workers
	if workers <= 0 {
		workers = 1
	}
	timeout := p.Cfg.Billing.RunTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Orchestrator{
		db:          p.DB,
		log:         p.Log.Named("billingrun.orchestrator"),
		clock:       p.Clock,
		genID:       p.GenID,
		workers:     workers,
		runTimeout:  timeout,
		dirRepo:     p.DirRepo,
		ledgerRepo:  p.LedgerRepo,
		invoiceRepo: p.InvoiceRepo,
		runRepo:     repository.New(),
		aggregator:  p.Aggregator,
		assembler:   p.Assembler,
	}
}

func (o *Orchestrator) RunBilling(ctx context.Context, p period.Period) (*billingrundomain.RunSummary, error) {
	if !p.Valid() {
		return nil, period.ErrInvalidPeriod
	}
	customers, err := o.dirRepo.ListCustomers(ctx, o.db)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return o.runBatch(ctx, customers, p)
}

// RunCustomerBilling runs the batch for a single customer; operators use it
// to re-run one failed customer without touching the rest.
func (o *Orchestrator) RunCustomerBilling(ctx context.Context, customerID snowflake.ID, p period.Period) (*billingrundomain.RunSummary, error) {
	if !p.Valid() {
		return nil, period.ErrInvalidPeriod
	}
	customer, err := o.dirRepo.FindCustomerByID(ctx, o.db, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, fmt.Errorf("customer %s not found", customerID)
	}
	return o.runBatch(ctx, []directorydomain.Customer{*customer}, p)
}

func (o *Orchestrator) ListRuns(ctx context.Context, p period.Period) ([]billingrundomain.BillingRun, error) {
	return o.runRepo.ListByPeriod(ctx, o.db, p)
}

func (o *Orchestrator) runBatch(ctx context.Context, customers []directorydomain.Customer, p period.Period) (*billingrundomain.RunSummary, error) {
	summary := &billingrundomain.RunSummary{
		BatchID:   uuid.NewString(),
		Period:    p,
		StartedAt: o.clock.Now(ctx),
	}
	o.log.Info("billing batch started",
		zap.String("batch_id", summary.BatchID),
		zap.String("period", p.String()),
		zap.Int("customers", len(customers)))

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(o.workers)

	for i := range customers {
		customer := customers[i]
		g.Go(func() error {
			outcome, excluded, runErr := o.runCustomer(ctx, &customer, p)

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case outcomeSucceeded:
				summary.Succeeded++
			case outcomeSkipped:
				summary.Skipped++
			case outcomeFailed:
				summary.Failed++
				summary.Errors = append(summary.Errors, billingrundomain.RunError{
					CustomerID:   customer.ID,
					CustomerName: customer.Name,
					Error:        runErr.Error(),
				})
			}
			// Excluded departments surface to the operator even though the
			// customer's run succeeded for its siblings.
			for _, f := range excluded {
				summary.Errors = append(summary.Errors, billingrundomain.RunError{
					CustomerID:   customer.ID,
					CustomerName: customer.Name,
					Error: fmt.Sprintf("department %s (%s) excluded: %s",
						f.DepartmentName, f.DepartmentID, f.Reason),
				})
			}
			return nil
		})
	}
	// Goroutines report through the summary, never through the group error.
	_ = g.Wait()

	summary.FinishedAt = o.clock.Now(ctx)
	runDuration.Observe(summary.FinishedAt.Sub(summary.StartedAt).Seconds())

	o.log.Info("billing batch finished",
		zap.String("batch_id", summary.BatchID),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped))
	return summary, nil
}

type runOutcome int

const (
	outcomeSucceeded runOutcome = iota
	outcomeSkipped
	outcomeFailed
)

func (o *Orchestrator) runCustomer(ctx context.Context, customer *directorydomain.Customer, p period.Period) (runOutcome, []charge.DepartmentFailure, error) {
	runCtx, cancel := context.WithTimeout(ctx, o.runTimeout)
	defer cancel()

	now := o.clock.Now(runCtx)
	run := &billingrundomain.BillingRun{
		ID:         o.genID.Generate(),
		CustomerID: customer.ID,
		Period:     p,
		Mode:       customer.Mode,
		Status:     billingrundomain.StatusRunning,
		StartedAt:  now,
	}

	err := o.runRepo.Create(runCtx, o.db, run)
	switch {
	case errors.Is(err, billingrundomain.ErrDuplicateRun):
		taken, takeErr := o.claimFailedRun(runCtx, customer.ID, p, now)
		if takeErr != nil {
			runsTotal.WithLabelValues("failed").Inc()
			return outcomeFailed, nil, takeErr
		}
		if taken == nil {
			// Already running or already completed: idempotent no-op.
			o.log.Debug("billing run already exists",
				zap.String("customer_id", customer.ID.String()),
				zap.String("period", p.String()))
			runsTotal.WithLabelValues("skipped").Inc()
			return outcomeSkipped, nil, nil
		}
		run = taken
	case err != nil:
		// Cannot write the audit record at all; nothing below is safe.
		runsTotal.WithLabelValues("failed").Inc()
		return outcomeFailed, nil, fmt.Errorf("create billing run: %w", err)
	}

	excluded, execErr := o.executeRun(runCtx, customer, run, p)
	if execErr != nil {
		o.markFailed(ctx, run, execErr)
		runsTotal.WithLabelValues("failed").Inc()
		return outcomeFailed, excluded, execErr
	}

	runsTotal.WithLabelValues("succeeded").Inc()
	return outcomeSucceeded, excluded, nil
}

// claimFailedRun reuses an existing failed run row for a retry. It returns
// nil when the existing run is running or completed.
func (o *Orchestrator) claimFailedRun(ctx context.Context, customerID snowflake.ID, p period.Period, at time.Time) (*billingrundomain.BillingRun, error) {
	taken, err := o.runRepo.TakeOverFailed(ctx, o.db, customerID, p, at)
	if err != nil {
		return nil, fmt.Errorf("take over failed run: %w", err)
	}
	if !taken {
		return nil, nil
	}
	run, err := o.runRepo.FindByCustomerPeriod(ctx, o.db, customerID, p)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, errors.New("billing run vanished after takeover")
	}
	return run, nil
}

func (o *Orchestrator) executeRun(ctx context.Context, customer *directorydomain.Customer, run *billingrundomain.BillingRun, p period.Period) ([]charge.DepartmentFailure, error) {
	charges, failures, err := o.aggregator.Aggregate(ctx, o.db, customer, p)
	if err != nil {
		return nil, fmt.Errorf("aggregate charges: %w", err)
	}
	if len(charges) == 0 && len(failures) > 0 {
		return failures, fmt.Errorf("aggregation failed for every department (%d excluded)", len(failures))
	}

	companyMinimum := o.aggregator.Resolver().CompanyMinimum(customer)
	adjustments, err := minimum.Enforce(charges, customer.Mode, companyMinimum)
	if err != nil {
		return failures, err
	}

	invoices, err := o.assembler.Assemble(customer, p, charges, adjustments)
	if err != nil {
		return failures, err
	}

	// Completed state is staged on a copy so a rolled-back commit leaves the
	// in-memory run untouched for markFailed.
	now := o.clock.Now(ctx)
	completed := *run
	completed.Status = billingrundomain.StatusCompleted
	completed.Failures = datatypes.NewJSONType(failures)
	completed.FinishedAt = &now
	err = o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoiceIDs := make(datatypes.JSONSlice[string], 0, len(invoices))
		for _, inv := range invoices {
			if txErr := o.invoiceRepo.Insert(ctx, tx, inv); txErr != nil {
				return fmt.Errorf("insert invoice %s: %w", inv.Number, txErr)
			}
			if txErr := o.consumeServiceCharges(ctx, tx, inv, now); txErr != nil {
				return txErr
			}
			invoiceIDs = append(invoiceIDs, inv.ID.String())
		}

		completed.InvoiceIDs = invoiceIDs
		return o.runRepo.Update(ctx, tx, &completed)
	})
	if err != nil {
		return failures, err
	}

	invoicesAssembled.Add(float64(len(invoices)))
	o.log.Info("billing run completed",
		zap.String("customer_id", customer.ID.String()),
		zap.String("period", p.String()),
		zap.Int("invoices", len(invoices)),
		zap.Int("departments_excluded", len(failures)))
	return failures, nil
}

// consumeServiceCharges marks every service charge billed by the invoice's
// lines, atomically with the line insertion. A charge already consumed
// elsewhere aborts the transaction.
func (o *Orchestrator) consumeServiceCharges(ctx context.Context, tx *gorm.DB, inv *invoicedomain.Invoice, at time.Time) error {
	var ids []snowflake.ID
	for _, line := range inv.Lines {
		if line.ServiceChargeID != nil {
			ids = append(ids, *line.ServiceChargeID)
		}
	}
	if err := o.ledgerRepo.MarkBilled(ctx, tx, ids, inv.ID, at); err != nil {
		return fmt.Errorf("mark charges billed for invoice %s: %w", inv.Number, err)
	}
	return nil
}

// markFailed records the failure on the run row. It uses a fresh context so a
// timed-out run can still be reported.
func (o *Orchestrator) markFailed(ctx context.Context, run *billingrundomain.BillingRun, cause error) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	msg := cause.Error()
	if errors.Is(cause, context.DeadlineExceeded) {
		msg = "run exceeded wall-clock budget: " + msg
	}
	now := o.clock.Now(writeCtx)
	run.Status = billingrundomain.StatusFailed
	run.Error = &msg
	run.FinishedAt = &now

	if err := o.runRepo.Update(writeCtx, o.db, run); err != nil {
		o.log.Error("record billing run failure",
			zap.String("run_id", run.ID.String()),
			zap.Error(err))
	}
}
