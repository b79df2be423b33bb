// Command runbilling executes one billing batch from the terminal: the whole
// book of customers or a single customer, for one period. Operators use it to
// re-run failures outside the monthly schedule.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/spf13/cobra"

	billingrunservice "github.com/recordbay/recordbay/internal/billingrun/service"
	"github.com/recordbay/recordbay/internal/charge"
	"github.com/recordbay/recordbay/internal/clock"
	"github.com/recordbay/recordbay/internal/config"
	directoryrepository "github.com/recordbay/recordbay/internal/directory/repository"
	invoicerepository "github.com/recordbay/recordbay/internal/invoice/repository"
	invoiceservice "github.com/recordbay/recordbay/internal/invoice/service"
	"github.com/recordbay/recordbay/internal/migration"
	"github.com/recordbay/recordbay/internal/observability"
	"github.com/recordbay/recordbay/internal/period"
	"github.com/recordbay/recordbay/internal/seed"
	ledgerrepository "github.com/recordbay/recordbay/internal/serviceledger/repository"
	"github.com/recordbay/recordbay/pkg/db"
)

func main() {
	var (
		periodFlag   string
		customerFlag string
		seedDemo     bool
	)

	root := &cobra.Command{
		Use:   "runbilling",
		Short: "Execute a billing batch for one period",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := period.Parse(periodFlag)
			if err != nil {
				return err
			}
			return run(cmd.Context(), p, customerFlag, seedDemo)
		},
	}
	root.Flags().StringVar(&periodFlag, "period", "", "billing period, YYYY-MM (required)")
	root.Flags().StringVar(&customerFlag, "customer", "", "restrict the batch to one customer ID")
	root.Flags().BoolVar(&seedDemo, "seed-demo", false, "seed the demo dataset before running")
	_ = root.MarkFlagRequired("period")

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, p period.Period, customerFlag string, seedDemo bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := observability.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	gdb, err := db.New(cfg, log)
	if err != nil {
		return err
	}
	if err := migration.Run(gdb, cfg, log); err != nil {
		return err
	}

	node, err := snowflake.NewNode(9)
	if err != nil {
		return err
	}
	if seedDemo {
		if err := seed.EnsureDemoData(gdb, node, p); err != nil {
			return err
		}
	}

	dirRepo := directoryrepository.New()
	ledgerRepo := ledgerrepository.New()
	aggregator, err := charge.NewAggregator(charge.AggregatorParam{
		Log:        log,
		Cfg:        cfg,
		DirRepo:    dirRepo,
		LedgerRepo: ledgerRepo,
	})
	if err != nil {
		return err
	}

	runner := billingrunservice.NewOrchestrator(billingrunservice.OrchestratorParam{
		DB:          gdb,
		Log:         log,
		Clock:       clock.SystemClock{},
		GenID:       node,
		Cfg:         cfg,
		DirRepo:     dirRepo,
		LedgerRepo:  ledgerRepo,
		InvoiceRepo: invoicerepository.New(),
		Aggregator:  aggregator,
		Assembler:   invoiceservice.NewAssembler(node, cfg.Billing.Currency),
	})

	var summary any
	if customerFlag != "" {
		raw, err := strconv.ParseInt(customerFlag, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid customer id %q", customerFlag)
		}
		summary, err = runner.RunCustomerBilling(ctx, snowflake.ID(raw), p)
		if err != nil {
			return err
		}
	} else {
		summary, err = runner.RunBilling(ctx, p)
		if err != nil {
			return err
		}
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
