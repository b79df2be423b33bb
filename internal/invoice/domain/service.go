package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"

	"github.com/recordbay/recordbay/internal/period"
)

var (
	ErrInvoiceNotFound = errors.New("invoice_not_found")
	ErrInvoiceEmpty    = errors.New("invoice_empty")
)

type ListFilter struct {
	CustomerID *snowflake.ID
	Period     *period.Period
}

type Service interface {
	List(ctx context.Context, filter ListFilter) ([]Invoice, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Invoice, error)
	// Finalize transitions draft to final. It is idempotent: finalizing a
	// final invoice returns it unchanged. Empty invoices cannot finalize.
	Finalize(ctx context.Context, id snowflake.ID) (*Invoice, error)
}
