// Package rate resolves the applicable storage rate and minimum-fee policy
// for a customer/department at billing time.
package rate

import (
	"errors"
	"fmt"

	directorydomain "github.com/recordbay/recordbay/internal/directory/domain"
)

// ErrRateNotConfigured is a hard failure for the department: billing at an
// implicit zero rate would hide under-billing from the operator.
var ErrRateNotConfigured = errors.New("rate_not_configured")

// Book is the company-wide rate defaults, snapshot from configuration at the
// start of a run. Zero values mean "not configured at the company level".
type Book struct {
	Currency                string
	DefaultStorageRateCents int64
	DefaultMinimumFeeCents  int64
}

// Resolution is the effective policy for one department.
type Resolution struct {
	StorageRateCents int64
	MinimumFeeCents  int64
	Mode             directorydomain.BillingMode
}

type Resolver struct {
	book Book
}

func NewResolver(book Book) *Resolver {
	return &Resolver{book: book}
}

// Resolve applies first-match-wins precedence: department override, then
// customer default, then company default. A missing storage rate at every
// level fails; a missing minimum means no minimum (zero floor).
func (r *Resolver) Resolve(customer *directorydomain.Customer, dept *directorydomain.Department) (Resolution, error) {
	rate, ok := firstConfigured(dept.StorageRateCents, customer.StorageRateCents, r.book.DefaultStorageRateCents)
	if !ok {
		return Resolution{}, fmt.Errorf("%w: department %s (%s)",
			ErrRateNotConfigured, dept.ID, dept.Name)
	}

	minimum, _ := firstConfigured(dept.MinimumFeeCents, customer.MinimumFeeCents, r.book.DefaultMinimumFeeCents)

	return Resolution{
		StorageRateCents: rate,
		MinimumFeeCents:  minimum,
		Mode:             customer.Mode,
	}, nil
}

// CompanyMinimum resolves the pooled minimum used by consolidated and hybrid
// modes: customer override first, then the company default.
func (r *Resolver) CompanyMinimum(customer *directorydomain.Customer) int64 {
	if customer.MinimumFeeCents != nil {
		return *customer.MinimumFeeCents
	}
	return r.book.DefaultMinimumFeeCents
}

func firstConfigured(deptLevel, customerLevel *int64, companyLevel int64) (int64, bool) {
	if deptLevel != nil {
		return *deptLevel, true
	}
	if customerLevel != nil {
		return *customerLevel, true
	}
	if companyLevel > 0 {
		return companyLevel, true
	}
	return 0, false
}
