// Package minimum applies minimum-fee policy to aggregated department
// charges. All arithmetic is in integer cents; comparisons are exact.
package minimum

import (
	"errors"
	"fmt"
	"sort"

	"github.com/bwmarrin/snowflake"

	"github.com/recordbay/recordbay/internal/charge"
	directorydomain "github.com/recordbay/recordbay/internal/directory/domain"
)

var ErrUnknownMode = errors.New("unknown_billing_mode")

// AdjustmentLine raises a billing entity to its minimum. DepartmentID is nil
// for the company-level pooled adjustment.
type AdjustmentLine struct {
	DepartmentID *snowflake.ID `json:"department_id,omitempty"`
	AmountCents  int64         `json:"amount_cents"`
	Description  string        `json:"description"`
}

// Enforce computes adjustment lines for the given mode.
//
// Consolidated and hybrid pool storage across departments and compare the
// pool against the company minimum; service charges are never subject to a
// minimum. Separate evaluates each department independently against its own
// minimum (storage plus services); adjustments never offset each other and
// never redistribute.
func Enforce(
	charges map[snowflake.ID]*charge.DepartmentCharge,
	mode directorydomain.BillingMode,
	companyMinimumCents int64,
) ([]AdjustmentLine, error) {
	switch mode {
	case directorydomain.ModeConsolidated, directorydomain.ModeHybrid:
		return enforcePooled(charges, companyMinimumCents), nil
	case directorydomain.ModeSeparate:
		return enforcePerDepartment(charges), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

func enforcePooled(charges map[snowflake.ID]*charge.DepartmentCharge, companyMinimumCents int64) []AdjustmentLine {
	if companyMinimumCents <= 0 {
		return nil
	}
	var storageTotal int64
	for _, c := range charges {
		storageTotal += c.StorageCents
	}
	if storageTotal >= companyMinimumCents {
		return nil
	}
	// One company-level line, not apportioned per department.
	return []AdjustmentLine{{
		AmountCents: companyMinimumCents - storageTotal,
		Description: fmt.Sprintf("Company minimum storage fee adjustment (minimum %s)", formatCents(companyMinimumCents)),
	}}
}

func enforcePerDepartment(charges map[snowflake.ID]*charge.DepartmentCharge) []AdjustmentLine {
	var lines []AdjustmentLine
	for _, id := range sortedIDs(charges) {
		c := charges[id]
		if c.MinimumFeeCents <= 0 {
			continue
		}
		total := c.TotalCents()
		if total >= c.MinimumFeeCents {
			continue
		}
		deptID := id
		lines = append(lines, AdjustmentLine{
			DepartmentID: &deptID,
			AmountCents:  c.MinimumFeeCents - total,
			Description: fmt.Sprintf("Minimum fee adjustment for %s (minimum %s)",
				c.Department.Name, formatCents(c.MinimumFeeCents)),
		})
	}
	return lines
}

// AdjustedTotalCents is the conserved grand total: aggregated charges plus
// every adjustment. Invoice assembly must emit lines summing to exactly this.
func AdjustedTotalCents(charges map[snowflake.ID]*charge.DepartmentCharge, adjustments []AdjustmentLine) int64 {
	var total int64
	for _, c := range charges {
		total += c.TotalCents()
	}
	for _, a := range adjustments {
		total += a.AmountCents
	}
	return total
}

func sortedIDs(charges map[snowflake.ID]*charge.DepartmentCharge) []snowflake.ID {
	ids := make([]snowflake.ID, 0, len(charges))
	for id := range charges {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func formatCents(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%d.%02d", sign, v/100, v%100)
}
