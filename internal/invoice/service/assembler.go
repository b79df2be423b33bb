package service

import (
	"fmt"
	"sort"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"gorm.io/datatypes"

	"github.com/recordbay/recordbay/internal/charge"
	directorydomain "github.com/recordbay/recordbay/internal/directory/domain"
	invoicedomain "github.com/recordbay/recordbay/internal/invoice/domain"
	"github.com/recordbay/recordbay/internal/minimum"
	"github.com/recordbay/recordbay/internal/period"
)

// Assembler turns adjusted department charges into draft invoice documents.
// For one input snapshot the produced line sets are deterministic:
// departments are walked in ID order and every charge lands on exactly one
// invoice.
type Assembler struct {
	genID    *snowflake.Node
	currency string
}

func NewAssembler(genID *snowflake.Node, currency string) *Assembler {
	return &Assembler{genID: genID, currency: currency}
}

func (a *Assembler) Assemble(
	customer *directorydomain.Customer,
	p period.Period,
	charges map[snowflake.ID]*charge.DepartmentCharge,
	adjustments []minimum.AdjustmentLine,
) ([]*invoicedomain.Invoice, error) {
	switch customer.Mode {
	case directorydomain.ModeConsolidated:
		return a.assembleConsolidated(customer, p, charges, adjustments), nil
	case directorydomain.ModeSeparate:
		return a.assembleSeparate(customer, p, charges, adjustments), nil
	case directorydomain.ModeHybrid:
		return a.assembleHybrid(customer, p, charges, adjustments), nil
	default:
		return nil, fmt.Errorf("%w: %q", minimum.ErrUnknownMode, customer.Mode)
	}
}

// assembleConsolidated emits a single document: department sub-sections in ID
// order, then the company-level minimum adjustment if present.
func (a *Assembler) assembleConsolidated(
	customer *directorydomain.Customer,
	p period.Period,
	charges map[snowflake.ID]*charge.DepartmentCharge,
	adjustments []minimum.AdjustmentLine,
) []*invoicedomain.Invoice {
	inv := a.newInvoice(customer, p, invoicedomain.KindConsolidated)

	for _, id := range sortedChargeIDs(charges) {
		c := charges[id]
		a.appendStorageLine(inv, c)
		a.appendServiceLines(inv, c)
		inv.DepartmentIDs = append(inv.DepartmentIDs, id.String())
	}
	for _, adj := range adjustments {
		a.appendAdjustmentLine(inv, adj)
	}

	if len(inv.Lines) == 0 {
		return nil
	}
	return []*invoicedomain.Invoice{inv}
}

// assembleSeparate emits one document per department carrying at least one
// line; empty documents are noise and are not created.
func (a *Assembler) assembleSeparate(
	customer *directorydomain.Customer,
	p period.Period,
	charges map[snowflake.ID]*charge.DepartmentCharge,
	adjustments []minimum.AdjustmentLine,
) []*invoicedomain.Invoice {
	adjByDept := make(map[snowflake.ID]minimum.AdjustmentLine, len(adjustments))
	for _, adj := range adjustments {
		if adj.DepartmentID != nil {
			adjByDept[*adj.DepartmentID] = adj
		}
	}

	var out []*invoicedomain.Invoice
	for _, id := range sortedChargeIDs(charges) {
		c := charges[id]
		inv := a.newInvoice(customer, p, invoicedomain.KindDepartment)
		inv.DepartmentIDs = datatypes.JSONSlice[string]{id.String()}

		a.appendStorageLine(inv, c)
		a.appendServiceLines(inv, c)
		if adj, ok := adjByDept[id]; ok {
			a.appendAdjustmentLine(inv, adj)
		}

		if len(inv.Lines) == 0 {
			continue
		}
		out = append(out, inv)
	}
	return out
}

// assembleHybrid emits one pooled storage document plus one service document
// per department with non-zero service activity.
func (a *Assembler) assembleHybrid(
	customer *directorydomain.Customer,
	p period.Period,
	charges map[snowflake.ID]*charge.DepartmentCharge,
	adjustments []minimum.AdjustmentLine,
) []*invoicedomain.Invoice {
	storageInv := a.newInvoice(customer, p, invoicedomain.KindStorage)
	for _, id := range sortedChargeIDs(charges) {
		a.appendStorageLine(storageInv, charges[id])
		storageInv.DepartmentIDs = append(storageInv.DepartmentIDs, id.String())
	}
	for _, adj := range adjustments {
		a.appendAdjustmentLine(storageInv, adj)
	}

	var out []*invoicedomain.Invoice
	if len(storageInv.Lines) > 0 {
		out = append(out, storageInv)
	}

	for _, id := range sortedChargeIDs(charges) {
		c := charges[id]
		if !hasNonZeroService(c) {
			continue
		}
		inv := a.newInvoice(customer, p, invoicedomain.KindService)
		inv.DepartmentIDs = datatypes.JSONSlice[string]{id.String()}
		a.appendServiceLines(inv, c)
		out = append(out, inv)
	}
	return out
}

func (a *Assembler) newInvoice(customer *directorydomain.Customer, p period.Period, kind invoicedomain.Kind) *invoicedomain.Invoice {
	id := a.genID.Generate()
	return &invoicedomain.Invoice{
		ID:            id,
		CustomerID:    customer.ID,
		Number:        fmt.Sprintf("INV-%s-%s", p, ulid.Make()),
		Period:        p,
		Kind:          kind,
		Status:        invoicedomain.StatusDraft,
		Currency:      a.currency,
		DepartmentIDs: datatypes.JSONSlice[string]{},
	}
}

func (a *Assembler) appendStorageLine(inv *invoicedomain.Invoice, c *charge.DepartmentCharge) {
	if c.StorageCents <= 0 {
		return
	}
	desc := fmt.Sprintf("Storage for %s (%d standard containers at %s)",
		c.Department.Name, c.Department.ContainerCount, fmtCents(c.StorageRateCents))
	// Anything above count*rate came from volume-priced dimensioned containers.
	if dimensioned := c.StorageCents - c.Department.ContainerCount*c.StorageRateCents; dimensioned > 0 {
		desc = fmt.Sprintf("Storage for %s (%d standard containers at %s, dimensioned containers %s)",
			c.Department.Name, c.Department.ContainerCount, fmtCents(c.StorageRateCents), fmtCents(dimensioned))
	}
	deptID := c.Department.ID
	a.appendLine(inv, invoicedomain.InvoiceLine{
		DepartmentID: &deptID,
		Kind:         invoicedomain.LineStorage,
		AmountCents:  c.StorageCents,
		Description:  desc,
	})
}

func (a *Assembler) appendServiceLines(inv *invoicedomain.Invoice, c *charge.DepartmentCharge) {
	deptID := c.Department.ID
	for _, s := range c.Services {
		chargeID := s.ID
		a.appendLine(inv, invoicedomain.InvoiceLine{
			DepartmentID:    &deptID,
			Kind:            invoicedomain.LineService,
			AmountCents:     s.AmountCents,
			Description:     s.Description,
			ServiceChargeID: &chargeID,
		})
	}
}

func (a *Assembler) appendAdjustmentLine(inv *invoicedomain.Invoice, adj minimum.AdjustmentLine) {
	a.appendLine(inv, invoicedomain.InvoiceLine{
		DepartmentID: adj.DepartmentID,
		Kind:         invoicedomain.LineMinimumAdjustment,
		AmountCents:  adj.AmountCents,
		Description:  adj.Description,
	})
}

func (a *Assembler) appendLine(inv *invoicedomain.Invoice, line invoicedomain.InvoiceLine) {
	line.ID = a.genID.Generate()
	line.InvoiceID = inv.ID
	inv.Lines = append(inv.Lines, line)
	inv.TotalCents += line.AmountCents
}

func hasNonZeroService(c *charge.DepartmentCharge) bool {
	for _, s := range c.Services {
		if s.AmountCents != 0 {
			return true
		}
	}
	return false
}

func sortedChargeIDs(charges map[snowflake.ID]*charge.DepartmentCharge) []snowflake.ID {
	ids := make([]snowflake.ID, 0, len(charges))
	for id := range charges {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func fmtCents(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%d.%02d", sign, v/100, v%100)
}
