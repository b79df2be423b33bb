package service

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recordbay/recordbay/internal/charge"
	directorydomain "github.com/recordbay/recordbay/internal/directory/domain"
	invoicedomain "github.com/recordbay/recordbay/internal/invoice/domain"
	"github.com/recordbay/recordbay/internal/minimum"
	"github.com/recordbay/recordbay/internal/period"
	ledgerdomain "github.com/recordbay/recordbay/internal/serviceledger/domain"
)

var testPeriod = period.Period{Year: 2026, Month: 8}

func newTestAssembler(t *testing.T) *Assembler {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return NewAssembler(node, "USD")
}

func customerWithMode(mode directorydomain.BillingMode) *directorydomain.Customer {
	return &directorydomain.Customer{ID: 100, Name: "Acme Records", Mode: mode}
}

func deptCharge(id int64, name string, containers, storage int64, services ...ledgerdomain.ServiceCharge) *charge.DepartmentCharge {
	var serviceTotal int64
	for _, s := range services {
		serviceTotal += s.AmountCents
	}
	return &charge.DepartmentCharge{
		Department: directorydomain.Department{
			ID:             snowflake.ID(id),
			Name:           name,
			ContainerCount: containers,
		},
		StorageRateCents: 32,
		MinimumFeeCents:  4500,
		StorageCents:     storage,
		ServiceCents:     serviceTotal,
		Services:         services,
	}
}

func svc(id int64, amount int64, desc string) ledgerdomain.ServiceCharge {
	return ledgerdomain.ServiceCharge{
		ID:          snowflake.ID(id),
		AmountCents: amount,
		Description: desc,
		Status:      ledgerdomain.StatusCompleted,
	}
}

func toMap(cs ...*charge.DepartmentCharge) map[snowflake.ID]*charge.DepartmentCharge {
	m := make(map[snowflake.ID]*charge.DepartmentCharge, len(cs))
	for _, c := range cs {
		m[c.Department.ID] = c
	}
	return m
}

func sumLines(invoices []*invoicedomain.Invoice) int64 {
	var total int64
	for _, inv := range invoices {
		for _, l := range inv.Lines {
			total += l.AmountCents
		}
	}
	return total
}

func TestAssembleConsolidatedSingleInvoice(t *testing.T) {
	a := newTestAssembler(t)
	charges := toMap(
		deptCharge(1, "HR", 10, 320, svc(11, 150, "Retrieval request")),
		deptCharge(2, "Legal", 200, 6400),
	)
	adjustments := []minimum.AdjustmentLine{{AmountCents: 1500, Description: "Company minimum storage fee adjustment"}}

	invoices, err := a.Assemble(customerWithMode(directorydomain.ModeConsolidated), testPeriod, charges, adjustments)
	require.NoError(t, err)
	require.Len(t, invoices, 1)

	inv := invoices[0]
	assert.Equal(t, invoicedomain.KindConsolidated, inv.Kind)
	assert.Equal(t, invoicedomain.StatusDraft, inv.Status)
	assert.ElementsMatch(t, []string{"1", "2"}, []string(inv.DepartmentIDs))
	assert.Equal(t, int64(320+150+6400+1500), inv.TotalCents)
	assert.Equal(t, inv.TotalCents, sumLines(invoices))

	// Exactly one company-level adjustment line, not attributed to a department.
	var adjLines []invoicedomain.InvoiceLine
	for _, l := range inv.Lines {
		if l.Kind == invoicedomain.LineMinimumAdjustment {
			adjLines = append(adjLines, l)
		}
	}
	require.Len(t, adjLines, 1)
	assert.Nil(t, adjLines[0].DepartmentID)
}

func TestAssembleSeparateOneInvoicePerDepartment(t *testing.T) {
	a := newTestAssembler(t)
	hrID := snowflake.ID(1)
	charges := toMap(
		deptCharge(1, "HR", 10, 320),
		deptCharge(2, "Legal", 200, 6400, svc(21, 900, "Destruction certificate")),
	)
	adjustments := []minimum.AdjustmentLine{{DepartmentID: &hrID, AmountCents: 4180, Description: "Minimum fee adjustment for HR"}}

	invoices, err := a.Assemble(customerWithMode(directorydomain.ModeSeparate), testPeriod, charges, adjustments)
	require.NoError(t, err)
	require.Len(t, invoices, 2)

	assert.Equal(t, int64(320+4180), invoices[0].TotalCents) // HR at its minimum
	assert.Equal(t, int64(6400+900), invoices[1].TotalCents)
	for _, inv := range invoices {
		assert.Equal(t, invoicedomain.KindDepartment, inv.Kind)
		assert.Len(t, inv.DepartmentIDs, 1)
	}
	assert.Equal(t, int64(320+4180+6400+900), sumLines(invoices))
}

func TestAssembleSeparateZeroActivityDepartmentGetsAdjustmentOnlyInvoice(t *testing.T) {
	a := newTestAssembler(t)
	archiveID := snowflake.ID(3)
	charges := toMap(deptCharge(3, "Archive", 0, 0))
	adjustments := []minimum.AdjustmentLine{{DepartmentID: &archiveID, AmountCents: 4500, Description: "Minimum fee adjustment for Archive"}}

	invoices, err := a.Assemble(customerWithMode(directorydomain.ModeSeparate), testPeriod, charges, adjustments)
	require.NoError(t, err)
	require.Len(t, invoices, 1)

	// No storage or service lines, only the full minimum.
	require.Len(t, invoices[0].Lines, 1)
	assert.Equal(t, invoicedomain.LineMinimumAdjustment, invoices[0].Lines[0].Kind)
	assert.Equal(t, int64(4500), invoices[0].TotalCents)
}

func TestAssembleHybridStoragePlusServiceInvoices(t *testing.T) {
	a := newTestAssembler(t)
	charges := toMap(
		deptCharge(1, "HR", 10, 320, svc(11, 150, "Retrieval request")),
		deptCharge(2, "Legal", 200, 6400), // storage only: no service invoice
		deptCharge(3, "Archive", 5, 160, svc(31, 0, "Waived re-file")),
	)
	adjustments := []minimum.AdjustmentLine{}

	invoices, err := a.Assemble(customerWithMode(directorydomain.ModeHybrid), testPeriod, charges, adjustments)
	require.NoError(t, err)
	require.Len(t, invoices, 2)

	storage := invoices[0]
	assert.Equal(t, invoicedomain.KindStorage, storage.Kind)
	assert.Len(t, storage.DepartmentIDs, 3)
	assert.Equal(t, int64(320+6400+160), storage.TotalCents)

	service := invoices[1]
	assert.Equal(t, invoicedomain.KindService, service.Kind)
	assert.Equal(t, []string{"1"}, []string(service.DepartmentIDs))
	assert.Equal(t, int64(150), service.TotalCents)
}

func TestAssembleHybridPooledAdjustmentOnStorageInvoice(t *testing.T) {
	a := newTestAssembler(t)
	charges := toMap(deptCharge(1, "HR", 10, 3000))
	adjustments := []minimum.AdjustmentLine{{AmountCents: 1500, Description: "Company minimum storage fee adjustment"}}

	invoices, err := a.Assemble(customerWithMode(directorydomain.ModeHybrid), testPeriod, charges, adjustments)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, invoicedomain.KindStorage, invoices[0].Kind)
	assert.Equal(t, int64(4500), invoices[0].TotalCents)
}

func TestAssembleConservationAcrossModes(t *testing.T) {
	charges := toMap(
		deptCharge(1, "HR", 10, 320, svc(11, 150, "Retrieval request")),
		deptCharge(2, "Legal", 200, 6400, svc(21, 900, "Destruction certificate")),
	)

	for _, mode := range []directorydomain.BillingMode{
		directorydomain.ModeConsolidated,
		directorydomain.ModeSeparate,
		directorydomain.ModeHybrid,
	} {
		t.Run(string(mode), func(t *testing.T) {
			a := newTestAssembler(t)
			adjustments, err := minimum.Enforce(charges, mode, 4500)
			require.NoError(t, err)

			invoices, err := a.Assemble(customerWithMode(mode), testPeriod, charges, adjustments)
			require.NoError(t, err)

			assert.Equal(t, minimum.AdjustedTotalCents(charges, adjustments), sumLines(invoices))
			for _, inv := range invoices {
				assert.Equal(t, sumLines([]*invoicedomain.Invoice{inv}), inv.TotalCents)
			}
		})
	}
}

func TestAssembleDeterministicLineSets(t *testing.T) {
	charges := toMap(
		deptCharge(1, "HR", 10, 320, svc(11, 150, "Retrieval request")),
		deptCharge(2, "Legal", 200, 6400),
	)
	adjustments, err := minimum.Enforce(charges, directorydomain.ModeSeparate, 4500)
	require.NoError(t, err)

	type flatLine struct {
		Kind   invoicedomain.LineKind
		Amount int64
		Desc   string
	}
	flatten := func(invoices []*invoicedomain.Invoice) []flatLine {
		var out []flatLine
		for _, inv := range invoices {
			for _, l := range inv.Lines {
				out = append(out, flatLine{l.Kind, l.AmountCents, l.Description})
			}
		}
		return out
	}

	a := newTestAssembler(t)
	first, err := a.Assemble(customerWithMode(directorydomain.ModeSeparate), testPeriod, charges, adjustments)
	require.NoError(t, err)
	second, err := a.Assemble(customerWithMode(directorydomain.ModeSeparate), testPeriod, charges, adjustments)
	require.NoError(t, err)

	assert.Equal(t, flatten(first), flatten(second))
}

func TestAssembleStorageLineDescribesDimensionedContainers(t *testing.T) {
	a := newTestAssembler(t)

	// 10 standard boxes at $0.32 plus a $20.16 volume-priced container.
	withDimensioned := deptCharge(1, "HR", 10, 10*32+2016)
	invoices, err := a.Assemble(customerWithMode(directorydomain.ModeSeparate), testPeriod, toMap(withDimensioned), nil)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	require.Len(t, invoices[0].Lines, 1)
	line := invoices[0].Lines[0]
	assert.Equal(t, int64(10*32+2016), line.AmountCents)
	assert.Contains(t, line.Description, "10 standard containers at $0.32")
	assert.Contains(t, line.Description, "dimensioned containers $20.16")

	// Standard boxes only: no dimensioned-container mention.
	standardOnly := deptCharge(2, "Legal", 200, 200*32)
	invoices, err = a.Assemble(customerWithMode(directorydomain.ModeSeparate), testPeriod, toMap(standardOnly), nil)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.NotContains(t, invoices[0].Lines[0].Description, "dimensioned")
}

func TestAssembleUnknownModeRejected(t *testing.T) {
	a := newTestAssembler(t)
	_, err := a.Assemble(customerWithMode("metered"), testPeriod, nil, nil)
	assert.ErrorIs(t, err, minimum.ErrUnknownMode)
}
