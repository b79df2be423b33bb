package minimum

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recordbay/recordbay/internal/charge"
	directorydomain "github.com/recordbay/recordbay/internal/directory/domain"
)

func dept(id int64, name string, storage, service, minimum int64) *charge.DepartmentCharge {
	return &charge.DepartmentCharge{
		Department: directorydomain.Department{
			ID:   snowflake.ID(id),
			Name: name,
		},
		StorageCents:    storage,
		ServiceCents:    service,
		MinimumFeeCents: minimum,
	}
}

func chargeSet(cs ...*charge.DepartmentCharge) map[snowflake.ID]*charge.DepartmentCharge {
	m := make(map[snowflake.ID]*charge.DepartmentCharge, len(cs))
	for _, c := range cs {
		m[c.Department.ID] = c
	}
	return m
}

func TestSeparateModeAdjustsEachDepartmentIndependently(t *testing.T) {
	// HR: 10 containers at $0.32 = $3.20, minimum $45 -> $41.80 adjustment.
	// Legal: 200 containers at $0.32 = $64.00, minimum $45 -> untouched.
	charges := chargeSet(
		dept(1, "HR", 320, 0, 4500),
		dept(2, "Legal", 6400, 0, 4500),
	)

	lines, err := Enforce(charges, directorydomain.ModeSeparate, 4500)
	require.NoError(t, err)
	require.Len(t, lines, 1)

	assert.Equal(t, snowflake.ID(1), *lines[0].DepartmentID)
	assert.Equal(t, int64(4180), lines[0].AmountCents)

	// Each department ends at or above its minimum.
	assert.Equal(t, int64(4500), charges[1].TotalCents()+lines[0].AmountCents)
	assert.GreaterOrEqual(t, charges[2].TotalCents(), int64(4500))
}

func TestSeparateModeCountsServicesTowardMinimum(t *testing.T) {
	charges := chargeSet(dept(1, "HR", 320, 4300, 4500))

	lines, err := Enforce(charges, directorydomain.ModeSeparate, 4500)
	require.NoError(t, err)
	assert.Empty(t, lines) // 320 + 4300 = 4620 >= 4500
}

func TestSeparateModeZeroActivityGetsFullMinimum(t *testing.T) {
	charges := chargeSet(dept(1, "Archive", 0, 0, 4500))

	lines, err := Enforce(charges, directorydomain.ModeSeparate, 4500)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(4500), lines[0].AmountCents)
}

func TestSeparateModeAdjustmentsDoNotOffset(t *testing.T) {
	// A surplus in one department never covers a deficit in another.
	charges := chargeSet(
		dept(1, "HR", 100, 0, 4500),
		dept(2, "Legal", 1_000_000, 0, 4500),
	)

	lines, err := Enforce(charges, directorydomain.ModeSeparate, 4500)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(4400), lines[0].AmountCents)
}

func TestConsolidatedModePoolsStorage(t *testing.T) {
	t.Run("above minimum, no adjustment", func(t *testing.T) {
		charges := chargeSet(
			dept(1, "HR", 66089, 0, 4500),
			dept(2, "Legal", 100000, 0, 4500),
		)
		lines, err := Enforce(charges, directorydomain.ModeConsolidated, 4500)
		require.NoError(t, err)
		assert.Empty(t, lines)
	})

	t.Run("below minimum, one company line", func(t *testing.T) {
		charges := chargeSet(
			dept(1, "HR", 1000, 0, 4500),
			dept(2, "Legal", 2000, 0, 4500),
		)
		lines, err := Enforce(charges, directorydomain.ModeConsolidated, 4500)
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Nil(t, lines[0].DepartmentID)
		assert.Equal(t, int64(1500), lines[0].AmountCents)
	})

	t.Run("services never count toward the pool", func(t *testing.T) {
		charges := chargeSet(dept(1, "HR", 1000, 99999, 4500))
		lines, err := Enforce(charges, directorydomain.ModeConsolidated, 4500)
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, int64(3500), lines[0].AmountCents)
	})
}

func TestHybridModeMatchesConsolidatedPooling(t *testing.T) {
	charges := chargeSet(
		dept(1, "HR", 1000, 700, 4500),
		dept(2, "Legal", 2000, 0, 4500),
	)

	lines, err := Enforce(charges, directorydomain.ModeHybrid, 4500)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Nil(t, lines[0].DepartmentID)
	assert.Equal(t, int64(1500), lines[0].AmountCents)
}

func TestNoCompanyMinimumMeansNoPooledAdjustment(t *testing.T) {
	charges := chargeSet(dept(1, "HR", 0, 0, 0))

	lines, err := Enforce(charges, directorydomain.ModeConsolidated, 0)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestUnknownModeRejected(t *testing.T) {
	_, err := Enforce(nil, directorydomain.BillingMode("metered"), 0)
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestAdjustedTotalConservation(t *testing.T) {
	charges := chargeSet(
		dept(1, "HR", 320, 150, 4500),
		dept(2, "Legal", 6400, 0, 4500),
	)

	for _, mode := range []directorydomain.BillingMode{
		directorydomain.ModeConsolidated,
		directorydomain.ModeSeparate,
		directorydomain.ModeHybrid,
	} {
		lines, err := Enforce(charges, mode, 4500)
		require.NoError(t, err)

		var want int64 = 320 + 150 + 6400
		for _, l := range lines {
			want += l.AmountCents
		}
		assert.Equal(t, want, AdjustedTotalCents(charges, lines), mode)
	}
}
