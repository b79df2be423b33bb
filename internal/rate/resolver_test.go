package rate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	directorydomain "github.com/recordbay/recordbay/internal/directory/domain"
)

func cents(v int64) *int64 { return &v }

func TestResolvePrecedence(t *testing.T) {
	r := NewResolver(Book{DefaultStorageRateCents: 32, DefaultMinimumFeeCents: 4500})

	customer := &directorydomain.Customer{Mode: directorydomain.ModeSeparate}
	dept := &directorydomain.Department{Name: "HR"}

	t.Run("company default wins when nothing overrides", func(t *testing.T) {
		res, err := r.Resolve(customer, dept)
		require.NoError(t, err)
		assert.Equal(t, int64(32), res.StorageRateCents)
		assert.Equal(t, int64(4500), res.MinimumFeeCents)
		assert.Equal(t, directorydomain.ModeSeparate, res.Mode)
	})

	t.Run("customer default beats company", func(t *testing.T) {
		c := *customer
		c.StorageRateCents = cents(40)
		c.MinimumFeeCents = cents(5000)
		res, err := r.Resolve(&c, dept)
		require.NoError(t, err)
		assert.Equal(t, int64(40), res.StorageRateCents)
		assert.Equal(t, int64(5000), res.MinimumFeeCents)
	})

	t.Run("department override beats both", func(t *testing.T) {
		c := *customer
		c.StorageRateCents = cents(40)
		d := *dept
		d.StorageRateCents = cents(25)
		d.MinimumFeeCents = cents(1000)
		res, err := r.Resolve(&c, &d)
		require.NoError(t, err)
		assert.Equal(t, int64(25), res.StorageRateCents)
		assert.Equal(t, int64(1000), res.MinimumFeeCents)
	})

	t.Run("explicit zero department rate is honored", func(t *testing.T) {
		d := *dept
		d.StorageRateCents = cents(0)
		res, err := r.Resolve(customer, &d)
		require.NoError(t, err)
		assert.Equal(t, int64(0), res.StorageRateCents)
	})
}

func TestResolveFailsWithoutAnyRate(t *testing.T) {
	r := NewResolver(Book{})

	_, err := r.Resolve(
		&directorydomain.Customer{Mode: directorydomain.ModeConsolidated},
		&directorydomain.Department{Name: "Legal"},
	)
	assert.ErrorIs(t, err, ErrRateNotConfigured)
}

func TestCompanyMinimum(t *testing.T) {
	r := NewResolver(Book{DefaultMinimumFeeCents: 4500})

	assert.Equal(t, int64(4500), r.CompanyMinimum(&directorydomain.Customer{}))
	assert.Equal(t, int64(9900), r.CompanyMinimum(&directorydomain.Customer{MinimumFeeCents: cents(9900)}))
}
