package volume

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var standardBox = Dimensions{Length: 15, Width: 12, Height: 10}

func newTestPricer(t *testing.T) *Pricer {
	t.Helper()
	p, err := NewPricer(standardBox, 600)
	require.NoError(t, err)
	return p
}

func TestPriceTable(t *testing.T) {
	p := newTestPricer(t)

	cases := []struct {
		name string
		dims Dimensions
		want int64
	}{
		{"standard box prices at standard rate", standardBox, 600},
		{"oversize 18x28x12", Dimensions{18, 28, 12}, 2016}, // 6048/1800 = 3.36 -> $20.16
		{"half volume bills fractional", Dimensions{15, 12, 5}, 300},
		{"tiny box", Dimensions{1, 1, 1}, 0}, // 1/1800 * 600 = 0.33 cents, rounds to 0
		{"double volume", Dimensions{15, 24, 10}, 1200},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := p.Price(tc.dims)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPriceRejectsInvalidDimensions(t *testing.T) {
	p := newTestPricer(t)

	for _, dims := range []Dimensions{
		{0, 12, 10},
		{15, -1, 10},
		{15, 12, 0},
		{101, 12, 10},
		{15, 12, 100.5},
	} {
		_, err := p.Price(dims)
		assert.ErrorIs(t, err, ErrInvalidDimension, "%+v", dims)
	}
}

func TestPriceMonotonicInVolume(t *testing.T) {
	p := newTestPricer(t)

	var prev int64 = -1
	for h := 1.0; h <= 100; h += 1.5 {
		got, err := p.Price(Dimensions{Length: 10, Width: 10, Height: h})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, prev, "height %v", h)
		prev = got
	}
}

func TestNewPricerValidatesStandardBox(t *testing.T) {
	_, err := NewPricer(Dimensions{0, 12, 10}, 600)
	assert.ErrorIs(t, err, ErrInvalidStandardBox)

	_, err = NewPricer(standardBox, 0)
	assert.ErrorIs(t, err, ErrInvalidStandardBox)
}
