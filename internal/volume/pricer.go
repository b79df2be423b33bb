// Package volume prices non-standard containers by cubic volume relative to
// the company's reference standard box.
package volume

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxDimension bounds each axis; the largest vault rack accepts nothing
// deeper than 100 units.
const MaxDimension = 100.0

var (
	ErrInvalidDimension   = errors.New("invalid_dimension")
	ErrInvalidStandardBox = errors.New("invalid_standard_box")
)

type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (d Dimensions) validate() error {
	for _, axis := range []struct {
		name  string
		value float64
	}{
		{"length", d.Length},
		{"width", d.Width},
		{"height", d.Height},
	} {
		if !(axis.value > 0) || axis.value > MaxDimension {
			return fmt.Errorf("%w: %s %v out of (0, %v]",
				ErrInvalidDimension, axis.name, axis.value, MaxDimension)
		}
	}
	return nil
}

func (d Dimensions) volume() float64 {
	return d.Length * d.Width * d.Height
}

// Pricer scales the standard box rate by the ratio of a container's volume to
// the standard box volume. Ratios below 1.0 are billed at the fractional
// rate; fairness cuts both directions.
type Pricer struct {
	standard     Dimensions
	rateCents    int64
	standardVol  decimal.Decimal
	standardRate decimal.Decimal
}

// NewPricer validates the reference box once at construction; a degenerate
// standard volume is a configuration fault, not a per-call condition.
func NewPricer(standard Dimensions, standardRateCents int64) (*Pricer, error) {
	if err := standard.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStandardBox, err)
	}
	if standardRateCents <= 0 {
		return nil, fmt.Errorf("%w: rate %d", ErrInvalidStandardBox, standardRateCents)
	}
	return &Pricer{
		standard:     standard,
		rateCents:    standardRateCents,
		standardVol:  decimal.NewFromFloat(standard.volume()),
		standardRate: decimal.NewFromInt(standardRateCents),
	}, nil
}

func (p *Pricer) Standard() Dimensions { return p.standard }

func (p *Pricer) StandardRateCents() int64 { return p.rateCents }

// Price returns the fair price in cents for a container of the given
// dimensions: round(volume/standardVolume * standardRate) with banker's
// rounding to the currency minor unit.
func (p *Pricer) Price(dims Dimensions) (int64, error) {
	if err := dims.validate(); err != nil {
		return 0, err
	}
	ratio := decimal.NewFromFloat(dims.volume()).Div(p.standardVol)
	return ratio.Mul(p.standardRate).RoundBank(0).IntPart(), nil
}
