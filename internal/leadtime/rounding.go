package leadtime

import (
	"fmt"
	"math"
)

// Rounding selects how totals are rounded to whole days
type Rounding string

const (
	RoundHalfEven Rounding = "half_even"
	RoundHalfUp   Rounding = "half_up"
)

// ParseRounding maps a config value onto a Rounding, defaulting to half-even
func ParseRounding(s string) (Rounding, error) {
	switch Rounding(s) {
	case "", RoundHalfEven:
		return RoundHalfEven, nil
	case RoundHalfUp:
		return RoundHalfUp, nil
	}
	return "", fmt.Errorf("unknown rounding mode %q", s)
}

// Round rounds v to 0 decimal places
func (r Rounding) Round(v float64) float64 {
	if r == RoundHalfUp {
		return math.Floor(v + 0.5)
	}
	return math.RoundToEven(v)
}
