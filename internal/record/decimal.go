package record

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

var ErrBadDecimal = errors.New("malformed decimal")

// Decimal is a fixed-point value: Unscaled * 10^-Scale.
type Decimal struct {
	Unscaled int64
	Scale    int32
}

func NewDecimal(unscaled int64, scale int32) Decimal {
	return Decimal{Unscaled: unscaled, Scale: scale}
}

// ParseDecimal accepts an optional sign, digits and at most one decimal point.
func ParseDecimal(s string) (Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Decimal{}, ErrBadDecimal
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	if strings.ContainsAny(fracPart, "+-") {
		return Decimal{}, fmt.Errorf("%w: %q", ErrBadDecimal, s)
	}
	u, err := strconv.ParseInt(intPart+fracPart, 10, 64)
	if err != nil {
		return Decimal{}, fmt.Errorf("%w: %q", ErrBadDecimal, s)
	}
	return Decimal{Unscaled: u, Scale: int32(len(fracPart))}, nil
}

func (d Decimal) Rat() *big.Rat {
	den := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs32(d.Scale))), nil)
	if d.Scale < 0 {
		return new(big.Rat).SetInt(new(big.Int).Mul(big.NewInt(d.Unscaled), den))
	}
	return new(big.Rat).SetFrac(big.NewInt(d.Unscaled), den)
}

// Cmp compares numeric values, so 1.50 and 1.5 are equal.
func (d Decimal) Cmp(o Decimal) int {
	if d.Scale == o.Scale {
		switch {
		case d.Unscaled < o.Unscaled:
			return -1
		case d.Unscaled > o.Unscaled:
			return 1
		}
		return 0
	}
	return d.Rat().Cmp(o.Rat())
}

func (d Decimal) String() string {
	if d.Scale <= 0 {
		return d.Rat().FloatString(0)
	}
	return d.Rat().FloatString(int(d.Scale))
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
