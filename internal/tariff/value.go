package tariff

import (
	"math"
	"strconv"
	"strings"
)

// Value is an optional monthly amount. The zero value is null.
type Value struct {
	Amount float64
	Valid  bool
}

// Null returns an absent value.
func Null() Value { return Value{} }

// Num returns a present value. Non-finite numbers collapse to null.
func Num(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{Amount: v, Valid: true}
}

// IsNull reports whether the value is absent.
func (v Value) IsNull() bool { return !v.Valid }

// Equal compares two values; all nulls are equal.
func (v Value) Equal(o Value) bool {
	if !v.Valid || !o.Valid {
		return v.Valid == o.Valid
	}
	return v.Amount == o.Amount
}

func (v Value) String() string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Amount, 'f', -1, 64)
}

// ParseValue coerces raw cell input. Empty or non-numeric input is null.
func ParseValue(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Null()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Null()
	}
	return Num(f)
}
