package costs

import (
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
)

// MonthLabels are the column headers of the cost table.
var MonthLabels = [12]string{"Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct", "Nov", "Dic"}

var longMonths = [12]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// LongMonth returns the capitalized month name, or "" when out of range.
func LongMonth(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return longMonths[month-1]
}

// Compact formats v with two decimals and a K/M/B suffix. Zero is "0".
func Compact(v float64) string {
	if v == 0 {
		return "0"
	}
	abs := math.Abs(v)
	switch {
	case abs >= 1e9:
		return strconv.FormatFloat(v/1e9, 'f', 2, 64) + "B"
	case abs >= 1e6:
		return strconv.FormatFloat(v/1e6, 'f', 2, 64) + "M"
	case abs >= 1e3:
		return strconv.FormatFloat(v/1e3, 'f', 2, 64) + "K"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Amount formats v with thousands separators and two decimals.
func Amount(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

// Currency prefixes Amount with symbol, keeping the sign in front.
func Currency(symbol string, v float64) string {
	if v < 0 {
		return "-" + symbol + Amount(-v)
	}
	return symbol + Amount(v)
}
