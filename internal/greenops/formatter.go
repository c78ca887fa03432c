package greenops

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer is the locale-aware message printer for number formatting.
// Uses English locale for consistent thousand separators.
//
//nolint:gochecknoglobals // Global printer is idiomatic for x/text/message usage.
var printer = message.NewPrinter(language.English)

// FormatNumber formats an integer with thousand separators.
// Example: FormatNumber(18248) returns "18,248".
func FormatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatFloat formats a float with the specified precision and thousand separators.
// Example: FormatFloat(1234.567, 2) returns "1,234.57".
func FormatFloat(f float64, precision int) string {
	if precision < 0 {
		precision = 0
	}
	const base = 10
	multiplier := math.Pow(base, float64(precision))
	rounded := RoundHalfUp(f*multiplier) / multiplier

	if precision == 0 {
		return FormatNumber(int64(rounded))
	}

	formatted := fmt.Sprintf("%.*f", precision, math.Abs(rounded))
	intPart, fracPart, _ := strings.Cut(formatted, ".")

	var n int64
	for _, c := range intPart {
		n = n*base + int64(c-'0')
	}

	sign := ""
	if rounded < 0 {
		sign = "-"
	}
	return sign + printer.Sprintf("%d", n) + "." + fracPart
}

// FormatCarbon renders a kilogram amount in the given display unit, e.g.
// FormatCarbon(1234.5, "kg", 2) returns "1,234.50 kg CO2".
// An unrecognized unit falls back to kilograms.
func FormatCarbon(kg float64, unit string, precision int) string {
	v, err := ConvertFromKg(kg, unit)
	if err != nil {
		v, unit = kg, MassKilograms
	}
	return FormatFloat(v, precision) + " " + strings.ToLower(unit) + " CO2"
}

// FormatPercent renders an integer percentage with an explicit sign for
// deltas, e.g. FormatPercent(5, true) returns "+5%".
func FormatPercent(p int, signed bool) string {
	if signed && p > 0 {
		return fmt.Sprintf("+%d%%", p)
	}
	return fmt.Sprintf("%d%%", p)
}

// FormatLarge formats large numbers with abbreviated notation.
//
// Values below LargeNumberThreshold (1 million) use comma-separated format.
// Values at or above LargeNumberThreshold use "~X.X million" format.
// Values at or above BillionThreshold use "~X.X billion" format.
//
// Example: FormatLarge(1500000000) returns "~1.5 billion".
func FormatLarge(n float64) string {
	if n >= BillionThreshold {
		return fmt.Sprintf("~%.1f billion", n/BillionThreshold)
	}
	if n >= LargeNumberThreshold {
		return fmt.Sprintf("~%.1f million", n/LargeNumberThreshold)
	}
	return FormatNumber(int64(math.Round(n)))
}
