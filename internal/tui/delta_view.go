package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/greenops"
)

// minTruncateLen is the shortest width that still gets an ellipsis.
const minTruncateLen = 3

// deltaStyle picks the arrow, sign and color for a signed change where an
// increase is bad for the footprint.
func deltaStyle(sign float64) (icon, prefix string, color lipgloss.Color) {
	switch {
	case sign > 0:
		return IconArrowUp, "+", ColorWarning
	case sign < 0:
		return IconArrowDown, "-", ColorOK
	default:
		return IconArrowRight, "", ColorMuted
	}
}

// RenderCarbonDelta renders a signed change in kg CO2 with a directional
// arrow. Increases are shown in the warning color, reductions in the OK
// color. Values that round to zero at the display precision render as flat.
func RenderCarbonDelta(deltaKg float64, opts engine.RenderOptions) string {
	display, err := greenops.ConvertFromKg(deltaKg, opts.Unit)
	if err != nil {
		display = deltaKg
	}
	scale := math.Pow(10, float64(max(opts.Precision, 0)))
	rounded := greenops.RoundHalfUp(display*scale) / scale

	icon, prefix, color := deltaStyle(rounded)
	formatted := greenops.FormatCarbon(math.Abs(deltaKg), opts.Unit, opts.Precision)
	style := lipgloss.NewStyle().Foreground(color).Bold(true)
	return style.Render(fmt.Sprintf("%s%s %s", prefix, formatted, icon))
}

// RenderPercentDelta renders a benchmark percentage delta with an arrow.
func RenderPercentDelta(pct int) string {
	icon, _, color := deltaStyle(float64(pct))
	style := lipgloss.NewStyle().Foreground(color).Bold(true)
	return style.Render(fmt.Sprintf("%s %s", greenops.FormatPercent(pct, true), icon))
}

// RenderBenchmark renders a footprint against its regional average.
func RenderBenchmark(footprintKg float64, c greenops.Comparison, opts engine.RenderOptions) string {
	var sb strings.Builder

	sb.WriteString(LabelStyle.Render("You:       "))
	sb.WriteString(ValueStyle.Render(greenops.FormatCarbon(footprintKg, opts.Unit, opts.Precision)))
	sb.WriteString("\n")

	sb.WriteString(LabelStyle.Render(fmt.Sprintf("%-11s", "Avg ("+c.Region+"):")))
	sb.WriteString(ValueStyle.Render(greenops.FormatCarbon(c.RegionalAverage, opts.Unit, opts.Precision)))
	sb.WriteString("\n")

	sb.WriteString(LabelStyle.Render("Delta:     "))
	sb.WriteString(RenderPercentDelta(c.PercentageDelta))
	sb.WriteString("\n")

	sb.WriteString(InfoStyle.Render(c.Message))
	return sb.String()
}

// truncate shortens s to maxLen runes, ending with an ellipsis when there
// is room for one.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= minTruncateLen {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-minTruncateLen]) + "..."
}
