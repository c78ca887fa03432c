package tui

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/greenops"
)

// Layout constants.
const (
	borderPadding    = 4
	defaultWidth     = 80
	minWidth         = 40
	barWidth         = 24
	categoryLabelLen = 15
	maxSuggestionLen = 70
	targetWarnPct    = 75
	targetFullPct    = 100
)

// Progress bar glyphs.
const (
	barFilled = "█"
	barEmpty  = "░"
)

// RenderDashboard renders the dashboard as stacked boxed sections sized to
// width. A non-positive width uses 80 columns.
func RenderDashboard(d engine.Dashboard, opts engine.RenderOptions, width int) string {
	if width <= 0 {
		width = defaultWidth
	}
	width = max(width, minWidth)
	box := BoxStyle.Width(width - borderPadding)

	sections := []string{
		box.Render(renderSummary(d, opts)),
		box.Render(renderStreak(d)),
		box.Render(HeaderStyle.Render("BENCHMARK") + "\n" + RenderBenchmark(d.Today.Emissions, d.Benchmark, opts)),
		box.Render(renderBreakdown(d, opts)),
		box.Render(renderAchievements(d.Achievements)),
	}
	if len(d.Suggestions) > 0 {
		sections = append(sections, box.Render(renderSuggestions(d.Suggestions)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderSummary(d engine.Dashboard, opts engine.RenderOptions) string {
	carbon := func(kg float64) string { return greenops.FormatCarbon(kg, opts.Unit, opts.Precision) }

	var content strings.Builder
	content.WriteString(HeaderStyle.Render(fmt.Sprintf("%s CARBON LEDGER  %s", IconLeaf, d.Date)))
	content.WriteString("\n")

	content.WriteString(LabelStyle.Render("Today:       "))
	content.WriteString(ValueStyle.Render(carbon(d.Today.Emissions)))
	content.WriteString("  ")
	content.WriteString(SubtleStyle.Render(d.FootprintStatus))
	content.WriteString("\n")

	content.WriteString(LabelStyle.Render("Emissions:   "))
	content.WriteString(ValueStyle.Render(carbon(d.TotalEmissions)))
	content.WriteString(LabelStyle.Render("    Activities: "))
	content.WriteString(ValueStyle.Render(strconv.Itoa(d.ActivityCount)))
	content.WriteString("\n")

	content.WriteString(LabelStyle.Render("Savings:     "))
	content.WriteString(ValueStyle.Render(carbon(d.TotalSavings)))
	content.WriteString(LabelStyle.Render("    Actions: "))
	content.WriteString(ValueStyle.Render(strconv.Itoa(d.PositiveActionCount)))
	content.WriteString("\n")

	content.WriteString(LabelStyle.Render("Net:         "))
	content.WriteString(RenderCarbonDelta(d.NetFootprint, opts))
	content.WriteString("\n")

	content.WriteString(LabelStyle.Render("Daily avg:   "))
	content.WriteString(ValueStyle.Render(carbon(d.AverageDailyEmissions)))
	content.WriteString("\n")

	content.WriteString(LabelStyle.Render("Month:       "))
	content.WriteString(renderTargetBar(d.MonthlyTargetProgress))
	content.WriteString(" ")
	content.WriteString(SubtleStyle.Render(fmt.Sprintf("%s%% of %s",
		greenops.FormatFloat(d.MonthlyTargetProgress, 0), carbon(d.MonthlyTargetKg))))

	if !d.Equivalencies.IsEmpty && d.Equivalencies.DisplayText != "" {
		content.WriteString("\n")
		content.WriteString(InfoStyle.Render(d.Equivalencies.DisplayText))
	}
	if d.Rewards != nil {
		content.WriteString("\n")
		content.WriteString(LabelStyle.Render("Rewards:     "))
		content.WriteString(ValueStyle.Render(fmt.Sprintf("%d %s", d.Rewards.Tokens, d.Rewards.Symbol)))
	}
	return content.String()
}

func renderStreak(d engine.Dashboard) string {
	var content strings.Builder
	content.WriteString(HeaderStyle.Render("STREAK"))
	content.WriteString("\n")
	content.WriteString(LabelStyle.Render("Current: "))
	content.WriteString(ValueStyle.Render(pluralDays(d.CurrentStreak)))
	content.WriteString(LabelStyle.Render("    Best: "))
	content.WriteString(ValueStyle.Render(pluralDays(d.LongestStreak)))
	content.WriteString("\n")

	style := OKStyle
	if d.CurrentStreak == 0 {
		style = WarningStyle
	}
	content.WriteString(style.Render(d.StreakStatus))
	return content.String()
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return strconv.Itoa(n) + " days"
}

// renderBreakdown lists categories by descending total with a share bar.
func renderBreakdown(d engine.Dashboard, opts engine.RenderOptions) string {
	var content strings.Builder
	content.WriteString(HeaderStyle.Render("BREAKDOWN"))

	if d.ActivityCount == 0 {
		content.WriteString("\n")
		content.WriteString(InfoStyle.Render("No activities logged yet."))
		return content.String()
	}

	cats := greenops.Categories()
	sort.SliceStable(cats, func(i, j int) bool {
		return d.CategoryTotals[cats[i]] > d.CategoryTotals[cats[j]]
	})
	for _, c := range cats {
		share := d.Breakdown[c]
		content.WriteString("\n")
		content.WriteString(LabelStyle.Render(fmt.Sprintf("%-*s", categoryLabelLen, truncate(c.Label(), categoryLabelLen))))
		content.WriteString(" ")
		content.WriteString(renderBar(float64(share), ColorHighlight))
		content.WriteString(ValueStyle.Render(fmt.Sprintf(" %3d%%", share)))
		content.WriteString(SubtleStyle.Render("  " + greenops.FormatCarbon(d.CategoryTotals[c], opts.Unit, opts.Precision)))
	}
	return content.String()
}

func renderAchievements(achievements []engine.Achievement) string {
	var content strings.Builder
	content.WriteString(HeaderStyle.Render("ACHIEVEMENTS"))
	for _, a := range achievements {
		content.WriteString("\n")
		if a.Unlocked {
			content.WriteString(OKStyle.Render(IconUnlocked + " " + a.Name))
		} else {
			content.WriteString(SubtleStyle.Render(IconLocked + " " + a.Name))
		}
		content.WriteString(SubtleStyle.Render("  " + a.Description))
	}
	return content.String()
}

func renderSuggestions(suggestions []string) string {
	var content strings.Builder
	content.WriteString(HeaderStyle.Render("SUGGESTIONS"))
	for _, s := range suggestions {
		content.WriteString("\n")
		content.WriteString(ValueStyle.Render("• "))
		content.WriteString(truncate(s, maxSuggestionLen))
	}
	return content.String()
}

// renderTargetBar colors the monthly target bar by how much is used.
func renderTargetBar(pct float64) string {
	color := ColorOK
	switch {
	case pct >= targetFullPct:
		color = ColorCritical
	case pct >= targetWarnPct:
		color = ColorWarning
	}
	return renderBar(pct, color)
}

// renderBar draws a fixed-width bar filled to pct, clamped to [0, 100].
func renderBar(pct float64, color lipgloss.Color) string {
	pct = math.Max(0, math.Min(targetFullPct, pct))
	filled := int(greenops.RoundHalfUp(pct / targetFullPct * barWidth))
	return lipgloss.NewStyle().Foreground(color).Render(strings.Repeat(barFilled, filled)) +
		SubtleStyle.Render(strings.Repeat(barEmpty, barWidth-filled))
}
