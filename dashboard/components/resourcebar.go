package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	barStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	emptyBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	criticalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// RenderMemoryBar draws a labeled memory-utilization bar, color-coded green
// under 75%, yellow 75-90%, red 90%+. used/capacity are raw Oracle memory
// units.
func RenderMemoryBar(label string, used, capacity int64, width int) string {
	percent := 0.0
	if capacity > 0 {
		percent = float64(used) / float64(capacity) * 100
	}

	barWidth := width - len(label) - 30
	if barWidth < 10 {
		barWidth = 10
	}

	filled := int((percent / 100.0) * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	empty := barWidth - filled

	style := barStyle
	switch {
	case percent >= 90:
		style = criticalStyle
	case percent >= 75:
		style = warningStyle
	}

	bar := style.Render(strings.Repeat("█", filled)) +
		emptyBarStyle.Render(strings.Repeat("░", empty))

	return fmt.Sprintf("%s [%s] %5.1f%% (%s / %s)",
		label, bar, percent, FormatBytes(used), FormatBytes(capacity))
}

// RenderPercentBar draws a labeled bar for an already-computed percentage,
// for a ratio metric that has no natural used/capacity pair.
func RenderPercentBar(label string, percent float64, width int) string {
	barWidth := width - len(label) - 10
	if barWidth < 10 {
		barWidth = 10
	}

	filled := int((percent / 100.0) * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	empty := barWidth - filled

	style := barStyle
	switch {
	case percent >= 90:
		style = criticalStyle
	case percent >= 75:
		style = warningStyle
	}

	bar := style.Render(strings.Repeat("█", filled)) +
		emptyBarStyle.Render(strings.Repeat("░", empty))

	return fmt.Sprintf("%s [%s] %5.1f%%", label, bar, percent)
}

// FormatBytes converts a raw memory quantity to a human-readable string.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d MB", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	units := []string{"GB", "TB", "PB", "EB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), units[exp])
}
