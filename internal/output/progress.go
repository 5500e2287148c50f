package output

import (
	"fmt"
	"strings"
)

// RateBar renders a visual bar for a 0-1 fraction.
// Example: "████████░░ 80%"
func RateBar(rate float64, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := int(rate * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	var style func(string) string
	switch {
	case rate >= 0.7:
		style = func(s string) string { return StyleSuccess.Render(s) }
	case rate >= 0.4:
		style = func(s string) string { return StyleWarning.Render(s) }
	default:
		style = func(s string) string { return StyleError.Render(s) }
	}

	return fmt.Sprintf("%s %s", style(bar), StyleMuted.Render(fmt.Sprintf("%.0f%%", rate*100)))
}

// Section prints a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", 66))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}
