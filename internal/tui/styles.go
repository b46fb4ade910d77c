// Package tui renders stlthumb's terminal output: styled summaries and a
// live progress view for batch runs.
package tui

import "github.com/charmbracelet/lipgloss"

// Styles
var (
	baseDimFg = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#6B7280"}
	accentFg  = lipgloss.Color("#7C3AED")
	okFg      = lipgloss.Color("#10B981")
	warnFg    = lipgloss.Color("#F59E0B")
	errFg     = lipgloss.Color("#EF4444")
	borderCol = lipgloss.Color("#243141")

	BoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(borderCol).Padding(0, 1)
	TitleStyle = lipgloss.NewStyle().Foreground(accentFg).Bold(true)
	DimStyle   = lipgloss.NewStyle().Foreground(baseDimFg)
	OKStyle    = lipgloss.NewStyle().Foreground(okFg)
	WarnStyle  = lipgloss.NewStyle().Foreground(warnFg)
	ErrStyle   = lipgloss.NewStyle().Foreground(errFg).Bold(true)
	LabelStyle = lipgloss.NewStyle().Foreground(baseDimFg).Width(12)
)

// KV renders aligned "label value" rows.
func KV(rows ...[2]string) string {
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = lipgloss.JoinHorizontal(lipgloss.Top, LabelStyle.Render(r[0]), r[1])
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Tag renders a tag title as a coloured chip.
func Tag(title, bg, fg string) string {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(bg)).
		Foreground(lipgloss.Color(fg)).
		Padding(0, 1).
		Render(title)
}
