// Package preview renders the proposed renames as a terminal table.
package preview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/On-Jun9/ShutterRename/pkg/types"
)

var (
	ColorStatusOK      = lipgloss.Color("40")  // Green
	ColorStatusWarning = lipgloss.Color("214") // Orange/Yellow
	ColorStatusError   = lipgloss.Color("196") // Red
	ColorUnchanged     = lipgloss.Color("244") // Dim gray

	HeaderStyle        = lipgloss.NewStyle().Bold(true).Underline(true)
	StatusStyleOK      = lipgloss.NewStyle().Foreground(ColorStatusOK)
	StatusStyleWarning = lipgloss.NewStyle().Foreground(ColorStatusWarning)
	StatusStyleError   = lipgloss.NewStyle().Foreground(ColorStatusError)
	UnchangedStyle     = lipgloss.NewStyle().Foreground(ColorUnchanged)
)

const columnGap = "  "

var headers = []string{"STATUS", "FILE", "NEW NAME", "SIZE", "MESSAGE"}

func statusCell(status types.HealthStatus) (string, lipgloss.Style) {
	switch status {
	case types.HealthOK:
		return "OK", StatusStyleOK
	case types.HealthWarning:
		return "WARNING", StatusStyleWarning
	default:
		return "ERROR", StatusStyleError
	}
}

// Render lays out one row per entry. Entries whose name does not change show
// their new name dimmed.
func Render(entries []types.FileEntry) string {
	rows := make([][]string, len(entries))
	styles := make([][]lipgloss.Style, len(entries))
	plain := lipgloss.NewStyle()

	for i, e := range entries {
		label, statusStyle := statusCell(e.Status)
		newNameStyle := plain
		if !e.NeedsRename() {
			newNameStyle = UnchangedStyle
		}
		rows[i] = []string{label, e.Filename, e.NewFilename, e.Size, e.StatusMessage}
		styles[i] = []lipgloss.Style{statusStyle, plain, newNameStyle, plain, plain}
	}

	widths := make([]int, len(headers))
	for c, h := range headers {
		widths[c] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for c, cell := range row {
			widths[c] = max(widths[c], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	writeRow(&b, headers, widths, func(int) lipgloss.Style { return HeaderStyle })
	for i, row := range rows {
		writeRow(&b, row, widths, func(c int) lipgloss.Style { return styles[i][c] })
	}
	return b.String()
}

func writeRow(b *strings.Builder, cells []string, widths []int, style func(int) lipgloss.Style) {
	last := len(cells) - 1
	for c, cell := range cells {
		if c == last {
			// no padding after the last column
			b.WriteString(style(c).Render(cell))
			break
		}
		b.WriteString(style(c).Render(cell))
		b.WriteString(strings.Repeat(" ", widths[c]-lipgloss.Width(cell)))
		b.WriteString(columnGap)
	}
	b.WriteString("\n")
}

// Footer summarizes the batch below the table.
func Footer(entries []types.FileEntry, plan *types.RenamePlan) string {
	ok, warnings, errors := 0, 0, 0
	for _, e := range entries {
		switch e.Status {
		case types.HealthOK:
			ok++
		case types.HealthWarning:
			warnings++
		default:
			errors++
		}
	}

	planned := 0
	if !plan.Empty() {
		planned = len(plan.Entries)
	}
	return fmt.Sprintf("%d file(s), %d to rename (%s %d, %s %d, %s %d)",
		len(entries), planned,
		StatusStyleOK.Render("ok"), ok,
		StatusStyleWarning.Render("warning"), warnings,
		StatusStyleError.Render("error"), errors)
}
