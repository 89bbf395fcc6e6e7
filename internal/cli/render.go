package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme colors (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorBlue      = lipgloss.Color("#4385BE")
	ColorPurple    = lipgloss.Color("#8B7EC8")
)

// Styles
var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(ColorText).Align(lipgloss.Center)
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	valueStyle     = lipgloss.NewStyle().Foreground(ColorText)
	mutedStyle     = lipgloss.NewStyle().Foreground(ColorTextMuted)
	dimStyle       = lipgloss.NewStyle().Foreground(ColorTextDim)
	costStyle      = lipgloss.NewStyle().Foreground(ColorGreen)
	tokenStyle     = lipgloss.NewStyle().Foreground(ColorBlue)
	warnStyle      = lipgloss.NewStyle().Foreground(ColorOrange)
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(ColorBlue)
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorPurple)
)

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int // optional column widths, auto-calculated if nil
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	width := 55
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(width).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderTable renders a bordered table with headers and rows. A row of
// exactly {"---"} renders as a separator. Columns after the first are
// right-aligned.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	numCols := len(t.Headers)
	if numCols == 0 {
		numCols = len(t.Rows[0])
	}
	widths := t.Widths
	if widths == nil {
		widths = columnWidths(numCols, t.Headers, t.Rows)
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  " + headerStyle.Render(t.Title) + "\n")
	}

	b.WriteString(tableRule(widths, "╭", "┬", "╮"))
	if len(t.Headers) > 0 {
		b.WriteString(tableRow(widths, t.Headers, headerStyle, false))
		b.WriteString(tableRule(widths, "├", "┼", "┤"))
	}
	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			b.WriteString(tableRule(widths, "├", "┼", "┤"))
			continue
		}
		b.WriteString(tableRow(widths, row, valueStyle, true))
	}
	b.WriteString(tableRule(widths, "╰", "┴", "╯"))
	return b.String()
}

// columnWidths sizes each column to its widest cell in display cells.
func columnWidths(numCols int, headers []string, rows [][]string) []int {
	widths := make([]int, numCols)
	for _, row := range append([][]string{headers}, rows...) {
		for i, cell := range row {
			if i < numCols {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}
	return widths
}

func tableRule(widths []int, left, mid, right string) string {
	segs := make([]string, len(widths))
	for i, w := range widths {
		segs[i] = strings.Repeat("─", w+2)
	}
	return dimStyle.Render(left+strings.Join(segs, mid)+right) + "\n"
}

func tableRow(widths []int, row []string, style lipgloss.Style, alignRight bool) string {
	sep := dimStyle.Render("│")
	var b strings.Builder
	b.WriteString(sep)
	for i, w := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		b.WriteString(style.Render(" " + padCell(cell, w, alignRight && i > 0) + " "))
		b.WriteString(sep)
	}
	return b.String() + "\n"
}

// padCell pads s to w display cells.
func padCell(s string, w int, right bool) string {
	pad := strings.Repeat(" ", max(0, w-lipgloss.Width(s)))
	if right {
		return pad + s
	}
	return s + pad
}

// RenderProgressBar renders a simple text progress bar.
func RenderProgressBar(current, total int, width int) string {
	if total <= 0 {
		return ""
	}

	pct := float64(current) / float64(total)
	if pct > 1 {
		pct = 1
	}

	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("[%s] %s/%s",
		mutedStyle.Render(bar),
		FormatNumber(int64(current)),
		FormatNumber(int64(total)),
	)
}

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// RenderSparkline maps values onto eight block heights scaled to the
// largest value.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	top := slices.Max(values)
	if top <= 0 {
		top = 1
	}

	out := make([]rune, len(values))
	for i, v := range values {
		idx := int(v / top * float64(len(sparkBlocks)-1))
		out[i] = sparkBlocks[max(0, min(idx, len(sparkBlocks)-1))]
	}
	return string(out)
}

// RenderBar renders value as a bar scaled so maxValue fills maxWidth cells.
func RenderBar(value, maxValue float64, maxWidth int) string {
	if maxValue <= 0 || maxWidth <= 0 {
		return ""
	}
	barLen := int(value / maxValue * float64(maxWidth))
	barLen = max(0, min(barLen, maxWidth))
	return strings.Repeat("█", barLen)
}

// RenderWarning renders a one-line warning.
func RenderWarning(msg string) string {
	return warnStyle.Render("  ! " + msg)
}

// RenderMuted renders secondary text such as footers and hints.
func RenderMuted(msg string) string {
	return mutedStyle.Render(msg)
}

// RenderCost renders a formatted cost in the cost color.
func RenderCost(cost float64) string { return costStyle.Render(FormatCost(cost)) }

// RenderTokens renders a formatted token count in the token color.
func RenderTokens(tokens int64) string { return tokenStyle.Render(FormatTokens(tokens)) }
