package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ecotrail/ecotrail/internal/eco"
)

var (
	styleHeader = lipgloss.NewStyle().Foreground(lipgloss.Color("#fe8019")).Bold(true)
	styleDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("#928374"))
	styleGreen  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8ec07c")).Bold(true)
)

// printer renders command output, styled only when writing to a terminal.
type printer struct {
	styled bool
}

func (p printer) render(s lipgloss.Style, text string) string {
	if !p.styled {
		return text
	}
	return s.Render(text)
}

// table aligns columns by visible width so styled cells pad correctly.
func (p printer) table(headers []string, rows [][]string) string {
	const colGap = 2

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(headers) && i < len(row); i++ {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string, style *lipgloss.Style) {
		for i := range headers {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := widths[i] - lipgloss.Width(cell)
			if style != nil {
				cell = p.render(*style, cell)
			}
			b.WriteString(cell)
			if i < len(headers)-1 {
				b.WriteString(strings.Repeat(" ", pad+colGap))
			}
		}
		b.WriteString("\n")
	}

	writeRow(headers, &styleHeader)
	seps := make([]string, len(widths))
	for i, w := range widths {
		seps[i] = strings.Repeat("─", w)
	}
	writeRow(seps, &styleDim)
	for _, row := range rows {
		writeRow(row, nil)
	}
	return b.String()
}

func (p printer) catalog(c *eco.Catalog) string {
	actions := make([][]string, 0, len(c.Actions()))
	for _, a := range c.Actions() {
		actions = append(actions, []string{a.ID, fmt.Sprint(a.Points), a.Label})
	}
	badges := make([][]string, 0, len(c.Badges()))
	for _, b := range c.Badges() {
		badges = append(badges, []string{b.Name, fmt.Sprint(b.Threshold), b.Icon})
	}
	return p.table([]string{"ACTION", "POINTS", "LABEL"}, actions) + "\n" +
		p.table([]string{"BADGE", "THRESHOLD", "ICON"}, badges)
}

func (p printer) result(n int, r eco.SubmissionResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d earned=%d total=%d", n, r.PointsEarned, r.TotalPoints)
	if len(r.NewlyEarned) > 0 {
		b.WriteString(" new=[" + p.render(styleGreen, strings.Join(r.NewlyEarned, ", ")) + "]")
	}
	if r.NextBadge != nil {
		b.WriteString(p.render(styleDim, fmt.Sprintf(" next=%s(+%d)", r.NextBadge.Name, r.NextBadge.Gap)))
	}
	b.WriteString("\n")
	return b.String()
}
