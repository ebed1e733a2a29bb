package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	colorAccent = lipgloss.Color("#00ff9f")
	colorDim    = lipgloss.Color("#6e7681")
	colorFail   = lipgloss.Color("#ff5f5f")
	colorWarn   = lipgloss.Color("#ffd75f")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = cellStyle.Foreground(colorDim)
	passStyle   = cellStyle.Foreground(colorAccent)
	failStyle   = cellStyle.Bold(true).Foreground(colorFail)
	warnStyle   = cellStyle.Foreground(colorWarn)
)

// newTable returns a table with the shared border and header styling.
// cell picks the style of body cells.
func newTable(headers []string, rows [][]string, cell func(row, col int) lipgloss.Style) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if cell == nil {
				return cellStyle
			}
			return cell(row, col)
		})
}
