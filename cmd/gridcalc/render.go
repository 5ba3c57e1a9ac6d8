package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/vogtb/go-gridcalc/packages/spreadsheet"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	errorStyle  = cellStyle.Foreground(lipgloss.Color("9"))
)

// cellText renders one evaluated cell, optionally followed by the formula
// it came from
func cellText(raw spreadsheet.Primitive, value spreadsheet.CellValue, showRaw bool) string {
	text := value.String()
	if s, ok := raw.(string); showRaw && ok && strings.HasPrefix(s, "=") {
		text += " (" + s + ")"
	}
	return text
}

func gridCells(snap spreadsheet.Snapshot, showRaw bool) [][]string {
	cells := make([][]string, len(snap.Evaluated))
	for r, row := range snap.Evaluated {
		cells[r] = make([]string, len(row))
		for c, value := range row {
			cells[r][c] = cellText(snap.Raw[r][c], value, showRaw)
		}
	}
	return cells
}

// renderGrid writes the evaluated grid in the configured style. title is
// omitted when empty.
func renderGrid(w io.Writer, title string, snap spreadsheet.Snapshot, opts OutputConfig) error {
	if opts.Style == stylePlain {
		return renderPlain(w, title, snap, opts.ShowRaw)
	}
	return renderTable(w, title, snap, opts.ShowRaw)
}

func renderPlain(w io.Writer, title string, snap spreadsheet.Snapshot, showRaw bool) error {
	if title != "" {
		if _, err := fmt.Fprintf(w, "# %s\n", title); err != nil {
			return err
		}
	}
	for _, row := range gridCells(snap, showRaw) {
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return nil
}

func renderTable(w io.Writer, title string, snap spreadsheet.Snapshot, showRaw bool) error {
	cells := gridCells(snap, showRaw)

	cols := 0
	if len(cells) > 0 {
		cols = len(cells[0])
	}
	headers := make([]string, cols+1)
	for c := range cols {
		headers[c+1] = spreadsheet.ColumnLabel(uint32(c))
	}

	rows := make([][]string, len(cells))
	for r, row := range cells {
		rows[r] = append([]string{strconv.Itoa(r + 1)}, row...)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow || col == 0:
				return headerStyle
			case snap.Evaluated[row][col-1].IsError():
				return errorStyle
			default:
				return cellStyle
			}
		})

	if title != "" {
		if _, err := fmt.Fprintln(w, titleStyle.Render(title)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
