package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Table represents a simple text table
type Table struct {
	Headers []string
	Rows    [][]string
}

// NewTable creates a new table
func NewTable(headers ...string) *Table {
	return &Table{
		Headers: headers,
		Rows:    make([][]string, 0),
	}
}

// AddRow adds a row to the table
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Print prints the table to stdout
func (t *Table) Print() {
	t.Fprint(os.Stdout)
}

// Fprint writes the table to w. An empty table prints nothing.
func (t *Table) Fprint(w io.Writer) {
	if len(t.Rows) == 0 {
		return
	}

	// Calculate column widths
	widths := make([]int, len(t.Headers))
	for i, header := range t.Headers {
		widths[i] = len(header)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	fmt.Fprintln(w, formatRow(t.Headers, widths))
	for _, row := range t.Rows {
		fmt.Fprintln(w, formatRow(row, widths))
	}
}

func formatRow(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		// last column is never padded
		if i < len(widths) && i < len(cells)-1 {
			parts[i] = padRight(cell, widths[i])
		} else {
			parts[i] = cell
		}
	}
	return strings.Join(parts, "  ")
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

// PrintJSON prints data as JSON
func PrintJSON(v interface{}) error {
	return FprintJSON(os.Stdout, v)
}

// FprintJSON writes data as indented JSON to w
func FprintJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
