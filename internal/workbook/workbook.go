// Package workbook turns spreadsheet files into positional grids: a values
// view holding resolved cell content and a parallel formulas view holding
// raw formula text.
package workbook

import "fmt"

// Workbook is an ordered list of sheets, in workbook order.
type Workbook struct {
	Name   string
	Sheets []*Sheet
}

// Sheet holds two equal-shaped grids indexed by (row, column), 0-based from
// A1. The shape covers the sheet's full used range; trailing blank rows and
// columns inside that range are kept.
type Sheet struct {
	Name     string
	Values   [][]Cell
	Formulas [][]string
}

// NewSheet builds a sheet from a values grid and an optional formulas grid.
// Both grids are padded to a common rectangular shape.
func NewSheet(name string, values [][]Cell, formulas [][]string) *Sheet {
	rows := len(values)
	if len(formulas) > rows {
		rows = len(formulas)
	}
	cols := 0
	for _, r := range values {
		if len(r) > cols {
			cols = len(r)
		}
	}
	for _, r := range formulas {
		if len(r) > cols {
			cols = len(r)
		}
	}
	s := &Sheet{Name: name}
	s.resize(rows, cols)
	for i, r := range values {
		copy(s.Values[i], r)
	}
	for i, r := range formulas {
		copy(s.Formulas[i], r)
	}
	return s
}

func (s *Sheet) resize(rows, cols int) {
	s.Values = make([][]Cell, rows)
	s.Formulas = make([][]string, rows)
	for i := 0; i < rows; i++ {
		s.Values[i] = make([]Cell, cols)
		s.Formulas[i] = make([]string, cols)
	}
}

// Rows returns the number of rows in the used range.
func (s *Sheet) Rows() int { return len(s.Values) }

// Cols returns the width of the widest row. Sheets built by NewSheet or Load
// are rectangular; hand-built sheets may be ragged.
func (s *Sheet) Cols() int {
	n := 0
	for _, r := range s.Values {
		n = max(n, len(r))
	}
	return n
}

// At returns the value at (r, c). Coordinates outside the grid read as empty.
func (s *Sheet) At(r, c int) Cell {
	if r < 0 || c < 0 || r >= len(s.Values) || c >= len(s.Values[r]) {
		return Empty()
	}
	return s.Values[r][c]
}

// FormulaAt returns the raw formula text at (r, c), or "" when the cell holds
// no formula or lies outside the grid.
func (s *Sheet) FormulaAt(r, c int) string {
	if r < 0 || c < 0 || r >= len(s.Formulas) || c >= len(s.Formulas[r]) {
		return ""
	}
	return s.Formulas[r][c]
}

// Sheet returns the sheet with the given name, or nil.
func (w *Workbook) Sheet(name string) *Sheet {
	for _, s := range w.Sheets {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// CellName converts 0-based coordinates into an A1-style reference.
func CellName(row, col int) string {
	return fmt.Sprintf("%s%d", ColumnName(col), row+1)
}

// ColumnName converts a 0-based column index into letters (0 -> A, 26 -> AA).
func ColumnName(col int) string {
	n := col + 1
	var buf []byte
	for n > 0 {
		n--
		buf = append([]byte{byte('A' + n%26)}, buf...)
		n /= 26
	}
	return string(buf)
}
