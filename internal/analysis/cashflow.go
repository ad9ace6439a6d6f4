package analysis

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mhon-emma/Impact-Venture/internal/workbook"
)

// TableMode controls how many cash-flow tables a run keeps.
type TableMode string

const (
	// TableModeFirst stops at the first marker that yields a non-empty table.
	TableModeFirst TableMode = "first"
	// TableModeAll tries every marker and keeps each distinct table.
	TableModeAll TableMode = "all"
)

// ParseTableMode accepts "", "first" or "all".
func ParseTableMode(s string) (TableMode, error) {
	switch TableMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", TableModeFirst:
		return TableModeFirst, nil
	case TableModeAll:
		return TableModeAll, nil
	default:
		return "", fmt.Errorf("unknown table mode %q (want first or all)", s)
	}
}

// CashFlowExtractor reconstructs a period table below a cash-flow marker.
type CashFlowExtractor struct {
	// HeaderWindow is how many rows, starting at the marker row, may hold
	// the period header.
	HeaderWindow int
	// MinPeriods is the number of period-like cells a header row needs.
	MinPeriods int
	// BodyWindow bounds the data rows scanned: header+1 up to header+BodyWindow-1.
	BodyWindow int
	// RowMarkers are the label fragments that make a row a data row.
	RowMarkers []string

	lower cases.Caser
}

// NewCashFlowExtractor returns an extractor with the standard windows.
func NewCashFlowExtractor(rowMarkers []string) *CashFlowExtractor {
	if len(rowMarkers) == 0 {
		rowMarkers = DefaultKeywordSets().CashFlowRows
	}
	x := &CashFlowExtractor{
		HeaderWindow: 5,
		MinPeriods:   3,
		BodyWindow:   20,
		lower:        cases.Lower(language.Und),
	}
	for _, m := range rowMarkers {
		x.RowMarkers = append(x.RowMarkers, x.lower.String(m))
	}
	return x
}

// Extract builds the table anchored at the marker cell at. ok is false when
// no header row is found; a table with a header but no data rows is returned
// with ok true and no series.
func (x *CashFlowExtractor) Extract(s *workbook.Sheet, at Location) (CashFlowTable, bool) {
	header, ok := x.findHeader(s, at.Row)
	if !ok {
		return CashFlowTable{}, false
	}
	t := CashFlowTable{
		Sheet:     s.Name,
		MarkerRow: at.Row,
		MarkerCol: at.Col,
		HeaderRow: header,
		EndRow:    header,
	}
	for r := header + 1; r < s.Rows() && r < header+x.BodyWindow; r++ {
		t.EndRow = r
		label := s.At(r, 0)
		if label.IsEmpty() || !x.isDataRow(label.String()) {
			continue
		}
		series := CashFlowSeries{Label: label.String(), Sheet: s.Name, Row: r}
		for c := 1; c < s.Cols(); c++ {
			v := s.At(r, c)
			if v.IsEmpty() {
				continue
			}
			p := Period{Index: c, Value: v}
			if amt, ok := v.Amount(); ok {
				p.Amount = &amt
			}
			series.Periods = append(series.Periods, p)
		}
		if len(series.Periods) > 0 {
			t.Series = append(t.Series, series)
		}
	}
	return t, true
}

func (x *CashFlowExtractor) findHeader(s *workbook.Sheet, start int) (int, bool) {
	for r := start; r < s.Rows() && r < start+x.HeaderWindow; r++ {
		n := 0
		for c := 1; c < s.Cols(); c++ {
			if IsPeriodLike(s.At(r, c)) {
				n++
			}
		}
		if n >= x.MinPeriods {
			return r, true
		}
	}
	return 0, false
}

func (x *CashFlowExtractor) isDataRow(label string) bool {
	l := x.lower.String(label)
	for _, m := range x.RowMarkers {
		if strings.Contains(l, m) {
			return true
		}
	}
	return false
}
