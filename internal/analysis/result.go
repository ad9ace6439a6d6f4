package analysis

import (
	"encoding/json"
	"fmt"

	"github.com/mhon-emma/Impact-Venture/internal/workbook"
)

// Value is a resolved text|number cell value carried by matcher results.
type Value = workbook.Cell

// Location addresses a cell by sheet and 0-based row/column.
type Location struct {
	Sheet string `json:"sheet"`
	Row   int    `json:"row"`
	Col   int    `json:"col"`
}

// A1 returns the location as Sheet!B3.
func (l Location) A1() string {
	return fmt.Sprintf("%s!%s", l.Sheet, workbook.CellName(l.Row, l.Col))
}

func (l Location) String() string { return l.A1() }

// Origin tells whether a value was typed in or computed by a formula.
type Origin string

const (
	OriginHardcoded Origin = "hardcoded"
	OriginFormula   Origin = "formula"
)

// KeywordValuePair is a label cell immediately followed by a number.
// Location points at the value cell.
type KeywordValuePair struct {
	Keyword    string   `json:"keyword"`
	Value      float64  `json:"value"`
	Origin     Origin   `json:"origin"`
	Formula    string   `json:"formula,omitempty"`
	References []string `json:"references,omitempty"`
	Location   Location `json:"location"`
}

// Category names a financial-return metric bucket.
type Category string

const (
	CategoryNPV          Category = "npv"
	CategoryIRR          Category = "irr"
	CategoryPayback      Category = "payback_period"
	CategoryROI          Category = "roi"
	CategoryProfitMargin Category = "profit_margin"
	CategoryOther        Category = "other"
)

// ReturnCategories lists the fixed categories in match priority order.
var ReturnCategories = []Category{CategoryNPV, CategoryIRR, CategoryPayback, CategoryROI, CategoryProfitMargin}

// Title returns a display name for the category.
func (c Category) Title() string {
	switch c {
	case CategoryNPV:
		return "NPV"
	case CategoryIRR:
		return "IRR"
	case CategoryPayback:
		return "Payback Period"
	case CategoryROI:
		return "ROI"
	case CategoryProfitMargin:
		return "Profit Margin"
	default:
		return string(c)
	}
}

// ReturnMetric is a labeled return figure. Location is the value cell; it
// and Origin are unset for enrichment results.
type ReturnMetric struct {
	Category Category  `json:"category"`
	Label    string    `json:"label"`
	Value    Value     `json:"value"`
	Origin   Origin    `json:"origin,omitempty"`
	Formula  string    `json:"formula,omitempty"`
	Location *Location `json:"location,omitempty"`
}

// AssumptionKind distinguishes generic input labels from domain terms.
type AssumptionKind string

const (
	AssumptionGeneric AssumptionKind = "generic"
	AssumptionDomain  AssumptionKind = "domain"
)

// Assumption is a labeled model input. Location is the value cell.
type Assumption struct {
	Label    string         `json:"label"`
	Value    Value          `json:"value"`
	Kind     AssumptionKind `json:"kind,omitempty"`
	Origin   Origin         `json:"origin,omitempty"`
	Formula  string         `json:"formula,omitempty"`
	Location *Location      `json:"location,omitempty"`
}

// Period is one entry of a cash-flow series. Index is the 1-based column
// offset from the label column. Amount is set when Value reads as a number.
type Period struct {
	Index  int      `json:"period"`
	Value  Value    `json:"value"`
	Amount *float64 `json:"amount,omitempty"`
}

// CashFlowSeries is one labeled row of a cash-flow table.
type CashFlowSeries struct {
	Label   string   `json:"label"`
	Sheet   string   `json:"sheet,omitempty"`
	Row     int      `json:"row"`
	Periods []Period `json:"periods"`
}

// First returns the first period's value, or an empty value.
func (s CashFlowSeries) First() Value {
	if len(s.Periods) == 0 {
		return workbook.Empty()
	}
	return s.Periods[0].Value
}

// Last returns the last period's value, or an empty value.
func (s CashFlowSeries) Last() Value {
	if len(s.Periods) == 0 {
		return workbook.Empty()
	}
	return s.Periods[len(s.Periods)-1].Value
}

// CashFlowTable is a header row plus the data rows found beneath it.
type CashFlowTable struct {
	Sheet     string           `json:"sheet"`
	MarkerRow int              `json:"marker_row"`
	MarkerCol int              `json:"marker_col"`
	HeaderRow int              `json:"header_row"`
	EndRow    int              `json:"end_row"`
	Series    []CashFlowSeries `json:"series"`
}

// covers reports whether (sheet, row) falls inside the table's scanned span.
func (t CashFlowTable) covers(sheet string, row int) bool {
	return t.Sheet == sheet && row >= t.HeaderRow && row <= t.EndRow
}

// Source tells which path produced a Result.
type Source string

const (
	SourceHeuristic  Source = "heuristic"
	SourceEnrichment Source = "enrichment"
)

// ExtractionWarning records a sheet or cell that was skipped. Row and Col
// are -1 when the warning applies to the whole sheet.
type ExtractionWarning struct {
	Sheet  string `json:"sheet"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Reason string `json:"reason"`
}

func (w ExtractionWarning) Error() string {
	if w.Row < 0 {
		return fmt.Sprintf("sheet %q: %s", w.Sheet, w.Reason)
	}
	return fmt.Sprintf("%s: %s", Location{Sheet: w.Sheet, Row: w.Row, Col: max(w.Col, 0)}.A1(), w.Reason)
}

// Result aggregates everything one extraction run found. It is owned by the
// run that built it and holds copies of cell values only.
type Result struct {
	Workbook       string                    `json:"workbook"`
	Source         Source                    `json:"source"`
	Summary        string                    `json:"summary"`
	Pairs          []KeywordValuePair        `json:"pairs"`
	Assumptions    []Assumption              `json:"assumptions"`
	Returns        map[Category]ReturnMetric `json:"returns"`
	OtherMetrics   []ReturnMetric            `json:"other_metrics"`
	CashFlows      []CashFlowSeries          `json:"cash_flows"`
	CashFlowTables []CashFlowTable           `json:"cash_flow_tables,omitempty"`
	Warnings       []ExtractionWarning       `json:"warnings,omitempty"`
}

// NewResult returns an empty result with non-nil collections so JSON output
// carries [] and {} rather than null.
func NewResult(name string, src Source) *Result {
	return &Result{
		Workbook:     name,
		Source:       src,
		Pairs:        []KeywordValuePair{},
		Assumptions:  []Assumption{},
		Returns:      map[Category]ReturnMetric{},
		OtherMetrics: []ReturnMetric{},
		CashFlows:    []CashFlowSeries{},
	}
}

// Hardcoded returns the pairs whose value was typed in.
func (r *Result) Hardcoded() []KeywordValuePair { return r.pairsByOrigin(OriginHardcoded) }

// FormulaDerived returns the pairs whose value cell holds a formula.
func (r *Result) FormulaDerived() []KeywordValuePair { return r.pairsByOrigin(OriginFormula) }

func (r *Result) pairsByOrigin(o Origin) []KeywordValuePair {
	var out []KeywordValuePair
	for _, p := range r.Pairs {
		if p.Origin == o {
			out = append(out, p)
		}
	}
	return out
}

// Return looks up the metric for a category.
func (r *Result) Return(c Category) (ReturnMetric, bool) {
	m, ok := r.Returns[c]
	return m, ok
}

// JSON renders the result as indented JSON. Map keys are sorted by
// encoding/json, so equal results render identically.
func (r *Result) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// builder accumulates one run's findings under explicit conflict rules.
type builder struct {
	res    *Result
	labels map[string]bool
	mode   TableMode
	first  bool // a non-empty table has been recorded
}

func newBuilder(name string, mode TableMode) *builder {
	return &builder{
		res:    NewResult(name, SourceHeuristic),
		labels: map[string]bool{},
		mode:   mode,
	}
}

func (b *builder) addPairs(ps []KeywordValuePair) {
	b.res.Pairs = append(b.res.Pairs, ps...)
}

// addAssumption inserts a unless an assumption with the same label exists.
func (b *builder) addAssumption(a Assumption) bool {
	if b.labels[a.Label] {
		return false
	}
	b.labels[a.Label] = true
	b.res.Assumptions = append(b.res.Assumptions, a)
	return true
}

// setReturn records m unless its category is already filled.
func (b *builder) setReturn(m ReturnMetric) bool {
	if m.Category == CategoryOther {
		b.res.OtherMetrics = append(b.res.OtherMetrics, m)
		return true
	}
	if _, ok := b.res.Returns[m.Category]; ok {
		return false
	}
	b.res.Returns[m.Category] = m
	return true
}

// wantsTable reports whether a marker at (sheet, row) should be tried.
func (b *builder) wantsTable(sheet string, row int) bool {
	if b.mode != TableModeAll {
		return !b.first
	}
	for _, t := range b.res.CashFlowTables {
		if t.covers(sheet, row) {
			return false
		}
	}
	return true
}

// addTable records t. The first non-empty table also supplies CashFlows.
func (b *builder) addTable(t CashFlowTable) bool {
	if len(t.Series) == 0 {
		return false
	}
	for _, seen := range b.res.CashFlowTables {
		if seen.Sheet == t.Sheet && seen.HeaderRow == t.HeaderRow {
			return false
		}
	}
	if !b.first {
		b.first = true
		b.res.CashFlows = append(b.res.CashFlows, t.Series...)
	}
	b.res.CashFlowTables = append(b.res.CashFlowTables, t)
	return true
}

func (b *builder) warn(w ExtractionWarning) {
	b.res.Warnings = append(b.res.Warnings, w)
}

func (b *builder) finish() *Result {
	b.res.Summary = Summarize(b.res)
	return b.res
}
