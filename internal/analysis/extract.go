// Package analysis extracts labeled financial facts from workbook grids:
// keyword/number pairs, assumptions, return metrics and cash-flow series.
package analysis

import (
	"context"
	"log/slog"

	"github.com/mhon-emma/Impact-Venture/internal/workbook"
)

// Options controls an extraction run.
type Options struct {
	// Keywords holds the term lists; the zero value means DefaultKeywordSets.
	Keywords KeywordSets
	// MatchMode selects substring (default) or whole-word term matching.
	MatchMode MatchMode
	// TableMode selects first (default) or all cash-flow tables.
	TableMode TableMode
	// Logger receives per-sheet debug output; nil means slog.Default.
	Logger *slog.Logger
}

// DefaultOptions returns the heuristic defaults.
func DefaultOptions() Options {
	return Options{
		Keywords:  DefaultKeywordSets(),
		MatchMode: MatchSubstring,
		TableMode: TableModeFirst,
	}
}

func (o Options) withDefaults() Options {
	if len(o.Keywords.Returns) == 0 && len(o.Keywords.CashFlow) == 0 &&
		len(o.Keywords.GenericAssumptions) == 0 && len(o.Keywords.DomainAssumptions) == 0 {
		o.Keywords = DefaultKeywordSets()
	}
	if o.MatchMode == "" {
		o.MatchMode = MatchSubstring
	}
	if o.TableMode == "" {
		o.TableMode = TableModeFirst
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Extract runs the heuristic scanners over wb in one synchronous pass.
// Cancellation is checked between sheets only: on cancel the result built
// from the completed sheets is returned together with ctx.Err().
func Extract(ctx context.Context, wb *workbook.Workbook, opt Options) (*Result, error) {
	opt = opt.withDefaults()
	m := NewMatcher(opt.Keywords, opt.MatchMode)
	x := NewCashFlowExtractor(opt.Keywords.CashFlowRows)
	b := newBuilder(wb.Name, opt.TableMode)
	log := opt.Logger.With("workbook", wb.Name)

	for _, s := range wb.Sheets {
		if err := ctx.Err(); err != nil {
			log.Debug("extraction cancelled", "next_sheet", s.Name)
			return b.finish(), err
		}
		if s.Rows() == 0 {
			b.warn(ExtractionWarning{Sheet: s.Name, Row: -1, Col: -1, Reason: "sheet is empty"})
			log.Debug("skipping empty sheet", "sheet", s.Name)
			continue
		}
		before := counts(b.res)
		b.addPairs(scanSheetPairs(s))
		m.matchAssumptions(s, b)
		m.matchReturns(s, b)
		extractTables(m, x, s, b)
		after := counts(b.res)
		log.Debug("sheet scanned",
			"sheet", s.Name,
			"rows", s.Rows(),
			"cols", s.Cols(),
			"pairs", after.pairs-before.pairs,
			"assumptions", after.assumptions-before.assumptions,
			"returns", after.returns-before.returns,
			"tables", after.tables-before.tables,
		)
	}
	return b.finish(), nil
}

// extractTables tries every marker cell of s in row-major order, subject to
// the builder's table mode.
func extractTables(m *Matcher, x *CashFlowExtractor, s *workbook.Sheet, b *builder) {
	for _, at := range m.Markers(s) {
		if !b.wantsTable(s.Name, at.Row) {
			if b.mode != TableModeAll {
				return
			}
			continue
		}
		t, ok := x.Extract(s, at)
		if !ok {
			b.warn(ExtractionWarning{Sheet: s.Name, Row: at.Row, Col: at.Col, Reason: "cash-flow marker without a period header"})
			continue
		}
		b.addTable(t)
	}
}

type tally struct{ pairs, assumptions, returns, tables int }

func counts(r *Result) tally {
	return tally{len(r.Pairs), len(r.Assumptions), len(r.Returns), len(r.CashFlowTables)}
}
