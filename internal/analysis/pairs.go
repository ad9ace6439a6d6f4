package analysis

import (
	"context"
	"strings"

	"github.com/xuri/efp"

	"github.com/mhon-emma/Impact-Venture/internal/workbook"
)

// ScanPairs walks every row of every sheet and emits a pair for each label
// cell directly followed by a number. Pairs are returned in sheet order,
// then row-major order. No deduplication is applied.
func ScanPairs(ctx context.Context, wb *workbook.Workbook) ([]KeywordValuePair, error) {
	var out []KeywordValuePair
	for _, s := range wb.Sheets {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out = append(out, scanSheetPairs(s)...)
	}
	return out, nil
}

func scanSheetPairs(s *workbook.Sheet) []KeywordValuePair {
	var out []KeywordValuePair
	for r := 0; r < s.Rows(); r++ {
		for c := 0; c+1 < s.Cols(); c++ {
			label, val := s.At(r, c), s.At(r, c+1)
			if !IsPotentialKeyword(label) || !IsNumeric(val) {
				continue
			}
			p := KeywordValuePair{
				Keyword:  label.Text,
				Value:    val.Number,
				Location: Location{Sheet: s.Name, Row: r, Col: c + 1},
			}
			p.Origin, p.Formula = originAt(s, r, c+1)
			if p.Origin == OriginFormula {
				p.References = FormulaReferences(p.Formula)
			}
			out = append(out, p)
		}
	}
	return out
}

// originAt reports whether the value at (r, c) was computed, and by which
// formula.
func originAt(s *workbook.Sheet, r, c int) (Origin, string) {
	if f := s.FormulaAt(r, c); strings.HasPrefix(f, workbook.FormulaSigil) {
		return OriginFormula, f
	}
	return OriginHardcoded, ""
}

// FormulaReferences lists the cell and range operands a formula reads, in
// order of first appearance, with absolute markers removed.
func FormulaReferences(formula string) []string {
	ps := efp.ExcelParser()
	var refs []string
	seen := map[string]bool{}
	for _, tok := range ps.Parse(strings.TrimPrefix(formula, workbook.FormulaSigil)) {
		if tok.TType != efp.TokenTypeOperand || tok.TSubType != efp.TokenSubTypeRange {
			continue
		}
		ref := strings.ReplaceAll(tok.TValue, "$", "")
		if ref == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		refs = append(refs, ref)
	}
	return refs
}
