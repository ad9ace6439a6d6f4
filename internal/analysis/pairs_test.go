package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhon-emma/Impact-Venture/internal/workbook"
)

func TestScanPairsHardcoded(t *testing.T) {
	s := grid("Assumptions", []any{"Discount Rate", 0.12})
	pairs := scanSheetPairs(s)
	require.Len(t, pairs, 1)
	assert.Equal(t, KeywordValuePair{
		Keyword:  "Discount Rate",
		Value:    0.12,
		Origin:   OriginHardcoded,
		Location: Location{Sheet: "Assumptions", Row: 0, Col: 1},
	}, pairs[0])
}

func TestScanPairsFormulaOrigin(t *testing.T) {
	s := workbook.NewSheet("Assumptions",
		[][]workbook.Cell{{workbook.Text("Discount Rate"), workbook.Number(0.12)}},
		[][]string{{"", "=B2*1.1"}},
	)
	pairs := scanSheetPairs(s)
	require.Len(t, pairs, 1)
	p := pairs[0]
	assert.Equal(t, OriginFormula, p.Origin)
	assert.Equal(t, "=B2*1.1", p.Formula)
	assert.Equal(t, []string{"B2"}, p.References)
	assert.Equal(t, "Assumptions!B1", p.Location.A1())
}

func TestScanPairsSkipsNonPairs(t *testing.T) {
	s := grid("S",
		[]any{"Tax Rate", "25.0%"},  // value is text
		[]any{"123", 5},             // numeric-looking label
		[]any{"=A1", 5},             // formula literal label
		[]any{"Units", "", 10000},   // not adjacent
		[]any{"Price", 10, "Qty", 3}, // two pairs in one row
	)
	pairs := scanSheetPairs(s)
	require.Len(t, pairs, 2)
	assert.Equal(t, "Price", pairs[0].Keyword)
	assert.Equal(t, "Qty", pairs[1].Keyword)
	assert.Equal(t, 3, pairs[1].Location.Col)
}

func TestScanPairsKeepsDuplicates(t *testing.T) {
	wb := book(
		grid("A", []any{"Revenue", 100}, []any{"Revenue", 200}),
		grid("B", []any{"Revenue", 300}),
	)
	pairs, err := ScanPairs(context.Background(), wb)
	require.NoError(t, err)
	require.Len(t, pairs, 3)
	assert.Equal(t, []float64{100, 200, 300}, []float64{pairs[0].Value, pairs[1].Value, pairs[2].Value})
	assert.Equal(t, "B", pairs[2].Location.Sheet)
}

func TestScanPairsRaggedAndEmptySheets(t *testing.T) {
	ragged := &workbook.Sheet{
		Name:   "Ragged",
		Values: [][]workbook.Cell{{workbook.Text("NPV")}, {}, {workbook.Text("IRR"), workbook.Number(0.1), workbook.Empty()}},
	}
	empty := &workbook.Sheet{Name: "Empty"}
	var pairs []KeywordValuePair
	require.NotPanics(t, func() {
		var err error
		pairs, err = ScanPairs(context.Background(), book(ragged, empty))
		require.NoError(t, err)
	})
	require.Len(t, pairs, 1)
	assert.Equal(t, "IRR", pairs[0].Keyword)
	assert.Equal(t, 0.1, pairs[0].Value)
	assert.Equal(t, OriginHardcoded, pairs[0].Origin)
	assert.Equal(t, Location{Sheet: "Ragged", Row: 2, Col: 1}, pairs[0].Location)
}

func TestFormulaReferences(t *testing.T) {
	assert.Equal(t, []string{"B1:B3", "C4"}, FormulaReferences("=SUM(B1:B3)*$C$4"))
	assert.Equal(t, []string{"B2"}, FormulaReferences("=B2+B2"))
	assert.Empty(t, FormulaReferences("=1+2"))
}
