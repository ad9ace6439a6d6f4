package analysis

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mhon-emma/Impact-Venture/internal/workbook"
)

func writeModel(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", "Assumptions")
	f.SetCellValue("Assumptions", "A1", "Tax Rate")
	f.SetCellValue("Assumptions", "B1", "25.0%")
	f.SetCellValue("Assumptions", "A2", "Discount Rate")
	f.SetCellValue("Assumptions", "B2", 0.12)

	f.NewSheet("Projections")
	f.SetCellValue("Projections", "A1", "Cash Flow Projection")
	f.SetSheetRow("Projections", "B2", &[]any{"Year 1", "Year 2", "Year 3"})
	f.SetSheetRow("Projections", "A3", &[]any{"Net Cash Flow", -100, 50, 80})

	path := filepath.Join(t.TempDir(), "model.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestExtractEndToEnd(t *testing.T) {
	wb, err := workbook.Load(writeModel(t))
	require.NoError(t, err)

	res, err := Extract(context.Background(), wb, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, SourceHeuristic, res.Source)
	assert.Equal(t, "model.xlsx", res.Workbook)

	require.Len(t, res.Assumptions, 2)
	assert.Equal(t, "Tax Rate", res.Assumptions[0].Label)
	assert.Equal(t, workbook.Text("25.0%"), res.Assumptions[0].Value)
	assert.Equal(t, "Discount Rate", res.Assumptions[1].Label)
	assert.Equal(t, workbook.Number(0.12), res.Assumptions[1].Value)

	// the adjacency scan sees Discount Rate but not the text percentage
	hard := res.Hardcoded()
	require.NotEmpty(t, hard)
	assert.Equal(t, "Discount Rate", hard[0].Keyword)
	assert.Equal(t, 0.12, hard[0].Value)
	for _, p := range res.Pairs {
		assert.NotEqual(t, "Tax Rate", p.Keyword)
	}
	assert.Empty(t, res.FormulaDerived())

	require.Len(t, res.CashFlows, 1)
	assert.Equal(t, "Net Cash Flow", res.CashFlows[0].Label)
	assert.Equal(t, [][2]any{
		{1, workbook.Number(-100)},
		{2, workbook.Number(50)},
		{3, workbook.Number(80)},
	}, periodsOf(res.CashFlows[0]))
	assert.Empty(t, res.Warnings)
}

// The header search starts at the marker row. When the first marker is the
// data row itself, its numeric cells qualify as periods, so the row becomes
// its own header and no body rows follow. A title row above the header (as in
// writeModel) is what makes the table extractable.
func TestExtractMarkerRowDirectlyBelowHeader(t *testing.T) {
	wb := book(grid("Projections",
		[]any{"", "Year 1", "Year 2", "Year 3"},
		[]any{"Net Cash Flow", -100, 50, 80},
	))
	res := extractDefault(t, wb)
	assert.Empty(t, res.CashFlows)
	assert.Empty(t, res.Warnings)

	titled := book(grid("Projections",
		[]any{"Cash Flow Projection"},
		[]any{"", "Year 1", "Year 2", "Year 3"},
		[]any{"Net Cash Flow", -100, 50, 80},
	))
	res = extractDefault(t, titled)
	require.Len(t, res.CashFlows, 1)
	assert.Equal(t, [][2]any{
		{1, workbook.Number(-100)},
		{2, workbook.Number(50)},
		{3, workbook.Number(80)},
	}, periodsOf(res.CashFlows[0]))
}

func TestExtractIdempotent(t *testing.T) {
	wb, err := workbook.Load(writeModel(t))
	require.NoError(t, err)

	first, err := Extract(context.Background(), wb, DefaultOptions())
	require.NoError(t, err)
	a, err := first.JSON()
	require.NoError(t, err)

	second, err := Extract(context.Background(), wb, DefaultOptions())
	require.NoError(t, err)
	b, err := second.JSON()
	require.NoError(t, err)

	assert.Equal(t, string(a), string(b))
}

func TestExtractEmptySheetWarns(t *testing.T) {
	wb := book(&workbook.Sheet{Name: "Blank"}, grid("R", []any{"NPV", 10}))
	res := extractDefault(t, wb)
	require.Len(t, res.Warnings, 1)
	w := res.Warnings[0]
	assert.Equal(t, ExtractionWarning{Sheet: "Blank", Row: -1, Col: -1, Reason: "sheet is empty"}, w)
	assert.Equal(t, `sheet "Blank": sheet is empty`, w.Error())
	_, ok := res.Return(CategoryNPV)
	assert.True(t, ok, "later sheets are still scanned")
}

func TestExtractCancelledBetweenSheets(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Extract(ctx, book(grid("R", []any{"NPV", 10})), DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, res)
	assert.Empty(t, res.Returns)
	assert.NotEmpty(t, res.Summary)
}

func TestExtractZeroValueOptions(t *testing.T) {
	res, err := Extract(context.Background(), book(grid("R", []any{"ROI", 0.2})), Options{})
	require.NoError(t, err)
	m, ok := res.Return(CategoryROI)
	require.True(t, ok)
	assert.Equal(t, workbook.Number(0.2), m.Value)
}

func TestSummaryAndMarkdown(t *testing.T) {
	wb, err := workbook.Load(writeModel(t))
	require.NoError(t, err)
	res, err := Extract(context.Background(), wb, DefaultOptions())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.Summary, "Financial Model Analysis Summary:\n\n"))
	assert.Contains(t, res.Summary, "Key Assumptions:\n- Tax Rate: 25.0%\n- Discount Rate: 0.12\n")
	assert.Contains(t, res.Summary, "No clear financial return indicators were identified in this model.")
	assert.Contains(t, res.Summary, "- Net Cash Flow: Starts at -100 and ends at 80\n")

	md := res.Markdown()
	assert.Contains(t, md, "File: model.xlsx")
	assert.Contains(t, md, "| Discount Rate | 0.12 |")
	assert.Contains(t, md, "| Net Cash Flow | -100 | 80 |")
	assert.Contains(t, md, "[FINANCIAL RETURNS]\n(none)")
}

func TestSummaryEmptyResult(t *testing.T) {
	r := NewResult("x.xlsx", SourceHeuristic)
	r.Returns[CategoryIRR] = ReturnMetric{Category: CategoryIRR, Value: workbook.Number(0.18)}
	s := Summarize(r)
	assert.Contains(t, s, "No clear assumptions were identified in this model.")
	assert.Contains(t, s, "- IRR: 0.18\n")
	assert.NotContains(t, s, "Cash Flow Summary")
}

func TestResultJSONShape(t *testing.T) {
	res := extractDefault(t, book(grid("R", []any{"NPV", 150000}, []any{"Growth Rate", "3%"})))
	out, err := res.JSON()
	require.NoError(t, err)
	js := string(out)
	assert.Contains(t, js, `"npv": {`)
	assert.Contains(t, js, `"value": 150000`)
	assert.Contains(t, js, `"value": "3%"`)
	assert.Contains(t, js, `"cash_flows": []`)
	assert.Contains(t, js, `"source": "heuristic"`)
}
