// Package sample writes a small project financial model workbook used for
// demos and end-to-end tests.
package sample

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultFilename is the name `finmodel sample` writes when no path is given.
const DefaultFilename = "sample_financial_model.xlsx"

// Sheet names in workbook order.
const (
	SheetAssumptions = "Assumptions"
	SheetProjections = "Projections"
	SheetReturns     = "Financial Returns"
)

// Model holds the drivers of the sample project.
type Model struct {
	Years           int
	DiscountRate    float64
	TaxRate         float64
	Inflation       float64
	Investment      float64
	Units           float64
	UnitGrowth      float64
	Price           float64
	PriceGrowth     float64
	VariableCost    float64
	FixedCost       float64
	FixedCostGrowth float64
}

// DefaultModel returns the five-year project used by the sample workbook.
func DefaultModel() Model {
	return Model{
		Years:           5,
		DiscountRate:    0.12,
		TaxRate:         0.25,
		Inflation:       0.025,
		Investment:      1_000_000,
		Units:           10_000,
		UnitGrowth:      0.15,
		Price:           50,
		PriceGrowth:     0.03,
		VariableCost:    20,
		FixedCost:       200_000,
		FixedCostGrowth: 0.05,
	}
}

// Year is one projected year. Year 0 is the investment year with no sales.
type Year struct {
	Units, Price, Revenue       float64
	VariableCosts, FixedCosts   float64
	OperatingIncome, Taxes, Net float64
}

// TotalCosts is variable plus fixed costs.
func (y Year) TotalCosts() float64 { return y.VariableCosts + y.FixedCosts }

// Project returns the figures for year n.
func (m Model) Project(n int) Year {
	if n <= 0 {
		return Year{}
	}
	g := float64(n - 1)
	y := Year{
		Units:      m.Units * math.Pow(1+m.UnitGrowth, g),
		Price:      m.Price * math.Pow(1+m.PriceGrowth, g),
		FixedCosts: m.FixedCost * math.Pow(1+m.FixedCostGrowth, g),
	}
	y.Revenue = y.Units * y.Price
	y.VariableCosts = y.Units * m.VariableCost
	y.OperatingIncome = y.Revenue - y.TotalCosts()
	y.Taxes = math.Max(0, y.OperatingIncome*m.TaxRate)
	y.Net = y.OperatingIncome - y.Taxes
	return y
}

// Metrics are the headline returns of the model.
type Metrics struct {
	NPV, IRR, ROI, ProfitMargin float64
	PaybackYears                int
}

// Returns computes simplified NPV, IRR, payback, ROI and average margin.
func (m Model) Returns() Metrics {
	var out Metrics
	out.NPV = -m.Investment
	inflow, revenue, net := 0.0, 0.0, 0.0
	cumulative := -m.Investment
	for n := 1; n <= m.Years; n++ {
		y := m.Project(n)
		out.NPV += y.Net / math.Pow(1+m.DiscountRate, float64(n))
		inflow += y.Net
		revenue += y.Revenue
		net += y.Net
		cumulative += y.Net
		if cumulative >= 0 && out.PaybackYears == 0 {
			out.PaybackYears = n
		}
	}
	out.IRR = math.Pow(inflow/m.Investment, 1/float64(m.Years)) - 1
	out.ROI = (inflow - m.Investment) / m.Investment
	if revenue != 0 {
		out.ProfitMargin = net / revenue
	}
	return out
}

var printer = message.NewPrinter(language.English)

func money(v float64) string {
	if v < 0 {
		return printer.Sprintf("-$%.2f", -v)
	}
	return printer.Sprintf("$%.2f", v)
}

func wholeMoney(v float64) string {
	return printer.Sprintf("$%.0f", v)
}

func percent(v float64, prec int) string {
	return fmt.Sprintf("%.*f%%", prec, v*100)
}

// Build returns the sample workbook in memory. The caller closes it.
func Build(m Model) (*excelize.File, error) {
	f := excelize.NewFile()
	w := &writer{f: f}

	w.rename("Sheet1", SheetAssumptions)
	w.newSheet(SheetProjections)
	w.newSheet(SheetReturns)

	title := w.style(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	section := w.style(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}})
	header := w.style(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"D9D9D9"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	// Assumptions
	a := SheetAssumptions
	w.set(a, "A1", "PROJECT FINANCIAL MODEL - ASSUMPTIONS")
	w.merge(a, "A1", "D1")
	w.styled(a, "A1", "A1", title)
	w.set(a, "A3", "General Assumptions")
	w.rows(a, 4, [][]any{
		{"Project Timeline (Years)", m.Years},
		{"Discount Rate", percent(m.DiscountRate, 1)},
		{"Tax Rate", percent(m.TaxRate, 1)},
		{"Inflation Rate", percent(m.Inflation, 1)},
		{"Initial Investment", wholeMoney(m.Investment)},
	})
	w.set(a, "A10", "Revenue Assumptions")
	w.rows(a, 11, [][]any{
		{"Units Sold - Year 1", m.Units},
		{"Unit Price", fmt.Sprintf("$%.0f", m.Price)},
		{"Unit Growth Rate", percent(m.UnitGrowth, 1)},
		{"Price Growth Rate", percent(m.PriceGrowth, 1)},
	})
	// One computed input so the workbook carries both value origins.
	w.set(a, "A15", "Units Sold - Year 2")
	w.set(a, "B15", m.Units*(1+m.UnitGrowth))
	w.formula(a, "B15", fmt.Sprintf("B11*(1+%g)", m.UnitGrowth))
	w.set(a, "A16", "Cost Assumptions")
	w.rows(a, 17, [][]any{
		{"Variable Cost per Unit", fmt.Sprintf("$%.0f", m.VariableCost)},
		{"Fixed Costs - Year 1", wholeMoney(m.FixedCost)},
		{"Fixed Cost Growth Rate", percent(m.FixedCostGrowth, 1)},
	})
	w.styled(a, "A3", "A3", section)
	w.styled(a, "A10", "A10", section)
	w.styled(a, "A16", "A16", section)

	// Projections
	p := SheetProjections
	years := make([]Year, m.Years+1)
	for n := range years {
		years[n] = m.Project(n)
	}
	last, _ := excelize.ColumnNumberToName(m.Years + 2)
	w.set(p, "A1", "PROJECT FINANCIAL PROJECTIONS")
	w.merge(p, "A1", last+"1")
	w.styled(p, "A1", "A1", title)
	head := []any{"Year"}
	for n := range years {
		head = append(head, fmt.Sprintf("Year %d", n))
	}
	w.row(p, 3, head)
	w.styled(p, "A3", last+"3", header)

	line := func(row int, label string, v func(n int, y Year) any) {
		vals := []any{label}
		for n, y := range years {
			vals = append(vals, v(n, y))
		}
		w.row(p, row, vals)
	}
	line(4, "Units Sold", func(_ int, y Year) any { return int(y.Units) })
	line(5, "Unit Price", func(_ int, y Year) any { return fmt.Sprintf("$%.2f", y.Price) })
	line(6, "Revenue", func(_ int, y Year) any { return money(y.Revenue) })
	line(8, "Variable Costs", func(_ int, y Year) any { return money(y.VariableCosts) })
	line(9, "Fixed Costs", func(_ int, y Year) any { return money(y.FixedCosts) })
	line(10, "Total Costs", func(_ int, y Year) any { return money(y.TotalCosts()) })
	line(12, "Operating Income", func(_ int, y Year) any { return money(y.OperatingIncome) })
	line(13, fmt.Sprintf("Taxes (%.0f%%)", m.TaxRate*100), func(_ int, y Year) any { return money(y.Taxes) })
	line(14, "Net Income", func(_ int, y Year) any { return money(y.Net) })

	w.set(p, "A16", "CASH FLOW ANALYSIS")
	w.styled(p, "A16", "A16", section)
	line(17, "Initial Investment", func(n int, _ Year) any {
		if n == 0 {
			return "-" + wholeMoney(m.Investment)
		}
		return "$0"
	})
	line(18, "Operating Cash Flow", func(_ int, y Year) any { return money(y.Net) })
	line(19, "Net Cash Flow", func(n int, y Year) any {
		if n == 0 {
			return money(-m.Investment)
		}
		return money(y.Net)
	})
	cumulative := -m.Investment
	line(20, "Cumulative Cash Flow", func(n int, y Year) any {
		if n > 0 {
			cumulative += y.Net
		}
		return money(cumulative)
	})

	// Financial Returns
	r := SheetReturns
	ret := m.Returns()
	w.set(r, "A1", "FINANCIAL RETURNS ANALYSIS")
	w.merge(r, "A1", "C1")
	w.styled(r, "A1", "A1", title)
	w.rows(r, 3, [][]any{
		{"Financial Metric", "Value", "Notes"},
		{"Net Present Value (NPV)", money(ret.NPV), fmt.Sprintf("Discount Rate: %.0f%%", m.DiscountRate*100)},
		{"Internal Rate of Return (IRR)", percent(ret.IRR, 2), "Annualized return"},
		{"Payback Period", fmt.Sprintf("%d years", ret.PaybackYears), "Years to recover initial investment"},
		{"Return on Investment (ROI)", percent(ret.ROI, 2), fmt.Sprintf("Total return over %d years", m.Years)},
		{"Profit Margin", percent(ret.ProfitMargin, 2), fmt.Sprintf("Average over %d years", m.Years)},
	})
	w.styled(r, "A3", "C3", header)

	for _, s := range []string{a, p, r} {
		end := "D"
		if s == p {
			end = last
		}
		if w.err == nil {
			w.err = f.SetColWidth(s, "A", end, 20)
		}
	}
	if w.err != nil {
		f.Close()
		return nil, fmt.Errorf("build sample workbook: %w", w.err)
	}
	return f, nil
}

// Write builds the default model and saves it to path.
func Write(path string) error {
	f, err := Build(DefaultModel())
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// writer keeps the first excelize error so Build reads as a script.
type writer struct {
	f   *excelize.File
	err error
}

func (w *writer) do(fn func() error) {
	if w.err == nil {
		w.err = fn()
	}
}

func (w *writer) rename(from, to string) { w.do(func() error { return w.f.SetSheetName(from, to) }) }

func (w *writer) newSheet(name string) {
	w.do(func() error { _, err := w.f.NewSheet(name); return err })
}

func (w *writer) set(sheet, cell string, v any) {
	w.do(func() error { return w.f.SetCellValue(sheet, cell, v) })
}

func (w *writer) formula(sheet, cell, expr string) {
	w.do(func() error { return w.f.SetCellFormula(sheet, cell, expr) })
}

func (w *writer) merge(sheet, from, to string) {
	w.do(func() error { return w.f.MergeCell(sheet, from, to) })
}

func (w *writer) style(s *excelize.Style) int {
	var id int
	w.do(func() (err error) { id, err = w.f.NewStyle(s); return err })
	return id
}

func (w *writer) styled(sheet, from, to string, id int) {
	w.do(func() error { return w.f.SetCellStyle(sheet, from, to, id) })
}

func (w *writer) row(sheet string, row int, vals []any) {
	w.do(func() error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		return w.f.SetSheetRow(sheet, cell, &vals)
	})
}

func (w *writer) rows(sheet string, start int, rows [][]any) {
	for i, r := range rows {
		w.row(sheet, start+i, r)
	}
}
