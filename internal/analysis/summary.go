package analysis

import (
	"fmt"
	"strings"
)

// Summarize renders the plain-text overview of a result: key assumptions,
// financial returns and the first/last value of each cash-flow series.
func Summarize(r *Result) string {
	var b strings.Builder
	b.WriteString("Financial Model Analysis Summary:\n\n")

	if len(r.Assumptions) > 0 {
		b.WriteString("Key Assumptions:\n")
		for _, a := range r.Assumptions {
			fmt.Fprintf(&b, "- %s: %s\n", a.Label, a.Value.String())
		}
		b.WriteString("\n")
	} else {
		b.WriteString("No clear assumptions were identified in this model.\n\n")
	}

	b.WriteString("Financial Returns:\n")
	metrics := r.orderedReturns()
	for _, m := range metrics {
		label := m.Label
		if label == "" {
			label = m.Category.Title()
		}
		fmt.Fprintf(&b, "- %s: %s\n", label, m.Value.String())
	}
	if len(metrics) == 0 {
		b.WriteString("No clear financial return indicators were identified in this model.\n")
	}

	if len(r.CashFlows) > 0 {
		b.WriteString("\nCash Flow Summary:\n")
		for _, cf := range r.CashFlows {
			fmt.Fprintf(&b, "- %s: ", cf.Label)
			if len(cf.Periods) == 0 {
				b.WriteString("No period data available\n")
				continue
			}
			fmt.Fprintf(&b, "Starts at %s and ends at %s\n", cf.First().String(), cf.Last().String())
		}
	}
	return b.String()
}

// orderedReturns lists the fixed categories in display order followed by
// other metrics.
func (r *Result) orderedReturns() []ReturnMetric {
	var out []ReturnMetric
	for _, c := range ReturnCategories {
		if m, ok := r.Returns[c]; ok {
			out = append(out, m)
		}
	}
	return append(out, r.OtherMetrics...)
}

// Markdown renders the result as a compact report: summary, assumptions,
// returns, cash flows and pair counts.
func (r *Result) Markdown() string {
	var b strings.Builder
	b.WriteString("[FINANCIAL MODEL]\n")
	if r.Workbook != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Workbook))
	}
	b.WriteString(fmt.Sprintf("Source: %s\n", r.Source))
	if len(r.Pairs) > 0 {
		b.WriteString(fmt.Sprintf("Pairs: %d (hardcoded %d, formula %d)\n",
			len(r.Pairs), len(r.Hardcoded()), len(r.FormulaDerived())))
	}

	if r.Summary != "" {
		b.WriteString("\n[SUMMARY]\n")
		b.WriteString(strings.TrimRight(r.Summary, "\n"))
		b.WriteString("\n")
	}

	b.WriteString("\n[ASSUMPTIONS]\n")
	if len(r.Assumptions) == 0 {
		b.WriteString("(none)\n")
	} else {
		b.WriteString("| Description | Value |\n| --- | --- |\n")
		for _, a := range r.Assumptions {
			b.WriteString(fmt.Sprintf("| %s | %s |\n", safeVal(a.Label), safeVal(withFormula(a.Value, a.Formula))))
		}
	}

	b.WriteString("\n[FINANCIAL RETURNS]\n")
	if metrics := r.orderedReturns(); len(metrics) == 0 {
		b.WriteString("(none)\n")
	} else {
		b.WriteString("| Metric | Value |\n| --- | --- |\n")
		for _, m := range metrics {
			label := m.Label
			if label == "" {
				label = m.Category.Title()
			}
			b.WriteString(fmt.Sprintf("| %s | %s |\n", safeVal(label), safeVal(withFormula(m.Value, m.Formula))))
		}
	}

	b.WriteString("\n[CASH FLOWS]\n")
	if len(r.CashFlows) == 0 {
		b.WriteString("(none)\n")
	} else {
		b.WriteString("| Description | Starting Value | Ending Value |\n| --- | --- | --- |\n")
		for _, cf := range r.CashFlows {
			if len(cf.Periods) == 0 {
				continue
			}
			b.WriteString(fmt.Sprintf("| %s | %s | %s |\n",
				safeVal(cf.Label), safeVal(cf.First().String()), safeVal(cf.Last().String())))
		}
	}
	if len(r.CashFlowTables) > 1 {
		b.WriteString(fmt.Sprintf("(%d more cash-flow tables in JSON output)\n", len(r.CashFlowTables)-1))
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w.Error())
			b.WriteString("\n")
		}
	}
	return b.String()
}

// withFormula appends the formula text to computed values.
func withFormula(v Value, formula string) string {
	if formula == "" {
		return v.String()
	}
	return fmt.Sprintf("%s (%s)", v.String(), formula)
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
