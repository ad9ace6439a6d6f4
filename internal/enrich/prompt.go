package enrich

import (
	"encoding/json"
	"fmt"
	"strings"
)

const systemPrompt = `You are a financial analyst reviewing a spreadsheet financial model.
Identify the key assumptions, the financial return metrics and the cash-flow series.
Answer with a single JSON object and nothing else.`

const responseShape = `{
  "summary": "short plain-text overview of the model",
  "assumptions": [{"description": "Discount Rate", "value": 0.12}],
  "financial_returns": {
    "npv": {"label": "NPV", "value": 150000},
    "irr": {"label": "IRR", "value": 0.18},
    "payback_period": null,
    "roi": null,
    "profit_margin": null
  },
  "other_metrics": [{"label": "EBITDA Margin", "value": 0.3}],
  "cash_flows": [{"label": "Net Cash Flow", "periods": [{"period": 1, "value": -100}]}]
}`

// buildPrompt returns the system and user messages for a serialized workbook.
func buildPrompt(name string, sheets []SheetPayload) (string, string, error) {
	data, err := json.Marshal(sheets)
	if err != nil {
		return "", "", fmt.Errorf("marshal sheets: %w", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Workbook: %s\n\n", name)
	b.WriteString("Respond with JSON of exactly this shape. Use null for metrics you cannot find; ")
	b.WriteString("values may be numbers or the cell text as shown.\n")
	b.WriteString(responseShape)
	b.WriteString("\n\nSheets (row arrays, null = empty cell):\n")
	b.Write(data)
	b.WriteString("\n")
	return systemPrompt, b.String(), nil
}
