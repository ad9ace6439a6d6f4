package enrich

import (
	"github.com/mhon-emma/Impact-Venture/internal/workbook"
)

// MaxRowsPerSheet caps how many rows of each sheet are sent for enrichment.
const MaxRowsPerSheet = 100

// SheetPayload is one sheet as sent to the model: numbers stay numbers,
// text stays text and empty cells become null.
type SheetPayload struct {
	Name string  `json:"name"`
	Rows [][]any `json:"data"`
}

// SerializeWorkbook converts the values grid of every sheet into payloads,
// keeping at most maxRows rows per sheet (MaxRowsPerSheet when maxRows <= 0).
func SerializeWorkbook(wb *workbook.Workbook, maxRows int) []SheetPayload {
	if maxRows <= 0 {
		maxRows = MaxRowsPerSheet
	}
	out := make([]SheetPayload, 0, len(wb.Sheets))
	for _, s := range wb.Sheets {
		n := min(s.Rows(), maxRows)
		p := SheetPayload{Name: s.Name, Rows: make([][]any, n)}
		for r := 0; r < n; r++ {
			row := make([]any, len(s.Values[r]))
			for c, cell := range s.Values[r] {
				row[c] = cellValue(cell)
			}
			p.Rows[r] = row
		}
		out = append(out, p)
	}
	return out
}

func cellValue(c workbook.Cell) any {
	switch c.Kind {
	case workbook.KindNumber:
		return c.Number
	case workbook.KindText:
		return c.Text
	default:
		return nil
	}
}
