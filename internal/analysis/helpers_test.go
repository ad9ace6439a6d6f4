package analysis

import (
	"github.com/mhon-emma/Impact-Venture/internal/workbook"
)

// grid builds a sheet from literal rows; "" and nil are empty cells.
func grid(name string, rows ...[]any) *workbook.Sheet {
	values := make([][]workbook.Cell, len(rows))
	for i, r := range rows {
		values[i] = make([]workbook.Cell, len(r))
		for j, v := range r {
			if s, ok := v.(string); ok && s == "" {
				continue
			}
			values[i][j] = workbook.FromAny(v)
		}
	}
	return workbook.NewSheet(name, values, nil)
}

func book(sheets ...*workbook.Sheet) *workbook.Workbook {
	return &workbook.Workbook{Name: "model.xlsx", Sheets: sheets}
}
