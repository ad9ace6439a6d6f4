package workbook

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// FormulaSigil prefixes every formula in the formulas grid.
const FormulaSigil = "="

var supportedExt = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xltx": true,
	".xltm": true,
}

// CanLoad reports whether the filename has a supported spreadsheet extension.
func CanLoad(filename string) bool {
	return supportedExt[strings.ToLower(filepath.Ext(filename))]
}

// Load reads the workbook at path into values and formulas grids.
func Load(path string) (*Workbook, error) {
	if !CanLoad(path) {
		return nil, &LoadError{Path: path, Err: ErrUnsupported}
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: classifyOpenErr(err)}
	}
	defer f.Close()
	return readFile(f, path)
}

// LoadReader reads a workbook from r. name is used for the workbook name and
// error context only.
func LoadReader(name string, r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &LoadError{Path: name, Err: classifyOpenErr(err)}
	}
	defer f.Close()
	return readFile(f, name)
}

func classifyOpenErr(err error) error {
	switch {
	case errors.Is(err, excelize.ErrWorkbookFileFormat):
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
	case errors.Is(err, excelize.ErrWorkbookPassword):
		return fmt.Errorf("workbook is password protected: %w", err)
	default:
		return err
	}
}

func readFile(f *excelize.File, path string) (*Workbook, error) {
	wb := &Workbook{Name: filepath.Base(path)}
	for _, name := range f.GetSheetList() {
		s, err := readSheet(f, name)
		if err != nil {
			return nil, &LoadError{Path: path, Sheet: name, Err: err}
		}
		wb.Sheets = append(wb.Sheets, s)
	}
	return wb, nil
}

func readSheet(f *excelize.File, name string) (*Sheet, error) {
	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	s := &Sheet{Name: name}
	if len(raw) == 0 {
		return s, nil
	}
	rows, cols := len(raw), 0
	for _, r := range raw {
		if len(r) > cols {
			cols = len(r)
		}
	}
	// GetRows drops trailing empty cells and rows; the dimension keeps them.
	if dim, err := f.GetSheetDimension(name); err == nil {
		if dr, dc, ok := dimensionExtent(dim); ok {
			rows = max(rows, dr)
			cols = max(cols, dc)
		}
	}
	s.resize(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			formula, err := f.GetCellFormula(name, ref)
			if err != nil {
				return nil, fmt.Errorf("read formula %s: %w", ref, err)
			}
			if formula != "" && !strings.HasPrefix(formula, FormulaSigil) {
				formula = FormulaSigil + formula
			}
			s.Formulas[r][c] = formula
			if r >= len(raw) || c >= len(raw[r]) || raw[r][c] == "" {
				continue
			}
			typ, err := f.GetCellType(name, ref)
			if err != nil {
				return nil, fmt.Errorf("read type %s: %w", ref, err)
			}
			s.Values[r][c] = classify(raw[r][c], typ)
		}
	}
	return s, nil
}

// classify maps an excelize raw value and its declared type onto a Cell.
func classify(raw string, typ excelize.CellType) Cell {
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeFormula, excelize.CellTypeDate, excelize.CellTypeError:
		return Text(raw)
	case excelize.CellTypeBool:
		if raw == "1" || strings.EqualFold(raw, "true") {
			return Text("TRUE")
		}
		return Text("FALSE")
	default:
		return parseRaw(raw)
	}
}

// dimensionExtent returns the bottom-right extent (1-based row, col) of a
// dimension reference such as "A1:G20" or "C5".
func dimensionExtent(dim string) (int, int, bool) {
	dim = strings.TrimSpace(dim)
	if dim == "" {
		return 0, 0, false
	}
	parts := strings.Split(dim, ":")
	col, row, err := excelize.CellNameToCoordinates(parts[len(parts)-1])
	if err != nil {
		return 0, 0, false
	}
	return row, col, true
}
