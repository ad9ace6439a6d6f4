package workbook

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func saveFixture(t *testing.T, build func(f *excelize.File)) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	build(f)
	path := filepath.Join(t.TempDir(), "model.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadValuesAndFormulas(t *testing.T) {
	path := saveFixture(t, func(f *excelize.File) {
		f.SetSheetName("Sheet1", "Assumptions")
		f.SetCellValue("Assumptions", "A1", "Tax Rate")
		f.SetCellValue("Assumptions", "B1", "25.0%")
		f.SetCellValue("Assumptions", "C1", "Notes")
		f.SetCellValue("Assumptions", "A2", "Discount Rate")
		f.SetCellValue("Assumptions", "B2", 0.12)
		f.SetCellValue("Assumptions", "A3", "Units")
		f.SetCellValue("Assumptions", "B3", 10000)
		f.SetCellValue("Assumptions", "A4", "123")
		f.SetCellFormula("Assumptions", "C2", "B2*1.1")
		f.NewSheet("Projections")
		f.SetCellValue("Projections", "B1", "Year 1")
	})

	wb, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "model.xlsx", wb.Name)
	require.Len(t, wb.Sheets, 2)
	assert.Equal(t, "Assumptions", wb.Sheets[0].Name)
	assert.Equal(t, "Projections", wb.Sheets[1].Name)

	s := wb.Sheet("Assumptions")
	require.NotNil(t, s)
	assert.Equal(t, Text("Tax Rate"), s.At(0, 0))
	assert.Equal(t, Text("25.0%"), s.At(0, 1))
	assert.Equal(t, Number(0.12), s.At(1, 1))
	assert.Equal(t, Number(10000), s.At(2, 1))
	// numeric-looking strings stay text
	assert.Equal(t, Text("123"), s.At(3, 0))

	assert.Equal(t, "=B2*1.1", s.FormulaAt(1, 2))
	assert.Equal(t, "", s.FormulaAt(1, 1))

	// shape is rectangular and covers the used range
	assert.Equal(t, 4, s.Rows())
	assert.Equal(t, 3, s.Cols())
	for _, row := range s.Values {
		assert.Len(t, row, 3)
	}
	for _, row := range s.Formulas {
		assert.Len(t, row, 3)
	}
}

func TestLoadKeepsLeadingBlankRowsAndColumns(t *testing.T) {
	path := saveFixture(t, func(f *excelize.File) {
		f.SetCellValue("Sheet1", "C4", "Net Cash Flow")
		f.SetCellValue("Sheet1", "D4", -100)
	})
	wb, err := Load(path)
	require.NoError(t, err)
	s := wb.Sheets[0]
	assert.Equal(t, 4, s.Rows())
	assert.Equal(t, 4, s.Cols())
	assert.True(t, s.At(0, 0).IsEmpty())
	assert.Equal(t, Text("Net Cash Flow"), s.At(3, 2))
	assert.Equal(t, Number(-100), s.At(3, 3))
}

func TestLoadEmptySheetHasZeroRows(t *testing.T) {
	path := saveFixture(t, func(f *excelize.File) {
		f.NewSheet("Data")
		f.SetCellValue("Data", "A1", "x")
	})
	wb, err := Load(path)
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 2)
	assert.Equal(t, 0, wb.Sheets[0].Rows())
	assert.Equal(t, 0, wb.Sheets[0].Cols())
	assert.True(t, wb.Sheets[0].At(0, 0).IsEmpty())
}

func TestLoadReader(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "NPV")
	f.SetCellValue("Sheet1", "B1", 150000)
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	wb, err := LoadReader("upload.xlsx", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "upload.xlsx", wb.Name)
	assert.Equal(t, Number(150000), wb.Sheets[0].At(0, 1))
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.xlsx"))
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Contains(t, err.Error(), "missing.xlsx")

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o644))
	_, err = Load(txt)
	require.True(t, errors.As(err, &le))
	assert.True(t, errors.Is(err, ErrUnsupported))

	bogus := filepath.Join(dir, "bogus.xlsx")
	require.NoError(t, os.WriteFile(bogus, []byte("not a zip"), 0o644))
	_, err = Load(bogus)
	require.Error(t, err)
	require.True(t, errors.As(err, &le))
	assert.Equal(t, bogus, le.Path)
}

func TestSheetAccessorsOutOfRange(t *testing.T) {
	s := NewSheet("S", [][]Cell{{Text("a")}, {Text("b"), Number(2)}}, nil)
	assert.Equal(t, 2, s.Rows())
	assert.Equal(t, 2, s.Cols())
	assert.True(t, s.At(0, 1).IsEmpty())
	assert.True(t, s.At(-1, 0).IsEmpty())
	assert.True(t, s.At(5, 5).IsEmpty())
	assert.Equal(t, "", s.FormulaAt(9, 9))
}

func TestColsOfRaggedSheet(t *testing.T) {
	s := &Sheet{Name: "R", Values: [][]Cell{{Text("a")}, {}, {Text("b"), Number(1), Empty()}}}
	assert.Equal(t, 3, s.Rows())
	assert.Equal(t, 3, s.Cols())
	assert.Equal(t, 0, (&Sheet{}).Cols())
}

func TestCellNames(t *testing.T) {
	assert.Equal(t, "A1", CellName(0, 0))
	assert.Equal(t, "Z3", CellName(2, 25))
	assert.Equal(t, "AA10", CellName(9, 26))
	assert.Equal(t, "0.12", Number(0.12).String())
	assert.Equal(t, "150000", Number(150000).String())
	assert.Equal(t, "", Empty().String())
}
