package analysis

import (
	"testing"

	"github.com/mhon-emma/Impact-Venture/internal/workbook"
)

func TestIsPotentialKeyword(t *testing.T) {
	cases := []struct {
		cell workbook.Cell
		want bool
	}{
		{workbook.Text("Discount Rate"), true},
		{workbook.Text("Q1 2024"), true},
		{workbook.Text("25.0%"), true},
		{workbook.Text("123"), false},
		{workbook.Text("-4.5"), false},
		{workbook.Text(" 7 "), false},
		{workbook.Text("=SUM(A1:A3)"), false},
		{workbook.Text("=B2*1.1"), false},
		{workbook.Number(12), false},
		{workbook.Empty(), false},
	}
	for _, tc := range cases {
		if got := IsPotentialKeyword(tc.cell); got != tc.want {
			t.Errorf("IsPotentialKeyword(%q) = %v, want %v", tc.cell.String(), got, tc.want)
		}
	}
}

func TestIsNumeric(t *testing.T) {
	if !IsNumeric(workbook.Number(0.12)) {
		t.Fatalf("number not numeric")
	}
	if IsNumeric(workbook.Text("0.12")) {
		t.Fatalf("numeric string treated as number")
	}
	if IsNumeric(workbook.Empty()) {
		t.Fatalf("empty treated as number")
	}
}

func TestIsPeriodLike(t *testing.T) {
	yes := []workbook.Cell{
		workbook.Number(2025), workbook.Text("Year 1"), workbook.Text("PERIOD"),
		workbook.Text("Yr"), workbook.Text("Q3"),
	}
	for _, c := range yes {
		if !IsPeriodLike(c) {
			t.Errorf("IsPeriodLike(%q) = false", c.String())
		}
	}
	no := []workbook.Cell{workbook.Empty(), workbook.Text("Total"), workbook.Text("")}
	for _, c := range no {
		if IsPeriodLike(c) {
			t.Errorf("IsPeriodLike(%q) = true", c.String())
		}
	}
}
