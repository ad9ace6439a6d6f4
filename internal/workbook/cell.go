package workbook

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind tags the content held by a Cell.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindText
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	default:
		return "empty"
	}
}

// Cell is a resolved grid value: empty, text, or number. Cells are plain
// values; copying one never aliases the workbook it came from.
type Cell struct {
	Kind   Kind
	Text   string
	Number float64
}

// Empty returns the empty cell.
func Empty() Cell { return Cell{} }

// Text returns a text cell. An empty string still counts as text.
func Text(s string) Cell { return Cell{Kind: KindText, Text: s} }

// Number returns a numeric cell.
func Number(f float64) Cell { return Cell{Kind: KindNumber, Number: f} }

func (c Cell) IsEmpty() bool  { return c.Kind == KindEmpty }
func (c Cell) IsText() bool   { return c.Kind == KindText }
func (c Cell) IsNumber() bool { return c.Kind == KindNumber }

// String returns the cell's string form: the text itself, the shortest
// decimal form of a number, or "" when empty.
func (c Cell) String() string {
	switch c.Kind {
	case KindText:
		return c.Text
	case KindNumber:
		return FormatNumber(c.Number)
	default:
		return ""
	}
}

// FormatNumber renders f without exponent or trailing zeros.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// parseRaw classifies a raw cell string that carries no explicit type.
func parseRaw(raw string) Cell {
	if raw == "" {
		return Empty()
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		return Number(f)
	}
	return Text(raw)
}

// MarshalJSON encodes numbers as JSON numbers, text as strings and empty
// cells as null.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case KindNumber:
		return json.Marshal(c.Number)
	case KindText:
		return json.Marshal(c.Text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a JSON number, string, bool or null.
func (c *Cell) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*c = FromAny(v)
	return nil
}

// FromAny converts a decoded JSON value into a Cell. Values that are neither
// numbers nor strings are coerced to their text form.
func FromAny(v any) Cell {
	switch x := v.(type) {
	case nil:
		return Empty()
	case float64:
		return Number(x)
	case int:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case string:
		return Text(x)
	case bool:
		if x {
			return Text("TRUE")
		}
		return Text("FALSE")
	default:
		return Text(fmt.Sprint(x))
	}
}

// Amount returns a numeric reading of the cell. Numbers are returned as is;
// formatted text such as "$1,000", "-$1,000,000", "(250)" or "12.5%" is
// parsed, with percentages scaled to fractions.
func (c Cell) Amount() (float64, bool) {
	switch c.Kind {
	case KindNumber:
		return c.Number, true
	case KindText:
		return parseAmount(c.Text)
	default:
		return 0, false
	}
}

func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	if strings.HasPrefix(s, "-") {
		neg = !neg
		s = s[1:]
	}
	pct := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimLeft(s, "$€£¥ ")
	if strings.HasPrefix(s, "-") {
		neg = !neg
		s = s[1:]
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if pct {
		f /= 100
	}
	if neg {
		f = -f
	}
	return f, true
}
