package analysis

import (
	"regexp"
	"strings"

	"github.com/mhon-emma/Impact-Venture/internal/workbook"
)

var (
	plainNumberRe = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	periodLikeRe  = regexp.MustCompile(`(?i)year|period|yr|\d`)
)

// IsPotentialKeyword reports whether c looks like a label: text that is
// neither a formula literal nor a plain signed decimal.
func IsPotentialKeyword(c workbook.Cell) bool {
	if !c.IsText() {
		return false
	}
	if strings.HasPrefix(c.Text, workbook.FormulaSigil) {
		return false
	}
	return !plainNumberRe.MatchString(strings.TrimSpace(c.Text))
}

// IsNumeric reports whether c holds a resolved number. Numeric-looking text
// is not a number.
func IsNumeric(c workbook.Cell) bool {
	return c.IsNumber()
}

// IsPeriodLike reports whether c can serve as a column heading in a period
// header row: any number, or text mentioning a year, period or digit.
func IsPeriodLike(c workbook.Cell) bool {
	switch c.Kind {
	case workbook.KindNumber:
		return true
	case workbook.KindText:
		return periodLikeRe.MatchString(c.Text)
	default:
		return false
	}
}
