package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mhon-emma/Impact-Venture/internal/workbook"
)

// MatchMode selects how keyword terms are compared with cell text.
type MatchMode string

const (
	// MatchSubstring matches a term anywhere in the cell text, so
	// "margin of error" matches "margin".
	MatchSubstring MatchMode = "substring"
	// MatchWord requires the term to be bounded by non-alphanumerics.
	MatchWord MatchMode = "word"
)

// ParseMatchMode accepts "", "substring" or "word".
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", MatchSubstring:
		return MatchSubstring, nil
	case MatchWord:
		return MatchWord, nil
	default:
		return "", fmt.Errorf("unknown match mode %q (want substring or word)", s)
	}
}

// Matcher finds assumption, return-metric and cash-flow marker cells. A
// Matcher is not safe for concurrent use; build one per run.
type Matcher struct {
	sets  KeywordSets
	mode  MatchMode
	lower cases.Caser
	words map[string]*regexp.Regexp
}

// NewMatcher copies sets and prepares them for matching.
func NewMatcher(sets KeywordSets, mode MatchMode) *Matcher {
	m := &Matcher{
		sets:  sets.Clone(),
		mode:  mode,
		lower: cases.Lower(language.Und),
	}
	m.sets.GenericAssumptions = m.normalizeAll(m.sets.GenericAssumptions)
	m.sets.DomainAssumptions = m.normalizeAll(m.sets.DomainAssumptions)
	m.sets.CashFlow = m.normalizeAll(m.sets.CashFlow)
	m.sets.CashFlowRows = m.normalizeAll(m.sets.CashFlowRows)
	for i := range m.sets.Returns {
		m.sets.Returns[i].Terms = m.normalizeAll(m.sets.Returns[i].Terms)
	}
	if mode == MatchWord {
		m.words = map[string]*regexp.Regexp{}
		for _, list := range m.allTerms() {
			for _, t := range list {
				if _, ok := m.words[t]; !ok {
					m.words[t] = regexp.MustCompile(`(?:^|[^\pL\pN])` + regexp.QuoteMeta(t) + `(?:$|[^\pL\pN])`)
				}
			}
		}
	}
	return m
}

func (m *Matcher) allTerms() [][]string {
	out := [][]string{m.sets.GenericAssumptions, m.sets.DomainAssumptions, m.sets.CashFlow}
	for _, ct := range m.sets.Returns {
		out = append(out, ct.Terms)
	}
	return out
}

func (m *Matcher) normalize(s string) string {
	return m.lower.String(strings.TrimSpace(s))
}

func (m *Matcher) normalizeAll(terms []string) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = m.normalize(t)
	}
	return out
}

func (m *Matcher) contains(text, term string) bool {
	if m.mode == MatchWord {
		return m.words[term].MatchString(text)
	}
	return strings.Contains(text, term)
}

// firstTerm returns the first term of terms found in the normalized text.
func (m *Matcher) firstTerm(text string, terms []string) (string, bool) {
	for _, t := range terms {
		if m.contains(text, t) {
			return t, true
		}
	}
	return "", false
}

// ReturnCategory returns the first category, in configured order, that
// has a term contained in text.
func (m *Matcher) ReturnCategory(text string) (Category, bool) {
	norm := m.normalize(text)
	for _, ct := range m.sets.Returns {
		if _, ok := m.firstTerm(norm, ct.Terms); ok {
			return ct.Category, true
		}
	}
	return "", false
}

// IsCashFlowMarker reports whether text contains a cash-flow term.
func (m *Matcher) IsCashFlowMarker(text string) bool {
	_, ok := m.firstTerm(m.normalize(text), m.sets.CashFlow)
	return ok
}

// Markers returns every cash-flow marker cell of s in row-major order.
func (m *Matcher) Markers(s *workbook.Sheet) []Location {
	var out []Location
	for r := 0; r < s.Rows(); r++ {
		for c := 0; c < s.Cols(); c++ {
			if cell := s.At(r, c); !cell.IsEmpty() && m.IsCashFlowMarker(cell.String()) {
				out = append(out, Location{Sheet: s.Name, Row: r, Col: c})
			}
		}
	}
	return out
}

// ResolveValue finds the value for a label at (r, c): the right neighbor if
// non-empty, else the cell below if non-empty. at is the value cell.
func ResolveValue(s *workbook.Sheet, r, c int) (v Value, at Location, ok bool) {
	if right := s.At(r, c+1); !right.IsEmpty() {
		return right, Location{Sheet: s.Name, Row: r, Col: c + 1}, true
	}
	if below := s.At(r+1, c); !below.IsEmpty() {
		return below, Location{Sheet: s.Name, Row: r + 1, Col: c}, true
	}
	return workbook.Empty(), Location{}, false
}

// matchAssumptions runs the generic pass then the domain pass over s.
func (m *Matcher) matchAssumptions(s *workbook.Sheet, b *builder) {
	passes := []struct {
		kind  AssumptionKind
		terms []string
	}{
		{AssumptionGeneric, m.sets.GenericAssumptions},
		{AssumptionDomain, m.sets.DomainAssumptions},
	}
	for _, pass := range passes {
		for r := 0; r < s.Rows(); r++ {
			for c := 0; c < s.Cols(); c++ {
				cell := s.At(r, c)
				if cell.IsEmpty() {
					continue
				}
				if _, ok := m.firstTerm(m.normalize(cell.String()), pass.terms); !ok {
					continue
				}
				v, at, ok := ResolveValue(s, r, c)
				if !ok {
					continue
				}
				a := Assumption{Label: cell.String(), Value: v, Kind: pass.kind, Location: &at}
				a.Origin, a.Formula = originAt(s, at.Row, at.Col)
				b.addAssumption(a)
			}
		}
	}
}

// matchReturns records the first labeled value for each return category.
func (m *Matcher) matchReturns(s *workbook.Sheet, b *builder) {
	for r := 0; r < s.Rows(); r++ {
		for c := 0; c < s.Cols(); c++ {
			cell := s.At(r, c)
			if cell.IsEmpty() {
				continue
			}
			cat, ok := m.ReturnCategory(cell.String())
			if !ok {
				continue
			}
			v, at, ok := ResolveValue(s, r, c)
			if !ok {
				continue
			}
			rm := ReturnMetric{Category: cat, Label: cell.String(), Value: v, Location: &at}
			rm.Origin, rm.Formula = originAt(s, at.Row, at.Col)
			b.setReturn(rm)
		}
	}
}
