package utils

import "unicode/utf8"

// charsPerToken is the rough ratio used for all estimates.
const charsPerToken = 4

// CountTokens estimates the tokens in text. Any non-empty text counts as at
// least one token.
func CountTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return max(n/charsPerToken, 1)
}

// Budget is the estimated token use of one chat request.
type Budget struct {
	// Sections maps a prompt part (e.g. "system", "user") to its estimate.
	Sections   map[string]int
	Completion int
}

// NewBudget estimates each prompt section and records the completion budget.
func NewBudget(completion int, sections map[string]string) Budget {
	b := Budget{Sections: make(map[string]int, len(sections)), Completion: completion}
	for k, v := range sections {
		b.Sections[k] = CountTokens(v)
	}
	return b
}

// Prompt is the estimated prompt size.
func (b Budget) Prompt() int {
	total := 0
	for _, n := range b.Sections {
		total += n
	}
	return total
}

// Total is the prompt estimate plus the completion budget.
func (b Budget) Total() int { return b.Prompt() + b.Completion }
