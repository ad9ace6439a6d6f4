package analysis

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// CategoryTerms maps one return category onto its match terms.
type CategoryTerms struct {
	Category Category `yaml:"category" json:"category"`
	Terms    []string `yaml:"terms" json:"terms"`
}

// KeywordSets is the configuration the matcher is built from. Terms are
// lower-case; order matters within each list (first match wins).
type KeywordSets struct {
	GenericAssumptions []string        `yaml:"generic_assumptions"`
	DomainAssumptions  []string        `yaml:"domain_assumptions"`
	Returns            []CategoryTerms `yaml:"returns"`
	CashFlow           []string        `yaml:"cash_flow"`
	CashFlowRows       []string        `yaml:"cash_flow_rows"`
}

// DefaultKeywordSets returns the built-in English term lists.
func DefaultKeywordSets() KeywordSets {
	return KeywordSets{
		GenericAssumptions: []string{"assumption", "input", "parameter", "variable"},
		DomainAssumptions: []string{
			"discount rate", "growth rate", "tax rate", "inflation",
			"capex", "opex", "revenue", "cost",
		},
		Returns: []CategoryTerms{
			{Category: CategoryNPV, Terms: []string{"npv", "net present value"}},
			{Category: CategoryIRR, Terms: []string{"irr", "internal rate of return"}},
			{Category: CategoryPayback, Terms: []string{"payback", "payback period"}},
			{Category: CategoryROI, Terms: []string{"roi", "return on investment"}},
			{Category: CategoryProfitMargin, Terms: []string{"profit margin", "margin"}},
		},
		CashFlow:     []string{"cash flow", "cashflow", "cash flows", "cf"},
		CashFlowRows: []string{"cash flow", "net", "total"},
	}
}

// LoadKeywordSets reads a YAML keyword file. Sections left out of the file
// keep their default terms.
func LoadKeywordSets(path string) (KeywordSets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return KeywordSets{}, fmt.Errorf("read keyword file: %w", err)
	}
	var file KeywordSets
	if err := yaml.Unmarshal(data, &file); err != nil {
		return KeywordSets{}, fmt.Errorf("parse keyword file %s: %w", path, err)
	}
	ks := DefaultKeywordSets()
	if len(file.GenericAssumptions) > 0 {
		ks.GenericAssumptions = file.GenericAssumptions
	}
	if len(file.DomainAssumptions) > 0 {
		ks.DomainAssumptions = file.DomainAssumptions
	}
	if len(file.Returns) > 0 {
		ks.Returns = file.Returns
	}
	if len(file.CashFlow) > 0 {
		ks.CashFlow = file.CashFlow
	}
	if len(file.CashFlowRows) > 0 {
		ks.CashFlowRows = file.CashFlowRows
	}
	if err := ks.Validate(); err != nil {
		return KeywordSets{}, fmt.Errorf("keyword file %s: %w", path, err)
	}
	return ks, nil
}

// Validate checks that every list is usable by the matcher.
func (k KeywordSets) Validate() error {
	var errs []error
	check := func(name string, terms []string) {
		if len(terms) == 0 {
			errs = append(errs, fmt.Errorf("%s: no terms", name))
		}
		for i, t := range terms {
			if strings.TrimSpace(t) == "" {
				errs = append(errs, fmt.Errorf("%s[%d]: empty term", name, i))
			}
		}
	}
	check("generic_assumptions", k.GenericAssumptions)
	check("domain_assumptions", k.DomainAssumptions)
	check("cash_flow", k.CashFlow)
	check("cash_flow_rows", k.CashFlowRows)
	if len(k.Returns) == 0 {
		errs = append(errs, errors.New("returns: no categories"))
	}
	seen := map[Category]bool{}
	for _, ct := range k.Returns {
		if !slices.Contains(ReturnCategories, ct.Category) {
			errs = append(errs, fmt.Errorf("returns: unknown category %q", ct.Category))
			continue
		}
		if seen[ct.Category] {
			errs = append(errs, fmt.Errorf("returns: duplicate category %q", ct.Category))
		}
		seen[ct.Category] = true
		check("returns."+string(ct.Category), ct.Terms)
	}
	return errors.Join(errs...)
}

// Clone returns a deep copy so callers cannot mutate a matcher's lists.
func (k KeywordSets) Clone() KeywordSets {
	out := KeywordSets{
		GenericAssumptions: slices.Clone(k.GenericAssumptions),
		DomainAssumptions:  slices.Clone(k.DomainAssumptions),
		CashFlow:           slices.Clone(k.CashFlow),
		CashFlowRows:       slices.Clone(k.CashFlowRows),
	}
	for _, ct := range k.Returns {
		out.Returns = append(out.Returns, CategoryTerms{Category: ct.Category, Terms: slices.Clone(ct.Terms)})
	}
	return out
}

// YAML renders the sets in the keyword file format.
func (k KeywordSets) YAML() ([]byte, error) {
	return yaml.Marshal(k)
}
