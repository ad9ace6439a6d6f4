package enrich

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mhon-emma/Impact-Venture/internal/analysis"
	"github.com/mhon-emma/Impact-Venture/internal/workbook"
)

// response is the JSON object the model is asked to return.
type response struct {
	Summary          string             `json:"summary"`
	Assumptions      []assumption       `json:"assumptions" validate:"dive"`
	FinancialReturns map[string]*metric `json:"financial_returns" validate:"dive,keys,oneof=npv irr payback_period roi profit_margin,endkeys"`
	OtherMetrics     []metric           `json:"other_metrics" validate:"dive"`
	CashFlows        []cashFlow         `json:"cash_flows" validate:"dive"`
}

type assumption struct {
	Description string        `json:"description" validate:"required"`
	Value       workbook.Cell `json:"value"`
}

type metric struct {
	Label string        `json:"label"`
	Value workbook.Cell `json:"value"`
}

type cashFlow struct {
	Label   string   `json:"label" validate:"required"`
	Periods []period `json:"periods" validate:"dive"`
}

type period struct {
	Period int           `json:"period" validate:"gte=0"`
	Value  workbook.Cell `json:"value"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// extractJSON trims code fences or prose around the first JSON object.
func extractJSON(content string) (string, error) {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", errors.New("no JSON object in model output")
	}
	return s[start : end+1], nil
}

// decodeResponse parses and validates the model output.
func decodeResponse(content string) (*response, error) {
	raw, err := extractJSON(content)
	if err != nil {
		return nil, err
	}
	var r response
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}
	if err := validate.Struct(&r); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return nil, fmt.Errorf("invalid model output (%s): %w", describe(ve), ve)
		}
		return nil, err
	}
	return &r, nil
}

func describe(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Namespace()+" is required")
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of: %s", fe.Namespace(), strings.ReplaceAll(fe.Param(), " ", ", ")))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s validation", fe.Namespace(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// toResult converts a validated response into a Result for workbook name.
func (r *response) toResult(name string) *analysis.Result {
	res := analysis.NewResult(name, analysis.SourceEnrichment)
	for _, a := range r.Assumptions {
		res.Assumptions = append(res.Assumptions, analysis.Assumption{Label: a.Description, Value: a.Value})
	}
	for _, c := range analysis.ReturnCategories {
		m := r.FinancialReturns[string(c)]
		if m == nil || m.Value.IsEmpty() {
			continue
		}
		label := m.Label
		if label == "" {
			label = c.Title()
		}
		res.Returns[c] = analysis.ReturnMetric{Category: c, Label: label, Value: m.Value}
	}
	for _, m := range r.OtherMetrics {
		if m.Label == "" || m.Value.IsEmpty() {
			continue
		}
		res.OtherMetrics = append(res.OtherMetrics, analysis.ReturnMetric{Category: analysis.CategoryOther, Label: m.Label, Value: m.Value})
	}
	for _, cf := range r.CashFlows {
		s := analysis.CashFlowSeries{Label: cf.Label, Row: -1, Periods: make([]analysis.Period, 0, len(cf.Periods))}
		for _, p := range cf.Periods {
			ap := analysis.Period{Index: p.Period, Value: p.Value}
			if f, ok := p.Value.Amount(); ok {
				ap.Amount = &f
			}
			s.Periods = append(s.Periods, ap)
		}
		res.CashFlows = append(res.CashFlows, s)
	}
	res.Summary = strings.TrimSpace(r.Summary)
	if res.Summary == "" {
		res.Summary = analysis.Summarize(res)
	}
	return res
}
