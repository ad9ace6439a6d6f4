// Package enrich sends a serialized workbook to a chat-completion runtime and
// turns its JSON answer into an analysis.Result. It is optional: callers keep
// the heuristic result when enrichment fails.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/mhon-emma/Impact-Venture/internal/ai"
	"github.com/mhon-emma/Impact-Venture/internal/analysis"
	"github.com/mhon-emma/Impact-Venture/internal/utils"
	"github.com/mhon-emma/Impact-Venture/internal/workbook"
)

// Stage names a step of one enrichment call.
type Stage string

const (
	StageCredential  Stage = "credential"
	StageSerializing Stage = "serializing"
	StageRequesting  Stage = "requesting"
	StageDecoding    Stage = "decoding"
	StageDone        Stage = "done"
)

// ErrNoRuntime is returned when an Enricher has no runtime configured.
var ErrNoRuntime = errors.New("no AI runtime configured")

// EnrichmentError wraps a failure with the stage it happened in.
type EnrichmentError struct {
	Stage Stage
	Err   error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("enrichment %s: %v", e.Stage, e.Err)
}

func (e *EnrichmentError) Unwrap() error { return e.Err }

// Enricher holds the runtime and request knobs for enrichment calls. It is
// safe for concurrent use when its Runtime is.
type Enricher struct {
	Runtime     ai.Runtime
	Model       string
	MaxTokens   int
	Temperature float64
	// APIKey is checked before any request when the runtime needs one.
	APIKey  string
	MaxRows int
	// Limiter, when set, is shared by all calls.
	Limiter *rate.Limiter
	Logger  *slog.Logger
}

// NewLimiter returns a limiter allowing rps requests per second, or nil
// (unlimited) when rps <= 0.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

func (e *Enricher) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// Enrich runs one enrichment call for wb. onProgress, if non-nil, is called
// as each stage starts. A missing credential fails before anything is sent.
func (e *Enricher) Enrich(ctx context.Context, wb *workbook.Workbook, onProgress func(Stage)) (*analysis.Result, error) {
	step := func(s Stage) {
		if onProgress != nil {
			onProgress(s)
		}
	}
	log := e.logger().With(slog.String("workbook", wb.Name), slog.String("model", e.Model))

	step(StageCredential)
	if e.Runtime == nil {
		return nil, &EnrichmentError{Stage: StageCredential, Err: ErrNoRuntime}
	}
	if e.Runtime.RequiresCredential() && e.APIKey == "" {
		return nil, &EnrichmentError{Stage: StageCredential, Err: ai.ErrMissingAPIKey}
	}

	step(StageSerializing)
	sheets := SerializeWorkbook(wb, e.MaxRows)
	system, user, err := buildPrompt(wb.Name, sheets)
	if err != nil {
		return nil, &EnrichmentError{Stage: StageSerializing, Err: err}
	}
	budget := utils.NewBudget(e.MaxTokens, map[string]string{"system": system, "user": user})
	promptTokens := budget.Prompt()
	if limit, ok := ai.FitsContext(e.Model, promptTokens, budget.Completion); !ok {
		log.Warn("prompt may exceed model context",
			slog.Int("prompt_tokens", promptTokens),
			slog.Int("max_tokens", e.MaxTokens),
			slog.Int("context_tokens", limit))
	}

	step(StageRequesting)
	if e.Limiter != nil {
		if err := e.Limiter.Wait(ctx); err != nil {
			return nil, &EnrichmentError{Stage: StageRequesting, Err: err}
		}
	}
	log.Debug("sending enrichment request", slog.Int("sheets", len(sheets)), slog.Int("prompt_tokens", promptTokens))
	resp, err := e.Runtime.Generate(ctx, ai.GenerateRequest{
		Model: e.Model,
		Messages: []ai.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:      e.MaxTokens,
		Temperature:    e.Temperature,
		ResponseFormat: ai.JSONObject,
	})
	if err != nil {
		return nil, &EnrichmentError{Stage: StageRequesting, Err: err}
	}
	log.Debug("enrichment response",
		slog.String("request_id", resp.RequestID),
		slog.Int("total_tokens", resp.Usage.TotalTokens))

	step(StageDecoding)
	r, err := decodeResponse(resp.Content())
	if err != nil {
		return nil, &EnrichmentError{Stage: StageDecoding, Err: err}
	}
	res := r.toResult(wb.Name)

	step(StageDone)
	return res, nil
}

// Prefer returns enriched when the enrichment call succeeded and heuristic
// otherwise.
func Prefer(heuristic, enriched *analysis.Result, err error) *analysis.Result {
	if err != nil || enriched == nil {
		return heuristic
	}
	return enriched
}
