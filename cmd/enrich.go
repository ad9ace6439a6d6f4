package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mhon-emma/Impact-Venture/internal/ai"
	"github.com/mhon-emma/Impact-Venture/internal/analysis"
	cfgpkg "github.com/mhon-emma/Impact-Venture/internal/config"
	"github.com/mhon-emma/Impact-Venture/internal/enrich"
	"github.com/mhon-emma/Impact-Venture/internal/workbook"
)

// runtimeOptions carries per-command overrides for runtime selection.
type runtimeOptions struct {
	ProviderFlag string
	OllamaHost   string
}

// enrichOptions are the enrichment flags shared by analyze and analyze-batch.
type enrichOptions struct {
	Enabled    bool
	Provider   string
	Model      string
	MaxTokens  int
	OllamaHost string
	TimeoutSec int
}

// buildRuntime resolves the provider (flag > config > openrouter) and builds
// its runtime with the configured HTTP and retry knobs.
func buildRuntime(cfg *cfgpkg.Global, opts runtimeOptions) (ai.Runtime, string, error) {
	httpTimeout := 60 * time.Second
	retryMax := 3
	baseDelay := 500 * time.Millisecond
	maxDelay := 4 * time.Second
	if cfg != nil {
		if cfg.HTTPTimeoutSec > 0 {
			httpTimeout = time.Duration(cfg.HTTPTimeoutSec) * time.Second
		}
		if cfg.RetryMaxAttempts > 0 {
			retryMax = cfg.RetryMaxAttempts
		}
		if cfg.RetryBaseDelayMs > 0 {
			baseDelay = time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond
		}
		if cfg.RetryMaxDelayMs > 0 {
			maxDelay = time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond
		}
	}

	providerName := strings.ToLower(strings.TrimSpace(opts.ProviderFlag))
	if providerName == "" && cfg != nil && cfg.DefaultProvider != "" {
		providerName = strings.ToLower(cfg.DefaultProvider)
	}
	if providerName == "" {
		providerName = ai.ProviderOpenRouter
	}
	switch providerName {
	case ai.ProviderLocal:
		providerName = ai.ProviderOllama
	case "openai", "anthropic", "google", "gemini", "meta", "llama":
		providerName = ai.ProviderOpenRouter
	}

	rc := ai.RuntimeConfig{
		HTTPTimeout: httpTimeout,
		RetryMax:    retryMax,
		BaseDelay:   baseDelay,
		MaxDelay:    maxDelay,
	}
	if cfg != nil {
		rc.APIKey = cfg.ResolveAPIKey()
	}
	if providerName == ai.ProviderOllama {
		host := strings.TrimSpace(opts.OllamaHost)
		if host == "" && cfg != nil {
			host = cfg.OllamaHost
		}
		rc.Host = host
	}

	client, ok := ai.GetRuntime(providerName, rc)
	if !ok {
		return nil, providerName, fmt.Errorf("provider not supported: %s (have %s)", providerName, strings.Join(ai.Providers(), ", "))
	}
	return client, providerName, nil
}

// newEnricher builds an Enricher from flags and config. The limiter may be
// nil or shared across a batch.
func newEnricher(cfg *cfgpkg.Global, opts enrichOptions, limiter *rate.Limiter) (*enrich.Enricher, string, error) {
	rt, provider, err := buildRuntime(cfg, runtimeOptions{ProviderFlag: opts.Provider, OllamaHost: opts.OllamaHost})
	if err != nil {
		return nil, provider, err
	}
	model := opts.Model
	if model == "" {
		model = cfg.DefaultModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = cfg.MaxTokens
	}
	return &enrich.Enricher{
		Runtime:     rt,
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: cfg.Temperature,
		APIKey:      cfg.ResolveAPIKey(),
		Limiter:     limiter,
		Logger:      logger,
	}, provider, nil
}

// enrichOrKeep runs enrichment and returns its result, or the heuristic
// result plus a hinted error when enrichment fails. Progress goes to w.
func enrichOrKeep(ctx context.Context, e *enrich.Enricher, provider string, opts enrichOptions, wb *workbook.Workbook, heuristic *analysis.Result, w io.Writer) (*analysis.Result, error) {
	timeout := opts.TimeoutSec
	if timeout <= 0 {
		timeout = 180
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	enriched, err := e.Enrich(ctx, wb, func(s enrich.Stage) {
		if w != nil {
			fmt.Fprintf(w, "⚙ %s: enrichment %s\n", wb.Name, s)
		}
	})
	if err != nil {
		return enrich.Prefer(heuristic, enriched, err), enrichmentHint(err, provider, e.Model)
	}
	return enrich.Prefer(heuristic, enriched, nil), nil
}

// enrichmentHint adds user-facing guidance for common error classes.
func enrichmentHint(err error, provider, model string) error {
	var (
		authErr *ai.AuthError
		rlErr   *ai.RateLimitError
		nfErr   *ai.ModelNotFoundError
		brErr   *ai.BadRequestError
		qErr    *ai.QuotaExceededError
		sErr    *ai.ServerError
		unreach *ai.UnreachableError
		eErr    *enrich.EnrichmentError
	)
	switch {
	case errors.Is(err, ai.ErrMissingAPIKey):
		return fmt.Errorf("no API key: set OPENROUTER_API_KEY (a .env file works) or 'finmodel config set api_key <key>'; keeping heuristic result: %w", err)
	case errors.As(err, &unreach):
		if provider == ai.ProviderOllama {
			return fmt.Errorf("Ollama not reachable at %s. Ensure Ollama is running and the host is correct (FINMODEL_OLLAMA_HOST or config 'ollama_host'): %w", unreach.Host, err)
		}
		return fmt.Errorf("endpoint unreachable. Check your network and provider settings: %w", err)
	case errors.As(err, &authErr):
		return fmt.Errorf("authentication failed: set OPENROUTER_API_KEY or add api_key in config (~/.finmodel/config.yaml): %w", err)
	case errors.As(err, &rlErr):
		if rlErr.RetryAfter > 0 {
			return fmt.Errorf("rate limited, try again in ~%ds: %w", int(rlErr.RetryAfter.Seconds()), err)
		}
		return fmt.Errorf("rate limited by provider, please retry or lower enrich_rps: %w", err)
	case errors.As(err, &nfErr):
		if provider == ai.ProviderOllama {
			return fmt.Errorf("local model not available (%s). Install it with 'ollama pull %s' or choose another model: %w", model, model, err)
		}
		return fmt.Errorf("model not found (%s). Check the name or list known models with 'finmodel models': %w", model, err)
	case errors.As(err, &brErr):
		return fmt.Errorf("request invalid. Try a model with a larger context window or lower --max-tokens: %w", err)
	case errors.As(err, &qErr):
		return fmt.Errorf("quota/billing issue. Check your provider account: %w", err)
	case errors.As(err, &sErr):
		return fmt.Errorf("provider appears unavailable (server error). Please retry later: %w", err)
	case errors.As(err, &eErr) && eErr.Stage == enrich.StageDecoding:
		return fmt.Errorf("model returned an unusable answer; keeping heuristic result: %w", err)
	default:
		return fmt.Errorf("enrichment failed: %w", err)
	}
}

// warnEnrichment reports a failed enrichment without failing the command.
func warnEnrichment(path string, err error) {
	fmt.Fprintf(os.Stderr, "⚠ %s: %v\n", path, err)
	logger.Warn("enrichment failed; heuristic result kept", "file", path, "error", err)
}
