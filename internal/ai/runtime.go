package ai

import "context"

// Runtime is implemented by chat-completion backends such as OpenRouter and
// a local Ollama.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
	// RequiresCredential reports whether an API key must be present before
	// a request is attempted.
	RequiresCredential() bool
}

// Provider identifiers used across the CLI for selection.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
	ProviderLocal      = "local"
)
