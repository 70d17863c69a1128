package synthesis

import (
	"context"
	"fmt"
	"time"

	"mirrorme/internal/logging"
)

// =============================================================================
// GENERATION INTERFACE
// =============================================================================

// Generator produces text from a prompt. Implementations call an external
// model; the call may fail or time out, in which case the synthesizer
// falls back to canned phrases.
type Generator interface {
	// Generate produces a completion for the given prompts
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// Name returns the generator name including the model identifier
	Name() string
}

// =============================================================================
// GENERATOR CONFIGURATION
// =============================================================================

// GeneratorConfig holds generation backend configuration.
type GeneratorConfig struct {
	// Provider: "openai" or "genai"
	Provider string

	// OpenAI-compatible configuration
	APIKey  string
	BaseURL string // Default: "https://api.openai.com/v1"
	Model   string // Default: "gpt-4o-mini"

	// Request tuning
	MaxTokens   int           // Default: 150
	Temperature float64       // Default: 0.8
	Timeout     time.Duration // Default: 30s
}

// DefaultGeneratorConfig returns sensible defaults.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Provider:    "openai",
		BaseURL:     "https://api.openai.com/v1",
		Model:       "gpt-4o-mini",
		MaxTokens:   150,
		Temperature: 0.8,
		Timeout:     30 * time.Second,
	}
}

// NewGenerator creates a generation backend based on configuration.
func NewGenerator(cfg GeneratorConfig) (Generator, error) {
	logging.Synthesis("Creating generator with provider=%s", cfg.Provider)

	switch cfg.Provider {
	case "openai":
		return NewOpenAIGenerator(cfg), nil
	case "genai":
		return NewGenAIGenerator(cfg.APIKey, cfg.Model)
	}
	return nil, fmt.Errorf("unsupported generation provider: %s (use 'openai' or 'genai')", cfg.Provider)
}
