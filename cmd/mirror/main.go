package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mirrorme/internal/config"
	"mirrorme/internal/embedding"
	"mirrorme/internal/logging"
	"mirrorme/internal/pipeline"
	"mirrorme/internal/store"
	"mirrorme/internal/synthesis"
)

var (
	// Global flags
	verbose   bool
	workspace string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mirror",
	Short: "mirrorme - a digital twin that answers in your voice",
	Long: `mirrorme trains a personality model from your own message corpus and
answers incoming messages the way you would.

The pipeline classifies intent, retrieves your closest past responses,
generates a reply grounded in your trained profile, adjusts tone for the
sender and context, and runs every candidate through the safety gate
before anything is dispatched.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// buildTwin assembles the full pipeline from workspace config. The
// returned cleanup closes the store and flushes category logs.
func buildTwin() (*pipeline.Twin, *config.Config, func(), error) {
	cfg, err := config.Load(workspace)
	if err != nil {
		return nil, nil, nil, err
	}

	if err := logging.Initialize(workspace); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	engine, err := embedding.NewEngine(embedding.Config{
		Provider:       cfg.Embedding.Provider,
		OllamaEndpoint: cfg.Embedding.OllamaEndpoint,
		OllamaModel:    cfg.Embedding.OllamaModel,
		GenAIAPIKey:    cfg.Embedding.GenAIAPIKey,
		GenAIModel:     cfg.Embedding.GenAIModel,
		TaskType:       cfg.Embedding.TaskType,
	})
	if err != nil {
		logging.CloseAll()
		return nil, nil, nil, err
	}

	gen, err := synthesis.NewGenerator(synthesis.GeneratorConfig{
		Provider:    cfg.LLM.Provider,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLMTimeout(),
	})
	if err != nil {
		logging.CloseAll()
		return nil, nil, nil, err
	}

	var st *store.Store
	if cfg.Memory.DatabasePath != "" {
		st, err = store.New(cfg.Memory.DatabasePath)
		if err != nil {
			logging.CloseAll()
			return nil, nil, nil, err
		}
	}

	twin := pipeline.New(cfg, engine, gen, nil, st, nil)
	if err := twin.Restore(); err != nil {
		logger.Warn("failed to restore persisted state", zap.Error(err))
	}

	cleanup := func() {
		if st != nil {
			_ = st.Close()
		}
		logging.CloseAll()
	}
	return twin, cfg, cleanup, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", ".", "Workspace directory (holds .mirror/)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
