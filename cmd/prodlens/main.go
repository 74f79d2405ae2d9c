package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"prodlens/internal/config"
	"prodlens/internal/gemini"
	"prodlens/internal/logging"
	"prodlens/internal/pipeline"
	"prodlens/internal/prompt"
	"prodlens/internal/schema"
	"prodlens/internal/stage"
)

var (
	// Global flags
	verbose    bool
	configPath string
	apiKey     string
	model      string

	// Loaded config, available to all subcommands after PersistentPreRunE
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "prodlens",
	Short: "prodlens - product attribute extraction from images",
	Long: `prodlens extracts structured product attributes from product images
through a three-stage model pipeline:

  1. Image extraction: read visible and inferable attributes off the images
  2. Search planning: plan the spec lookups that would fill the gaps
  3. Enrichment: merge everything into a final attribute profile

Point it at a single product folder (run), a directory of product folders
(batch), or leave it watching a drop directory (watch).`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		zapConfig := zap.NewProductionConfig()
		if verbose {
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if apiKey != "" {
			cfg.Gemini.APIKey = apiKey
		}
		if model != "" {
			cfg.Gemini.Model = model
		}

		var categories map[string]bool
		if len(cfg.Logging.Categories) > 0 {
			categories = make(map[string]bool, len(cfg.Logging.Categories))
			for _, c := range cfg.Logging.Categories {
				categories[c] = true
			}
		}
		return logging.Configure(logging.Options{
			Debug:      verbose,
			Level:      cfg.Logging.Level,
			Dir:        cfg.Logging.Dir,
			Categories: categories,
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "prodlens.yaml", "Config file path")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Gemini API key (or set GEMINI_API_KEY env)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "Model name override")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(stagesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// signalContext returns a context canceled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// buildController wires the full pipeline: Gemini invoker, retry layer,
// executor, and the three camera stages.
func buildController(ctx context.Context) (*pipeline.Controller, *schema.Catalog, error) {
	invoker, err := gemini.NewInvoker(ctx, gemini.Config{
		APIKey:          cfg.Gemini.APIKey,
		Model:           cfg.Gemini.Model,
		Timeout:         cfg.GeminiTimeout(),
		MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Pipeline ready", zap.String("model", invoker.Model()))

	retrying := gemini.NewRetryInvoker(invoker, cfg.Retry.Attempts, cfg.RetryBackoff())
	exec := stage.NewExecutor(retrying)
	catalog := schema.CameraCatalog()

	controller, err := pipeline.NewController(exec, catalog, prompt.CameraStages(catalog))
	if err != nil {
		return nil, nil, err
	}
	return controller, catalog, nil
}

// stagesCmd prints the pipeline stage order
var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "Print the pipeline stages in execution order",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog := schema.CameraCatalog()
		fmt.Println(prompt.Describe(prompt.CameraStages(catalog)))
		return nil
	},
}
