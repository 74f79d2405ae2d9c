package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"prodlens/internal/batch"
	"prodlens/internal/export"
	"prodlens/internal/imageset"
	"prodlens/internal/store"
)

var (
	batchConcurrency int
	batchOutputDir   string
	batchNoSave      bool
)

// batchCmd processes every product folder under a base directory
var batchCmd = &cobra.Command{
	Use:   "batch [base-folder]",
	Short: "Extract attributes for every product under a folder",
	Long: `Treats every subfolder (and ZIP archive) of the base folder as one
product and runs the pipeline over all of them with bounded concurrency.
One product failing does not stop the rest.

Writes results.json, results.csv and report.txt to the output directory,
prints the summary report, and records the run in the result store.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "Concurrent products (default from config)")
	batchCmd.Flags().StringVarP(&batchOutputDir, "output", "o", "", "Output directory (default from config)")
	batchCmd.Flags().BoolVar(&batchNoSave, "no-save", false, "Skip recording the run in the result store")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	baseDir := args[0]
	products, err := imageset.Products(baseDir)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		return fmt.Errorf("no product folders found in %s", baseDir)
	}

	items := make([]batch.Item, len(products))
	for i, p := range products {
		items[i] = batch.Item{Name: p.Name, Images: p.Images}
	}
	logger.Info("Starting batch", zap.String("dir", baseDir), zap.Int("products", len(items)))

	controller, catalog, err := buildController(ctx)
	if err != nil {
		return err
	}

	concurrency := cfg.Batch.Concurrency
	if batchConcurrency > 0 {
		concurrency = batchConcurrency
	}
	runner := batch.NewRunner(controller, concurrency)
	result := runner.Run(ctx, items)

	outDir := cfg.Output.Dir
	if batchOutputDir != "" {
		outDir = batchOutputDir
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := export.WriteJSON(filepath.Join(outDir, "results.json"), result); err != nil {
		return err
	}
	if err := export.WriteCSV(filepath.Join(outDir, "results.csv"), result, catalog); err != nil {
		return err
	}
	if err := export.WriteReport(filepath.Join(outDir, "report.txt"), result, catalog); err != nil {
		return err
	}

	if !batchNoSave {
		resultStore, err := store.Open(cfg.Store.DatabasePath)
		if err != nil {
			return err
		}
		defer resultStore.Close()
		if err := resultStore.SaveRun(result, baseDir); err != nil {
			return err
		}
	}

	fmt.Print(export.FormatReport(result, catalog))
	return nil
}
