package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"prodlens/internal/batch"
	"prodlens/internal/pipeline"
)

// watchCmd processes product folders as they are dropped into a directory
var watchCmd = &cobra.Command{
	Use:   "watch [drop-folder]",
	Short: "Watch a folder and process products as they appear",
	Long: `Watches the drop folder and runs the pipeline for every new product
folder or ZIP archive, after a short settle delay so half-copied drops are
not picked up. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	controller, _, err := buildController(ctx)
	if err != nil {
		return err
	}
	runner := batch.NewRunner(controller, 1)

	watcher := batch.NewWatcher(runner, args[0], cfg.SettleDelay())
	watcher.OnOutcome = func(out batch.Outcome) {
		if out.Status != pipeline.StateSucceeded {
			logger.Warn("Product failed",
				zap.String("name", out.ProductName),
				zap.String("stage", out.FailedStage),
				zap.String("error", out.Error))
			return
		}
		data, err := json.MarshalIndent(out.Profile, "", "  ")
		if err != nil {
			logger.Error("Failed to marshal profile", zap.Error(err))
			return
		}
		fmt.Println(string(data))
	}

	fmt.Printf("Watching %s (Ctrl-C to stop)\n", args[0])
	err = watcher.Watch(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
