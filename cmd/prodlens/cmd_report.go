package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"prodlens/internal/export"
	"prodlens/internal/schema"
	"prodlens/internal/store"
)

var reportLimit int

// reportCmd summarizes stored batch runs
var reportCmd = &cobra.Command{
	Use:   "report [run-id]",
	Short: "Summarize past batch runs from the result store",
	Long: `Without arguments, lists recent batch runs. With a run ID, prints the
full summary report for that run (success rate, per-attribute completion,
failed products).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().IntVar(&reportLimit, "limit", 20, "Number of runs to list")
}

func runReport(cmd *cobra.Command, args []string) error {
	resultStore, err := store.Open(cfg.Store.DatabasePath)
	if err != nil {
		return err
	}
	defer resultStore.Close()

	if len(args) == 0 {
		metas, err := resultStore.ListRuns(reportLimit)
		if err != nil {
			return err
		}
		if len(metas) == 0 {
			fmt.Println("No batch runs recorded yet.")
			return nil
		}
		fmt.Printf("%-36s  %-19s  %-8s  %s\n", "RUN ID", "STARTED", "OK/TOTAL", "INPUT")
		for _, meta := range metas {
			fmt.Printf("%-36s  %-19s  %3d/%-4d  %s\n",
				meta.RunID,
				meta.StartedAt.Local().Format("2006-01-02 15:04:05"),
				meta.Succeeded, meta.Total,
				meta.InputDir)
		}
		return nil
	}

	result, err := resultStore.LoadRun(args[0])
	if err != nil {
		return err
	}
	fmt.Print(export.FormatReport(result, schema.CameraCatalog()))
	return nil
}
