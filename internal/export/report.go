package export

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"prodlens/internal/batch"
	"prodlens/internal/logging"
	"prodlens/internal/schema"
)

// FormatReport renders a batch summary in plain text: success rate, image
// totals, per-attribute completion rates, and the failed products.
func FormatReport(result *batch.Result, catalog *schema.Catalog) string {
	stats := batch.ComputeStats(result, catalog)

	var b strings.Builder
	fmt.Fprintf(&b, "Batch Run Report\n")
	fmt.Fprintf(&b, "================\n")
	fmt.Fprintf(&b, "Run ID:       %s\n", result.RunID)
	fmt.Fprintf(&b, "Started:      %s\n", result.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Duration:     %v\n", result.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(&b, "Products:     %d (%d succeeded, %d failed)\n", stats.Total, stats.Succeeded, stats.Failed)
	fmt.Fprintf(&b, "Success rate: %.1f%%\n", stats.SuccessRate*100)
	fmt.Fprintf(&b, "Images:       %d total, %.1f avg per product\n", stats.TotalImages, stats.AvgImages)

	fmt.Fprintf(&b, "\nAttribute completion (over %d successful products)\n", stats.Succeeded)
	fmt.Fprintf(&b, "--------------------------------------------------\n")
	width := 0
	for _, name := range stats.FillOrder {
		if len(name) > width {
			width = len(name)
		}
	}
	for _, name := range stats.FillOrder {
		fmt.Fprintf(&b, "  %-*s  %5.1f%%\n", width, name, stats.FillRate[name]*100)
	}

	if len(stats.FailedProducts) > 0 {
		fmt.Fprintf(&b, "\nFailed products\n")
		fmt.Fprintf(&b, "---------------\n")
		failed := make([]batch.Outcome, len(stats.FailedProducts))
		copy(failed, stats.FailedProducts)
		sort.Slice(failed, func(i, j int) bool { return failed[i].ProductName < failed[j].ProductName })
		for _, out := range failed {
			stage := out.FailedStage
			if stage == "" {
				stage = "-"
			}
			fmt.Fprintf(&b, "  %s: stage %s, %s: %s\n", out.ProductName, stage, out.ErrorKind, out.Error)
		}
	}

	return b.String()
}

// WriteReport writes the formatted summary report to path.
func WriteReport(path string, result *batch.Result, catalog *schema.Catalog) error {
	text := FormatReport(result, catalog)
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	logging.Export("wrote summary report to %s", path)
	return nil
}
