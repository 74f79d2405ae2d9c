package batch

import (
	"time"

	"prodlens/internal/pipeline"
	"prodlens/internal/schema"
)

// Stats aggregates a batch result: counts, rates, and per-attribute fill
// rates over the successful products.
type Stats struct {
	Total       int
	Succeeded   int
	Failed      int
	SuccessRate float64
	TotalImages int
	AvgImages   float64
	AvgElapsed  time.Duration

	// FillRate maps attribute name to the fraction of successful products
	// whose profile carries a value for it. Keys follow catalog order via
	// FillOrder.
	FillRate  map[string]float64
	FillOrder []string

	FailedProducts []Outcome
}

// ComputeStats derives aggregate statistics from a result against the given
// attribute catalog.
func ComputeStats(result *Result, catalog *schema.Catalog) Stats {
	stats := Stats{
		Total:     len(result.Outcomes),
		FillRate:  make(map[string]float64, catalog.Len()),
		FillOrder: catalog.Names(),
	}

	filled := make(map[string]int, catalog.Len())
	var elapsedSum time.Duration
	for _, out := range result.Outcomes {
		stats.TotalImages += out.ImageCount
		elapsedSum += out.Elapsed
		if out.Status != pipeline.StateSucceeded {
			stats.Failed++
			stats.FailedProducts = append(stats.FailedProducts, out)
			continue
		}
		stats.Succeeded++
		for name, attr := range out.Profile.Attributes {
			if attr.Filled() {
				filled[name]++
			}
		}
	}

	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Succeeded) / float64(stats.Total)
		stats.AvgImages = float64(stats.TotalImages) / float64(stats.Total)
		stats.AvgElapsed = elapsedSum / time.Duration(stats.Total)
	}
	for _, name := range stats.FillOrder {
		if stats.Succeeded > 0 {
			stats.FillRate[name] = float64(filled[name]) / float64(stats.Succeeded)
		} else {
			stats.FillRate[name] = 0
		}
	}
	return stats
}
