// Package export writes batch results to disk: full JSON, a CSV attribute
// matrix, and a human-readable summary report.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"prodlens/internal/batch"
	"prodlens/internal/logging"
	"prodlens/internal/pipeline"
	"prodlens/internal/schema"
)

// WriteJSON writes the complete batch result, profiles and failures alike.
func WriteJSON(path string, result *batch.Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	logging.Export("wrote JSON result to %s (%d products)", path, len(result.Outcomes))
	return nil
}

// WriteCSV writes the attribute matrix: one row per product, one column per
// catalog attribute in catalog order, plus status and description columns.
// Failed products appear with their status and empty attribute cells.
func WriteCSV(path string, result *batch.Result, catalog *schema.Catalog) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	names := catalog.Names()

	header := append([]string{"product_name", "status", "image_count"}, names...)
	header = append(header, "product_description")
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, out := range result.Outcomes {
		row := make([]string, 0, len(header))
		row = append(row, out.ProductName, string(out.Status), fmt.Sprintf("%d", out.ImageCount))
		for _, name := range names {
			row = append(row, attributeCell(out.Profile, name))
		}
		description := ""
		if out.Profile != nil {
			description = out.Profile.Description
		}
		row = append(row, description)
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", out.ProductName, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	logging.Export("wrote CSV matrix to %s (%d rows)", path, len(result.Outcomes))
	return nil
}

// attributeCell renders one attribute value for the CSV matrix.
func attributeCell(profile *pipeline.ProductProfile, name string) string {
	if profile == nil {
		return ""
	}
	attr, ok := profile.Attributes[name]
	if !ok || !attr.Filled() {
		return ""
	}
	return *attr.Value
}
