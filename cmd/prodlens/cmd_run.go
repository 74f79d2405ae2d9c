package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"prodlens/internal/imageset"
	"prodlens/internal/pipeline"
	"prodlens/internal/stage"
)

var runProductName string

// runCmd processes a single product folder or ZIP archive
var runCmd = &cobra.Command{
	Use:   "run [folder-or-zip]",
	Short: "Extract attributes for a single product",
	Long: `Runs the full pipeline for one product. The argument is a folder of
product images or a ZIP archive. The product name defaults to the folder or
archive name; override it with --name.

The final profile is printed as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runProduct,
}

func init() {
	runCmd.Flags().StringVar(&runProductName, "name", "", "Product name (default: folder name)")
}

func runProduct(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	path := args[0]
	images, name, err := loadSingle(path)
	if err != nil {
		return err
	}
	if runProductName != "" {
		name = runProductName
	}
	if len(images) == 0 {
		return fmt.Errorf("no images found in %s", path)
	}
	logger.Info("Processing product", zap.String("name", name), zap.Int("images", len(images)))

	controller, _, err := buildController(ctx)
	if err != nil {
		return err
	}

	profile, err := controller.Run(ctx, pipeline.Request{ProductName: name, Images: images})
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// loadSingle resolves one product path (folder or ZIP) into images and a
// default product name.
func loadSingle(path string) ([]stage.ImagePayload, string, error) {
	base := filepath.Base(path)
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		images, err := imageset.FromZip(path)
		return images, strings.TrimSuffix(base, filepath.Ext(base)), err
	}
	images, err := imageset.FromFolder(path)
	return images, base, err
}
