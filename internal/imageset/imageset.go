// Package imageset resolves product folders and ZIP archives into the
// ordered (name, bytes, MIME) image payloads the pipeline consumes. How the
// images got there (upload, sync, manual copy) is not this package's
// problem; it only reads what exists.
package imageset

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"prodlens/internal/stage"
)

// mimeByExt maps supported image extensions to their MIME types.
var mimeByExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Product is one product folder resolved into its name and image payloads.
type Product struct {
	Name   string
	Images []stage.ImagePayload
}

// FromFolder loads every supported image in dir, sorted by file name for
// deterministic stage input.
func FromFolder(dir string) ([]stage.ImagePayload, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read product folder: %w", err)
	}

	var images []stage.ImagePayload
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		mime, ok := mimeByExt[strings.ToLower(filepath.Ext(entry.Name()))]
		if !ok {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read image %s: %w", entry.Name(), err)
		}
		images = append(images, stage.ImagePayload{Name: entry.Name(), MIME: mime, Data: data})
	}

	sort.Slice(images, func(i, j int) bool { return images[i].Name < images[j].Name })
	return images, nil
}

// FromZip loads every supported image from a ZIP archive, sorted by entry
// name. Directory structure inside the archive is flattened.
func FromZip(path string) ([]stage.ImagePayload, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer reader.Close()

	var images []stage.ImagePayload
	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		name := filepath.Base(file.Name)
		mime, ok := mimeByExt[strings.ToLower(filepath.Ext(name))]
		if !ok {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open archive entry %s: %w", file.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read archive entry %s: %w", file.Name, err)
		}
		images = append(images, stage.ImagePayload{Name: name, MIME: mime, Data: data})
	}

	sort.Slice(images, func(i, j int) bool { return images[i].Name < images[j].Name })
	return images, nil
}

// Products resolves a base directory into one Product per subfolder or ZIP
// archive, sorted by product name. A folder with no supported images still
// yields a Product with an empty image set; the batch runner turns that
// into a per-product failure rather than skipping it silently.
func Products(baseDir string) ([]Product, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read base folder: %w", err)
	}

	var products []Product
	for _, entry := range entries {
		path := filepath.Join(baseDir, entry.Name())
		switch {
		case entry.IsDir():
			images, err := FromFolder(path)
			if err != nil {
				return nil, err
			}
			products = append(products, Product{Name: entry.Name(), Images: images})
		case strings.EqualFold(filepath.Ext(entry.Name()), ".zip"):
			images, err := FromZip(path)
			if err != nil {
				return nil, err
			}
			name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
			products = append(products, Product{Name: name, Images: images})
		}
	}

	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}
