package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/book-expert/logo-variants-service/internal/variants"
)

const (
	// defaultDirMode is the default permissions for created directories.
	defaultDirMode = 0o750
	// defaultFileMode is the default permissions for written variants.
	defaultFileMode = 0o640
)

// supportedExtensions lists the logo formats the pipeline can decode.
var supportedExtensions = []string{".png", ".jpg", ".jpeg", ".webp", ".svg"}

// DiscoverImages finds all supported logo files in a given directory.
// It performs a case-insensitive search and does not recurse into subdirectories.
func DiscoverImages(dirPath string) ([]string, error) {
	dirEntries, readErr := os.ReadDir(dirPath)
	if readErr != nil {
		return nil, fmt.Errorf(
			"could not read directory %s: %w",
			dirPath,
			readErr,
		)
	}

	var imagePaths []string

	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if slices.Contains(supportedExtensions, ext) {
			imagePaths = append(imagePaths, filepath.Join(dirPath, entry.Name()))
		}
	}

	return imagePaths, nil
}

// setupOutputDirectory creates the output folder for one logo.
// For a logo named 'brand.svg', it creates '<baseOutputPath>/brand/'.
func setupOutputDirectory(baseOutputPath, imagePath string) (string, error) {
	baseName := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))
	outputDir := filepath.Join(baseOutputPath, baseName)

	mkdirErr := os.MkdirAll(outputDir, defaultDirMode)
	if mkdirErr != nil {
		return "", fmt.Errorf(
			"failed to create output directory %s: %w",
			outputDir,
			mkdirErr,
		)
	}

	return outputDir, nil
}

// writeVariants stores each variant as '<outputDir>/<variant-id>.png'.
func writeVariants(outputDir string, generated []variants.Variant) error {
	for _, variant := range generated {
		path := filepath.Join(outputDir, variant.ID+".png")

		if err := os.WriteFile(path, variant.PNG, defaultFileMode); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	return nil
}
