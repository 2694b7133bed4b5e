// Package validation checks input and output paths before the pipeline
// touches them, so path problems surface as clear errors instead of
// mid-load failures.
package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"pricelens/internal/errors"
)

// FileValidator validates pipeline input files and report directories.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator.
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{logger: logger}
}

// supportedExtensions lists the input formats the loader understands.
var supportedExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
}

// ValidateInput checks that the price history file exists, is a regular
// file, is not empty and carries a supported extension.
func (v *FileValidator) ValidateInput(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("Input file does not exist",
			slog.String("file", path))
		return errors.NewStorageError(fmt.Sprintf("input file %s does not exist", path), err)
	}
	if err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to stat input file %s", path), err)
	}
	if info.IsDir() {
		return errors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}
	if info.Size() == 0 {
		return errors.NewAppValidationError(fmt.Sprintf("input file %s is empty", path))
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return errors.NewAppValidationError(
			fmt.Sprintf("unsupported input format %q, expected .csv or .xlsx", ext)).
			WithContext("file", path)
	}

	v.logger.Debug("Input file validated",
		slog.String("file", path),
		slog.Int64("size_bytes", info.Size()))
	return nil
}

// ValidateOutputDirectory ensures the report directory exists and is
// writable, creating it when missing.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		return errors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	file.Close()
	os.Remove(testFile)

	return nil
}
