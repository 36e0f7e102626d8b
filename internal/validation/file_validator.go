package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "esgcli/internal/errors"
	"esgcli/internal/files"
	"esgcli/internal/infrastructure"
)

// FileValidator checks run inputs and outputs before the pipeline starts
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	return &FileValidator{
		logger: infrastructure.WithComponent(logger, "validation"),
	}
}

// ValidateInputFile checks that path is a readable export of a supported
// type. Failures are data load errors.
func (v *FileValidator) ValidateInputFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("Input file does not exist", slog.String("file", path))
		return apperrors.NewDataLoadError("input file does not exist", err).WithContext("path", path)
	}
	if err != nil {
		return apperrors.NewDataLoadError("failed to stat input file", err).WithContext("path", path)
	}
	if info.IsDir() {
		v.logger.Error("Input path is a directory", slog.String("path", path))
		return apperrors.NewDataLoadError("input path is a directory, not a file", nil).WithContext("path", path)
	}
	if !files.IsInputFile(path) {
		v.logger.Error("Unsupported input type",
			slog.String("file", path),
			slog.String("extension", filepath.Ext(path)))
		return apperrors.NewDataLoadError(
			fmt.Sprintf("unsupported input type %q", filepath.Ext(path)), nil,
		).WithContext("path", path)
	}
	if info.Size() == 0 {
		return apperrors.NewDataLoadError("input file is empty", nil).WithContext("path", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("Input file is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewDataLoadError("input file is not readable", err).WithContext("path", path)
	}
	file.Close()

	v.logger.Debug("Input file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory ensures the output directory exists and is
// writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError("failed to create output directory", err).WithContext("directory", dir)
	}

	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError("output directory is not writable", err).WithContext("directory", dir)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated", slog.String("directory", dir))
	return nil
}

// CountFiles counts files matching a pattern in a directory
func (v *FileValidator) CountFiles(dir string, pattern string) (int, error) {
	found, err := files.NewDiscovery(dir).FindFilesByPattern(".", pattern)
	if err != nil {
		return 0, err
	}
	return len(found), nil
}
