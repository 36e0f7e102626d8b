package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "esgcli/internal/errors"
)

// InputExtensions lists the file types the loader can read
var InputExtensions = []string{".csv", ".txt", ".xlsx", ".xlsm"}

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery finds input exports on disk
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance. Relative directories
// are taken from basePath.
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// IsInputFile reports whether name looks like a readable export. Office
// lock files (~$...) are never inputs.
func IsInputFile(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	for _, e := range InputExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func (d *Discovery) fullPath(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// FindInputFiles finds every supported export in dir, oldest first
func (d *Discovery) FindInputFiles(dir string) ([]FileInfo, error) {
	fullPath := d.fullPath(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !IsInputFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Name < files[j].Name
		}
		return files[i].ModTime.Before(files[j].ModTime)
	})
	return files, nil
}

// FindFilesByPattern finds files matching a glob pattern
func (d *Discovery) FindFilesByPattern(dir string, pattern string) ([]FileInfo, error) {
	searchPattern := filepath.Join(d.fullPath(dir), pattern)

	matches, err := filepath.Glob(searchPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}

	var files []FileInfo
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, FileInfo{
			Path:    match,
			Name:    filepath.Base(match),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return files, nil
}

// ResolveInput turns a user-supplied path into one input file. A
// directory resolves to its most recently modified supported export.
func (d *Discovery) ResolveInput(path string) (string, error) {
	full := d.fullPath(path)
	info, err := os.Stat(full)
	if err != nil {
		return "", fmt.Errorf("input %s: %w", full, err)
	}
	if !info.IsDir() {
		return full, nil
	}

	files, err := d.FindInputFiles(full)
	if err != nil {
		return "", err
	}
	latest, ok := GetLatestFile(files)
	if !ok {
		return "", apperrors.NewNotFoundError("supported input file").
			WithContext("dir", full).
			WithContext("extensions", strings.Join(InputExtensions, ", "))
	}
	return latest.Path, nil
}

// GetLatestFile returns the most recently modified file from a list.
// Ties go to the later name.
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if file.ModTime.After(latest.ModTime) ||
			(file.ModTime.Equal(latest.ModTime) && file.Name > latest.Name) {
			latest = file
		}
	}
	return latest, true
}

// FilterFilesByDateRange filters files based on modification time
func FilterFilesByDateRange(files []FileInfo, startDate, endDate time.Time) []FileInfo {
	var filtered []FileInfo
	for _, file := range files {
		if file.ModTime.After(startDate) && file.ModTime.Before(endDate) {
			filtered = append(filtered, file)
		}
	}
	return filtered
}
