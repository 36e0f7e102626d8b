package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "esgcli/internal/errors"
)

func touch(t *testing.T, dir, name string, mod time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0644))
	require.NoError(t, os.Chtimes(path, mod, mod))
	return path
}

func TestIsInputFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"ratings.csv", true},
		{"RATINGS.CSV", true},
		{"export.txt", true},
		{"book.xlsx", true},
		{"macro.xlsm", true},
		{"legacy.xls", false},
		{"~$book.xlsx", false},
		{".hidden.csv", false},
		{"notes.pdf", false},
		{"noext", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsInputFile(tt.name))
		})
	}
}

func TestFindInputFiles(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	touch(t, dir, "b.csv", base.Add(2*time.Hour))
	touch(t, dir, "a.xlsx", base)
	touch(t, dir, "skip.pdf", base.Add(5*time.Hour))
	touch(t, dir, "~$a.xlsx", base.Add(6*time.Hour))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0755))

	files, err := NewDiscovery("").FindInputFiles(dir)
	require.NoError(t, err)

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"a.xlsx", "b.csv"}, names)

	_, err = NewDiscovery("").FindInputFiles(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestFindInputFiles_RelativeToBase(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(base, "downloads"), 0755))
	touch(t, filepath.Join(base, "downloads"), "r.csv", time.Now())

	files, err := NewDiscovery(base).FindInputFiles("downloads")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(base, "downloads", "r.csv"), files[0].Path)
}

func TestResolveInput(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	older := touch(t, dir, "jan.csv", base)
	newer := touch(t, dir, "feb.xlsx", base.Add(24*time.Hour))

	d := NewDiscovery("")

	got, err := d.ResolveInput(dir)
	require.NoError(t, err)
	assert.Equal(t, newer, got)

	got, err = d.ResolveInput(older)
	require.NoError(t, err)
	assert.Equal(t, older, got, "a file path is returned as is")

	_, err = d.ResolveInput(filepath.Join(dir, "nope.csv"))
	assert.Error(t, err)

	empty := t.TempDir()
	_, err = d.ResolveInput(empty)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestFindFilesByPattern(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "esg_2023.csv", time.Now())
	touch(t, dir, "esg_2024.csv", time.Now())
	touch(t, dir, "other.csv", time.Now())

	files, err := NewDiscovery(dir).FindFilesByPattern(".", "esg_*.csv")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = NewDiscovery(dir).FindFilesByPattern(".", "[")
	assert.Error(t, err)
}

func TestGetLatestFile(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name   string
		files  []FileInfo
		want   string
		wantOK bool
	}{
		{name: "empty", wantOK: false},
		{
			name:   "newest wins",
			files:  []FileInfo{{Name: "a", ModTime: now}, {Name: "b", ModTime: now.Add(time.Hour)}},
			want:   "b",
			wantOK: true,
		},
		{
			name:   "tie goes to later name",
			files:  []FileInfo{{Name: "z", ModTime: now}, {Name: "a", ModTime: now}},
			want:   "z",
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := GetLatestFile(tt.files)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestFilterFilesByDateRange(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	files := []FileInfo{
		{Name: "before", ModTime: base.Add(-time.Hour)},
		{Name: "inside", ModTime: base.Add(time.Hour)},
		{Name: "after", ModTime: base.Add(48 * time.Hour)},
	}

	got := FilterFilesByDateRange(files, base, base.Add(24*time.Hour))
	require.Len(t, got, 1)
	assert.Equal(t, "inside", got[0].Name)
}
