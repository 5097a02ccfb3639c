package paths

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir string, name string, age time.Duration) {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("data"), 0644))

	mtime := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestDownloadedFiles(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "a.mkv", time.Hour)
	writeFile(t, dir, "b.mkv", 2*time.Hour)

	// nested files must not be listed
	sub := filepath.Join(dir, "extracted")
	require.NoError(t, os.Mkdir(sub, 0755))
	writeFile(t, sub, "nested.mkv", time.Minute)

	files := DownloadedFiles(dir)
	require.Len(t, files, 2)

	for _, f := range files {
		assert.NotEmpty(t, f.Name)
		assert.Equal(t, int64(4), f.Size)
		assert.False(t, f.ModifiedTime.IsZero())
	}
}

func TestDownloadedFilesAbsentFolder(t *testing.T) {
	assert.Nil(t, DownloadedFiles(filepath.Join(t.TempDir(), "missing")))
}

func TestSortNewestFirst(t *testing.T) {
	files := []File{
		{Name: "old.mkv", ModifiedTime: time.Now().Add(-2 * time.Hour)},
		{Name: "new.mkv", ModifiedTime: time.Now().Add(-time.Minute)},
		{Name: "mid.mkv", ModifiedTime: time.Now().Add(-time.Hour)},
	}

	SortNewestFirst(files)

	assert.Equal(t, "new.mkv", files[0].Name)
	assert.Equal(t, "mid.mkv", files[1].Name)
	assert.Equal(t, "old.mkv", files[2].Name)
}

func TestSortByName(t *testing.T) {
	files := []File{
		{Name: "c.mkv"},
		{Name: "a.mkv"},
		{Name: "b.mkv"},
	}

	SortByName(files)

	assert.Equal(t, "a.mkv", files[0].Name)
	assert.Equal(t, "b.mkv", files[1].Name)
	assert.Equal(t, "c.mkv", files[2].Name)
}
