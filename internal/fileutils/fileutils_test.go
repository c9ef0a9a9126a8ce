package fileutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.pdf")
	touch(t, file, "x")

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(dir))
	assert.True(t, DirectoryExists(dir))
	assert.False(t, DirectoryExists(file))
	assert.False(t, FileExists(filepath.Join(dir, "missing")))
}

func TestHasExtension(t *testing.T) {
	assert.True(t, HasExtension("INV-1.PDF", []string{".pdf"}))
	assert.True(t, HasExtension("jan.sta", []string{"mt940", "sta"}))
	assert.False(t, HasExtension("README", []string{".pdf"}))
	assert.False(t, HasExtension("a.pdf.bak", []string{".pdf"}))
}

func TestListFilesWithExtensions(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.pdf"), "b")
	touch(t, filepath.Join(dir, "a.PDF"), "a")
	touch(t, filepath.Join(dir, "notes.txt"), "n")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.pdf"), 0750))

	files, err := ListFilesWithExtensions(dir, []string{".pdf"})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.PDF"), filepath.Join(dir, "b.pdf")}, files)

	_, err = ListFilesWithExtensions(filepath.Join(dir, "missing"), []string{".pdf"})
	assert.Error(t, err)
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "INV-1.pdf")
	touch(t, src, "%PDF-1.4")

	dst := filepath.Join(dir, "out", "pdfs", "1.pdf")
	n, err := CopyFile(src, dst)
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	_, err = CopyFile(filepath.Join(dir, "missing.pdf"), dst)
	assert.Error(t, err)
}
