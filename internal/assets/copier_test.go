package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopy_ThenAlreadyExists(t *testing.T) {
	srcDir := t.TempDir()
	destDir := t.TempDir()
	source := filepath.Join(srcDir, "jane-doe.jpg")
	content := []byte("jpeg bytes here")
	require.NoError(t, os.WriteFile(source, content, 0o644))

	c := NewCopier(testLogger())

	res, target, err := c.Copy(source, destDir, "P000077", ".jpg")
	require.NoError(t, err)
	assert.Equal(t, Copied, res)
	assert.Equal(t, filepath.Join(destDir, "P000077.jpg"), target)

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	// Second run short-circuits; bytes untouched.
	res, target2, err := c.Copy(source, destDir, "P000077", ".jpg")
	require.NoError(t, err)
	assert.Equal(t, AlreadyExists, res)
	assert.Equal(t, target, target2)

	got, err = os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestCopy_CreatesDestDir(t *testing.T) {
	srcDir := t.TempDir()
	source := filepath.Join(srcDir, "a.pdf")
	require.NoError(t, os.WriteFile(source, []byte("pdf"), 0o644))

	destDir := filepath.Join(t.TempDir(), "out", "nested")
	res, target, err := NewCopier(testLogger()).Copy(source, destDir, "C000001", ".pdf")
	require.NoError(t, err)
	assert.Equal(t, Copied, res)
	assert.FileExists(t, target)
}

func TestCopy_ExtensionMismatchStillCopies(t *testing.T) {
	srcDir := t.TempDir()
	source := filepath.Join(srcDir, "jane.jpeg")
	require.NoError(t, os.WriteFile(source, []byte("x"), 0o644))

	res, target, err := NewCopier(testLogger()).Copy(source, t.TempDir(), "P000002", ".jpg")
	require.NoError(t, err)
	assert.Equal(t, Copied, res)
	assert.Equal(t, "P000002.jpg", filepath.Base(target))
}

func TestCopy_MissingSourceFails(t *testing.T) {
	_, _, err := NewCopier(testLogger()).Copy(
		filepath.Join(t.TempDir(), "gone.jpg"), t.TempDir(), "P000003", ".jpg")
	assert.Error(t, err)
}

func TestCopy_NoTempFileLeftBehind(t *testing.T) {
	srcDir := t.TempDir()
	destDir := t.TempDir()
	source := filepath.Join(srcDir, "a.png")
	require.NoError(t, os.WriteFile(source, []byte("png"), 0o644))

	_, _, err := NewCopier(testLogger()).Copy(source, destDir, "E000004", ".png")
	require.NoError(t, err)

	entries, err := os.ReadDir(destDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "E000004.png", entries[0].Name())
}
