package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(dir, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte("1=1x1+++"), 0644))
	}
}

func TestNewFileScanner(t *testing.T) {
	s := NewFileScanner("/tmp/test")
	assert.Equal(t, "/tmp/test", s.baseDir)
	assert.Equal(t, DefaultExtension, s.extension)

	assert.Equal(t, ".txt", NewFileScanner("x").WithExtension("txt").extension)
	assert.Equal(t, ".txt", NewFileScanner("x").WithExtension(".txt").extension)
	assert.Equal(t, DefaultExtension, NewFileScanner("x").WithExtension("").extension)
}

func TestFileScannerScanEmptyDirectory(t *testing.T) {
	files, err := NewFileScanner(t.TempDir()).Scan()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFileScannerScanNonExistentDirectory(t *testing.T) {
	files, err := NewFileScanner("/path/that/does/not/exist").Scan()
	require.NoError(t, err, "Scanner should handle non-existent directory gracefully")
	assert.Empty(t, files)
}

func TestFileScannerScanNestedDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir,
		"b.replay",
		"a/game.REPLAY",
		"a/deeper/old.replay",
		"a/notes.txt",
		"c.replay.bak",
	)

	files, err := NewFileScanner(dir).Scan()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a/deeper/old.replay"),
		filepath.Join(dir, "a/game.REPLAY"),
		filepath.Join(dir, "b.replay"),
	}, files)
}

func TestExpand(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "games/one.replay", "games/two.replay", "games/skip.txt", "single.txt")

	paths, err := Expand([]string{
		filepath.Join(dir, "single.txt"),
		filepath.Join(dir, "games"),
		"-",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "single.txt"),
		filepath.Join(dir, "games/one.replay"),
		filepath.Join(dir, "games/two.replay"),
		"-",
	}, paths)
}
