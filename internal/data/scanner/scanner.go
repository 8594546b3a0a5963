// Package scanner finds replay files on disk.
package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/penwyp/go-mine-replay/internal/util"
)

// DefaultExtension is the suffix of replay files
const DefaultExtension = ".replay"

// FileScanner scans files in the specified directory
type FileScanner struct {
	baseDir   string
	extension string
}

// NewFileScanner creates a scanner for replay files under baseDir
func NewFileScanner(baseDir string) *FileScanner {
	return &FileScanner{
		baseDir:   baseDir,
		extension: DefaultExtension,
	}
}

// WithExtension changes the file suffix matched, case-insensitively
func (s *FileScanner) WithExtension(ext string) *FileScanner {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if ext != "" {
		s.extension = ext
	}
	return s
}

// Scan walks the directory tree and returns the matching paths in lexical
// order. Unreadable entries are skipped.
func (s *FileScanner) Scan() ([]string, error) {
	start := time.Now()
	var files []string
	dirCount := 0
	totalCount := 0

	util.LogDebugf("Start scanning directory: %s", s.baseDir)

	err := filepath.Walk(s.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			util.LogDebugf("Skip file (error): %s - %v", path, err)
			return nil
		}

		if info.IsDir() {
			dirCount++
			return nil
		}

		totalCount++
		if strings.EqualFold(filepath.Ext(path), s.extension) {
			files = append(files, path)
		}
		return nil
	})

	sort.Strings(files)
	util.LogDebugf("File scan completed: duration %v, scanned %d directories, %d files, found %d replay files",
		time.Since(start), dirCount, totalCount, len(files))

	return files, err
}

// Expand replaces every directory in paths with the replay files beneath it.
// Other paths are kept as given.
func Expand(paths []string, ext string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			out = append(out, p)
			continue
		}
		files, err := NewFileScanner(p).WithExtension(ext).Scan()
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return out, nil
}
