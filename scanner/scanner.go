// Package scanner discovers scenario files under a directory tree.
package scanner

import (
	"os"
	"path/filepath"
	"strings"
)

// FileInfo describes one discovered scenario file.
type FileInfo struct {
	Path string
	Size int64
}

// Scanner walks a root directory collecting files whose names carry one of
// the configured suffixes. Scenario files are matched by full suffix rather
// than extension, so ".chor.yaml" does not also pick up every ".yaml" file.
type Scanner struct {
	rootDir  string
	suffixes []string
}

// New returns a scanner rooted at rootDir. With no suffixes every regular
// file matches.
func New(rootDir string, suffixes ...string) *Scanner {
	return &Scanner{
		rootDir:  rootDir,
		suffixes: suffixes,
	}
}

// Scan walks the tree and returns the matching files in walk order.
func (s *Scanner) Scan() ([]FileInfo, error) {
	var files []FileInfo

	err := filepath.Walk(s.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		if s.isTargetFile(path) {
			files = append(files, FileInfo{
				Path: path,
				Size: info.Size(),
			})
		}
		return nil
	})

	return files, err
}

func (s *Scanner) isTargetFile(path string) bool {
	if len(s.suffixes) == 0 {
		return true
	}

	for _, suffix := range s.suffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}
