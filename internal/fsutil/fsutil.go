package fsutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindGoFilesRecursively lists .go files under rootDir, skipping hidden
// directories such as .git or the binary output dir.
func FindGoFilesRecursively(rootDir string) ([]string, error) {
	var goFiles []string

	err := filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && path != rootDir && strings.HasPrefix(info.Name(), ".") {
			return filepath.SkipDir
		}
		if !info.IsDir() && strings.HasSuffix(info.Name(), ".go") {
			goFiles = append(goFiles, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return goFiles, nil
}

// GoSourceDirs returns the distinct directories under rootDir holding Go
// files, plus rootDir itself, sorted.
func GoSourceDirs(rootDir string) ([]string, error) {
	files, err := FindGoFilesRecursively(rootDir)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{rootDir: true}
	dirs := []string{rootDir}
	for _, f := range files {
		d := filepath.Dir(f)
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}
