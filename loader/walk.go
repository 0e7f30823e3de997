package loader

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// findFiles recursively collects every file under dir whose name ends in
// ext (case-insensitive). Returns nil without error if dir does not
// exist, since every one of these directories is optional.
func findFiles(dir, ext string) ([]string, error) {
	if !dirExists(dir) {
		return nil, nil
	}

	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		if strings.EqualFold(filepath.Ext(d.Name()), ext) {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)

	return err == nil && !info.IsDir()
}
