// Package filesys provides a small set of file system helpers. The store
// uses CreateDir to create its data directory; the engine marker is read
// and written with direct os calls, not through this package.
package filesys

import (
	"errors"
	"os"
)

var (
	ErrIsNotDir = errors.New("path isn't a directory")
)

// CreateDir creates a directory at the specified path with the given permissions.
//
// If the directory already exists:
//   - If 'force' is true, it proceeds without error.
//   - If 'force' is false, it returns an error.
//
// It also returns an error if the existing path is a file (not a directory).
func CreateDir(dirPath string, permission os.FileMode, force bool) error {
	stat, err := os.Stat(dirPath)
	if !force && !os.IsNotExist(err) {
		if err == nil {
			return os.ErrExist
		}
		return err
	}

	if stat != nil && !stat.IsDir() {
		return ErrIsNotDir
	}

	if err := os.MkdirAll(dirPath, permission); err != nil {
		return err
	}

	return os.Chmod(dirPath, permission)
}

// Exists checks if a file or directory at the given `file` path exists.
func Exists(file string) (bool, error) {
	_, err := os.Stat(file)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// DeleteFile deletes the file at the specified `filePath`.
func DeleteFile(filePath string) error {
	return os.Remove(filePath)
}

// ReadFile reads the entire content of the file at `filePath` into a byte slice.
func ReadFile(filePath string) ([]byte, error) {
	return os.ReadFile(filePath)
}

// WriteFile writes the provided `contents` to the file at `filePath` with the given `permission`.
func WriteFile(filePath string, permission os.FileMode, contents []byte) error {
	return os.WriteFile(filePath, contents, permission)
}
