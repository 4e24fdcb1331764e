package launch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// ErrNotDirectory is returned by ResolveDir for paths that exist but are not
// directories.
var ErrNotDirectory = errors.New("not a directory")

// ResolveDir turns a user supplied working directory into a clean absolute
// path with ~ expanded and symlinks resolved. The directory must exist.
func ResolveDir(dir string) (string, error) {
	if dir == "" {
		return "", nil
	}

	expanded, err := homedir.Expand(dir)
	if err != nil {
		return "", fmt.Errorf("failed to expand '%s': %w", dir, err)
	}

	absPath, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to convert '%s' to absolute: %w", dir, err)
	}

	// Resolve symlinks so the recorded path is the real one
	// (e.g., /tmp -> /private/tmp on macOS)
	realPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return "", fmt.Errorf("dprun directory '%s': %w", dir, err)
	}

	info, err := os.Stat(realPath)
	if err != nil {
		return "", fmt.Errorf("dprun directory '%s': %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("dprun directory '%s': %w", dir, ErrNotDirectory)
	}

	return realPath, nil
}

// HasExecutable reports whether executable is a regular file inside dir.
// Executables given as a path are not checked and always report true.
func HasExecutable(dir, executable string) bool {
	if strings.ContainsAny(executable, `/\`) {
		return true
	}
	info, err := os.Stat(filepath.Join(dir, executable))
	return err == nil && info.Mode().IsRegular()
}
