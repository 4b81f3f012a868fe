package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyArtifact copies src into destDir under its base name, atomically and
// idempotently: an existing copy with matching size is left untouched, and a
// new copy becomes visible only after a full write plus rename.
func CopyArtifact(src, destDir string) (string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("failed to stat artifact: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("artifact %s is a directory", src)
	}

	dest := filepath.Join(destDir, filepath.Base(src))
	if existing, err := os.Stat(dest); err == nil && existing.Size() == info.Size() {
		return dest, nil
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create store dir: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("failed to open artifact: %w", err)
	}
	defer func() { _ = in.Close() }()

	tempPath := dest + ".tmp"
	out, err := os.Create(tempPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", tempPath, err)
	}

	_, err = io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("failed to copy artifact %s: %w", filepath.Base(src), err)
	}

	if err := os.Rename(tempPath, dest); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("failed to finalize artifact %s: %w", filepath.Base(src), err)
	}

	return dest, nil
}

// HasAnyArtifact reports whether dir contains at least one of the named
// files. Errors count as absence.
func HasAnyArtifact(dir string, names []string) bool {
	if dir == "" {
		return false
	}
	for _, name := range names {
		info, err := os.Stat(filepath.Join(dir, name))
		if err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

// RemoveFamilyDir deletes the stored artifacts for a family under modelsDir.
func RemoveFamilyDir(modelsDir, family string) error {
	if modelsDir == "" || family == "" {
		return nil
	}
	return os.RemoveAll(filepath.Join(modelsDir, family))
}
