package controller

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/wordzap/aipack/internal/store"
	"github.com/wordzap/aipack/internal/utils"
)

type validationResult struct {
	destRoot string
	copied   []string
	err      error
}

// destRoot is the per-family directory under the models dir that validated
// artifacts are copied into.
func (c *Controller) destRoot() string {
	return filepath.Join(c.modelsDir, c.spec.Family)
}

// validate inspects the install root for the required artifact names,
// copies every match into the models dir, and copies sidecars best-effort.
// Zero required matches is a failure; a missing sidecar is not.
func (c *Controller) validate(installRoot string) validationResult {
	if _, err := os.Stat(installRoot); err != nil {
		return validationResult{err: ErrInstallRootUnavailable}
	}

	var matched []string
	for _, name := range c.spec.Required {
		info, err := os.Stat(filepath.Join(installRoot, name))
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		matched = append(matched, name)
	}
	if len(matched) == 0 {
		return validationResult{err: ErrNoUsableArtifacts}
	}

	destRoot := c.destRoot()
	copied := make([]string, 0, len(matched))
	for _, name := range matched {
		if _, err := store.CopyArtifact(filepath.Join(installRoot, name), destRoot); err != nil {
			return validationResult{err: fmt.Errorf("failed to copy artifact %s: %w", name, err)}
		}
		copied = append(copied, name)
	}

	for _, name := range c.spec.Sidecars {
		src := filepath.Join(installRoot, name)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if _, err := store.CopyArtifact(src, destRoot); err != nil {
			utils.Debug("sidecar copy failed for %s/%s: %v", c.spec.Family, name, err)
		}
	}

	return validationResult{destRoot: destRoot, copied: copied}
}
