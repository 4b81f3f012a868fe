// Package pack defines the model pack manifest: which artifact files a pack
// family needs on disk before it is usable, where they come from, and the
// acquisition hints handed to the backend.
package pack

import (
	"encoding/json"
	"fmt"
	"os"
)

// Source is a single remote file belonging to a pack. Name is the destination
// filename inside the install root; when empty, the backend infers a name
// from response headers or payload sniffing.
type Source struct {
	Name string `json:"name,omitempty"`
	URL  string `json:"url"`
}

// Spec describes one pack family.
type Spec struct {
	// Family keys the pack in the registry, lease files and the models dir.
	Family      string `json:"family"`
	DisplayName string `json:"display_name,omitempty"`

	// Required lists compiled-artifact filenames. A pack is usable when at
	// least one of these is present; all present ones are copied on install.
	Required []string `json:"required"`

	// Sidecars are optional auxiliary files copied best-effort. Their absence
	// is never an error.
	Sidecars []string `json:"sidecars,omitempty"`

	// Priority and Preserve are backend hints in [0,1]. Zero values are
	// replaced by the configured defaults via Normalize.
	Priority float64 `json:"priority,omitempty"`
	Preserve float64 `json:"preserve,omitempty"`

	Sources []Source `json:"sources,omitempty"`
}

// Validate checks that the spec is internally consistent. A spec with zero
// required artifact names can never become ready, so it is rejected here
// rather than surfacing later as a validation error on every attempt.
func (s *Spec) Validate() error {
	if s.Family == "" {
		return fmt.Errorf("pack spec missing family")
	}
	if len(s.Required) == 0 {
		return fmt.Errorf("pack %q lists no required artifacts", s.Family)
	}
	for _, name := range s.Required {
		if name == "" {
			return fmt.Errorf("pack %q has an empty required artifact name", s.Family)
		}
	}
	if s.Priority < 0 || s.Priority > 1 {
		return fmt.Errorf("pack %q priority %v out of range [0,1]", s.Family, s.Priority)
	}
	if s.Preserve < 0 || s.Preserve > 1 {
		return fmt.Errorf("pack %q preserve %v out of range [0,1]", s.Family, s.Preserve)
	}
	return nil
}

// Normalize fills zero-valued acquisition hints with the given defaults.
func (s *Spec) Normalize(defaultPriority, defaultPreserve float64) {
	if s.Priority == 0 {
		s.Priority = defaultPriority
	}
	if s.Preserve == 0 {
		s.Preserve = defaultPreserve
	}
}

// Label returns a human-readable name for the pack.
func (s *Spec) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Family
}

// Manifest is the on-disk list of pack specs.
type Manifest struct {
	Packs []Spec `json:"packs"`
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest parses manifest JSON and validates every spec.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if len(m.Packs) == 0 {
		return nil, fmt.Errorf("manifest lists no packs")
	}
	seen := make(map[string]bool, len(m.Packs))
	for i := range m.Packs {
		if err := m.Packs[i].Validate(); err != nil {
			return nil, err
		}
		if seen[m.Packs[i].Family] {
			return nil, fmt.Errorf("manifest lists family %q twice", m.Packs[i].Family)
		}
		seen[m.Packs[i].Family] = true
	}
	return &m, nil
}

// Find returns the spec for a family, if present.
func (m *Manifest) Find(family string) (*Spec, bool) {
	for i := range m.Packs {
		if m.Packs[i].Family == family {
			return &m.Packs[i], true
		}
	}
	return nil, false
}

// SaveManifest writes the manifest atomically.
func SaveManifest(path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return os.Rename(tempPath, path)
}
