package pack

import (
	"os"
	"path/filepath"
	"testing"
)

func validSpec() Spec {
	return Spec{
		Family:   "wordzap-mini",
		Required: []string{"modelA.compiled"},
		Priority: 1.0,
		Preserve: 0.95,
	}
}

func TestSpecValidate(t *testing.T) {
	s := validSpec()
	if err := s.Validate(); err != nil {
		t.Fatalf("valid spec rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Spec)
	}{
		{"missing family", func(s *Spec) { s.Family = "" }},
		{"no required artifacts", func(s *Spec) { s.Required = nil }},
		{"empty artifact name", func(s *Spec) { s.Required = []string{""} }},
		{"priority above range", func(s *Spec) { s.Priority = 1.5 }},
		{"priority below range", func(s *Spec) { s.Priority = -0.1 }},
		{"preserve above range", func(s *Spec) { s.Preserve = 2 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := validSpec()
			tc.mutate(&s)
			if err := s.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestSpecNormalize(t *testing.T) {
	s := Spec{Family: "f", Required: []string{"a"}}
	s.Normalize(1.0, 0.95)
	if s.Priority != 1.0 || s.Preserve != 0.95 {
		t.Fatalf("defaults not applied: %+v", s)
	}

	s = Spec{Family: "f", Required: []string{"a"}, Priority: 0.3, Preserve: 0.5}
	s.Normalize(1.0, 0.95)
	if s.Priority != 0.3 || s.Preserve != 0.5 {
		t.Fatalf("explicit hints overwritten: %+v", s)
	}
}

func TestSpecLabel(t *testing.T) {
	s := validSpec()
	if s.Label() != "wordzap-mini" {
		t.Fatalf("expected family fallback, got %q", s.Label())
	}
	s.DisplayName = "WordZap Mini"
	if s.Label() != "WordZap Mini" {
		t.Fatalf("expected display name, got %q", s.Label())
	}
}

func TestParseManifest(t *testing.T) {
	data := []byte(`{
		"packs": [
			{
				"family": "wordzap-mini",
				"display_name": "WordZap Mini",
				"required": ["modelA.compiled"],
				"sidecars": ["config.json"],
				"priority": 1.0,
				"preserve": 0.95,
				"sources": [
					{"name": "modelA.compiled", "url": "https://packs.wordzap.dev/mini/modelA.compiled"}
				]
			}
		]
	}`)

	m, err := ParseManifest(data)
	if err != nil {
		t.Fatalf("ParseManifest failed: %v", err)
	}
	if len(m.Packs) != 1 {
		t.Fatalf("expected 1 pack, got %d", len(m.Packs))
	}

	spec, ok := m.Find("wordzap-mini")
	if !ok {
		t.Fatal("Find missed the pack")
	}
	if spec.Sources[0].Name != "modelA.compiled" {
		t.Fatalf("source name lost: %+v", spec.Sources[0])
	}

	if _, ok := m.Find("unknown"); ok {
		t.Fatal("Find matched an unknown family")
	}
}

func TestParseManifestRejectsEmpty(t *testing.T) {
	if _, err := ParseManifest([]byte(`{"packs": []}`)); err == nil {
		t.Fatal("expected error for empty manifest")
	}
	if _, err := ParseManifest([]byte(`not json`)); err == nil {
		t.Fatal("expected error for malformed manifest")
	}
}

func TestParseManifestRejectsDuplicateFamilies(t *testing.T) {
	data := []byte(`{
		"packs": [
			{"family": "wordzap-mini", "required": ["a"]},
			{"family": "wordzap-mini", "required": ["b"]}
		]
	}`)
	if _, err := ParseManifest(data); err == nil {
		t.Fatal("expected error for duplicate family")
	}
}

func TestSaveAndLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "packs.json")

	m := &Manifest{Packs: []Spec{validSpec()}}
	if err := SaveManifest(path, m); err != nil {
		t.Fatalf("SaveManifest failed: %v", err)
	}

	loaded, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if len(loaded.Packs) != 1 || loaded.Packs[0].Family != "wordzap-mini" {
		t.Fatalf("round trip lost data: %+v", loaded)
	}

	// No temp file may survive the atomic write.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp file left behind")
	}
}

func TestLoadManifestMissingFile(t *testing.T) {
	if _, err := LoadManifest(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing manifest")
	}
}
