package cmd

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/cobra"

	"github.com/wordzap/aipack/internal/pack"
)

const manifestJSON = `{
	"packs": [
		{"family": "wordzap-mini", "required": ["modelA.compiled"]},
		{"family": "wordzap-large", "required": ["modelB.compiled"], "priority": 0.5}
	]
}`

func setupConfigDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	if runtime.GOOS == "windows" {
		t.Setenv("APPDATA", dir)
	} else {
		t.Setenv("XDG_CONFIG_HOME", dir)
	}
}

func newManifestCmd() *cobra.Command {
	c := &cobra.Command{}
	c.Flags().String("manifest", "", "")
	c.Flags().Bool("from-clipboard", false, "")
	return c
}

func TestResolveManifestFromFile(t *testing.T) {
	setupConfigDir(t)

	path := filepath.Join(t.TempDir(), "packs.json")
	if err := os.WriteFile(path, []byte(manifestJSON), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	c := newManifestCmd()
	if err := c.Flags().Set("manifest", path); err != nil {
		t.Fatalf("flag set failed: %v", err)
	}

	manifest, err := resolveManifest(c)
	if err != nil {
		t.Fatalf("resolveManifest failed: %v", err)
	}
	if len(manifest.Packs) != 2 {
		t.Fatalf("expected 2 packs, got %d", len(manifest.Packs))
	}

	// Acquisition hints get defaulted from settings on load.
	mini, _ := manifest.Find("wordzap-mini")
	if mini.Priority != 1.0 || mini.Preserve != 0.95 {
		t.Fatalf("hints not normalized: %+v", mini)
	}
	large, _ := manifest.Find("wordzap-large")
	if large.Priority != 0.5 {
		t.Fatalf("explicit priority overwritten: %v", large.Priority)
	}
}

func TestResolveManifestRelativePath(t *testing.T) {
	setupConfigDir(t)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "packs.json"), []byte(manifestJSON), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	t.Chdir(dir)

	c := newManifestCmd()
	_ = c.Flags().Set("manifest", "packs.json")

	manifest, err := resolveManifest(c)
	if err != nil {
		t.Fatalf("relative manifest path rejected: %v", err)
	}
	if len(manifest.Packs) != 2 {
		t.Fatalf("expected 2 packs, got %d", len(manifest.Packs))
	}
}

func TestResolveManifestFromURL(t *testing.T) {
	setupConfigDir(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(manifestJSON))
	}))
	defer srv.Close()

	c := newManifestCmd()
	if err := c.Flags().Set("manifest", srv.URL+"/packs.json"); err != nil {
		t.Fatalf("flag set failed: %v", err)
	}

	manifest, err := resolveManifest(c)
	if err != nil {
		t.Fatalf("resolveManifest failed: %v", err)
	}
	if len(manifest.Packs) != 2 {
		t.Fatalf("expected 2 packs, got %d", len(manifest.Packs))
	}

	// A fetched manifest gets cached for later offline runs.
	cached, err := pack.LoadManifest(loadSettingsOrDefault().General.ManifestPath)
	if err != nil {
		t.Fatalf("remote manifest not cached: %v", err)
	}
	if len(cached.Packs) != 2 {
		t.Fatalf("cached manifest lost packs: %d", len(cached.Packs))
	}
}

func TestResolveManifestRemoteError(t *testing.T) {
	setupConfigDir(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newManifestCmd()
	_ = c.Flags().Set("manifest", srv.URL+"/packs.json")

	if _, err := resolveManifest(c); err == nil {
		t.Fatal("expected error for failing manifest server")
	}
}

func TestSelectPacks(t *testing.T) {
	setupConfigDir(t)

	path := filepath.Join(t.TempDir(), "packs.json")
	if err := os.WriteFile(path, []byte(manifestJSON), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	c := newManifestCmd()
	_ = c.Flags().Set("manifest", path)
	manifest, err := resolveManifest(c)
	if err != nil {
		t.Fatalf("resolveManifest failed: %v", err)
	}

	all, err := selectPacks(manifest, nil)
	if err != nil {
		t.Fatalf("selectPacks(nil) failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected all packs, got %d", len(all))
	}

	one, err := selectPacks(manifest, []string{"wordzap-large"})
	if err != nil {
		t.Fatalf("selectPacks failed: %v", err)
	}
	if len(one) != 1 || one[0].Family != "wordzap-large" {
		t.Fatalf("wrong selection: %+v", one)
	}

	if _, err := selectPacks(manifest, []string{"unknown"}); err == nil {
		t.Fatal("expected error for unknown family")
	}
}
