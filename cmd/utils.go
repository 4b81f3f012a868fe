package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wordzap/aipack/internal/clipboard"
	"github.com/wordzap/aipack/internal/pack"
	"github.com/wordzap/aipack/internal/utils"
)

const manifestFetchTimeout = 30 * time.Second

// resolveManifest loads the pack manifest in order of precedence: the
// --manifest flag (path or URL), the clipboard when --from-clipboard is
// set, then the manifest path from settings.
func resolveManifest(cmd *cobra.Command) (*pack.Manifest, error) {
	source, _ := cmd.Flags().GetString("manifest")
	fromClipboard, _ := cmd.Flags().GetBool("from-clipboard")

	settings := loadSettingsOrDefault()

	if source == "" && (fromClipboard || settings.General.ClipboardMonitor) {
		source = clipboard.ReadManifestURL()
		if source == "" && fromClipboard {
			return nil, fmt.Errorf("clipboard does not contain a manifest URL")
		}
		if source != "" {
			utils.Debug("using manifest URL from clipboard: %s", source)
		}
	}

	if source == "" {
		source = settings.General.ManifestPath
	}

	var manifest *pack.Manifest
	var err error
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		manifest, err = fetchRemoteManifest(source)
		if err == nil {
			// Keep a local copy so later runs work without the URL.
			cacheManifest(manifest, settings.General.ManifestPath)
		}
	} else {
		manifest, err = pack.LoadManifest(utils.EnsureAbsPath(source))
	}
	if err != nil {
		return nil, err
	}

	defaults := settings.Acquisition
	for i := range manifest.Packs {
		manifest.Packs[i].Normalize(defaults.Priority, defaults.Preserve)
	}
	return manifest, nil
}

// cacheManifest writes a fetched manifest to the configured path,
// best-effort.
func cacheManifest(m *pack.Manifest, path string) {
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		utils.Debug("failed to prepare manifest cache dir: %v", err)
		return
	}
	if err := pack.SaveManifest(path, m); err != nil {
		utils.Debug("failed to cache manifest: %v", err)
	}
}

func fetchRemoteManifest(url string) (*pack.Manifest, error) {
	client := &http.Client{Timeout: manifestFetchTimeout}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manifest: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("manifest fetch returned %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return pack.ParseManifest(data)
}

// selectPacks resolves family name args against the manifest. No args
// selects every pack.
func selectPacks(manifest *pack.Manifest, args []string) ([]pack.Spec, error) {
	if len(args) == 0 {
		return manifest.Packs, nil
	}

	var specs []pack.Spec
	for _, family := range args {
		spec, ok := manifest.Find(family)
		if !ok {
			return nil, fmt.Errorf("pack %q not in manifest", family)
		}
		specs = append(specs, *spec)
	}
	return specs, nil
}
