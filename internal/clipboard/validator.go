// Package clipboard extracts manifest URLs from clipboard text.
package clipboard

import (
	"net/url"
	"strings"

	"github.com/atotto/clipboard"
)

const maxClipboardLen = 2048

// ReadManifestURL reads the system clipboard and returns its content if it
// looks like a manifest URL. Returns empty string when the clipboard holds
// anything else.
func ReadManifestURL() string {
	text, err := clipboard.ReadAll()
	if err != nil {
		return ""
	}
	return ExtractManifestURL(text)
}

// ExtractManifestURL validates a candidate string as a pack manifest URL:
// a single-line http(s) URL ending in .json or .aipack.
func ExtractManifestURL(text string) string {
	text = strings.TrimSpace(text)
	if text == "" || len(text) > maxClipboardLen {
		return ""
	}
	if strings.ContainsAny(text, "\n\r") {
		return ""
	}

	u, err := url.Parse(text)
	if err != nil {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	if u.Host == "" {
		return ""
	}

	path := strings.ToLower(u.Path)
	if !strings.HasSuffix(path, ".json") && !strings.HasSuffix(path, ".aipack") {
		return ""
	}
	return text
}
