// Package version checks GitHub for newer aipack releases.
package version

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	releaseURL     = "https://api.github.com/repos/wordzap/aipack/releases/latest"
	requestTimeout = 10 * time.Second
)

// Release describes the latest published release, when one is newer than
// the running build.
type Release struct {
	Tag string
	URL string
}

// CheckForUpdate asks GitHub for the latest release and returns it when it
// is newer than current. Any network, API, or parse problem returns nil:
// the update hint is cosmetic and must never block startup.
func CheckForUpdate(current string) *Release {
	if current == "dev" || current == "" {
		return nil
	}

	client := &http.Client{Timeout: requestTimeout}
	req, err := http.NewRequest(http.MethodGet, releaseURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", "aipack-update-checker")
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var payload struct {
		TagName string `json:"tag_name"`
		HTMLURL string `json:"html_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil
	}

	if !newer(payload.TagName, current) {
		return nil
	}
	return &Release{Tag: payload.TagName, URL: payload.HTMLURL}
}

// newer reports whether semver tag a is strictly greater than b. Tags may
// carry a leading "v" and pre-release suffixes, which are ignored.
func newer(a, b string) bool {
	av := parse(a)
	bv := parse(b)
	for i := range av {
		if av[i] != bv[i] {
			return av[i] > bv[i]
		}
	}
	return false
}

func parse(tag string) [3]int {
	tag = strings.TrimPrefix(strings.TrimSpace(tag), "v")
	var out [3]int
	for i, seg := range strings.SplitN(tag, ".", 3) {
		if idx := strings.IndexAny(seg, "-+"); idx != -1 {
			seg = seg[:idx]
		}
		n, err := strconv.Atoi(seg)
		if err != nil {
			break
		}
		out[i] = n
	}
	return out
}
