package utils

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// FormatBytes renders a byte count for display (e.g. "1.5 MB").
func FormatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// FormatProgress renders a "completed / total" pair. An unknown total (0)
// shows only the completed count.
func FormatProgress(completed, total int64) string {
	if total <= 0 {
		return FormatBytes(completed)
	}
	return fmt.Sprintf("%s / %s", FormatBytes(completed), FormatBytes(total))
}

// FormatPercent renders a fraction in [0,1] as a percentage.
func FormatPercent(fraction float64) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return fmt.Sprintf("%.1f%%", fraction*100)
}

// EnsureAbsPath converts a path to absolute, falling back to the input on error.
func EnsureAbsPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
