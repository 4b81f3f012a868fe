// Package testutil provides test doubles and fixture helpers shared by
// the controller and TUI tests.
package testutil

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/wordzap/aipack/internal/backend"
)

// FakeBackend is a scripted backend.Backend. Tests set LocalUsable and the
// event script, then assert on the recorded call counts.
type FakeBackend struct {
	LocalUsable bool
	Root        string
	RootErr     error
	BeginErr    error

	// CheckLocal, when set, replaces the LocalUsable answer. Lets tests
	// park the local check until they are ready.
	CheckLocal func() bool

	// Script is replayed on the events channel after BeginAcquisition.
	Script []any

	BeginCalls   atomic.Int32
	ReleaseCalls atomic.Int32
	CancelCalls  atomic.Int32

	mu           sync.Mutex
	lastPriority float64
	lastPreserve float64
	events       chan any
	cur          backend.Progress
}

var _ backend.Backend = (*FakeBackend)(nil)

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{events: make(chan any, 64)}
}

func (f *FakeBackend) CheckLocalUsable() bool {
	if f.CheckLocal != nil {
		return f.CheckLocal()
	}
	return f.LocalUsable
}

func (f *FakeBackend) BeginAcquisition(priority, preserve float64) error {
	f.BeginCalls.Add(1)
	if f.BeginErr != nil {
		return f.BeginErr
	}
	f.mu.Lock()
	f.lastPriority = priority
	f.lastPreserve = preserve
	script := f.Script
	f.mu.Unlock()

	go func() {
		for _, ev := range script {
			if p, ok := ev.(backend.ProgressEvent); ok {
				f.mu.Lock()
				f.cur = p.Progress
				f.mu.Unlock()
			}
			f.events <- ev
		}
	}()
	return nil
}

func (f *FakeBackend) Progress() backend.Progress {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cur
}

func (f *FakeBackend) Events() <-chan any {
	return f.events
}

func (f *FakeBackend) InstallRoot() (string, error) {
	if f.RootErr != nil {
		return "", f.RootErr
	}
	return f.Root, nil
}

func (f *FakeBackend) ReleaseLease() error {
	f.ReleaseCalls.Add(1)
	return nil
}

func (f *FakeBackend) Cancel() {
	f.CancelCalls.Add(1)
}

// LastHints returns the priority and preserve values from the most recent
// BeginAcquisition call.
func (f *FakeBackend) LastHints() (priority, preserve float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastPriority, f.lastPreserve
}

// WriteInstallRoot creates dir with the given files (name to content) and
// returns its path. Used to stand up a fake backend install root.
func WriteInstallRoot(t *testing.T, dir string, files map[string]string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create install root: %v", err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return dir
}
