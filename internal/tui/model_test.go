package tui

import (
	"regexp"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wordzap/aipack/internal/backend"
	"github.com/wordzap/aipack/internal/events"
	"github.com/wordzap/aipack/internal/pack"
	"github.com/wordzap/aipack/internal/testutil"
)

var ansiEscapeRE = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func plainView(m Model) string {
	return ansiEscapeRE.ReplaceAllString(m.View(), "")
}

func testManifest() *pack.Manifest {
	return &pack.Manifest{
		Packs: []pack.Spec{
			{
				Family:      "wordzap-mini",
				DisplayName: "WordZap Mini",
				Required:    []string{"modelA.compiled"},
				Priority:    1.0,
				Preserve:    0.95,
			},
			{
				Family:   "wordzap-large",
				Required: []string{"modelB.compiled"},
				Priority: 0.5,
				Preserve: 0.5,
			},
		},
	}
}

func testModel(t *testing.T) Model {
	t.Helper()
	return NewModel(Config{
		Manifest:  testManifest(),
		ModelsDir: t.TempDir(),
		NewBackend: func(pack.Spec) backend.Backend {
			return testutil.NewFakeBackend()
		},
		Version: "dev",
	})
}

func TestViewListsAllPacks(t *testing.T) {
	m := testModel(t)
	m.width = 100
	m.height = 30

	view := plainView(m)
	if !strings.Contains(view, "WordZap Mini") {
		t.Fatalf("display name missing from view:\n%s", view)
	}
	if !strings.Contains(view, "wordzap-large") {
		t.Fatalf("family fallback label missing from view:\n%s", view)
	}
	if !strings.Contains(view, "not installed") {
		t.Fatalf("idle status missing from view:\n%s", view)
	}
}

func TestCursorNavigation(t *testing.T) {
	m := testModel(t)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	if m.cursor != 1 {
		t.Fatalf("expected cursor 1, got %d", m.cursor)
	}

	// Already at the bottom, must clamp.
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	if m.cursor != 1 {
		t.Fatalf("cursor ran past last pack: %d", m.cursor)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(Model)
	if m.cursor != 0 {
		t.Fatalf("expected cursor 0, got %d", m.cursor)
	}
}

func TestProgressEventUpdatesItem(t *testing.T) {
	m := testModel(t)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	item := m.packs[0]
	if item.ctrl == nil {
		t.Fatal("expected controller after enter")
	}

	next, _ = m.Update(events.ProgressMsg{
		SessionID: item.ctrl.ID(),
		Family:    "wordzap-mini",
		Completed: 256,
		Total:     1024,
		Fraction:  0.25,
	})
	m = next.(Model)

	if m.packs[0].completed != 256 || m.packs[0].fraction != 0.25 {
		t.Fatalf("progress not applied: %+v", m.packs[0])
	}
}

func TestErrorEventShowsReason(t *testing.T) {
	m := testModel(t)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	item := m.packs[0]

	next, _ = m.Update(events.PackErrorMsg{
		SessionID: item.ctrl.ID(),
		Family:    "wordzap-mini",
		Reason:    "connection refused",
	})
	m = next.(Model)

	if m.packs[0].errReason != "connection refused" {
		t.Fatalf("error reason not recorded: %q", m.packs[0].errReason)
	}
}

func TestUnknownSessionEventIsIgnored(t *testing.T) {
	m := testModel(t)

	next, _ := m.Update(events.ProgressMsg{SessionID: "nope", Completed: 99})
	m = next.(Model)

	for _, item := range m.packs {
		if item.completed != 0 {
			t.Fatalf("event for unknown session mutated pack %s", item.spec.Family)
		}
	}
}

func TestQuitCancelsControllers(t *testing.T) {
	m := testModel(t)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	next, cmd := m.Update(tea.KeyMsg{Runes: []rune{'q'}, Type: tea.KeyRunes})
	m = next.(Model)
	if !m.quitting {
		t.Fatal("expected quitting flag")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if m.View() != "" {
		t.Fatal("expected empty view while quitting")
	}
}

func TestBarWidthClamps(t *testing.T) {
	if w := barWidth(0); w != 10 {
		t.Fatalf("expected minimum width 10, got %d", w)
	}
	if w := barWidth(500); w != 60 {
		t.Fatalf("expected maximum width 60, got %d", w)
	}
	if w := barWidth(70); w != 40 {
		t.Fatalf("expected 40 for 70 columns, got %d", w)
	}
}
