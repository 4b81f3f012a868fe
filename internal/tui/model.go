// Package tui is the interactive pack manager: a list of the manifest's
// packs with per-pack provisioning, progress, and cancellation.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wordzap/aipack/internal/backend"
	"github.com/wordzap/aipack/internal/controller"
	"github.com/wordzap/aipack/internal/pack"
	"github.com/wordzap/aipack/internal/utils"
	"github.com/wordzap/aipack/internal/version"
)

const notifyBuffer = 64

// BackendFactory builds the acquisition backend for a pack. Injected so
// tests can run the model against a fake.
type BackendFactory func(spec pack.Spec) backend.Backend

// updateAvailableMsg is delivered when the startup release check finds a
// newer build.
type updateAvailableMsg struct {
	release *version.Release
}

type packItem struct {
	spec pack.Spec
	ctrl *controller.Controller
	bar  progress.Model

	completed int64
	total     int64
	fraction  float64
	errReason string
}

// Model is the bubbletea root model.
type Model struct {
	packs  []*packItem
	cursor int

	width  int
	height int

	modelsDir  string
	newBackend BackendFactory
	notify     chan any

	buildVersion string
	update       *version.Release

	quitting bool
}

// Config assembles the TUI.
type Config struct {
	Manifest   *pack.Manifest
	ModelsDir  string
	NewBackend BackendFactory
	Version    string
}

func NewModel(cfg Config) Model {
	notify := make(chan any, notifyBuffer)

	items := make([]*packItem, 0, len(cfg.Manifest.Packs))
	for _, spec := range cfg.Manifest.Packs {
		items = append(items, &packItem{
			spec: spec,
			bar:  progress.New(progress.WithDefaultGradient()),
		})
	}

	return Model{
		packs:        items,
		modelsDir:    cfg.ModelsDir,
		newBackend:   cfg.NewBackend,
		notify:       notify,
		buildVersion: cfg.Version,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(listenForActivity(m.notify), checkForUpdate(m.buildVersion))
}

// listenForActivity forwards controller events into the bubbletea loop.
// The returned command re-arms itself from Update after every message.
func listenForActivity(sub chan any) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

func checkForUpdate(current string) tea.Cmd {
	return func() tea.Msg {
		rel := version.CheckForUpdate(current)
		if rel == nil {
			return nil
		}
		return updateAvailableMsg{release: rel}
	}
}

// startProvision spins up a controller for the pack under the cursor and
// runs it on its own goroutine. The controller reports back over notify.
func (m *Model) startProvision(item *packItem) {
	if item.ctrl != nil {
		switch item.ctrl.State() {
		case controller.StateCheckingLocal, controller.StateAcquiring, controller.StateValidating:
			return
		case controller.StateDone:
			return
		}
	}

	item.errReason = ""
	if item.ctrl == nil || item.ctrl.State() == controller.StateIdle {
		item.ctrl = controller.New(controller.Config{
			Spec:      item.spec,
			Backend:   m.newBackend(item.spec),
			ModelsDir: m.modelsDir,
			NotifyCh:  m.notify,
		})
	}

	ctrl := item.ctrl
	family := item.spec.Family
	go func() {
		if err := ctrl.Run(context.Background()); err != nil {
			utils.Debug("provisioning %s ended: %v", family, err)
		}
	}()
}

func (m *Model) itemBySession(id string) *packItem {
	for _, item := range m.packs {
		if item.ctrl != nil && item.ctrl.ID() == id {
			return item
		}
	}
	return nil
}
