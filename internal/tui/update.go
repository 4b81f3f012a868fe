package tui

import (
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wordzap/aipack/internal/controller"
	"github.com/wordzap/aipack/internal/events"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, item := range m.packs {
			item.bar.Width = barWidth(m.width)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case updateAvailableMsg:
		m.update = msg.release
		return m, nil

	case events.AcquireStartedMsg:
		if item := m.itemBySession(msg.SessionID); item != nil {
			item.total = msg.Total
		}
		return m, listenForActivity(m.notify)

	case events.ProgressMsg:
		if item := m.itemBySession(msg.SessionID); item != nil {
			item.completed = msg.Completed
			item.total = msg.Total
			item.fraction = msg.Fraction
		}
		return m, listenForActivity(m.notify)

	case events.ValidatingMsg:
		return m, listenForActivity(m.notify)

	case events.PackReadyMsg:
		if item := m.itemBySession(msg.SessionID); item != nil {
			item.fraction = 1
			item.errReason = ""
		}
		return m, listenForActivity(m.notify)

	case events.PackErrorMsg:
		if item := m.itemBySession(msg.SessionID); item != nil {
			item.errReason = msg.Reason
		}
		return m, listenForActivity(m.notify)

	case events.PackCancelledMsg:
		if item := m.itemBySession(msg.SessionID); item != nil {
			item.completed = 0
			item.fraction = 0
			item.errReason = ""
		}
		return m, listenForActivity(m.notify)

	case progress.FrameMsg:
		var cmds []tea.Cmd
		for _, item := range m.packs {
			bar, cmd := item.bar.Update(msg)
			if b, ok := bar.(progress.Model); ok {
				item.bar = b
			}
			if cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		for _, item := range m.packs {
			if item.ctrl != nil {
				item.ctrl.Cancel()
			}
		}
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.packs)-1 {
			m.cursor++
		}

	case "enter":
		if len(m.packs) > 0 {
			m.startProvision(m.packs[m.cursor])
		}

	case "c":
		if len(m.packs) > 0 {
			item := m.packs[m.cursor]
			if item.ctrl != nil {
				item.ctrl.Cancel()
			}
		}
	}

	return m, nil
}

func barWidth(total int) int {
	w := total - 30
	if w < 10 {
		w = 10
	}
	if w > 60 {
		w = 60
	}
	return w
}

func itemState(item *packItem) controller.State {
	if item.ctrl == nil {
		return controller.StateIdle
	}
	return item.ctrl.State()
}
