package tui

import (
	"fmt"
	"strings"

	"github.com/wordzap/aipack/internal/controller"
	"github.com/wordzap/aipack/internal/utils"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(logoStyle.Render("AIPACK"))
	b.WriteString("\n")

	if m.update != nil {
		b.WriteString(dimStyle.Render(fmt.Sprintf("update available: %s (%s)", m.update.Tag, m.update.URL)))
		b.WriteString("\n")
	}

	if len(m.packs) == 0 {
		b.WriteString(dimStyle.Render("no packs in manifest"))
		b.WriteString("\n")
		return b.String()
	}

	var rows []string
	for i, item := range m.packs {
		rows = append(rows, m.renderPack(i, item))
	}
	b.WriteString(paneStyle.Render(strings.Join(rows, "\n")))

	b.WriteString(helpStyle.Render("enter: get pack • c: cancel • q: quit"))
	return b.String()
}

func (m Model) renderPack(i int, item *packItem) string {
	cursor := "  "
	if i == m.cursor {
		cursor = cursorStyle.Render("> ")
	}

	name := titleStyle.Render(item.spec.Label())
	status := m.renderStatus(item)

	line := cursor + name + "  " + status
	if itemState(item) == controller.StateAcquiring {
		line += "\n    " + item.bar.ViewAs(item.fraction) + "  " +
			dimStyle.Render(utils.FormatProgress(item.completed, item.total))
	}
	return line
}

func (m Model) renderStatus(item *packItem) string {
	switch itemState(item) {
	case controller.StateDone:
		return readyStyle.Render("ready")
	case controller.StateCheckingLocal:
		return waitingStyle.Render("checking...")
	case controller.StateAcquiring:
		return acquiringStyle.Render(utils.FormatPercent(item.fraction))
	case controller.StateValidating:
		return waitingStyle.Render("validating...")
	case controller.StateError:
		return errorStyle.Render("error: " + item.errReason)
	default:
		return dimStyle.Render("not installed")
	}
}
