package panels

import (
	"fmt"
	"strings"

	"github.com/bnema/roundtable/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const (
	sidebarWidth = 26
	chromeHeight = 9
)

func (m model) panelSize() (int, int) {
	area := max(m.width-sidebarWidth-2, 30)
	width := max(area/domain.MaxInstances-4, 10)
	height := max(m.height-chromeHeight, 3)
	return width, height
}

func (m model) View() string {
	title := m.styles.title.Render("roundtable")
	if m.ctl.State() == domain.EngineGenerating || m.pending > 0 {
		title += " " + m.spinner.View() + m.styles.status.Render(" generating")
	}

	var body string
	if m.focus == focusEditor {
		body = m.renderEditor()
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), m.renderPanels())
	}

	lines := []string{title, body, m.topic.View()}
	if m.err != "" {
		lines = append(lines, m.styles.errorText.Render(m.err))
	} else {
		lines = append(lines, m.styles.status.Render(m.status))
	}
	lines = append(lines, m.help.ShortHelpView(m.keys.forFocus(m.focus)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m model) renderSidebar() string {
	personas := m.ctl.Personas()
	rows := make([]string, 0, len(personas)+1)
	rows = append(rows, m.styles.title.Render("Personas"))
	for i, persona := range personas {
		name := persona.Name
		if i == m.personaCursor {
			rows = append(rows, m.styles.personaSel.Render("› "+name))
			continue
		}
		rows = append(rows, m.styles.persona.Render("  "+name))
	}

	style := m.styles.sidebar
	if m.focus == focusPersonas {
		style = m.styles.sidebarFocus
	}
	return style.Width(sidebarWidth - 4).Render(strings.Join(rows, "\n"))
}

func (m model) renderPanels() string {
	instances := m.ctl.Instances()
	if len(instances) == 0 {
		return m.styles.empty.Padding(1, 2).Render("Pick up to three personas from the list to seat them.")
	}

	catalog := make(map[domain.PersonaID]string)
	for _, persona := range m.ctl.Personas() {
		catalog[persona.ID] = persona.Prompt
	}

	width, _ := m.panelSize()
	rendered := make([]string, 0, len(instances))
	for i, instance := range instances {
		header := m.styles.panelTitle.Render(instance.Persona.Name)
		meta := fmt.Sprintf("#%d", instance.ID)
		if prompt, ok := catalog[instance.Persona.ID]; ok && prompt != instance.Persona.Prompt {
			meta += " · edited"
		}

		content := m.styles.empty.Render("(silent)")
		if p, ok := m.panels[instance.ID]; ok && len(p.bubbles) > 0 {
			content = p.viewport.View()
			if p.typing {
				meta += " · typing"
			}
		}

		style := m.styles.panel
		if m.focus == focusPanels && i == m.panelCursor {
			style = m.styles.panelFocus
		}
		rendered = append(rendered, style.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left,
			header+" "+m.styles.panelMeta.Render(meta),
			content,
		)))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m model) renderEditor() string {
	title := m.styles.title.Render(fmt.Sprintf("Prompt for instance %d", m.editing))
	return m.styles.editor.Render(lipgloss.JoinVertical(lipgloss.Left, title, m.editor.View()))
}
