package panels

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title        lipgloss.Style
	sidebar      lipgloss.Style
	sidebarFocus lipgloss.Style
	persona      lipgloss.Style
	personaSel   lipgloss.Style
	panel        lipgloss.Style
	panelFocus   lipgloss.Style
	panelTitle   lipgloss.Style
	panelMeta    lipgloss.Style
	bubble       lipgloss.Style
	empty        lipgloss.Style
	status       lipgloss.Style
	errorText    lipgloss.Style
	editor       lipgloss.Style
}

func newStyles() styles {
	border := lipgloss.RoundedBorder()
	return styles{
		title:        lipgloss.NewStyle().Bold(true),
		sidebar:      lipgloss.NewStyle().Border(border).BorderForeground(lipgloss.Color("238")).Padding(0, 1),
		sidebarFocus: lipgloss.NewStyle().Border(border).BorderForeground(lipgloss.Color("69")).Padding(0, 1),
		persona:      lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		personaSel:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		panel:        lipgloss.NewStyle().Border(border).BorderForeground(lipgloss.Color("238")).Padding(0, 1),
		panelFocus:   lipgloss.NewStyle().Border(border).BorderForeground(lipgloss.Color("69")).Padding(0, 1),
		panelTitle:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		panelMeta:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		bubble:       lipgloss.NewStyle().Foreground(lipgloss.Color("252")).MarginBottom(1),
		empty:        lipgloss.NewStyle().Faint(true),
		status:       lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		errorText:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		editor:       lipgloss.NewStyle().Border(border).BorderForeground(lipgloss.Color("214")).Padding(0, 1),
	}
}
