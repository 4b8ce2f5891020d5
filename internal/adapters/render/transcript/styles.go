package transcript

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	speaker lipgloss.Style
	text    lipgloss.Style
	meta    lipgloss.Style
	rule    lipgloss.Style
	section lipgloss.Style
	empty   lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true),
		header:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		speaker: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		text:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")).PaddingLeft(2),
		meta:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		rule:    lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		section: lipgloss.NewStyle().MarginTop(1),
		empty:   lipgloss.NewStyle().Faint(true),
	}
}
