package panels

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/roundtable/internal/adapters/render/typewriter"
	"github.com/bnema/roundtable/internal/application"
	"github.com/bnema/roundtable/internal/domain"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Controller is the part of the simulator the TUI drives.
type Controller interface {
	Personas() []domain.Persona
	Instances() []domain.Instance
	SelectPersona(index int) (domain.Instance, error)
	StartConversation(ctx context.Context, topic string) (application.BatchResult, error)
	Continue(ctx context.Context, id domain.InstanceID, topic string) error
	RemoveInstance(id domain.InstanceID) error
	EditPrompt(id domain.InstanceID, prompt string) error
	State() domain.EngineState
}

// EventMsg carries a typewriter event into the program.
type EventMsg typewriter.Event

type batchDoneMsg struct {
	result application.BatchResult
	err    error
}

type continueDoneMsg struct {
	id  domain.InstanceID
	err error
}

type focus int

const (
	focusPersonas focus = iota
	focusTopic
	focusPanels
	focusEditor
)

type panelState struct {
	bubbles  []string
	typing   bool
	viewport viewport.Model
}

type model struct {
	ctx    context.Context
	ctl    Controller
	keys   keyMap
	styles styles
	help   help.Model

	focus         focus
	personaCursor int
	panelCursor   int
	panels        map[domain.InstanceID]*panelState

	topic   textinput.Model
	editor  textarea.Model
	editing domain.InstanceID
	spinner spinner.Model
	pending int

	status string
	err    string
	width  int
	height int
}

func newModel(ctx context.Context, ctl Controller) model {
	topic := textinput.New()
	topic.Placeholder = "What should they argue about?"
	topic.Prompt = "topic › "
	topic.CharLimit = 500

	editor := textarea.New()
	editor.Placeholder = "Persona prompt"
	editor.ShowLineNumbers = false
	editor.CharLimit = 8000

	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return model{
		ctx:     ctx,
		ctl:     ctl,
		keys:    newKeyMap(),
		styles:  newStyles(),
		help:    help.New(),
		panels:  make(map[domain.InstanceID]*panelState),
		topic:   topic,
		editor:  editor,
		spinner: s,
		width:   120,
		height:  32,
	}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case EventMsg:
		m.applyEvent(typewriter.Event(msg))
		return m, nil
	case batchDoneMsg:
		m.pending--
		m.status, m.err = describeBatch(msg.result), errorText(msg.err)
		return m, nil
	case continueDoneMsg:
		m.pending--
		m.err = errorText(msg.err)
		if msg.err == nil {
			m.status = fmt.Sprintf("instance %d answered", msg.id)
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.focus == focusEditor {
		switch {
		case key.Matches(msg, m.keys.Save):
			if err := m.ctl.EditPrompt(m.editing, m.editor.Value()); err != nil {
				m.err = errorText(err)
				return m, nil
			}
			m.status = fmt.Sprintf("prompt of instance %d updated", m.editing)
			m.err = ""
			return m.closeEditor(), nil
		case key.Matches(msg, m.keys.Cancel):
			m.status = "prompt unchanged"
			return m.closeEditor(), nil
		}
		return m.updateFocused(msg)
	}

	if key.Matches(msg, m.keys.NextPane) {
		m = m.cycleFocus()
		cmd := m.focusCmd()
		return m, cmd
	}

	switch m.focus {
	case focusPersonas:
		return m.handlePersonaKey(msg)
	case focusTopic:
		if key.Matches(msg, m.keys.Start) {
			return m.start()
		}
		return m.updateFocused(msg)
	case focusPanels:
		return m.handlePanelKey(msg)
	}

	return m, nil
}

func (m model) handlePersonaKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	personas := m.ctl.Personas()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.personaCursor > 0 {
			m.personaCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.personaCursor < len(personas)-1 {
			m.personaCursor++
		}
	case key.Matches(msg, m.keys.Select):
		instance, err := m.ctl.SelectPersona(m.personaCursor)
		if err != nil {
			m.err = errorText(err)
			return m, nil
		}
		m.err = ""
		m.status = fmt.Sprintf("%s joined the table (instance %d)", instance.Persona.Name, instance.ID)
		m.panel(instance.ID)
		m.pruneReleased()
		m.resize()
	}

	return m, nil
}

func (m model) handlePanelKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	instances := m.ctl.Instances()
	if len(instances) == 0 {
		return m, nil
	}
	m.panelCursor = min(m.panelCursor, len(instances)-1)
	selected := instances[m.panelCursor]

	switch {
	case key.Matches(msg, m.keys.Left):
		if m.panelCursor > 0 {
			m.panelCursor--
		}
	case key.Matches(msg, m.keys.Right):
		if m.panelCursor < len(instances)-1 {
			m.panelCursor++
		}
	case key.Matches(msg, m.keys.Continue):
		return m.continueOne(selected.ID)
	case key.Matches(msg, m.keys.Remove):
		if err := m.ctl.RemoveInstance(selected.ID); err != nil {
			m.err = errorText(err)
			return m, nil
		}
		delete(m.panels, selected.ID)
		m.status = fmt.Sprintf("%s left the table", selected.Persona.Name)
		m.err = ""
		if m.panelCursor > 0 && m.panelCursor >= len(instances)-1 {
			m.panelCursor--
		}
		m.resize()
	case key.Matches(msg, m.keys.Edit):
		m.editing = selected.ID
		m.editor.SetValue(selected.Persona.Prompt)
		m.focus = focusEditor
		m.topic.Blur()
		return m, m.editor.Focus()
	default:
		p := m.panel(selected.ID)
		var cmd tea.Cmd
		p.viewport, cmd = p.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m model) start() (tea.Model, tea.Cmd) {
	topic := m.topic.Value()
	if strings.TrimSpace(topic) == "" {
		m.err = errorText(domain.ErrEmptyTopic)
		return m, nil
	}
	if m.ctl.State() == domain.EngineGenerating {
		m.status = "still generating; request ignored"
		return m, nil
	}

	m.pending++
	m.err = ""
	m.status = "starting the conversation..."
	ctx, ctl := m.ctx, m.ctl
	return m, func() tea.Msg {
		result, err := ctl.StartConversation(ctx, topic)
		return batchDoneMsg{result: result, err: err}
	}
}

func (m model) continueOne(id domain.InstanceID) (tea.Model, tea.Cmd) {
	topic := m.topic.Value()
	if strings.TrimSpace(topic) == "" {
		m.err = errorText(domain.ErrEmptyTopic)
		return m, nil
	}
	if m.ctl.State() == domain.EngineGenerating {
		m.status = "still generating; request ignored"
		return m, nil
	}

	m.pending++
	m.err = ""
	m.status = fmt.Sprintf("waiting for instance %d...", id)
	ctx, ctl := m.ctx, m.ctl
	return m, func() tea.Msg {
		return continueDoneMsg{id: id, err: ctl.Continue(ctx, id, topic)}
	}
}

func (m model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusTopic:
		m.topic, cmd = m.topic.Update(msg)
	case focusEditor:
		m.editor, cmd = m.editor.Update(msg)
	}
	return m, cmd
}

func (m model) cycleFocus() model {
	switch m.focus {
	case focusPersonas:
		m.focus = focusTopic
	case focusTopic:
		m.focus = focusPanels
	default:
		m.focus = focusPersonas
	}
	return m
}

func (m *model) focusCmd() tea.Cmd {
	if m.focus == focusTopic {
		return m.topic.Focus()
	}
	m.topic.Blur()
	return nil
}

func (m model) closeEditor() model {
	m.editor.Blur()
	m.editor.Reset()
	m.editing = 0
	m.focus = focusPanels
	return m
}

func (m *model) applyEvent(event typewriter.Event) {
	switch event.Kind {
	case typewriter.EventRelease:
		delete(m.panels, event.Instance)
		return
	case typewriter.EventClear:
		p := m.panel(event.Instance)
		p.bubbles = nil
		p.typing = false
	case typewriter.EventBegin:
		p := m.panel(event.Instance)
		p.bubbles = append(p.bubbles, "")
		p.typing = true
	case typewriter.EventChunk:
		p := m.panel(event.Instance)
		if len(p.bubbles) == 0 {
			p.bubbles = append(p.bubbles, "")
		}
		p.bubbles[len(p.bubbles)-1] += event.Text
	case typewriter.EventEnd:
		m.panel(event.Instance).typing = false
	}

	m.refresh(event.Instance)
}

func (m *model) panel(id domain.InstanceID) *panelState {
	p, ok := m.panels[id]
	if !ok {
		width, height := m.panelSize()
		p = &panelState{viewport: viewport.New(width, height)}
		m.panels[id] = p
	}
	return p
}

// pruneReleased drops panel state for instances no longer seated.
func (m *model) pruneReleased() {
	seated := make(map[domain.InstanceID]bool)
	for _, instance := range m.ctl.Instances() {
		seated[instance.ID] = true
	}
	for id := range m.panels {
		if !seated[id] {
			delete(m.panels, id)
		}
	}
}

func (m *model) refresh(id domain.InstanceID) {
	p, ok := m.panels[id]
	if !ok {
		return
	}
	width, _ := m.panelSize()
	rendered := make([]string, 0, len(p.bubbles))
	for _, bubble := range p.bubbles {
		rendered = append(rendered, m.styles.bubble.Width(width).Render(bubble))
	}
	p.viewport.SetContent(strings.Join(rendered, "\n"))
	p.viewport.GotoBottom()
}

func (m *model) resize() {
	width, height := m.panelSize()
	for id, p := range m.panels {
		p.viewport.Width = width
		p.viewport.Height = height
		m.refresh(id)
	}
	m.topic.Width = max(m.width-12, 10)
	m.editor.SetWidth(max(m.width-8, 20))
	m.editor.SetHeight(max(m.height-10, 3))
}

func describeBatch(result application.BatchResult) string {
	switch {
	case result.Interrupted:
		return fmt.Sprintf("batch interrupted after %d turn(s)", len(result.Completed))
	case len(result.Completed) == 0 && len(result.Skipped) == 0:
		return "nobody is seated; add a persona first"
	default:
		return fmt.Sprintf("opening round finished: %d turn(s)", len(result.Completed))
	}
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, domain.ErrGenerationInProgress) {
		return "still generating; request ignored"
	}
	if errors.Is(err, domain.ErrBatchInterrupted) {
		return ""
	}
	return err.Error()
}
