package panels

import (
	"context"
	"fmt"
	"testing"

	"github.com/bnema/roundtable/internal/adapters/render/typewriter"
	"github.com/bnema/roundtable/internal/application"
	"github.com/bnema/roundtable/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	personas  []domain.Persona
	instances []domain.Instance
	nextID    domain.InstanceID
	state     domain.EngineState
	topics    []string
	continued []domain.InstanceID
	prompts   map[domain.InstanceID]string
}

func newFakeController() *fakeController {
	return &fakeController{
		personas: []domain.Persona{
			{ID: "socrates", Name: "Socrates", Prompt: "You are Socrates."},
			{ID: "hume", Name: "David Hume", Prompt: "You are Hume."},
		},
		state:   domain.EngineIdle,
		prompts: map[domain.InstanceID]string{},
	}
}

func (f *fakeController) Personas() []domain.Persona   { return f.personas }
func (f *fakeController) Instances() []domain.Instance { return f.instances }
func (f *fakeController) State() domain.EngineState    { return f.state }

func (f *fakeController) SelectPersona(index int) (domain.Instance, error) {
	if index < 0 || index >= len(f.personas) {
		return domain.Instance{}, domain.ErrPersonaNotFound
	}
	f.nextID++
	instance := domain.Instance{ID: f.nextID, Persona: f.personas[index]}
	f.instances = append(f.instances, instance)
	return instance, nil
}

func (f *fakeController) StartConversation(_ context.Context, topic string) (application.BatchResult, error) {
	f.topics = append(f.topics, topic)
	completed := make([]domain.InstanceID, 0, len(f.instances))
	for _, instance := range f.instances {
		completed = append(completed, instance.ID)
	}
	return application.BatchResult{Completed: completed}, nil
}

func (f *fakeController) Continue(_ context.Context, id domain.InstanceID, _ string) error {
	f.continued = append(f.continued, id)
	return nil
}

func (f *fakeController) RemoveInstance(id domain.InstanceID) error {
	for i, instance := range f.instances {
		if instance.ID == id {
			f.instances = append(f.instances[:i], f.instances[i+1:]...)
			return nil
		}
	}
	return domain.ErrInstanceNotFound
}

func (f *fakeController) EditPrompt(id domain.InstanceID, prompt string) error {
	for i := range f.instances {
		if f.instances[i].ID == id {
			f.instances[i].Persona.Prompt = prompt
			f.prompts[id] = prompt
			return nil
		}
	}
	return domain.ErrInstanceNotFound
}

func send(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	updated, ok := next.(model)
	require.True(t, ok)
	return updated, cmd
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func typeText(t *testing.T, m model, text string) model {
	t.Helper()
	for _, r := range text {
		m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestSelectingPersonasSeatsThem(t *testing.T) {
	t.Parallel()

	ctl := newFakeController()
	m := newModel(context.Background(), ctl)

	m, _ = send(t, m, keyPress("enter"))
	m, _ = send(t, m, keyPress("down"))
	m, _ = send(t, m, keyPress("enter"))

	require.Len(t, ctl.instances, 2)
	assert.Equal(t, "David Hume", ctl.instances[1].Persona.Name)
	view := m.View()
	assert.Contains(t, view, "Socrates")
	assert.Contains(t, view, "#2")
	assert.Contains(t, m.status, "David Hume joined the table")
}

func TestStartRunsTheBatchOffTheUpdateLoop(t *testing.T) {
	t.Parallel()

	ctl := newFakeController()
	m := newModel(context.Background(), ctl)
	m, _ = send(t, m, keyPress("enter"))
	m, _ = send(t, m, keyPress("tab"))
	m = typeText(t, m, "is tea better than coffee")

	m, cmd := send(t, m, keyPress("enter"))
	require.NotNil(t, cmd)
	assert.Empty(t, ctl.topics)
	assert.Equal(t, 1, m.pending)

	m, _ = send(t, m, cmd())
	assert.Equal(t, []string{"is tea better than coffee"}, ctl.topics)
	assert.Equal(t, 0, m.pending)
	assert.Contains(t, m.status, "opening round finished: 1 turn(s)")
}

func TestStartWithoutTopicShowsError(t *testing.T) {
	t.Parallel()

	m := newModel(context.Background(), newFakeController())
	m, _ = send(t, m, keyPress("tab"))
	m, cmd := send(t, m, keyPress("enter"))

	assert.Nil(t, cmd)
	assert.Equal(t, domain.ErrEmptyTopic.Error(), m.err)
}

func TestStartIsIgnoredWhileGenerating(t *testing.T) {
	t.Parallel()

	ctl := newFakeController()
	ctl.state = domain.EngineGenerating
	m := newModel(context.Background(), ctl)
	m, _ = send(t, m, keyPress("tab"))
	m = typeText(t, m, "anything")

	m, cmd := send(t, m, keyPress("enter"))
	assert.Nil(t, cmd)
	assert.Contains(t, m.status, "request ignored")
	assert.Contains(t, m.View(), "generating")
}

func TestTypewriterEventsFillPanels(t *testing.T) {
	t.Parallel()

	ctl := newFakeController()
	m := newModel(context.Background(), ctl)
	m, _ = send(t, m, keyPress("enter"))
	id := ctl.instances[0].ID

	m, _ = send(t, m, EventMsg{Kind: typewriter.EventBegin, Instance: id, Text: "Know thyself"})
	m, _ = send(t, m, EventMsg{Kind: typewriter.EventChunk, Instance: id, Text: "Know "})
	assert.True(t, m.panels[id].typing)
	m, _ = send(t, m, EventMsg{Kind: typewriter.EventChunk, Instance: id, Text: "thyself"})
	m, _ = send(t, m, EventMsg{Kind: typewriter.EventEnd, Instance: id})

	assert.Equal(t, []string{"Know thyself"}, m.panels[id].bubbles)
	assert.False(t, m.panels[id].typing)
	assert.Contains(t, m.View(), "Know thyself")

	m, _ = send(t, m, EventMsg{Kind: typewriter.EventClear, Instance: id})
	assert.Empty(t, m.panels[id].bubbles)

	m, _ = send(t, m, EventMsg{Kind: typewriter.EventRelease, Instance: id})
	assert.NotContains(t, m.panels, id)
}

func TestPanelActions(t *testing.T) {
	t.Parallel()

	ctl := newFakeController()
	m := newModel(context.Background(), ctl)
	m, _ = send(t, m, keyPress("enter"))
	m, _ = send(t, m, keyPress("enter"))
	m, _ = send(t, m, keyPress("tab"))
	m = typeText(t, m, "justice")
	m, _ = send(t, m, keyPress("tab"))
	require.Equal(t, focusPanels, m.focus)

	m, _ = send(t, m, keyPress("l"))
	m, cmd := send(t, m, keyPress("c"))
	require.NotNil(t, cmd)
	m, _ = send(t, m, cmd())
	assert.Equal(t, []domain.InstanceID{2}, ctl.continued)

	m, _ = send(t, m, keyPress("e"))
	require.Equal(t, focusEditor, m.focus)
	assert.Equal(t, "You are Socrates.", m.editor.Value())
	m, _ = send(t, m, keyPress("esc"))
	assert.Equal(t, focusPanels, m.focus)
	assert.Empty(t, ctl.prompts)

	m, _ = send(t, m, keyPress("e"))
	m.editor.SetValue("You are a grumpy Socrates.")
	m, _ = send(t, m, keyPress("ctrl+s"))
	assert.Equal(t, "You are a grumpy Socrates.", ctl.prompts[2])
	assert.Contains(t, m.View(), "edited")

	m, _ = send(t, m, keyPress("x"))
	require.Len(t, ctl.instances, 1)
	assert.Equal(t, domain.InstanceID(1), ctl.instances[0].ID)
	assert.Equal(t, 0, m.panelCursor)
}

func TestQuit(t *testing.T) {
	t.Parallel()

	m := newModel(context.Background(), newFakeController())
	_, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestInterruptedBatchShowsStatusNotError(t *testing.T) {
	t.Parallel()

	m := newModel(context.Background(), newFakeController())
	m.pending = 1
	m, _ = send(t, m, batchDoneMsg{
		result: application.BatchResult{Completed: []domain.InstanceID{1}, Interrupted: true},
		err:    fmt.Errorf("start conversation: %w after 1 turn(s)", domain.ErrBatchInterrupted),
	})

	assert.Equal(t, 0, m.pending)
	assert.Equal(t, "batch interrupted after 1 turn(s)", m.status)
	assert.Empty(t, m.err)
}
