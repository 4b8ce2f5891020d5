package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// runStep is one blocking generation step of `rt run`.
type runStep struct {
	// Round 0 is the opening batch; continue rounds count from 1.
	Round   int
	Speaker string
	Seated  int
	Index   int
	Total   int
}

func (s runStep) describe() string {
	if s.Round == 0 {
		return fmt.Sprintf("Opening statements from %d persona(s)", s.Seated)
	}
	return fmt.Sprintf("Round %d · %s is answering", s.Round, s.Speaker)
}

type stepDoneMsg struct {
	err error
}

// progressModel shows which step of the run is waiting on the generation
// service and for how long.
type progressModel struct {
	spinner spinner.Model
	step    runStep
	started time.Time
	now     func() time.Time
	work    tea.Cmd
	muted   lipgloss.Style
	err     error
	done    bool
}

func newProgressModel(step runStep, now func() time.Time, work tea.Cmd) progressModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return progressModel{
		spinner: s,
		step:    step,
		started: now(),
		now:     now,
		work:    work,
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

func (m progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.work)
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case stepDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m progressModel) View() string {
	if m.done {
		return ""
	}

	elapsed := m.now().Sub(m.started).Truncate(100 * time.Millisecond)
	return fmt.Sprintf("%s %s %s %s",
		m.spinner.View(),
		m.muted.Render(fmt.Sprintf("[%d/%d]", m.step.Index, m.step.Total)),
		m.step.describe(),
		m.muted.Render(fmt.Sprintf("%.1fs", elapsed.Seconds())),
	)
}

// runWithProgress shows step on output until work returns.
func runWithProgress(ctx context.Context, output io.Writer, step runStep, work func(context.Context) error) error {
	workCmd := func() tea.Msg {
		return stepDoneMsg{err: work(ctx)}
	}

	p := tea.NewProgram(
		newProgressModel(step, time.Now, workCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(progressModel)
	if !ok {
		return fmt.Errorf("unexpected final progress model type %T", finalModel)
	}

	return result.err
}

// heldWriter buffers writes while a progress line owns the terminal and
// flushes them once it is released.
type heldWriter struct {
	mu   sync.Mutex
	w    io.Writer
	held bool
	buf  bytes.Buffer
}

func (h *heldWriter) Write(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.held {
		return h.buf.Write(p)
	}
	return h.w.Write(p)
}

func (h *heldWriter) hold() {
	h.mu.Lock()
	h.held = true
	h.mu.Unlock()
}

func (h *heldWriter) release() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.held = false
	if h.buf.Len() == 0 {
		return nil
	}
	_, err := h.w.Write(h.buf.Bytes())
	h.buf.Reset()
	return err
}
