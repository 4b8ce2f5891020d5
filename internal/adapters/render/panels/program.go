package panels

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/bnema/roundtable/internal/adapters/render/typewriter"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrUnexpectedModel = errors.New("unexpected final bubbletea model type")

// Bridge forwards typewriter events to a running program. Events sent before
// a program is attached are dropped.
type Bridge struct {
	mu      sync.RWMutex
	program *tea.Program
}

func (b *Bridge) Send(event typewriter.Event) {
	b.mu.RLock()
	program := b.program
	b.mu.RUnlock()
	if program != nil {
		program.Send(EventMsg(event))
	}
}

func (b *Bridge) attach(program *tea.Program) {
	b.mu.Lock()
	b.program = program
	b.mu.Unlock()
}

type Options struct {
	Input  io.Reader
	Output io.Writer
	// AltScreen runs the UI full-screen.
	AltScreen bool
}

// Run drives ctl from an interactive terminal UI until the user quits or
// ctx is cancelled.
func Run(ctx context.Context, ctl Controller, bridge *Bridge, opts Options) error {
	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.Input != nil {
		programOpts = append(programOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		programOpts = append(programOpts, tea.WithOutput(opts.Output))
	}
	if opts.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}

	p := tea.NewProgram(newModel(ctx, ctl), programOpts...)
	if bridge != nil {
		bridge.attach(p)
		defer bridge.attach(nil)
	}

	finalModel, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	if _, ok := finalModel.(model); !ok {
		return ErrUnexpectedModel
	}

	return nil
}
