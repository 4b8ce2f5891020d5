package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/roundtable/internal/domain"
	"github.com/bnema/roundtable/internal/ports"
)

type scriptedGenerator struct {
	mu       sync.Mutex
	requests []ports.GenerateRequest
	respond  func(call int, req ports.GenerateRequest) (string, error)
}

func (g *scriptedGenerator) Generate(_ context.Context, req ports.GenerateRequest) (string, error) {
	g.mu.Lock()
	call := len(g.requests)
	req.Conversation = domain.Transcript(req.Conversation).Clone()
	g.requests = append(g.requests, req)
	g.mu.Unlock()

	if g.respond == nil {
		return fmt.Sprintf("turn %d", call+1), nil
	}
	return g.respond(call, req)
}

func (g *scriptedGenerator) calls() []ports.GenerateRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]ports.GenerateRequest, len(g.requests))
	copy(out, g.requests)
	return out
}

// echoPersona answers with the persona prompt so tests can tell who spoke.
func echoPersona(_ int, req ports.GenerateRequest) (string, error) {
	return "said by " + req.Personality, nil
}

type blockingGenerator struct {
	started chan struct{}
	release chan struct{}
	mu      sync.Mutex
	count   int
}

func newBlockingGenerator() *blockingGenerator {
	return &blockingGenerator{started: make(chan struct{}, 8), release: make(chan struct{})}
}

func (g *blockingGenerator) Generate(ctx context.Context, req ports.GenerateRequest) (string, error) {
	g.mu.Lock()
	g.count++
	g.mu.Unlock()

	g.started <- struct{}{}
	select {
	case <-g.release:
		return "after wait: " + req.Personality, nil
	case <-ctx.Done():
		return "", &domain.TransportError{Err: ctx.Err()}
	}
}

func (g *blockingGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.count
}

type presenterCall struct {
	op   string
	id   domain.InstanceID
	text string
}

type recordingPresenter struct {
	mu    sync.Mutex
	calls []presenterCall
}

func (p *recordingPresenter) Reveal(id domain.InstanceID, text string) {
	p.record(presenterCall{op: "reveal", id: id, text: text})
}

func (p *recordingPresenter) Clear(id domain.InstanceID) {
	p.record(presenterCall{op: "clear", id: id})
}

func (p *recordingPresenter) Release(id domain.InstanceID) {
	p.record(presenterCall{op: "release", id: id})
}

func (p *recordingPresenter) record(call presenterCall) {
	p.mu.Lock()
	p.calls = append(p.calls, call)
	p.mu.Unlock()
}

func (p *recordingPresenter) ops(op string) []presenterCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []presenterCall
	for _, call := range p.calls {
		if call.op == op {
			out = append(out, call)
		}
	}
	return out
}

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time {
	return f.now
}

func testPersonas() []domain.Persona {
	return []domain.Persona{
		{ID: "socrates", Name: "Socrates", Prompt: "prompt-socrates"},
		{ID: "hume", Name: "Hume", Prompt: "prompt-hume"},
		{ID: "arendt", Name: "Arendt", Prompt: "prompt-arendt"},
		{ID: "kant", Name: "Kant", Prompt: "prompt-kant"},
	}
}

type harness struct {
	service   *Service
	engine    *Engine
	session   *Session
	presenter *recordingPresenter
}

func newHarness(generator ports.Generator) harness {
	catalog, err := NewCatalog(testPersonas())
	if err != nil {
		panic(err)
	}

	counter := 0
	session := newSessionWithIDs(func() string {
		counter++
		return fmt.Sprintf("session-%d", counter)
	})
	presenter := &recordingPresenter{}
	engine := NewEngine(session, generator, presenter, fixedClock{now: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}, nil)

	return harness{
		service:   NewService(catalog, engine),
		engine:    engine,
		session:   session,
		presenter: presenter,
	}
}

func (h harness) seat(indexes ...int) []domain.Instance {
	seated := make([]domain.Instance, 0, len(indexes))
	for _, index := range indexes {
		instance, err := h.service.SelectPersona(index)
		if err != nil {
			panic(err)
		}
		seated = append(seated, instance)
	}
	return seated
}
