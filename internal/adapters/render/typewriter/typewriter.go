package typewriter

import (
	"context"
	"sync"
	"time"

	"github.com/bnema/roundtable/internal/domain"
	"github.com/bnema/roundtable/internal/ports"
)

type EventKind int

const (
	// EventBegin opens a new bubble; Text holds the full turn.
	EventBegin EventKind = iota + 1
	// EventChunk appends Text to the open bubble.
	EventChunk
	EventEnd
	// EventClear empties the instance's panel.
	EventClear
	// EventRelease means the instance is gone and its panel can be dropped.
	EventRelease
)

type Event struct {
	Kind     EventKind
	Instance domain.InstanceID
	Text     string
}

// Sink receives events in emission order from a single goroutine. It may block.
type Sink func(Event)

type Options struct {
	Interval time.Duration
	Chunk    int
}

// Typewriter reveals turns a few characters at a time. Every instance has its
// own lane, so panels type concurrently while each panel keeps its turns in
// order. None of the Presenter methods wait for typing to finish.
type Typewriter struct {
	sink     Sink
	interval time.Duration
	chunk    int

	mu     sync.Mutex
	lanes  map[domain.InstanceID]*lane
	outbox []Event
	work   int
	idle   chan struct{}
	closed bool

	notify     chan struct{}
	done       chan struct{}
	dispatched chan struct{}
	wg         sync.WaitGroup
}

type lane struct {
	id      domain.InstanceID
	pending []string
	epoch   uint64
	wake    chan struct{}
	cleared chan struct{}
	stop    chan struct{}
}

var _ ports.Presenter = (*Typewriter)(nil)

func New(sink Sink, opts Options) *Typewriter {
	if sink == nil {
		sink = func(Event) {}
	}
	if opts.Chunk < 1 {
		opts.Chunk = 1
	}

	t := &Typewriter{
		sink:       sink,
		interval:   opts.Interval,
		chunk:      opts.Chunk,
		lanes:      make(map[domain.InstanceID]*lane),
		notify:     make(chan struct{}, 1),
		done:       make(chan struct{}),
		dispatched: make(chan struct{}),
	}
	go t.dispatch()

	return t
}

func (t *Typewriter) Reveal(id domain.InstanceID, text string) {
	if text == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}

	l, ok := t.lanes[id]
	if !ok {
		l = &lane{
			id:      id,
			wake:    make(chan struct{}, 1),
			cleared: make(chan struct{}, 1),
			stop:    make(chan struct{}),
		}
		t.lanes[id] = l
		t.wg.Add(1)
		go t.runLane(l)
	}

	l.pending = append(l.pending, text)
	t.addWorkLocked(1)
	signal(l.wake)
}

// Clear drops queued and in-progress reveals for id and empties its panel.
func (t *Typewriter) Clear(id domain.InstanceID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}

	if l, ok := t.lanes[id]; ok {
		t.interruptLocked(l)
	}
	t.emitLocked(Event{Kind: EventClear, Instance: id})
}

// Release is Clear plus stopping the lane for good.
func (t *Typewriter) Release(id domain.InstanceID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}

	if l, ok := t.lanes[id]; ok {
		t.interruptLocked(l)
		delete(t.lanes, id)
		close(l.stop)
	}
	t.emitLocked(Event{Kind: EventRelease, Instance: id})
}

// Wait blocks until every queued reveal has been typed and delivered.
func (t *Typewriter) Wait(ctx context.Context) error {
	t.mu.Lock()
	if t.work == 0 {
		t.mu.Unlock()
		return nil
	}
	if t.idle == nil {
		t.idle = make(chan struct{})
	}
	idle := t.idle
	t.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close abandons pending reveals and stops every goroutine. Events already
// emitted are still delivered.
func (t *Typewriter) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	for id, l := range t.lanes {
		close(l.stop)
		delete(t.lanes, id)
	}
	close(t.done)
	signal(t.notify)
	t.mu.Unlock()

	t.wg.Wait()
	<-t.dispatched

	t.mu.Lock()
	t.work = 0
	if t.idle != nil {
		close(t.idle)
		t.idle = nil
	}
	t.mu.Unlock()
}

func (t *Typewriter) runLane(l *lane) {
	defer t.wg.Done()

	for {
		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			return
		}
		if len(l.pending) == 0 {
			t.mu.Unlock()
			select {
			case <-l.wake:
				continue
			case <-l.stop:
				return
			}
		}
		text := l.pending[0]
		l.pending = l.pending[1:]
		epoch := l.epoch
		t.emitLocked(Event{Kind: EventBegin, Instance: l.id, Text: text})
		t.mu.Unlock()

		t.typeOut(l, text, epoch)

		t.mu.Lock()
		t.addWorkLocked(-1)
		t.mu.Unlock()
	}
}

func (t *Typewriter) typeOut(l *lane, text string, epoch uint64) {
	var tick <-chan time.Time
	if t.interval > 0 {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	runes := []rune(text)
	for start := 0; start < len(runes); start += t.chunk {
		if tick != nil && !t.waitTick(l, tick, epoch) {
			return
		}

		end := min(start+t.chunk, len(runes))
		t.mu.Lock()
		if l.epoch != epoch || t.closed {
			t.mu.Unlock()
			return
		}
		t.emitLocked(Event{Kind: EventChunk, Instance: l.id, Text: string(runes[start:end])})
		t.mu.Unlock()
	}

	t.mu.Lock()
	if l.epoch == epoch && !t.closed {
		t.emitLocked(Event{Kind: EventEnd, Instance: l.id})
	}
	t.mu.Unlock()
}

// waitTick reports false when the reveal was cleared or the lane stopped.
func (t *Typewriter) waitTick(l *lane, tick <-chan time.Time, epoch uint64) bool {
	for {
		select {
		case <-tick:
			return true
		case <-l.cleared:
			t.mu.Lock()
			stale := l.epoch != epoch
			t.mu.Unlock()
			if stale {
				return false
			}
		case <-l.stop:
			return false
		}
	}
}

func (t *Typewriter) dispatch() {
	defer close(t.dispatched)

	for {
		t.mu.Lock()
		batch := t.outbox
		t.outbox = nil
		closed := t.closed
		t.mu.Unlock()

		for _, event := range batch {
			t.sink(event)
		}
		if len(batch) > 0 {
			t.mu.Lock()
			t.addWorkLocked(-len(batch))
			t.mu.Unlock()
			continue
		}
		if closed {
			return
		}
		<-t.notify
	}
}

func (t *Typewriter) interruptLocked(l *lane) {
	t.addWorkLocked(-len(l.pending))
	l.pending = nil
	l.epoch++
	signal(l.cleared)
}

func (t *Typewriter) emitLocked(event Event) {
	t.outbox = append(t.outbox, event)
	t.addWorkLocked(1)
	signal(t.notify)
}

func (t *Typewriter) addWorkLocked(delta int) {
	t.work += delta
	if t.work <= 0 {
		t.work = 0
		if t.idle != nil {
			close(t.idle)
			t.idle = nil
		}
	}
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
