package typewriter

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bnema/roundtable/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) sink(event Event) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// typed rebuilds the text each instance shows from chunk events.
func (r *recorder) typed(id domain.InstanceID) string {
	var b strings.Builder
	for _, event := range r.snapshot() {
		if event.Instance != id {
			continue
		}
		switch event.Kind {
		case EventChunk:
			b.WriteString(event.Text)
		case EventEnd:
			b.WriteString("|")
		case EventClear:
			b.Reset()
		}
	}
	return b.String()
}

func waitIdle(t *testing.T, tw *Typewriter) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, tw.Wait(ctx))
}

func TestRevealTypesInChunks(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	tw := New(rec.sink, Options{Interval: time.Millisecond, Chunk: 2})
	defer tw.Close()

	tw.Reveal(1, "hello")
	waitIdle(t, tw)

	assert.Equal(t, []Event{
		{Kind: EventBegin, Instance: 1, Text: "hello"},
		{Kind: EventChunk, Instance: 1, Text: "he"},
		{Kind: EventChunk, Instance: 1, Text: "ll"},
		{Kind: EventChunk, Instance: 1, Text: "o"},
		{Kind: EventEnd, Instance: 1},
	}, rec.snapshot())
}

func TestRevealKeepsMultibyteRunesWhole(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	tw := New(rec.sink, Options{Chunk: 1})
	defer tw.Close()

	tw.Reveal(1, "Ça va")
	waitIdle(t, tw)

	assert.Equal(t, "Ça va|", rec.typed(1))
}

func TestRevealKeepsOrderPerInstance(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	tw := New(rec.sink, Options{Interval: time.Millisecond, Chunk: 3})
	defer tw.Close()

	tw.Reveal(1, "first turn")
	tw.Reveal(2, "other panel")
	tw.Reveal(1, "second turn")
	waitIdle(t, tw)

	assert.Equal(t, "first turn|second turn|", rec.typed(1))
	assert.Equal(t, "other panel|", rec.typed(2))
}

func TestRevealDoesNotBlockTheCaller(t *testing.T) {
	t.Parallel()

	tw := New(nil, Options{Interval: time.Hour})
	defer tw.Close()

	returned := make(chan struct{})
	go func() {
		tw.Reveal(1, "this would take days to type")
		tw.Reveal(1, "and this too")
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("Reveal blocked")
	}
}

func TestClearDropsQueuedAndActiveReveals(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	tw := New(rec.sink, Options{Interval: time.Hour})
	defer tw.Close()

	tw.Reveal(1, "slow")
	tw.Reveal(1, "never shown")
	tw.Clear(1)
	waitIdle(t, tw)

	events := rec.snapshot()
	require.NotEmpty(t, events)
	assert.Equal(t, Event{Kind: EventClear, Instance: 1}, events[len(events)-1])
	for _, event := range events {
		assert.NotEqual(t, EventChunk, event.Kind)
		assert.NotEqual(t, "never shown", event.Text)
	}

	tw.Reveal(1, "after")
	require.Eventually(t, func() bool {
		for _, event := range rec.snapshot() {
			if event.Kind == EventBegin && event.Text == "after" {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)
}

func TestClearOnIdleLaneDoesNotSkipNextReveal(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	tw := New(rec.sink, Options{Interval: time.Millisecond})
	defer tw.Close()

	tw.Reveal(1, "a")
	waitIdle(t, tw)
	tw.Clear(1)
	tw.Reveal(1, "bc")
	waitIdle(t, tw)

	assert.Equal(t, "bc|", rec.typed(1))
}

func TestReleaseStopsTheLane(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	tw := New(rec.sink, Options{Interval: time.Hour})

	tw.Reveal(3, "going away")
	tw.Release(3)
	waitIdle(t, tw)

	events := rec.snapshot()
	assert.Equal(t, Event{Kind: EventRelease, Instance: 3}, events[len(events)-1])

	tw.Close()
}

func TestWaitHonoursContext(t *testing.T) {
	t.Parallel()

	tw := New(nil, Options{Interval: time.Hour})
	defer tw.Close()

	tw.Reveal(1, "slow")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, tw.Wait(ctx), context.DeadlineExceeded)
}

func TestCloseIgnoresLaterCalls(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	tw := New(rec.sink, Options{})
	tw.Close()
	tw.Close()

	tw.Reveal(1, "late")
	tw.Clear(1)
	tw.Release(1)

	assert.Empty(t, rec.snapshot())
	require.NoError(t, tw.Wait(context.Background()))
}
