package typewriter

import (
	"fmt"
	"io"

	"github.com/bnema/roundtable/internal/domain"
)

// LineSink prints every finished bubble to w as soon as its last chunk has been
// typed. Bubbles cleared or released before they finish are never printed.
// format turns an instance's finished text into the printed block; nil prints
// the text as is.
//
// The returned Sink keeps per-instance state and relies on the Typewriter
// calling it from a single goroutine.
func LineSink(w io.Writer, format func(id domain.InstanceID, text string) string) Sink {
	open := make(map[domain.InstanceID]string)

	return func(event Event) {
		switch event.Kind {
		case EventBegin:
			open[event.Instance] = event.Text
		case EventEnd:
			text, ok := open[event.Instance]
			if !ok {
				return
			}
			delete(open, event.Instance)
			if format != nil {
				text = format(event.Instance, text)
			}
			_, _ = fmt.Fprintln(w, text)
		case EventClear, EventRelease:
			delete(open, event.Instance)
		}
	}
}
