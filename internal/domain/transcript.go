package domain

import "time"

type Turn struct {
	Text    string
	Speaker string
	At      time.Time
}

type Transcript []Turn

// Clone returns a value copy that shares no backing array with t.
func (t Transcript) Clone() Transcript {
	if t == nil {
		return Transcript{}
	}

	out := make(Transcript, len(t))
	copy(out, t)
	return out
}

func (t Transcript) Texts() []string {
	texts := make([]string, 0, len(t))
	for _, turn := range t {
		texts = append(texts, turn.Text)
	}
	return texts
}
