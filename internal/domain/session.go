package domain

import (
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRecord is a finished conversation as written to the archive.
type SessionRecord struct {
	ID        string
	Topic     string
	SavedAt   time.Time
	Instances []Instance
	Turns     Transcript
}
