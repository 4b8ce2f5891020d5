package application

import (
	"fmt"

	"github.com/bnema/roundtable/internal/domain"
)

// ConversationStore holds the shared transcript and one private transcript per
// seated instance. It does no locking; Session serializes access.
type ConversationStore struct {
	shared  domain.Transcript
	private map[domain.InstanceID]domain.Transcript
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		shared:  domain.Transcript{},
		private: map[domain.InstanceID]domain.Transcript{},
	}
}

// Seed gives id a private transcript holding a copy of the shared one.
func (s *ConversationStore) Seed(id domain.InstanceID) {
	s.private[id] = s.shared.Clone()
}

func (s *ConversationStore) AppendPrivate(id domain.InstanceID, turn domain.Turn) error {
	transcript, ok := s.private[id]
	if !ok {
		return fmt.Errorf("%w: %d", domain.ErrInstanceNotFound, id)
	}
	s.private[id] = append(transcript, turn)
	return nil
}

func (s *ConversationStore) AppendShared(turn domain.Turn) {
	s.shared = append(s.shared, turn)
}

func (s *ConversationStore) ResetShared() {
	s.shared = domain.Transcript{}
}

// ResetAll empties the shared transcript and every private transcript.
func (s *ConversationStore) ResetAll() {
	s.ResetShared()
	for id := range s.private {
		s.private[id] = domain.Transcript{}
	}
}

func (s *ConversationStore) Drop(id domain.InstanceID) {
	delete(s.private, id)
}

func (s *ConversationStore) Has(id domain.InstanceID) bool {
	_, ok := s.private[id]
	return ok
}

func (s *ConversationStore) Len() int {
	return len(s.private)
}

func (s *ConversationStore) Shared() domain.Transcript {
	return s.shared.Clone()
}

func (s *ConversationStore) Private(id domain.InstanceID) (domain.Transcript, bool) {
	transcript, ok := s.private[id]
	if !ok {
		return nil, false
	}
	return transcript.Clone(), true
}
