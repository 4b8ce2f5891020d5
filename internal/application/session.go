package application

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bnema/roundtable/internal/domain"
	"github.com/google/uuid"
)

// Session is the conversation context shared by the engine and the user
// actions: the instance registry, the transcripts and the busy flag.
// A new session begins with every start-conversation action.
type Session struct {
	mu    sync.Mutex
	id    string
	topic string
	newID func() string
	pool  *InstancePool
	store *ConversationStore
	busy  bool
}

func NewSession() *Session {
	return newSessionWithIDs(uuid.NewString)
}

func newSessionWithIDs(newID func() string) *Session {
	return &Session{
		id:    newID(),
		newID: newID,
		pool:  NewInstancePool(),
		store: NewConversationStore(),
	}
}

func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Topic is the topic the current session was started with, empty before the
// first start.
func (s *Session) Topic() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topic
}

func (s *Session) State() domain.EngineState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return domain.EngineGenerating
	}
	return domain.EngineIdle
}

func (s *Session) tryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	return true
}

func (s *Session) release() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// renew starts a new session: shared and private transcripts are emptied in one
// step and the seated instances are returned in admission order.
func (s *Session) renew(topic string) (string, []domain.Instance) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.id = s.newID()
	s.topic = topic
	s.store.ResetAll()
	return s.id, s.pool.List()
}

func (s *Session) admit(persona domain.Persona) (domain.Instance, *domain.Instance) {
	s.mu.Lock()
	defer s.mu.Unlock()

	instance, evicted := s.pool.Admit(persona)
	if evicted != nil {
		s.store.Drop(evicted.ID)
	}
	s.store.Seed(instance.ID)
	return instance, evicted
}

func (s *Session) remove(id domain.InstanceID) (domain.Instance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	instance, ok := s.pool.Remove(id)
	if !ok {
		return domain.Instance{}, false
	}
	s.store.Drop(id)
	return instance, true
}

func (s *Session) instance(id domain.InstanceID) (domain.Instance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.Get(id)
}

func (s *Session) instances() []domain.Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.List()
}

func (s *Session) setPrompt(id domain.InstanceID, prompt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pool.SetPrompt(id, prompt) {
		return fmt.Errorf("%w: %d", domain.ErrInstanceNotFound, id)
	}
	return nil
}

// commit records turn in the instance's transcript and the shared one. Nothing
// is written when the instance has left the table meanwhile.
func (s *Session) commit(id domain.InstanceID, turn domain.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.AppendPrivate(id, turn); err != nil {
		return err
	}
	s.store.AppendShared(turn)
	return nil
}

func (s *Session) shared() domain.Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Shared()
}

func (s *Session) record(at time.Time) domain.SessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return domain.SessionRecord{
		ID:        s.id,
		Topic:     s.topic,
		SavedAt:   at,
		Instances: s.pool.List(),
		Turns:     s.store.Shared(),
	}
}

func (s *Session) private(id domain.InstanceID) (domain.Transcript, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	transcript, ok := s.store.Private(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrInstanceNotFound, id)
	}
	return transcript, nil
}

func normalizeTopic(topic string) (string, error) {
	trimmed := strings.TrimSpace(topic)
	if trimmed == "" {
		return "", domain.ErrEmptyTopic
	}
	return trimmed, nil
}
