package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/roundtable/internal/domain"
	"github.com/bnema/roundtable/internal/ports"
	"go.uber.org/zap"
)

var (
	ErrEmptyPrompt   = errors.New("prompt is required")
	ErrNothingToSave = errors.New("session has no turns to save")
)

// Service exposes the user actions of the simulator: selecting personas,
// starting and continuing the conversation, removing instances and editing
// their prompts.
type Service struct {
	catalog   *Catalog
	session   *Session
	engine    *Engine
	presenter ports.Presenter
	logger    *zap.Logger
}

func NewService(catalog *Catalog, engine *Engine) *Service {
	return &Service{
		catalog:   catalog,
		session:   engine.session,
		engine:    engine,
		presenter: engine.presenter,
		logger:    engine.logger,
	}
}

// SelectPersona seats the persona at index. A full table gives up its oldest
// seat; that instance's transcript and display go with it.
func (s *Service) SelectPersona(index int) (domain.Instance, error) {
	persona, err := s.catalog.At(index)
	if err != nil {
		return domain.Instance{}, err
	}

	instance, evicted := s.session.admit(persona)
	if evicted != nil {
		s.presenter.Release(evicted.ID)
		s.logger.Info("instance evicted",
			zap.Stringer("instance", evicted.ID),
			zap.String("persona", evicted.Persona.Name),
		)
	}
	s.logger.Info("instance admitted",
		zap.Stringer("instance", instance.ID),
		zap.String("persona", persona.Name),
	)

	return instance, nil
}

func (s *Service) StartConversation(ctx context.Context, topic string) (BatchResult, error) {
	return s.engine.StartAll(ctx, topic)
}

func (s *Service) Continue(ctx context.Context, id domain.InstanceID, topic string) error {
	return s.engine.ContinueOne(ctx, id, topic)
}

func (s *Service) RemoveInstance(id domain.InstanceID) error {
	instance, ok := s.session.remove(id)
	if !ok {
		return fmt.Errorf("remove instance: %w: %d", domain.ErrInstanceNotFound, id)
	}

	s.presenter.Release(id)
	s.logger.Info("instance removed",
		zap.Stringer("instance", id),
		zap.String("persona", instance.Persona.Name),
	)
	return nil
}

// EditPrompt overrides the prompt of one instance only; the catalog and other
// instances of the same persona keep theirs.
func (s *Service) EditPrompt(id domain.InstanceID, prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	if err := s.session.setPrompt(id, prompt); err != nil {
		return fmt.Errorf("edit prompt: %w", err)
	}
	return nil
}

func (s *Service) Instances() []domain.Instance {
	return s.session.instances()
}

func (s *Service) Instance(id domain.InstanceID) (domain.Instance, bool) {
	return s.session.instance(id)
}

func (s *Service) PrivateTranscript(id domain.InstanceID) (domain.Transcript, error) {
	return s.session.private(id)
}

func (s *Service) SharedTranscript() domain.Transcript {
	return s.session.shared()
}

func (s *Service) Personas() []domain.Persona {
	return s.catalog.List()
}

func (s *Service) Catalog() *Catalog {
	return s.catalog
}

func (s *Service) SessionID() string {
	return s.session.ID()
}

func (s *Service) State() domain.EngineState {
	return s.engine.State()
}

// Record captures the current session: its topic, the seated instances and
// the shared transcript.
func (s *Service) Record() domain.SessionRecord {
	return s.session.record(s.engine.clock.Now().UTC())
}

// SaveSession writes the current session to archive. A session that has not
// produced any turn is not saved.
func (s *Service) SaveSession(ctx context.Context, archive ports.SessionArchive) (domain.SessionRecord, error) {
	record := s.Record()
	if len(record.Turns) == 0 {
		return domain.SessionRecord{}, ErrNothingToSave
	}
	if err := archive.Save(ctx, record); err != nil {
		return domain.SessionRecord{}, fmt.Errorf("save session %s: %w", record.ID, err)
	}

	s.logger.Info("session saved",
		zap.String("session", record.ID),
		zap.Int("turns", len(record.Turns)),
	)
	return record, nil
}
