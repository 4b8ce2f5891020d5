package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/roundtable/internal/domain"
	"github.com/bnema/roundtable/internal/ports"
	"go.uber.org/zap"
)

// BatchResult describes how far a start-conversation batch got.
type BatchResult struct {
	SessionID string
	Completed []domain.InstanceID
	Skipped   []domain.InstanceID
	// Interrupted is set when another action took the engine between two turns
	// of the batch and the remaining instances were not asked. StartAll then
	// also returns domain.ErrBatchInterrupted.
	Interrupted bool
}

// Engine sequences generation calls. Only one call is in flight at a time;
// requests arriving meanwhile are rejected with domain.ErrGenerationInProgress.
type Engine struct {
	session   *Session
	generator ports.Generator
	presenter ports.Presenter
	clock     ports.Clock
	logger    *zap.Logger
}

func NewEngine(session *Session, generator ports.Generator, presenter ports.Presenter, clock ports.Clock, logger *zap.Logger) *Engine {
	if presenter == nil {
		presenter = ports.NopPresenter{}
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		session:   session,
		generator: generator,
		presenter: presenter,
		clock:     clock,
		logger:    logger,
	}
}

func (e *Engine) State() domain.EngineState {
	return e.session.State()
}

// StartAll begins a new session and asks every seated instance, in admission
// order, for an opening turn on topic. The first failure aborts the batch;
// turns already committed stay.
func (e *Engine) StartAll(ctx context.Context, topic string) (BatchResult, error) {
	topic, err := normalizeTopic(topic)
	if err != nil {
		return BatchResult{}, err
	}
	if !e.session.tryAcquire() {
		return BatchResult{}, domain.ErrGenerationInProgress
	}

	sessionID, order := e.session.renew(topic)
	result := BatchResult{SessionID: sessionID}
	for _, instance := range order {
		e.presenter.Clear(instance.ID)
	}

	logger := e.logger.With(zap.String("session", sessionID))
	logger.Info("conversation started", zap.Int("instances", len(order)))

	seed := []domain.Turn{{Text: topic}}
	held := true
	for _, queued := range order {
		if !held && !e.session.tryAcquire() {
			result.Interrupted = true
			logger.Warn("batch interrupted by another action", zap.Int("completed", len(result.Completed)))
			return result, fmt.Errorf("start conversation: %w after %d turn(s)", domain.ErrBatchInterrupted, len(result.Completed))
		}
		held = false

		if err := ctx.Err(); err != nil {
			e.session.release()
			return result, fmt.Errorf("start conversation: %w", err)
		}

		instance, ok := e.session.instance(queued.ID)
		if !ok {
			e.session.release()
			result.Skipped = append(result.Skipped, queued.ID)
			logger.Debug("instance left before its turn", zap.Stringer("instance", queued.ID))
			continue
		}

		text, err := e.generate(ctx, logger, instance, seed, domain.PhaseOpening)
		if err != nil {
			e.session.release()
			logger.Warn("batch aborted", zap.Stringer("instance", instance.ID), zap.Error(err))
			return result, err
		}

		committed := e.commit(logger, instance, text)
		e.session.release()
		if committed {
			result.Completed = append(result.Completed, instance.ID)
			e.presenter.Reveal(instance.ID, text)
		}
	}
	if held {
		e.session.release()
	}

	logger.Info("conversation batch finished", zap.Int("completed", len(result.Completed)))
	return result, nil
}

// ContinueOne asks one instance for its next turn. The context sent is the
// shared transcript, so the instance sees what every other instance said.
func (e *Engine) ContinueOne(ctx context.Context, id domain.InstanceID, topic string) error {
	if _, err := normalizeTopic(topic); err != nil {
		return err
	}
	if !e.session.tryAcquire() {
		return domain.ErrGenerationInProgress
	}

	instance, ok := e.session.instance(id)
	if !ok {
		e.session.release()
		return fmt.Errorf("continue conversation: %w: %d", domain.ErrInstanceNotFound, id)
	}

	logger := e.logger.With(zap.String("session", e.session.ID()))
	text, err := e.generate(ctx, logger, instance, e.session.shared(), domain.PhaseDebate)
	if err != nil {
		e.session.release()
		return err
	}

	committed := e.commit(logger, instance, text)
	e.session.release()
	if committed {
		e.presenter.Reveal(instance.ID, text)
	}

	return nil
}

func (e *Engine) generate(ctx context.Context, logger *zap.Logger, instance domain.Instance, conversation []domain.Turn, phase domain.Phase) (string, error) {
	started := e.clock.Now()
	text, err := e.generator.Generate(ctx, ports.GenerateRequest{
		Personality:  instance.Persona.Prompt,
		Conversation: conversation,
		Phase:        phase,
	})
	fields := []zap.Field{
		zap.Stringer("instance", instance.ID),
		zap.String("persona", instance.Persona.Name),
		zap.String("phase", string(phase)),
		zap.Int("context_turns", len(conversation)),
		zap.Duration("elapsed", e.clock.Now().Sub(started)),
	}
	if err != nil {
		logger.Error("generation failed", append(fields, zap.Error(err))...)
		return "", &domain.InstanceError{InstanceID: instance.ID, Persona: instance.Persona.Name, Err: err}
	}

	logger.Debug("generation finished", append(fields, zap.Int("chars", len(text)))...)
	return text, nil
}

// commit stores a generated turn. Empty text produces no turn.
func (e *Engine) commit(logger *zap.Logger, instance domain.Instance, text string) bool {
	if text == "" {
		logger.Debug("empty turn discarded", zap.Stringer("instance", instance.ID))
		return false
	}

	turn := domain.Turn{Text: text, Speaker: instance.Persona.Name, At: e.clock.Now().UTC().Truncate(time.Millisecond)}
	if err := e.session.commit(instance.ID, turn); err != nil {
		if errors.Is(err, domain.ErrInstanceNotFound) {
			logger.Info("instance left during generation; turn dropped", zap.Stringer("instance", instance.ID))
			return false
		}
		logger.Error("commit turn", zap.Error(err))
		return false
	}

	return true
}
