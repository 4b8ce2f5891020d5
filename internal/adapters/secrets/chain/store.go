package chain

import (
	"context"
	"errors"
	"fmt"

	envstore "github.com/bnema/roundtable/internal/adapters/secrets/env"
	filestore "github.com/bnema/roundtable/internal/adapters/secrets/file"
	"github.com/bnema/roundtable/internal/ports"
)

// Store reads from primary first and falls back when it cannot answer.
// Writes go to primary and fall back the same way, so a read-only primary
// sends every write to fallback.
type Store struct {
	primary  ports.SecretStore
	fallback ports.SecretStore
}

var _ ports.SecretStore = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary secret store is nil")
	errNilFallbackStore = errors.New("fallback secret store is nil")
)

func NewStore(primary ports.SecretStore, fallback ports.SecretStore) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}

	return &Store{primary: primary, fallback: fallback}, nil
}

// NewEnvFirstWithFileFallback resolves apiKeyRef from OPENAI_API_KEY, then
// from the file store under fileRoot.
func NewEnvFirstWithFileFallback(apiKeyRef string, fileRoot string) (*Store, error) {
	primary := envstore.Store{Vars: map[string]string{apiKeyRef: "OPENAI_API_KEY"}}
	return NewStore(primary, filestore.NewStore(fileRoot))
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	err := s.primary.Put(ctx, key, value)
	if err == nil {
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	if fallbackErr := s.fallback.Put(ctx, key, value); fallbackErr != nil {
		return fmt.Errorf("primary backend put failed: %w; fallback backend put failed: %w", err, fallbackErr)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.primary.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if shouldSkipFallback(err) {
		return "", err
	}

	fallbackValue, fallbackErr := s.fallback.Get(ctx, key)
	if fallbackErr != nil {
		return "", fmt.Errorf("primary backend get failed: %w; fallback backend get failed: %w", err, fallbackErr)
	}
	return fallbackValue, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.primary.Delete(ctx, key)
	if err == nil {
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	if fallbackErr := s.fallback.Delete(ctx, key); fallbackErr != nil {
		return fmt.Errorf("primary backend delete failed: %w; fallback backend delete failed: %w", err, fallbackErr)
	}
	return nil
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
