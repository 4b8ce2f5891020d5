package env

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bnema/roundtable/internal/domain"
	"github.com/bnema/roundtable/internal/ports"
)

var ErrReadOnly = errors.New("environment secrets are read-only")

// Store resolves secrets from environment variables. Vars maps a secret key
// to the variable holding it.
type Store struct {
	Vars   map[string]string
	Lookup func(string) (string, bool)
}

var _ ports.SecretStore = Store{}

func (s Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name, ok := s.Vars[key]
	if !ok {
		return "", fmt.Errorf("no environment variable mapped to %q: %w", key, domain.ErrSecretNotFound)
	}

	lookup := s.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	value, ok := lookup(name)
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		return "", fmt.Errorf("%s is not set: %w", name, domain.ErrSecretNotFound)
	}

	return value, nil
}

func (s Store) Put(context.Context, string, string) error {
	return ErrReadOnly
}

func (s Store) Delete(context.Context, string) error {
	return ErrReadOnly
}
