package catalog

import (
	"fmt"
	"strings"

	"github.com/bnema/roundtable/internal/domain"
)

const currentSchemaVersion = 1

type fileSchema struct {
	Version  int             `toml:"version" yaml:"version"`
	Personas []personaSchema `toml:"personas" yaml:"personas"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported persona catalog version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type personaSchema struct {
	ID     string `toml:"id,omitempty" yaml:"id,omitempty"`
	Name   string `toml:"name" yaml:"name"`
	Prompt string `toml:"prompt" yaml:"prompt"`
}

func fromSchema(entry personaSchema) domain.Persona {
	name := strings.TrimSpace(entry.Name)
	id := domain.PersonaID(strings.TrimSpace(entry.ID))
	if id == "" {
		id = domain.PersonaIDFromName(name)
	}

	return domain.Persona{
		ID:     id,
		Name:   name,
		Prompt: strings.TrimSpace(entry.Prompt),
	}
}
