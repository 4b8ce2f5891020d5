package application

import (
	"fmt"
	"strings"

	"github.com/bnema/roundtable/internal/domain"
)

// Catalog is the read-only list of personas available for selection.
type Catalog struct {
	personas []domain.Persona
}

func NewCatalog(personas []domain.Persona) (*Catalog, error) {
	seen := make(map[domain.PersonaID]struct{}, len(personas))
	list := make([]domain.Persona, 0, len(personas))
	for i, persona := range personas {
		if err := persona.Validate(); err != nil {
			return nil, fmt.Errorf("persona #%d: %w", i+1, err)
		}
		if _, ok := seen[persona.ID]; ok {
			return nil, fmt.Errorf("persona #%d: duplicate id %q", i+1, persona.ID)
		}
		seen[persona.ID] = struct{}{}
		list = append(list, persona)
	}

	return &Catalog{personas: list}, nil
}

func (c *Catalog) Len() int {
	return len(c.personas)
}

func (c *Catalog) List() []domain.Persona {
	out := make([]domain.Persona, len(c.personas))
	copy(out, c.personas)
	return out
}

func (c *Catalog) At(index int) (domain.Persona, error) {
	if index < 0 || index >= len(c.personas) {
		return domain.Persona{}, fmt.Errorf("%w: index %d", domain.ErrPersonaNotFound, index)
	}
	return c.personas[index], nil
}

// Lookup resolves a persona by id or, failing that, by case-insensitive name.
func (c *Catalog) Lookup(selector string) (int, domain.Persona, error) {
	trimmed := strings.TrimSpace(selector)
	for i, persona := range c.personas {
		if string(persona.ID) == trimmed {
			return i, persona, nil
		}
	}
	for i, persona := range c.personas {
		if strings.EqualFold(persona.Name, trimmed) {
			return i, persona, nil
		}
	}

	return -1, domain.Persona{}, fmt.Errorf("%w: %q", domain.ErrPersonaNotFound, selector)
}
