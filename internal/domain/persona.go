package domain

import (
	"fmt"
	"strings"
	"unicode"
)

type PersonaID string

type Persona struct {
	ID     PersonaID
	Name   string
	Prompt string
}

func (p Persona) Validate() error {
	if strings.TrimSpace(string(p.ID)) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(p.Prompt) == "" {
		return fmt.Errorf("persona %q: prompt is required", p.Name)
	}

	return nil
}

// PersonaIDFromName derives a stable identifier from a display name,
// e.g. "Simone de Beauvoir" -> "simone-de-beauvoir".
func PersonaIDFromName(name string) PersonaID {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteRune('-')
			dash = true
		}
	}

	return PersonaID(strings.TrimRight(b.String(), "-"))
}
