package ports

import (
	"context"

	"github.com/bnema/roundtable/internal/domain"
)

type PersonaSource interface {
	LoadPersonas(ctx context.Context) ([]domain.Persona, error)
}
