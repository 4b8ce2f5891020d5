package ports

import (
	"context"

	"github.com/bnema/roundtable/internal/domain"
)

type GenerateRequest struct {
	Personality  string
	Conversation []domain.Turn
	Phase        domain.Phase
}

// Generator produces one turn of text. Implementations make a single attempt
// and report failures as *domain.ServiceError or *domain.TransportError.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}
