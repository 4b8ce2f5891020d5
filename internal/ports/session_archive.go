package ports

import (
	"context"

	"github.com/bnema/roundtable/internal/domain"
)

type SessionArchive interface {
	Save(ctx context.Context, record domain.SessionRecord) error
	Get(ctx context.Context, id string) (domain.SessionRecord, error)
	// List returns saved sessions, newest first.
	List(ctx context.Context) ([]domain.SessionRecord, error)
}
