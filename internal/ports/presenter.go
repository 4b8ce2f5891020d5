package ports

import "github.com/bnema/roundtable/internal/domain"

// Presenter displays finalized turns. Every method must return without
// waiting for rendering to finish.
type Presenter interface {
	Reveal(id domain.InstanceID, text string)
	Clear(id domain.InstanceID)
	Release(id domain.InstanceID)
}

type NopPresenter struct{}

func (NopPresenter) Reveal(domain.InstanceID, string) {}
func (NopPresenter) Clear(domain.InstanceID)          {}
func (NopPresenter) Release(domain.InstanceID)        {}
