package application

import "github.com/bnema/roundtable/internal/domain"

// InstancePool is a bounded FIFO of seated instances backed by a ring buffer.
// When full, admitting a new instance evicts the oldest admitted one.
type InstancePool struct {
	slots  [domain.MaxInstances]domain.Instance
	head   int
	size   int
	nextID domain.InstanceID
}

func NewInstancePool() *InstancePool {
	return &InstancePool{nextID: 1}
}

func (p *InstancePool) Len() int {
	return p.size
}

// Admit seats persona under a fresh id. The evicted instance, if any, is returned
// so the caller can release what it owns.
func (p *InstancePool) Admit(persona domain.Persona) (domain.Instance, *domain.Instance) {
	var evicted *domain.Instance
	if p.size == len(p.slots) {
		oldest := p.slots[p.head]
		p.slots[p.head] = domain.Instance{}
		p.head = (p.head + 1) % len(p.slots)
		p.size--
		evicted = &oldest
	}

	instance := domain.Instance{ID: p.nextID, Persona: persona}
	p.nextID++
	*p.at(p.size) = instance
	p.size++

	return instance, evicted
}

// Remove takes an instance out regardless of its queue position. Later
// instances keep their relative order.
func (p *InstancePool) Remove(id domain.InstanceID) (domain.Instance, bool) {
	index := p.indexOf(id)
	if index < 0 {
		return domain.Instance{}, false
	}

	removed := *p.at(index)
	for i := index; i < p.size-1; i++ {
		*p.at(i) = *p.at(i + 1)
	}
	*p.at(p.size - 1) = domain.Instance{}
	p.size--

	return removed, true
}

func (p *InstancePool) Get(id domain.InstanceID) (domain.Instance, bool) {
	index := p.indexOf(id)
	if index < 0 {
		return domain.Instance{}, false
	}
	return *p.at(index), true
}

func (p *InstancePool) SetPrompt(id domain.InstanceID, prompt string) bool {
	index := p.indexOf(id)
	if index < 0 {
		return false
	}
	p.at(index).Persona.Prompt = prompt
	return true
}

// List returns the seated instances in admission order.
func (p *InstancePool) List() []domain.Instance {
	out := make([]domain.Instance, 0, p.size)
	for i := 0; i < p.size; i++ {
		out = append(out, *p.at(i))
	}
	return out
}

func (p *InstancePool) indexOf(id domain.InstanceID) int {
	for i := 0; i < p.size; i++ {
		if p.at(i).ID == id {
			return i
		}
	}
	return -1
}

func (p *InstancePool) at(i int) *domain.Instance {
	return &p.slots[(p.head+i)%len(p.slots)]
}
