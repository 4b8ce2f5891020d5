package application

import (
	"math/rand"
	"testing"

	"github.com/bnema/roundtable/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func poolIDs(pool *InstancePool) []domain.InstanceID {
	ids := []domain.InstanceID{}
	for _, instance := range pool.List() {
		ids = append(ids, instance.ID)
	}
	return ids
}

func TestInstancePoolAdmitEvictsOldestWhenFull(t *testing.T) {
	t.Parallel()

	personas := testPersonas()
	pool := NewInstancePool()

	for _, persona := range personas[:3] {
		_, evicted := pool.Admit(persona)
		assert.Nil(t, evicted)
	}
	require.Equal(t, []domain.InstanceID{1, 2, 3}, poolIDs(pool))

	fourth, evicted := pool.Admit(personas[3])
	require.NotNil(t, evicted)
	assert.Equal(t, domain.InstanceID(1), evicted.ID)
	assert.Equal(t, "Socrates", evicted.Persona.Name)
	assert.Equal(t, domain.InstanceID(4), fourth.ID)
	assert.Equal(t, []domain.InstanceID{2, 3, 4}, poolIDs(pool))
	assert.Equal(t, domain.MaxInstances, pool.Len())
}

func TestInstancePoolEvictionFollowsAdmissionNotActivity(t *testing.T) {
	t.Parallel()

	personas := testPersonas()
	pool := NewInstancePool()
	for _, persona := range personas[:3] {
		pool.Admit(persona)
	}

	// Editing the oldest instance does not refresh its position.
	require.True(t, pool.SetPrompt(1, "edited"))

	_, evicted := pool.Admit(personas[0])
	require.NotNil(t, evicted)
	assert.Equal(t, domain.InstanceID(1), evicted.ID)
	assert.Equal(t, "edited", evicted.Persona.Prompt)
}

func TestInstancePoolRemoveKeepsOrderAndFreesCapacity(t *testing.T) {
	t.Parallel()

	personas := testPersonas()
	pool := NewInstancePool()
	for _, persona := range personas[:3] {
		pool.Admit(persona)
	}

	removed, ok := pool.Remove(2)
	require.True(t, ok)
	assert.Equal(t, "Hume", removed.Persona.Name)
	assert.Equal(t, []domain.InstanceID{1, 3}, poolIDs(pool))

	_, evicted := pool.Admit(personas[3])
	assert.Nil(t, evicted)
	assert.Equal(t, []domain.InstanceID{1, 3, 4}, poolIDs(pool))

	_, evicted = pool.Admit(personas[1])
	require.NotNil(t, evicted)
	assert.Equal(t, domain.InstanceID(1), evicted.ID)
	assert.Equal(t, []domain.InstanceID{3, 4, 5}, poolIDs(pool))

	_, ok = pool.Remove(42)
	assert.False(t, ok)
}

func TestInstancePoolNeverReusesIDs(t *testing.T) {
	t.Parallel()

	pool := NewInstancePool()
	persona := testPersonas()[0]
	seen := map[domain.InstanceID]struct{}{}
	for i := 0; i < 20; i++ {
		instance, _ := pool.Admit(persona)
		_, dup := seen[instance.ID]
		require.False(t, dup, "id %d reused", instance.ID)
		seen[instance.ID] = struct{}{}
		if i%3 == 0 {
			pool.Remove(instance.ID)
		}
	}
}

func TestSessionKeepsInstancesAndTranscriptsPaired(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	personas := testPersonas()
	session := NewSession()
	removed := map[domain.InstanceID]struct{}{}

	for step := 0; step < 500; step++ {
		live := session.instances()
		if len(live) > 0 && rng.Intn(3) == 0 {
			target := live[rng.Intn(len(live))]
			_, ok := session.remove(target.ID)
			require.True(t, ok)
			removed[target.ID] = struct{}{}
		} else {
			_, evicted := session.admit(personas[rng.Intn(len(personas))])
			if evicted != nil {
				removed[evicted.ID] = struct{}{}
			}
		}

		live = session.instances()
		require.LessOrEqual(t, len(live), domain.MaxInstances)
		require.Equal(t, len(live), session.store.Len())
		for _, instance := range live {
			require.True(t, session.store.Has(instance.ID), "step %d: live instance %d has no transcript", step, instance.ID)
		}
		for id := range removed {
			require.False(t, session.store.Has(id), "step %d: removed instance %d kept its transcript", step, id)
		}
	}
}
