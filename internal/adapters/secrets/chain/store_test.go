package chain

import (
	"context"
	"testing"

	envstore "github.com/bnema/roundtable/internal/adapters/secrets/env"
	"github.com/bnema/roundtable/internal/domain"
	portmocks "github.com/bnema/roundtable/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const apiKeyRef = "openai/api_key"

func newChain(t *testing.T) (*Store, *portmocks.MockSecretStore, *portmocks.MockSecretStore) {
	t.Helper()
	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store, err := NewStore(primary, fallback)
	require.NoError(t, err)
	return store, primary, fallback
}

func TestStoreGetUsesPrimaryWhenItSucceeds(t *testing.T) {
	t.Parallel()

	store, primary, _ := newChain(t)
	primary.EXPECT().Get(mock.Anything, apiKeyRef).Return("from-env", nil).Once()

	value, err := store.Get(context.Background(), apiKeyRef)
	require.NoError(t, err)
	assert.Equal(t, "from-env", value)
}

func TestStoreGetFallsBackWhenPrimaryHasNoSecret(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newChain(t)
	primary.EXPECT().Get(mock.Anything, apiKeyRef).Return("", domain.ErrSecretNotFound).Once()
	fallback.EXPECT().Get(mock.Anything, apiKeyRef).Return("from-file", nil).Once()

	value, err := store.Get(context.Background(), apiKeyRef)
	require.NoError(t, err)
	assert.Equal(t, "from-file", value)
}

func TestStoreGetReportsBothFailures(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newChain(t)
	primary.EXPECT().Get(mock.Anything, apiKeyRef).Return("", domain.ErrSecretNotFound).Once()
	fallback.EXPECT().Get(mock.Anything, apiKeyRef).Return("", domain.ErrSecretNotFound).Once()

	_, err := store.Get(context.Background(), apiKeyRef)
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
	assert.ErrorContains(t, err, "primary backend")
	assert.ErrorContains(t, err, "fallback backend")
}

func TestStorePutFallsBackFromReadOnlyPrimary(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newChain(t)
	primary.EXPECT().Put(mock.Anything, apiKeyRef, "sk-new").Return(envstore.ErrReadOnly).Once()
	fallback.EXPECT().Put(mock.Anything, apiKeyRef, "sk-new").Return(nil).Once()

	require.NoError(t, store.Put(context.Background(), apiKeyRef, "sk-new"))
}

func TestStoreDeleteFallsBackFromReadOnlyPrimary(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newChain(t)
	primary.EXPECT().Delete(mock.Anything, apiKeyRef).Return(envstore.ErrReadOnly).Once()
	fallback.EXPECT().Delete(mock.Anything, apiKeyRef).Return(nil).Once()

	require.NoError(t, store.Delete(context.Background(), apiKeyRef))
}

func TestStoreGetDoesNotFallbackOnCanceledContext(t *testing.T) {
	t.Parallel()

	store, primary, _ := newChain(t)
	primary.EXPECT().Get(mock.Anything, apiKeyRef).Return("", context.Canceled).Once()

	_, err := store.Get(context.Background(), apiKeyRef)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewStoreRejectsNilBackends(t *testing.T) {
	t.Parallel()

	_, err := NewStore(nil, envstore.Store{})
	require.ErrorIs(t, err, errNilPrimaryStore)
	_, err = NewStore(envstore.Store{}, nil)
	require.ErrorIs(t, err, errNilFallbackStore)
}

func TestEnvFirstWithFileFallback(t *testing.T) {
	root := t.TempDir()
	t.Setenv("OPENAI_API_KEY", "")

	store, err := NewEnvFirstWithFileFallback(apiKeyRef, root)
	require.NoError(t, err)

	require.NoError(t, store.Put(context.Background(), apiKeyRef, "sk-file"))
	value, err := store.Get(context.Background(), apiKeyRef)
	require.NoError(t, err)
	assert.Equal(t, "sk-file", value)

	t.Setenv("OPENAI_API_KEY", "sk-env")
	value, err = store.Get(context.Background(), apiKeyRef)
	require.NoError(t, err)
	assert.Equal(t, "sk-env", value)
}
