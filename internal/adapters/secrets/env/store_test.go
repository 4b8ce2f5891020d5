package env

import (
	"context"
	"testing"

	"github.com/bnema/roundtable/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreGetReadsMappedVariable(t *testing.T) {
	t.Parallel()

	store := Store{
		Vars: map[string]string{"openai/api_key": "OPENAI_API_KEY"},
		Lookup: func(name string) (string, bool) {
			if name == "OPENAI_API_KEY" {
				return " sk-env ", true
			}
			return "", false
		},
	}

	value, err := store.Get(context.Background(), "openai/api_key")
	require.NoError(t, err)
	assert.Equal(t, "sk-env", value)
}

func TestStoreGetMissing(t *testing.T) {
	t.Parallel()

	store := Store{
		Vars:   map[string]string{"openai/api_key": "OPENAI_API_KEY"},
		Lookup: func(string) (string, bool) { return "", true },
	}

	_, err := store.Get(context.Background(), "openai/api_key")
	require.ErrorIs(t, err, domain.ErrSecretNotFound)

	_, err = store.Get(context.Background(), "other/key")
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
}

func TestStoreIsReadOnly(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Store{}.Put(context.Background(), "k", "v"), ErrReadOnly)
	require.ErrorIs(t, Store{}.Delete(context.Background(), "k"), ErrReadOnly)
}
