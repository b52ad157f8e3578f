package persona

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "spamstopper/pkg/domain"
)

func TestDefaultCatalog(t *testing.T) {
	store := NewInMemoryStore(DefaultCatalog())

	personas, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, personas, 4)

	herbert, err := store.FindByID(context.Background(), HerbertID)
	require.NoError(t, err)
	assert.Equal(t, "Herbert", herbert.Name)
	assert.NotEmpty(t, herbert.AssistantID)
}

func TestFindByAssistantID(t *testing.T) {
	store := NewInMemoryStore(DefaultCatalog())

	derek, err := store.FindByAssistantID(context.Background(), "d99eeb74-6dad-4149-ac33-e2c7bb0dba57")
	require.NoError(t, err)
	assert.Equal(t, DerekID, derek.ID)

	_, err = store.FindByAssistantID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindByIDNotFound(t *testing.T) {
	store := NewInMemoryStore(nil)
	_, err := store.FindByID(context.Background(), id.NewPersonaID())
	assert.ErrorIs(t, err, ErrNotFound)
}
