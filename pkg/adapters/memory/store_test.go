package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/slotflow/pkg/adapters/memory"
	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/aretw0/slotflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSessionStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	s := domain.NewSession("s1")
	s.Variables["k"] = "v"
	require.NoError(t, store.Save(ctx, "s1", s))

	s.Variables["k"] = "changed"
	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "v", loaded.Variables["k"])
}
