package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		session := domain.NewSession(sessionID)
		session.Status = domain.StatusWaitingUserInput
		session.CurrentNodeID = "collect"
		session.WaitingTaskID = "ask_email"
		session.Tasks["ask_email"] = domain.TaskWaitingUserInput
		session.Slots["email"] = &domain.SlotState{Phase: domain.PhaseNoMatch, NoMatch: 2, NoInput: 1}
		session.Values["ask_email"] = map[string]domain.Value{"email": {Raw: "a@b.com"}}

		err := store.Save(ctx, sessionID, session)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, session.CurrentNodeID, loaded.CurrentNodeID)
		assert.Equal(t, domain.StatusWaitingUserInput, loaded.Status)
		assert.Equal(t, "ask_email", loaded.WaitingTaskID)
		assert.Equal(t, domain.TaskWaitingUserInput, loaded.Tasks["ask_email"])
		require.NotNil(t, loaded.Slots["email"])
		assert.Equal(t, 2, loaded.Slots["email"].NoMatch)
		assert.Equal(t, 1, loaded.Slots["email"].NoInput)
		assert.Equal(t, "a@b.com", loaded.Values["ask_email"]["email"].Raw)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewSession(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewSession(id1))
		_ = store.Save(ctx, id2, domain.NewSession(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
