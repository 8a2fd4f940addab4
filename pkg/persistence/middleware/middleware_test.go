package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/aretw0/slotflow/pkg/adapters/memory"
	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/aretw0/slotflow/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func capturedSession() *domain.Session {
	s := domain.NewSession("s1")
	s.Status = domain.StatusWaitingUserInput
	s.WaitingTaskID = "collect"
	s.Values["collect"] = map[string]domain.Value{
		"email": {Raw: "a@b.com"},
		"name":  {Raw: "Ada Lovelace", Fields: map[string]string{"first": "Ada", "last": "Lovelace"}},
	}
	s.Slots["email"] = &domain.SlotState{Phase: domain.PhaseConfirming, Value: &domain.Value{Raw: "a@b.com"}}
	s.Variables["token"] = "t-123"
	s.Transcript = []domain.Message{
		{Direction: domain.DirectionSystem, Text: "What is your email?"},
		{Direction: domain.DirectionUser, Text: "a@b.com"},
		{Direction: domain.DirectionSystem, Text: "Is a@b.com correct?", Values: map[string]string{"input": "a@b.com"}},
	}
	return s
}

func TestEncryption_Roundtrip(t *testing.T) {
	ctx := context.Background()
	raw := memory.NewStore()
	mw, err := middleware.NewEncryption(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	store := mw(raw)

	original := capturedSession()
	require.NoError(t, store.Save(ctx, "s1", original))

	stored, err := raw.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, stored.Values)
	assert.Empty(t, stored.Transcript)
	assert.Contains(t, stored.Variables, middleware.EnvelopeKey)
	assert.Equal(t, domain.StatusWaitingUserInput, stored.Status)
	assert.Equal(t, "collect", stored.WaitingTaskID)

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", loaded.Values["collect"]["email"].Raw)
	assert.Len(t, loaded.Transcript, 3)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)
	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestEncryption_KeyRotation(t *testing.T) {
	ctx := context.Background()
	raw := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)

	oldMW, err := middleware.NewEncryption(middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, err)
	require.NoError(t, oldMW(raw).Save(ctx, "s1", capturedSession()))

	withoutFallback, err := middleware.NewEncryption(middleware.EncryptionConfig{ActiveKey: newKey})
	require.NoError(t, err)
	_, err = withoutFallback(raw).Load(ctx, "s1")
	assert.Error(t, err)

	rotated, err := middleware.NewEncryption(middleware.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}})
	require.NoError(t, err)
	loaded, err := rotated(raw).Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", loaded.Values["collect"]["email"].Raw)
}

func TestEncryption_RejectsPlainAndBadKeys(t *testing.T) {
	ctx := context.Background()
	raw := memory.NewStore()
	require.NoError(t, raw.Save(ctx, "plain", capturedSession()))

	mw, err := middleware.NewEncryption(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	_, err = mw(raw).Load(ctx, "plain")
	assert.ErrorIs(t, err, middleware.ErrNotEncrypted)

	_, err = middleware.NewEncryption(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	assert.Error(t, err)
	_, err = middleware.NewEncryption(middleware.EncryptionConfig{ActiveKey: generateKey(t), FallbackKeys: [][]byte{{1}}})
	assert.Error(t, err)
}

func TestPIIMasking(t *testing.T) {
	ctx := context.Background()
	raw := memory.NewStore()
	mw, err := middleware.NewPIIMasking([]string{"^email$", "token"})
	require.NoError(t, err)
	store := mw(raw)

	original := capturedSession()
	require.NoError(t, store.Save(ctx, "s1", original))

	// the caller's session is untouched
	assert.Equal(t, "a@b.com", original.Values["collect"]["email"].Raw)
	assert.Equal(t, "a@b.com", original.Transcript[1].Text)

	stored, err := raw.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, stored.Values["collect"]["email"].Raw)
	assert.Equal(t, "Ada Lovelace", stored.Values["collect"]["name"].Raw)
	assert.Equal(t, middleware.Mask, stored.Slots["email"].Value.Raw)
	assert.Equal(t, middleware.Mask, stored.Variables["token"])
	assert.Equal(t, "What is your email?", stored.Transcript[0].Text)
	assert.Equal(t, middleware.Mask, stored.Transcript[1].Text)
	assert.Equal(t, middleware.Mask, stored.Transcript[2].Text)
	assert.Nil(t, stored.Transcript[2].Values)

	_, err = middleware.NewPIIMasking([]string{"("})
	assert.Error(t, err)
}

func TestChain_EncryptsMaskedSnapshot(t *testing.T) {
	ctx := context.Background()
	raw := memory.NewStore()
	pii, err := middleware.NewPIIMasking([]string{"email"})
	require.NoError(t, err)
	enc, err := middleware.NewEncryption(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	store := middleware.Chain(raw, pii, enc)
	require.NoError(t, store.Save(ctx, "s1", capturedSession()))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded.Values["collect"]["email"].Raw)
	assert.Equal(t, "Ada Lovelace", loaded.Values["collect"]["name"].Raw)
}
