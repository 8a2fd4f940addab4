package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/slotflow/pkg/adapters/memory"
	"github.com/aretw0/slotflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLocker struct {
	locks, unlocks int
	ttl            time.Duration
}

func (l *countingLocker) Lock(_ context.Context, _ string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.locks++
	l.ttl = ttl
	return func(context.Context) error {
		l.unlocks++
		return nil
	}, nil
}

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewStore(), memory.NewProvider(nil), nil)
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		sid := fmt.Sprintf("session-%d", i)
		_ = mgr.WithLock(ctx, sid, func(context.Context) error { return nil })
		_ = mgr.Delete(ctx, sid)
	}

	assert.Empty(t, mgr.locks, "locks must be released once unused")
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &countingLocker{}
	mgr := NewManager(memory.NewStore(), memory.NewProvider(nil), nil,
		WithLocker(locker), WithLockTTL(5*time.Second))

	require.NoError(t, mgr.WithLock(context.Background(), "s", func(context.Context) error { return nil }))
	assert.Equal(t, 1, locker.locks)
	assert.Equal(t, 1, locker.unlocks)
	assert.Equal(t, 5*time.Second, locker.ttl)

	assert.Error(t, mgr.WithLock(context.Background(), "", func(context.Context) error { return nil }))
}
