package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/slotflow/internal/logging"
	"github.com/aretw0/slotflow/internal/runtime"
	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/aretw0/slotflow/pkg/ports"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a crashed replica can hold a session lock.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager runs dialogue operations against persisted sessions. Each call
// loads the snapshot, restores an orchestrator, applies the operation and
// saves the result while holding the session lock. Unused locks are
// reference counted and dropped.
type Manager struct {
	store        ports.SessionStore
	provider     ports.GraphProvider
	translations ports.Translations
	runtimeOpts  []runtime.Option

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
	newID   func() string
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithRuntimeOptions passes options to every orchestrator the manager builds.
func WithRuntimeOptions(opts ...runtime.Option) Option {
	return func(m *Manager) {
		m.runtimeOpts = append(m.runtimeOpts, opts...)
	}
}

// WithIDGenerator overrides the uuid-based session ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// NewManager creates a Manager persisting to store. Orchestrators read the
// flow from provider and message text from translations.
func NewManager(store ports.SessionStore, provider ports.GraphProvider, translations ports.Translations, opts ...Option) *Manager {
	m := &Manager{
		store:        store,
		provider:     provider,
		translations: translations,
		locks:        make(map[string]*lockEntry),
		lockTTL:      DefaultLockTTL,
		logger:       logging.NewNop(),
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

func (m *Manager) orchestrator(sessionID string) *runtime.Orchestrator {
	opts := append([]runtime.Option{runtime.WithLogger(m.logger)}, m.runtimeOpts...)
	opts = append(opts, runtime.WithSessionID(sessionID))
	return runtime.New(m.provider, m.translations, opts...)
}

// Start begins a new dialogue. An empty sessionID gets a generated one.
// A run halted by a configuration error is still saved so it can be
// inspected; the error is returned alongside the turn.
func (m *Manager) Start(ctx context.Context, sessionID string) (string, runtime.Turn, error) {
	if sessionID == "" {
		sessionID = m.newID()
	}
	var turn runtime.Turn
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		o := m.orchestrator(sessionID)
		var runErr error
		turn, runErr = o.Start(ctx)
		if runErr != nil && !domain.IsConfigError(runErr) {
			return runErr
		}
		if err := m.store.Save(ctx, sessionID, o.Snapshot()); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return runErr
	})
	return sessionID, turn, err
}

// Input feeds user text to the waiting task of a session.
func (m *Manager) Input(ctx context.Context, sessionID, text string) (runtime.Turn, error) {
	return m.apply(ctx, sessionID, false, func(ctx context.Context, o *runtime.Orchestrator) (runtime.Turn, error) {
		return o.HandleUserInput(ctx, text)
	})
}

// Complete force-resolves the waiting task of a session.
func (m *Manager) Complete(ctx context.Context, sessionID, taskID string, outcome domain.Outcome) (runtime.Turn, error) {
	return m.apply(ctx, sessionID, false, func(ctx context.Context, o *runtime.Orchestrator) (runtime.Turn, error) {
		return o.CompleteWaitingTask(ctx, taskID, outcome)
	})
}

// Stop halts a session, keeping its transcript. It succeeds even when the
// snapshot no longer matches any graph.
func (m *Manager) Stop(ctx context.Context, sessionID string) (runtime.Turn, error) {
	return m.apply(ctx, sessionID, true, func(ctx context.Context, o *runtime.Orchestrator) (runtime.Turn, error) {
		o.Stop()
		snap := o.Snapshot()
		return runtime.Turn{Status: snap.Status, Completed: snap.Completed}, nil
	})
}

// Reset discards the state of a session and leaves it idle under the same ID.
func (m *Manager) Reset(ctx context.Context, sessionID string) (runtime.Turn, error) {
	return m.apply(ctx, sessionID, true, func(ctx context.Context, o *runtime.Orchestrator) (runtime.Turn, error) {
		o.Reset()
		snap := o.Snapshot()
		return runtime.Turn{Status: snap.Status}, nil
	})
}

// apply runs op on a restored orchestrator. With lenient set a failed
// restore is logged and op still runs on whatever state was installed.
func (m *Manager) apply(ctx context.Context, sessionID string, lenient bool, op func(context.Context, *runtime.Orchestrator) (runtime.Turn, error)) (runtime.Turn, error) {
	var turn runtime.Turn
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		snap, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		o := m.orchestrator(sessionID)
		if err := o.Restore(ctx, snap); err != nil {
			if !lenient {
				return fmt.Errorf("failed to restore session %s: %w", sessionID, err)
			}
			m.logger.Warn("session restored partially", "session_id", sessionID, "err", err)
		}

		var opErr error
		turn, opErr = op(ctx, o)
		if opErr != nil && !domain.IsConfigError(opErr) {
			return opErr
		}
		if turn.Ignored && opErr == nil {
			return nil
		}
		if err := m.store.Save(ctx, sessionID, o.Snapshot()); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return opErr
	})
	return turn, err
}

// Load retrieves an existing session snapshot.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	var session *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		session, err = m.store.Load(ctx, sessionID)
		return err
	})
	return session, err
}

// Save persists a session snapshot.
func (m *Manager) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, sessionID, session)
	})
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// Graph returns the flow graph the manager runs.
func (m *Manager) Graph(ctx context.Context) (*domain.Graph, error) {
	return m.provider.Graph(ctx)
}

// WithLock executes fn while holding the local and, if configured,
// distributed lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	if sessionID == "" {
		return errors.New("sessionID cannot be empty")
	}
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
