package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/slotflow/internal/config"
	"github.com/aretw0/slotflow/internal/logging"
	"github.com/aretw0/slotflow/internal/runtime"
	"github.com/aretw0/slotflow/pkg/adapters/file"
	"github.com/aretw0/slotflow/pkg/adapters/flowfile"
	loamAdapter "github.com/aretw0/slotflow/pkg/adapters/loam"
	"github.com/aretw0/slotflow/pkg/adapters/memory"
	"github.com/aretw0/slotflow/pkg/adapters/process"
	"github.com/aretw0/slotflow/pkg/adapters/redis"
	"github.com/aretw0/slotflow/pkg/adapters/sqlite"
	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/aretw0/slotflow/pkg/observability"
	"github.com/aretw0/slotflow/pkg/persistence/middleware"
	"github.com/aretw0/slotflow/pkg/ports"
	"github.com/aretw0/slotflow/pkg/registry"
	"github.com/aretw0/slotflow/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
)

// App holds the collaborators built from a Config.
type App struct {
	Config       *config.Config
	Logger       *slog.Logger
	Provider     ports.GraphProvider
	Translations ports.Translations
	Store        ports.SessionStore
	Locker       ports.DistributedLocker
	Backends     *registry.Registry
	Metrics      *observability.Metrics
	Manager      *session.Manager

	// set by loadFlow; source is what a watch re-reads when Provider is
	// the in-memory copy served to sessions
	catalog *loamAdapter.Catalog
	source  ports.GraphProvider

	closers []io.Closer
}

// NewApp wires the flow source, translations, session store and manager.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	app := &App{Config: cfg, Logger: logger}

	if err := app.loadFlow(ctx); err != nil {
		return nil, err
	}
	if err := app.openStore(); err != nil {
		app.Close()
		return nil, err
	}

	hooks := []domain.LifecycleHooks{logging.Hooks(logger)}
	if cfg.HTTP.Metrics {
		app.Metrics = observability.NewMetrics(prometheus.NewRegistry())
		hooks = append(hooks, app.Metrics.Hooks())
	}

	runtimeOpts := []runtime.Option{
		runtime.WithLifecycleHooks(domain.MergeHooks(hooks...)),
		runtime.WithSubEscalation(cfg.Runtime.SubEscalation),
	}
	if err := app.loadBackends(); err != nil {
		app.Close()
		return nil, err
	}
	runtimeOpts = append(runtimeOpts, runtime.WithBackend(app.Backends))
	if cfg.Runtime.MaxSteps > 0 {
		runtimeOpts = append(runtimeOpts, runtime.WithMaxSteps(cfg.Runtime.MaxSteps))
	}

	mgrOpts := []session.Option{
		session.WithLogger(logger),
		session.WithRuntimeOptions(runtimeOpts...),
	}
	if app.Locker != nil {
		mgrOpts = append(mgrOpts, session.WithLocker(app.Locker))
		if cfg.Store.LockTTL > 0 {
			mgrOpts = append(mgrOpts, session.WithLockTTL(cfg.Store.LockTTL))
		}
	}
	app.Manager = session.NewManager(app.Store, app.Provider, app.Translations, mgrOpts...)
	return app, nil
}

// loadFlow picks the flow source: a directory is read as loam documents, a
// file as a flow file. The optional catalog directory takes precedence over
// the flow file's inline texts.
func (a *App) loadFlow(ctx context.Context) error {
	info, err := os.Stat(a.Config.Flow)
	if err != nil {
		return fmt.Errorf("flow source: %w", err)
	}

	layers := ports.Layered{}
	if a.Config.Catalog != "" {
		catalog, err := loamAdapter.OpenCatalog(ctx, a.Config.Catalog)
		if err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
		a.catalog = catalog
		layers = append(layers, catalog)
	}

	if info.IsDir() {
		loader, err := loamAdapter.Open(a.Config.Flow)
		if err != nil {
			return err
		}
		a.Provider = loader
	} else {
		provider, err := flowfile.NewProvider(a.Config.Flow)
		if err != nil {
			return err
		}
		a.Provider = provider
		layers = append(layers, provider)
	}
	a.Translations = layers

	// flow files are re-read on modification already
	if _, ok := a.Provider.(ports.Watchable); ok && a.Config.Runtime.Watch {
		g, err := a.Provider.Graph(ctx)
		if err != nil {
			return err
		}
		a.source = a.Provider
		a.Provider = memory.NewProvider(g)
	}
	return nil
}

func (a *App) openStore() error {
	st := a.Config.Store
	switch st.Kind {
	case config.StoreMemory, "":
		a.Store = memory.NewStore()
	case config.StoreFile:
		a.Store = file.New(st.Path)
	case config.StoreSQLite:
		s, err := sqlite.New(st.Path)
		if err != nil {
			return err
		}
		a.Store = s
		a.closers = append(a.closers, s)
	case config.StoreRedis:
		var opts []redis.Option
		if st.TTL > 0 {
			opts = append(opts, redis.WithTTL(st.TTL))
		}
		if st.Prefix != "" {
			opts = append(opts, redis.WithPrefix(st.Prefix))
		}
		s, err := redis.NewFromURL(st.RedisURL, opts...)
		if err != nil {
			return err
		}
		a.Store = s
		a.closers = append(a.closers, s)
		if st.Lock {
			prefix := st.Prefix
			if prefix == "" {
				prefix = redis.DefaultPrefix
			}
			a.Locker = redis.NewLocker(s.Client(), prefix)
		}
	default:
		return fmt.Errorf("unknown store kind %q", st.Kind)
	}
	return a.protectStore()
}

// protectStore wraps the store with masking and encryption when configured.
// Masking runs first so encrypted envelopes never carry masked values.
func (a *App) protectStore() error {
	st := a.Config.Store
	var mws []middleware.Middleware
	if len(st.Mask) > 0 {
		mw, err := middleware.NewPIIMasking(st.Mask)
		if err != nil {
			return err
		}
		mws = append(mws, mw)
	}
	if st.EncryptionKey != "" {
		cfg := middleware.EncryptionConfig{}
		key, err := config.DecodeKey(st.EncryptionKey)
		if err != nil {
			return err
		}
		cfg.ActiveKey = key
		for _, k := range st.FallbackKeys {
			fallback, err := config.DecodeKey(k)
			if err != nil {
				return err
			}
			cfg.FallbackKeys = append(cfg.FallbackKeys, fallback)
		}
		mw, err := middleware.NewEncryption(cfg)
		if err != nil {
			return err
		}
		mws = append(mws, mw)
	}
	if len(mws) > 0 {
		a.Logger.Debug("session store protected", "mask", len(st.Mask) > 0, "encrypted", st.EncryptionKey != "")
		a.Store = middleware.Chain(a.Store, mws...)
	}
	return nil
}

// loadBackends builds the backend registry: the builtin functions, then the
// commands of the backends file. Relative commands run from the directory
// holding that file.
func (a *App) loadBackends() error {
	rc := a.Config.Runtime
	var opts []registry.Option
	if rc.Backends != "" {
		cfgs, err := process.LoadConfig(rc.Backends)
		if err != nil {
			return err
		}
		if len(cfgs) > 0 {
			runner := process.NewRunner(
				process.WithConfigs(cfgs),
				process.WithBaseDir(filepath.Dir(rc.Backends)),
				process.WithTimeout(rc.BackendTimeout),
			)
			a.Logger.Debug("process backends registered", "names", runner.Names())
			opts = append(opts, registry.WithFallback(runner))
		}
	}
	a.Backends = registry.New(opts...)
	registry.RegisterBuiltins(a.Backends, nil)
	return nil
}

// Graph loads the current flow graph.
func (a *App) Graph(ctx context.Context) (*domain.Graph, error) {
	return a.Provider.Graph(ctx)
}

// Close releases store connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}
