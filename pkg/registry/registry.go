// Package registry serves backend_call tasks from Go functions registered
// by name. Unknown names can fall through to another ports.Backend, such as
// the process runner.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/aretw0/slotflow/pkg/ports"
)

// Func is the signature of a registered backend.
type Func func(ctx context.Context, session *domain.Session, args map[string]any) (any, error)

// Registry maps call names to functions. It implements ports.Backend.
type Registry struct {
	mu       sync.RWMutex
	funcs    map[string]Func
	fallback ports.Backend
}

// Option configures a Registry.
type Option func(*Registry)

// WithFallback delegates calls with no registered function to b.
func WithFallback(b ports.Backend) Option {
	return func(r *Registry) {
		r.fallback = b
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{funcs: make(map[string]Func)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds fn under name, replacing any previous one.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Names lists the registered functions, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for n := range r.funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Call implements ports.Backend.
func (r *Registry) Call(ctx context.Context, session *domain.Session, call domain.BackendCall) (any, error) {
	r.mu.RLock()
	fn, ok := r.funcs[call.Name]
	r.mu.RUnlock()

	if ok {
		return fn(ctx, session, call.Args)
	}
	if r.fallback != nil {
		return r.fallback.Call(ctx, session, call)
	}
	return nil, fmt.Errorf("backend not found: %s", call.Name)
}

// RegisterBuiltins adds the functions every installation provides:
//
//	echo  returns its arguments
//	now   returns the current time (RFC 3339, UTC)
//	value returns a captured value: args task and key, optional field
func RegisterBuiltins(r *Registry, now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	r.Register("echo", func(_ context.Context, _ *domain.Session, args map[string]any) (any, error) {
		return args, nil
	})
	r.Register("now", func(context.Context, *domain.Session, map[string]any) (any, error) {
		return now().UTC().Format(time.RFC3339), nil
	})
	r.Register("value", func(_ context.Context, s *domain.Session, args map[string]any) (any, error) {
		task, _ := args["task"].(string)
		key, _ := args["key"].(string)
		if s == nil || task == "" || key == "" {
			return nil, fmt.Errorf("value needs a session and the task and key arguments")
		}
		v, ok := s.Values[task][key]
		if !ok {
			return nil, fmt.Errorf("no value captured for %s/%s", task, key)
		}
		if field, _ := args["field"].(string); field != "" {
			return v.Fields[field], nil
		}
		return v.Raw, nil
	})
}
