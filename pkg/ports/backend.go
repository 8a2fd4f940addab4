package ports

import (
	"context"

	"github.com/aretw0/slotflow/pkg/domain"
)

// Backend executes BackendCall tasks on behalf of the orchestrator.
type Backend interface {
	Call(ctx context.Context, session *domain.Session, call domain.BackendCall) (any, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, session *domain.Session, call domain.BackendCall) (any, error)

// Call implements Backend.
func (f BackendFunc) Call(ctx context.Context, session *domain.Session, call domain.BackendCall) (any, error) {
	return f(ctx, session, call)
}
