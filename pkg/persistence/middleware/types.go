// Package middleware decorates a ports.SessionStore with at-rest protection:
// AES-GCM envelope encryption and masking of captured values.
package middleware

import "github.com/aretw0/slotflow/pkg/ports"

// Middleware wraps a SessionStore to add behavior.
type Middleware func(ports.SessionStore) ports.SessionStore

// Chain applies middlewares so that the first one sees calls first.
func Chain(store ports.SessionStore, mws ...Middleware) ports.SessionStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
