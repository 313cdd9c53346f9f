// Package middleware wraps a SessionStore with at-rest protections: sealing
// whole sessions with AES-GCM and masking contact details once a booking is
// finished.
package middleware

import "github.com/propertytek/rentbot/pkg/ports"

// Middleware allows wrapping a SessionStore to add behavior.
type Middleware func(ports.SessionStore) ports.SessionStore

// Chain applies middlewares so the first one listed sees calls first.
func Chain(store ports.SessionStore, mws ...Middleware) ports.SessionStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
