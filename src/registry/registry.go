// Package registry is the single source of truth for which identities are
// online. It maps live connections to identities and back, and derives the
// roster in registration order.
package registry

import (
	"errors"
	"sync"
)

var (
	// ErrAlreadyRegistered is returned when a connection already holds an
	// identity.
	ErrAlreadyRegistered = errors.New("connection already registered")

	// ErrIdentityTaken is returned when another live connection holds the
	// requested identity.
	ErrIdentityTaken = errors.New("identity already in use")

	// ErrNotFound is returned on lookups and repeated unregisters. Callers
	// treat it as a no-op outcome; it is expected under disconnect races.
	ErrNotFound = errors.New("not found")
)

// Registry holds the connection<->identity mapping. The forward map, the
// reverse map and the roster order mutate under one lock, so readers never
// observe a half-applied update.
type Registry struct {
	mu         sync.RWMutex
	byConn     map[string]string // connID -> identity
	byIdentity map[string]string // identity -> connID
	order      []string          // identities in registration order
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		byConn:     make(map[string]string),
		byIdentity: make(map[string]string),
	}
}

// Register binds identity to connID. It fails if the connection already has
// an identity or the identity belongs to a different live connection.
func (r *Registry) Register(connID, identity string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byConn[connID]; ok {
		return ErrAlreadyRegistered
	}
	if _, ok := r.byIdentity[identity]; ok {
		return ErrIdentityTaken
	}
	r.byConn[connID] = identity
	r.byIdentity[identity] = connID
	r.order = append(r.order, identity)
	return nil
}

// Unregister removes connID and returns the identity it held. A second call
// for the same connection returns ErrNotFound.
func (r *Registry) Unregister(connID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.byConn[connID]
	if !ok {
		return "", ErrNotFound
	}
	delete(r.byConn, connID)
	delete(r.byIdentity, identity)
	for i, id := range r.order {
		if id == identity {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return identity, nil
}

// Resolve returns the connection currently holding identity.
func (r *Registry) Resolve(identity string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connID, ok := r.byIdentity[identity]
	if !ok {
		return "", ErrNotFound
	}
	return connID, nil
}

// IdentityOf returns the identity bound to connID, or ErrNotFound while the
// connection is still unregistered.
func (r *Registry) IdentityOf(connID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	identity, ok := r.byConn[connID]
	if !ok {
		return "", ErrNotFound
	}
	return identity, nil
}

// Has reports whether identity is currently registered.
func (r *Registry) Has(identity string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byIdentity[identity]
	return ok
}

// Identities returns the roster in registration order.
func (r *Registry) Identities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}
