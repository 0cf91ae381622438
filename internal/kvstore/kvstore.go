// Package kvstore provides the key-value adapter behind the anonymous usage
// ledger.
//
// The anonymous ledger keeps one JSON day-map per calendar day
// ("usage:<day>" -> {pseudoID: count}), the same shape a browser would keep
// in local storage. The Store interface is injected into the entitlement
// service at construction so tests can substitute doubles and deployments
// can swap the backing medium without touching policy code.
package kvstore

import (
	"errors"
	"strings"
	"sync"
)

// ErrNotFound is returned by Get when a key has never been set.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is a minimal durable string store.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(key string) (string, error)

	// Set writes the value for key, creating or replacing it.
	Set(key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error

	// Keys returns all keys with the given prefix, for maintenance sweeps.
	Keys(prefix string) ([]string, error)
}

// Memory is an in-process Store, safe for concurrent use. Contents do not
// survive a restart; anonymous counts reset on the day rollover anyway.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.entries[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = value
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

func (m *Memory) Keys(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
