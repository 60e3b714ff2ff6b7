// Package handles keeps a process-wide table of live objects keyed by a
// small integer id.
//
// refptr registers control blocks here while tracking is enabled so that
// tests and diagnostics can count, and look up, blocks that have not been
// freed yet. Registration keeps the object reachable until Unregister.
package handles

import (
	"sync"
)

var (
	mu     sync.RWMutex
	table  = make(map[uintptr]any)
	nextID uintptr = 1
)

// Register stores v and returns its id. Ids are never reused.
func Register(v any) uintptr {
	mu.Lock()
	defer mu.Unlock()
	id := nextID
	nextID++
	table[id] = v
	return id
}

// Lookup returns the object registered under id, or nil.
func Lookup(id uintptr) any {
	mu.RLock()
	defer mu.RUnlock()
	return table[id]
}

// Unregister removes id. Removing an unknown id is a no-op.
func Unregister(id uintptr) {
	mu.Lock()
	defer mu.Unlock()
	delete(table, id)
}

// Count returns the number of registered objects.
func Count() int {
	mu.RLock()
	defer mu.RUnlock()
	return len(table)
}

// IDs returns the registered ids in no particular order.
func IDs() []uintptr {
	mu.RLock()
	defer mu.RUnlock()
	ids := make([]uintptr, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	return ids
}
