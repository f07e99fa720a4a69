package fsmx

import "sync"

// Blackboard is thread-safe scratch storage shared by the states of one
// machine. It outlives transitions, so a state can leave data for the next.
type Blackboard struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewBlackboard creates an empty blackboard.
func NewBlackboard() *Blackboard {
	return &Blackboard{
		data: make(map[string]any),
	}
}

// Get retrieves a value by key. Returns nil if the key does not exist.
func (b *Blackboard) Get(key string) any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data[key]
}

// Lookup retrieves a value and reports whether it was present.
func (b *Blackboard) Lookup(key string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[key]
	return v, ok
}

// Set stores a value by key.
func (b *Blackboard) Set(key string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = value
}

// Delete removes a key.
func (b *Blackboard) Delete(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
}

// Snapshot returns a copy of all data.
func (b *Blackboard) Snapshot() map[string]any {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snapshot := make(map[string]any, len(b.data))
	for k, v := range b.data {
		snapshot[k] = v
	}
	return snapshot
}

// Load replaces all data with a copy of data. A nil map clears the
// blackboard.
func (b *Blackboard) Load(data map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = make(map[string]any, len(data))
	for k, v := range data {
		b.data[k] = v
	}
}

// Reset removes all data.
func (b *Blackboard) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = make(map[string]any)
}
