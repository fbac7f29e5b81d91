package trains

import (
	"sync/atomic"
	"time"
)

// Status describes the lifecycle of the published index.
type Status string

const (
	StatusNotInitialized Status = "not_initialized"
	StatusBuilding       Status = "building"
	StatusReady          Status = "ready"
)

// Meta carries build metadata alongside the published index.
type Meta struct {
	Status      Status    `json:"status"`
	LastUpdated time.Time `json:"lastUpdated"`
	EntryCount  int       `json:"entryCount"`
	TrainCount  int       `json:"trainCount"`
}

// Snapshot is one complete, immutable index: a key to entry mapping plus
// the keys in insertion order. Readers always see either the previous or
// the next complete snapshot, never a partially built one.
type Snapshot struct {
	entries map[string]*IndexEntry
	keys    []string
	meta    Meta
}

// NewSnapshot creates a snapshot from a finished build pass. The keys slice
// must list the entry map's keys in insertion order; it fixes the fuzzy
// fallback's scan order.
func NewSnapshot(entries map[string]*IndexEntry, keys []string, meta Meta) *Snapshot {
	return &Snapshot{entries: entries, keys: keys, meta: meta}
}

// Get returns the entry filed under key.
func (s *Snapshot) Get(key string) (*IndexEntry, bool) {
	entry, ok := s.entries[key]
	return entry, ok
}

// Keys returns the snapshot's lookup keys in insertion order. The returned
// slice must not be modified.
func (s *Snapshot) Keys() []string {
	return s.keys
}

// Meta returns the snapshot's build metadata.
func (s *Snapshot) Meta() Meta {
	return s.meta
}

// Len returns the number of lookup keys in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// Store owns the currently published index snapshot. A single writer (the
// index builder) replaces the snapshot via an atomic pointer swap; any
// number of readers may hold a snapshot concurrently.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore creates a store holding an empty, not-yet-initialized snapshot.
func NewStore() *Store {
	store := &Store{}
	store.current.Store(NewSnapshot(map[string]*IndexEntry{}, nil, Meta{Status: StatusNotInitialized}))
	return store
}

// Current returns the published snapshot.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Publish atomically replaces the published snapshot.
func (s *Store) Publish(snapshot *Snapshot) {
	s.current.Store(snapshot)
}

// SetStatus republishes the current snapshot's entries with an updated
// status, leaving the rest of the metadata untouched. Used to surface
// "building" to readers while a rebuild runs against the live index.
func (s *Store) SetStatus(status Status) {
	old := s.current.Load()
	meta := old.meta
	meta.Status = status
	s.current.Store(NewSnapshot(old.entries, old.keys, meta))
}
