package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/drummonds/pdfpanel/viewer"
)

var ErrUnknownDocument = errors.New("unknown document")

type registryEntry struct {
	locator  string
	doc      viewer.Document
	lastUsed time.Time
}

// Registry keeps open document handles for the HTTP API, keyed by ULID.
type Registry struct {
	engine viewer.Engine
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*registryEntry
}

// NewRegistry returns an empty registry opening documents with engine
func NewRegistry(engine viewer.Engine) *Registry {
	return &Registry{
		engine:  engine,
		now:     time.Now,
		entries: make(map[string]*registryEntry),
	}
}

// Open loads locator and stores the handle under a fresh ID
func (r *Registry) Open(ctx context.Context, locator string) (string, viewer.Document, error) {
	doc, err := r.engine.Open(ctx, locator)
	if err != nil {
		return "", nil, err
	}
	if doc.NumPages() < 1 {
		doc.Destroy()
		return "", nil, fmt.Errorf("document %s has no pages", locator)
	}

	id := ulid.Make().String()
	r.mu.Lock()
	r.entries[id] = &registryEntry{locator: locator, doc: doc, lastUsed: r.now()}
	count := len(r.entries)
	r.mu.Unlock()

	Logger.Info("Registered document", "id", id, "locator", locator, "open", count)
	return id, doc, nil
}

// Get returns the handle for id and marks it as used
func (r *Registry) Get(id string) (viewer.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDocument, id)
	}
	entry.lastUsed = r.now()
	return entry.doc, nil
}

// Remove destroys the handle for id
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	entry, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDocument, id)
	}
	return entry.doc.Destroy()
}

// Evict destroys every handle unused for longer than idle and reports how many
func (r *Registry) Evict(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	var stale []*registryEntry
	for id, entry := range r.entries {
		if entry.lastUsed.Before(cutoff) {
			stale = append(stale, entry)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for _, entry := range stale {
		if err := entry.doc.Destroy(); err != nil {
			Logger.Warn("Failed to destroy evicted document", "locator", entry.locator, "error", err)
		}
	}
	return len(stale)
}

// Len reports the number of open handles
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Close destroys all handles
func (r *Registry) Close() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*registryEntry)
	r.mu.Unlock()

	for _, entry := range entries {
		entry.doc.Destroy()
	}
}
