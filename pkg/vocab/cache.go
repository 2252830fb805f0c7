/*
Package vocab keeps the computed vocabulary of a session fresh.

A Session owns the texts a user has added, the store holding their
vocabulary state and the irregular table. Its Cache answers with the last
computed Snapshot and recomputes in the background through a Debouncer, so
bursts of edits or acquaint calls cost one rebuild.
*/
package vocab

import (
	"context"
	"sync"
	"time"

	"github.com/bastiangx/wordsieve/pkg/sieve"
	"github.com/charmbracelet/log"
)

// Snapshot is one computed view of a session.
type Snapshot struct {
	Engine    *sieve.Engine
	Entries   []sieve.Entry
	Target    []sieve.Entry
	Common    []sieve.Entry
	Index     *Index
	WordCount int
	Built     time.Time
	Took      time.Duration
}

// ComputeFunc builds a fresh snapshot.
type ComputeFunc func(ctx context.Context) (*Snapshot, error)

// Cache holds the latest snapshot. Get computes on a miss and schedules
// a deferred refresh; Request only schedules.
type Cache struct {
	compute ComputeFunc
	refresh *Debouncer

	mu      sync.RWMutex
	current *Snapshot
	version uint64
	builds  int
}

// NewCache returns a cache whose deferred refresh runs delay after the
// last request.
func NewCache(compute ComputeFunc, delay time.Duration) *Cache {
	c := &Cache{compute: compute}
	c.refresh = NewDebouncer(delay, c.rebuild)
	return c
}

// Get returns the cached snapshot, computing it when the cache is empty.
func (c *Cache) Get(ctx context.Context) (*Snapshot, error) {
	c.mu.RLock()
	cur, ver := c.current, c.version
	c.mu.RUnlock()
	if cur != nil {
		return cur, nil
	}

	snap, err := c.compute(ctx)
	if err != nil {
		return nil, err
	}
	c.store(snap, ver)
	c.refresh.Request()
	return snap, nil
}

// Peek returns the cached snapshot without computing.
func (c *Cache) Peek() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Invalidate drops the cached snapshot. Computations started before the
// call are discarded when they finish.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version++
	c.current = nil
}

// Request schedules a deferred refresh.
func (c *Cache) Request() {
	c.refresh.Request()
}

// Builds is the number of snapshots stored so far.
func (c *Cache) Builds() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.builds
}

// Close stops pending refreshes.
func (c *Cache) Close() {
	c.refresh.Stop()
}

func (c *Cache) rebuild(ctx context.Context) {
	c.mu.RLock()
	ver := c.version
	c.mu.RUnlock()

	snap, err := c.compute(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Warnf("Vocabulary refresh failed: %v", err)
		}
		return
	}
	if !c.store(snap, ver) {
		log.Debug("Discarding refresh started before invalidation")
	}
}

func (c *Cache) store(snap *Snapshot, ver uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ver != c.version {
		return false
	}
	c.current = snap
	c.builds++
	return true
}
