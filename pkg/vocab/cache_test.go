package vocab

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestCacheGetComputesThenRefreshes(t *testing.T) {
	var calls atomic.Int32
	c := NewCache(func(ctx context.Context) (*Snapshot, error) {
		return &Snapshot{WordCount: int(calls.Add(1))}, nil
	}, 5*time.Millisecond)
	defer c.Close()

	snap, err := c.Get(context.Background())
	if err != nil || snap.WordCount != 1 {
		t.Fatalf("Get = %+v, %v", snap, err)
	}
	again, _ := c.Get(context.Background())
	if again != snap {
		t.Error("second Get should hit the cache")
	}

	waitFor(t, "deferred refresh", func() bool { return c.Builds() == 2 })
	if got := c.Peek().WordCount; got != 2 {
		t.Errorf("refreshed snapshot has WordCount %d, expected 2", got)
	}
}

func TestCacheInvalidate(t *testing.T) {
	var calls atomic.Int32
	c := NewCache(func(ctx context.Context) (*Snapshot, error) {
		return &Snapshot{WordCount: int(calls.Add(1))}, nil
	}, time.Hour)
	defer c.Close()

	c.Get(context.Background())
	c.Invalidate()
	if c.Peek() != nil {
		t.Fatal("Invalidate should drop the snapshot")
	}
	snap, _ := c.Get(context.Background())
	if snap.WordCount != 2 {
		t.Errorf("expected a recompute after Invalidate, got %d", snap.WordCount)
	}
}

func TestCacheDiscardsStaleRefresh(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	c := NewCache(func(ctx context.Context) (*Snapshot, error) {
		n := calls.Add(1)
		if n == 2 {
			close(started)
			<-release
		}
		return &Snapshot{WordCount: int(n)}, nil
	}, time.Millisecond)
	defer c.Close()

	c.Get(context.Background())
	<-started
	c.Invalidate()
	close(release)

	waitFor(t, "refresh to finish", func() bool { return c.refresh.Runs() == 1 })
	if c.Peek() != nil {
		t.Error("a refresh started before Invalidate must not be stored")
	}
}

func TestCacheGetError(t *testing.T) {
	boom := errors.New("boom")
	c := NewCache(func(ctx context.Context) (*Snapshot, error) { return nil, boom }, time.Hour)
	defer c.Close()

	if _, err := c.Get(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected compute error, got %v", err)
	}
	if c.Peek() != nil || c.refresh.Pending() {
		t.Error("a failed compute must not store or schedule anything")
	}
}
