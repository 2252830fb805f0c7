//go:build test

package mem

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bastiangx/wordsieve/pkg/dictionary"
	"github.com/bastiangx/wordsieve/pkg/sieve"
	"github.com/bastiangx/wordsieve/pkg/store/memstore"
	"github.com/bastiangx/wordsieve/pkg/vocab"
	"github.com/charmbracelet/log"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

var testLines = []string{
	"The children were running through the gardens while the dogs barked.",
	"She hoped the stopped trains would start again; they didn't.",
	"Cats, mice and geese went quietly past the crying babies.",
	"He quickly helped his friends carry the heavy boxes home.",
	"Running, walking, talking: every word gets folded into its stem.",
}

func TestEngineMemoryBasic(t *testing.T) {
	iterations := []int{10, 50, 100}

	for _, iterCount := range iterations {
		t.Run(fmt.Sprintf("iterations_%d", iterCount), func(t *testing.T) {
			runEngineMemoryTest(t, iterCount)
		})
	}
}

func TestSessionMemoryConcurrent(t *testing.T) {
	configs := []struct {
		workers             int
		iterationsPerWorker int
	}{
		{workers: 1, iterationsPerWorker: 100},
		{workers: 4, iterationsPerWorker: 25},
		{workers: 8, iterationsPerWorker: 12},
	}

	for _, config := range configs {
		t.Run(fmt.Sprintf("workers_%d_iter_%d", config.workers, config.iterationsPerWorker), func(t *testing.T) {
			runSessionMemoryTest(t, config.workers, config.iterationsPerWorker)
		})
	}
}

// runEngineMemoryTest rebuilds an engine many times; the retained heap
// must not grow with the number of rebuilds.
func runEngineMemoryTest(t *testing.T, iterations int) {
	table := dictionary.Builtin()
	text := strings.Join(testLines, " ")

	var baseline runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&baseline)

	for i := 0; i < iterations; i++ {
		eng, err := sieve.Build([]string{text, text}, nil, table)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = eng.Segregate(sieve.DefaultMinTargetLength)
	}

	var final runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&final)

	memDelta := int64(final.HeapAlloc) - int64(baseline.HeapAlloc)
	memPerOp := float64(memDelta) / float64(iterations)
	t.Logf("iterations=%d mem_delta=%d bytes mem_per_op=%.2f", iterations, memDelta, memPerOp)

	if memPerOp > 4096 {
		t.Errorf("retained memory grows with rebuilds: %.2f bytes per build", memPerOp)
	}
}

// runSessionMemoryTest hammers one session with adds, snapshots and
// acquaint calls, then checks that no refresh goroutines are left behind.
func runSessionMemoryTest(t *testing.T, workers, iterationsPerWorker int) {
	memFile, err := os.Create("session_memory.prof")
	if err != nil {
		t.Fatalf("profile file creation failed: %v", err)
	}
	defer func() {
		memFile.Close()
		os.Remove("session_memory.prof")
	}()

	baselineGoroutines := runtime.NumGoroutine()
	session := vocab.NewSession(memstore.New(), dictionary.Builtin(), vocab.Options{
		User:         "stress",
		RefreshDelay: time.Millisecond,
	})

	ctx := context.Background()
	var wg sync.WaitGroup
	for worker := 0; worker < workers; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for iter := 0; iter < iterationsPerWorker; iter++ {
				line := testLines[(worker+iter)%len(testLines)]
				session.Add(line)
				if _, err := session.Snapshot(ctx); err != nil {
					t.Errorf("snapshot failed: %v", err)
					return
				}
				if iter%5 == 0 {
					words := strings.Fields(strings.ToLower(strings.Trim(line, ".")))
					if _, err := session.Acquaint(ctx, words[0]); err != nil {
						t.Errorf("acquaint failed: %v", err)
						return
					}
				}
			}
		}(worker)
	}
	wg.Wait()

	snap, err := session.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	session.Close()
	time.Sleep(20 * time.Millisecond)

	goroutineDelta := runtime.NumGoroutine() - baselineGoroutines
	t.Logf("workers=%d texts=%d entries=%d builds=%d goroutine_delta=%d",
		workers, session.Texts(), len(snap.Entries), session.Cache().Builds(), goroutineDelta)

	if err := pprof.WriteHeapProfile(memFile); err != nil {
		t.Errorf("heap profile write failed: %v", err)
	}
	if session.Texts() != workers*iterationsPerWorker {
		t.Errorf("expected %d texts, got %d", workers*iterationsPerWorker, session.Texts())
	}
	if goroutineDelta > 2 {
		t.Errorf("goroutine leak detected: %d goroutines leaked", goroutineDelta)
	}
}
