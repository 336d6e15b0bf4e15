package exchange

import (
	"context"
	"sync"
	"testing"
	"time"
)

type memNonceStore struct {
	mu    sync.Mutex
	nonce int64
	saves int
}

func (m *memNonceStore) LoadNonce(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nonce, nil
}

func (m *memNonceStore) SaveNonce(ctx context.Context, nonce int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nonce = nonce
	m.saves++
	return nil
}

func TestNonceStrictlyIncreasing(t *testing.T) {
	n, err := NewNonceSequencer(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}

	prev := n.Next()
	for i := 0; i < 1000; i++ {
		next := n.Next()
		if next <= prev {
			t.Fatalf("nonce went backwards: %d after %d", next, prev)
		}
		prev = next
	}
}

func TestNonceConcurrentCallersDistinct(t *testing.T) {
	n, err := NewNonceSequencer(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}

	const workers = 50
	const perWorker = 100

	var mu sync.Mutex
	seen := make(map[int64]bool, workers*perWorker)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				v := n.Next()
				mu.Lock()
				if seen[v] {
					t.Errorf("nonce %d issued twice", v)
				}
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Errorf("got %d distinct nonces, want %d", len(seen), workers*perWorker)
	}
}

func TestNonceRestartUsesPersistedFloor(t *testing.T) {
	store := &memNonceStore{}

	// Simulate an earlier invocation that got far ahead of the clock.
	future := time.Now().Add(24 * time.Hour).UnixMilli()
	store.nonce = future

	n, err := NewNonceSequencer(context.Background(), store)
	if err != nil {
		t.Fatal(err)
	}
	if got := n.Next(); got <= future {
		t.Errorf("restarted sequencer reissued old nonce range: got %d, floor %d", got, future)
	}
	if store.saves == 0 {
		t.Error("expected issued nonce to be persisted")
	}
}

func TestNonceSeededFromClock(t *testing.T) {
	n, err := NewNonceSequencer(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	before := time.Now().UnixMilli()
	if got := n.Next(); got < before {
		t.Errorf("nonce %d below current epoch millis %d", got, before)
	}
}
