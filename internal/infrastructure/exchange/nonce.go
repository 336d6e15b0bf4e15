package exchange

import (
	"context"
	"sync"
	"time"

	"github.com/Angga2076/Bot-Railway01/internal/domain"
)

// NonceSequencer issues the strictly increasing per-request nonce that keeps
// signed requests valid. One sequence per credential set. Access is
// serialized: concurrent callers always receive distinct, increasing values.
//
// Values are epoch milliseconds bumped past the last issued value, so a
// restarted process naturally starts above anything an earlier invocation
// used. A NonceStore tightens that guarantee against clock steps by
// persisting the floor. Issued nonces are never rolled back, even when the
// request that carried one fails.
type NonceSequencer struct {
	mu    sync.Mutex
	last  int64
	store domain.NonceStore
	now   func() time.Time
}

// NewNonceSequencer builds a sequencer seeded from the persisted floor.
// store may be nil for a purely time-seeded sequence.
func NewNonceSequencer(ctx context.Context, store domain.NonceStore) (*NonceSequencer, error) {
	n := &NonceSequencer{store: store, now: time.Now}
	if store != nil {
		floor, err := store.LoadNonce(ctx)
		if err != nil {
			return nil, err
		}
		n.last = floor
	}
	return n, nil
}

// Next returns a nonce strictly greater than every previously returned value.
func (n *NonceSequencer) Next() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	v := n.now().UnixMilli()
	if v <= n.last {
		v = n.last + 1
	}
	n.last = v

	if n.store != nil {
		// Best effort: a failed write only weakens restart protection,
		// the in-process sequence stays correct.
		_ = n.store.SaveNonce(context.Background(), v)
	}
	return v
}
