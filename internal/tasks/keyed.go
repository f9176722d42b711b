// Package tasks runs mutating actions keyed by the screen and resource they
// touch. Starting a newer action for a key cancels the older one.
package tasks

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned by Run when a newer action for the same key
// started before this one finished. Its result is discarded.
var ErrSuperseded = errors.New("superseded by a newer action")

// Key identifies the target of an action.
type Key struct {
	Screen   string
	Resource string
}

type entry struct {
	gen    uint64
	cancel context.CancelFunc
}

type Keyed struct {
	mu      sync.Mutex
	gen     uint64
	running map[Key]entry
}

func NewKeyed() *Keyed {
	return &Keyed{running: make(map[Key]entry)}
}

// Run executes fn under a context derived from ctx. Any action already
// running for key is cancelled first.
func Run[T any](k *Keyed, ctx context.Context, key Key, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	k.mu.Lock()
	k.gen++
	gen := k.gen
	if prev, ok := k.running[key]; ok {
		prev.cancel()
	}
	k.running[key] = entry{gen: gen, cancel: cancel}
	k.mu.Unlock()

	res, err := fn(runCtx)

	k.mu.Lock()
	cur, ok := k.running[key]
	latest := ok && cur.gen == gen
	if latest {
		delete(k.running, key)
	}
	k.mu.Unlock()

	if !latest {
		return zero, ErrSuperseded
	}
	if err != nil {
		return zero, err
	}
	return res, nil
}

// InFlight reports how many keys have an action running.
func (k *Keyed) InFlight() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.running)
}
