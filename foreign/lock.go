package foreign

import (
	"context"
	"sync/atomic"

	bridgeerrors "github.com/reglet-dev/fuzzbridge/domain/errors"
)

// Interpreter is the process-wide lock serializing every foreign call.
var Interpreter = NewLock("interpreter")

// Lock is a mutual-exclusion resource that can be waited on with a context.
type Lock struct {
	sem  chan struct{}
	name string
}

// NewLock creates an unlocked Lock.
func NewLock(name string) *Lock {
	return &Lock{name: name, sem: make(chan struct{}, 1)}
}

// Name returns the lock name.
func (l *Lock) Name() string {
	return l.name
}

// Acquire blocks until the lock is obtained or ctx is done.
// It fails with ErrReentrantCall when ctx belongs to a call that already holds l.
func (l *Lock) Acquire(ctx context.Context) (*Guard, error) {
	if holds(ctx, l) {
		return nil, bridgeerrors.ErrReentrantCall
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case l.sem <- struct{}{}:
		return &Guard{lock: l}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Guard is held while the lock is owned. Release is idempotent.
type Guard struct {
	lock     *Lock
	released atomic.Bool
}

// Release gives the lock back.
func (g *Guard) Release() {
	if g.released.CompareAndSwap(false, true) {
		<-g.lock.sem
	}
}

// Released reports whether Release has been called.
func (g *Guard) Released() bool {
	return g.released.Load()
}
