package feed

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by loads started or finished after Close.
var ErrClosed = errors.New("feed: closed")

// ErrSuperseded is returned by a load whose result was discarded because a
// newer load started.
var ErrSuperseded = errors.New("feed: load superseded")

// Loader tracks the in-flight load of one screen. Starting a load cancels the
// previous one; Close cancels the current one and refuses new ones. Results
// are applied only through Finish, which drops them unless they belong to
// the latest load of an open loader.
type Loader struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	closed bool
}

// Begin starts a load derived from parent.
func (l *Loader) Begin(parent context.Context) (context.Context, uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, 0, ErrClosed
	}
	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	l.gen++
	l.cancel = cancel
	return ctx, l.gen, nil
}

// Finish runs apply if gen is still the current load, then releases it.
func (l *Loader) Finish(gen uint64, apply func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	if gen != l.gen {
		return ErrSuperseded
	}
	apply()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	return nil
}

// Close cancels the in-flight load. It is safe to call more than once.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}
