// Package feed manages a local post collection and the mutations users make
// to it.
//
// Every mutating action runs through Run: snapshot the affected state, apply
// the local change, commit remotely, and on failure compensate back to the
// snapshot. Like is the only action with a visible optimistic change; edit,
// delete and create apply nothing locally and reload on success.
package feed

import (
	"context"
	"sync"
)

// Optimistic is one local-first mutation.
type Optimistic[S any] interface {
	// Snapshot captures the state Compensate restores.
	Snapshot() S
	// Apply changes local state ahead of the remote call.
	Apply()
	// Commit issues the remote call.
	Commit(ctx context.Context) error
	// Compensate restores the snapshot after a failed commit.
	Compensate(snap S, err error)
}

// Run executes m. If m is also a sync.Locker, Snapshot and Apply run under
// its lock so no other writer lands between them. The commit error is
// returned after compensation.
func Run[S any](ctx context.Context, m Optimistic[S]) error {
	var snap S
	if l, ok := m.(sync.Locker); ok {
		l.Lock()
		snap = m.Snapshot()
		m.Apply()
		l.Unlock()
	} else {
		snap = m.Snapshot()
		m.Apply()
	}

	if err := m.Commit(ctx); err != nil {
		m.Compensate(snap, err)
		return err
	}
	return nil
}

// Mutation adapts plain functions to Optimistic. Nil phases are no-ops.
type Mutation[S any] struct {
	SnapshotFn   func() S
	ApplyFn      func()
	CommitFn     func(ctx context.Context) error
	CompensateFn func(snap S, err error)
}

func (m Mutation[S]) Snapshot() S {
	if m.SnapshotFn == nil {
		var zero S
		return zero
	}
	return m.SnapshotFn()
}

func (m Mutation[S]) Apply() {
	if m.ApplyFn != nil {
		m.ApplyFn()
	}
}

func (m Mutation[S]) Commit(ctx context.Context) error {
	if m.CommitFn == nil {
		return nil
	}
	return m.CommitFn(ctx)
}

func (m Mutation[S]) Compensate(snap S, err error) {
	if m.CompensateFn != nil {
		m.CompensateFn(snap, err)
	}
}
