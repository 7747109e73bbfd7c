package api

import (
	"context"
	"errors"
	"sync"
)

// ErrBusy is returned by TryExecute while another call is running.
var ErrBusy = errors.New("another operation is in progress")

// SequentialExecutor guarantees at most one function runs at a time.
type SequentialExecutor struct {
	mu sync.Mutex
}

// NewSequentialExecutor creates a new sequential executor
func NewSequentialExecutor() *SequentialExecutor {
	return &SequentialExecutor{}
}

// Execute waits for any running function to finish and then runs fn.
func (se *SequentialExecutor) Execute(ctx context.Context, fn func() error) error {
	se.mu.Lock()
	defer se.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn()
}

// TryExecute runs fn only if nothing else is running, otherwise returns ErrBusy.
func (se *SequentialExecutor) TryExecute(ctx context.Context, fn func() error) error {
	if !se.mu.TryLock() {
		return ErrBusy
	}
	defer se.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn()
}

// Busy reports whether a function is currently running.
func (se *SequentialExecutor) Busy() bool {
	if se.mu.TryLock() {
		se.mu.Unlock()
		return false
	}
	return true
}
