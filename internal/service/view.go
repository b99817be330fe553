package service

import (
	"context"
	"errors"
	"sync"
)

// ErrViewClosed is returned for work that finished after its view was
// unmounted. The result is discarded.
var ErrViewClosed = errors.New("view closed")

// View is the lifetime of one screen. Work started under a view runs with
// the view's context; Unmount cancels that context, and results that arrive
// afterwards are dropped instead of being applied to a view that is gone.
type View struct {
	Name string

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// Mount opens a view under parent.
func Mount(parent context.Context, name string) *View {
	ctx, cancel := context.WithCancel(parent)
	return &View{Name: name, ctx: ctx, cancel: cancel}
}

// Context returns the view's context.
func (v *View) Context() context.Context {
	return v.ctx
}

// Unmount closes the view. It is safe to call more than once.
func (v *View) Unmount() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
	v.cancel()
}

// Closed reports whether the view has been unmounted.
func (v *View) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// Run executes fn under the view and delivers its result only while the
// view is still mounted.
func Run[T any](v *View, fn func(ctx context.Context) (T, error)) (T, error) {
	val, err := fn(v.ctx)
	if v.Closed() {
		var zero T
		return zero, ErrViewClosed
	}
	return val, err
}
