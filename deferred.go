package store

import (
	"context"
	"errors"
	"sync"
)

var errEmptyRejection = errors.New("store: deferred rejected without error")

// Deferred is the eventual result of an action. It settles exactly once.
type Deferred struct {
	once  sync.Once
	done  chan struct{}
	value any
	err   error
}

// NewDeferred returns an unsettled Deferred.
func NewDeferred() *Deferred {
	return &Deferred{done: make(chan struct{})}
}

// Resolved returns a Deferred already settled with value.
func Resolved(value any) *Deferred {
	d := NewDeferred()
	d.Resolve(value)
	return d
}

// Rejected returns a Deferred already settled with err.
func Rejected(err error) *Deferred {
	d := NewDeferred()
	d.Reject(err)
	return d
}

// Go runs fn on its own goroutine and settles the returned Deferred with its
// result.
func Go(ctx context.Context, fn func(ctx context.Context) (any, error)) *Deferred {
	d := NewDeferred()
	if fn == nil {
		d.Resolve(nil)
		return d
	}
	go func() {
		value, err := fn(ctx)
		if err != nil {
			d.Reject(err)
			return
		}
		d.Resolve(value)
	}()
	return d
}

// Resolve settles d with value. It reports false when d was already settled.
func (d *Deferred) Resolve(value any) bool {
	return d.settle(value, nil)
}

// Reject settles d with err. It reports false when d was already settled.
func (d *Deferred) Reject(err error) bool {
	if err == nil {
		err = errEmptyRejection
	}
	return d.settle(nil, err)
}

func (d *Deferred) settle(value any, err error) bool {
	settled := false
	d.once.Do(func() {
		d.value = value
		d.err = err
		close(d.done)
		settled = true
	})
	return settled
}

// Done is closed once d settles.
func (d *Deferred) Done() <-chan struct{} {
	return d.done
}

// Settled reports whether d has a result.
func (d *Deferred) Settled() bool {
	select {
	case <-d.done:
		return true
	default:
		return false
	}
}

// Await blocks until d settles or ctx is done. Cancelling ctx only stops the
// wait; whatever produces the result keeps running.
func (d *Deferred) Await(ctx context.Context) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-d.done:
		return d.value, d.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Then returns a Deferred settled with fn applied to d's value. Rejections
// pass through without calling fn.
func (d *Deferred) Then(fn func(value any) (any, error)) *Deferred {
	next := NewDeferred()
	go func() {
		<-d.done
		if d.err != nil {
			next.Reject(d.err)
			return
		}
		if fn == nil {
			next.Resolve(d.value)
			return
		}
		value, err := fn(d.value)
		if err != nil {
			next.Reject(err)
			return
		}
		next.Resolve(value)
	}()
	return next
}
