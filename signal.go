package quell

import (
	"context"
	"sync"
)

// observer is the shared implementation of [Signal] and [Completion]: a
// single-resolution waiter against one of the state's waker lists.
//
// Registration is lazy (first Done call) and per-observer - observers are
// never shared, each one obtained from the Manager registers on its own.
type observer[T any] struct {
	state *state[T]

	// complete selects which condition is observed: shutdown completion
	// instead of the trigger.
	complete bool

	mu         sync.Mutex
	done       chan struct{}
	token      wakerToken
	registered bool
}

// registry must be called with o.state.mu held.
func (o *observer[T]) registry() *wakerList {
	if o.complete {
		return &o.state.onComplete
	}
	return &o.state.onTrigger
}

// satisfied must be called with o.state.mu held.
func (o *observer[T]) satisfied() bool {
	if o.complete {
		return o.state.completed()
	}
	return o.state.triggered
}

// Done returns a channel that is closed once the observed condition holds.
// If it already holds, the returned channel is already closed.
//
// The first call registers the observer's wake callback; an observer that
// is discarded before resolving must call [observer.Close] to release it.
func (o *observer[T]) Done() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.done != nil {
		return o.done
	}

	s := o.state
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.satisfied() {
		o.done = alwaysClosed
		return o.done
	}

	ch := make(chan struct{})
	o.token = o.registry().register(func() { close(ch) })
	o.registered = true
	o.done = ch
	return ch
}

// Reason returns the reason the observer resolved with, if it has
// resolved.
func (o *observer[T]) Reason() (T, bool) {
	s := o.state
	s.mu.Lock()
	defer s.mu.Unlock()

	if !o.satisfied() {
		var zero T
		return zero, false
	}
	return s.reason, true
}

// Wait blocks until the observer resolves, returning the reason. If ctx is
// canceled first, Wait deregisters the observer and returns ctx.Err(). A
// ctx that is already canceled always returns its error.
func (o *observer[T]) Wait(ctx context.Context) (T, error) {
	var zero T

	select {
	case <-ctx.Done():
		o.Close()
		return zero, ctx.Err()
	default:
		select {
		case <-ctx.Done():
			o.Close()
			return zero, ctx.Err()
		case <-o.Done():
			reason, _ := o.Reason()
			return reason, nil
		}
	}
}

// Close releases the observer's registration, if it has one. Discarding an
// unresolved observer without calling Close leaves its wake callback
// registered until the next mass wake; Close on every exit path is what
// keeps long-running programs from accumulating dead waiters.
//
// Close is idempotent, harmless after the observer has resolved, and does
// not retire the observer: a later Done call simply registers again.
func (o *observer[T]) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.registered {
		return
	}
	o.registered = false

	s := o.state
	s.mu.Lock()
	deregistered := o.registry().deregister(o.token)
	s.mu.Unlock()

	if deregistered {
		// The callback was removed before it ran, so o.done will never be
		// closed. Drop it so the next Done call starts over.
		o.done = nil
	}
}

// Signal resolves once a shutdown is triggered, carrying the reason.
//
// Obtain one from [Manager.Triggered]. Select over [Signal.Done] and read
// the reason with [Signal.Reason], or block in [Signal.Wait]. A Signal
// that is discarded before the shutdown triggers should be released with
// [Signal.Close].
type Signal[T any] struct {
	observer[T]
}

// Completion resolves once the shutdown has completed: triggered, with
// every delay token released. It carries the same reason the trigger
// recorded.
//
// Obtain one from [Manager.Completed]; lifecycle is the same as [Signal].
type Completion[T any] struct {
	observer[T]
}
