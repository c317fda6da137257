package quell

import "sync"

// DelayToken delays shutdown completion for as long as it is live.
//
// Tokens are counted: every token returned by [Manager.DelayToken] or
// [DelayToken.Clone] must be released exactly once, on every exit path -
// normal return, early return, and panic alike. Relying on the garbage
// collector to release a token is not supported; its timing could delay
// shutdown completion indefinitely. Call [DelayToken.Release] (typically
// deferred) or bind the token to a function with [DelayWith].
type DelayToken[T any] struct {
	mu       sync.Mutex
	state    *state[T]
	released bool
}

// Clone returns a new token that must be released independently. It always
// succeeds: holding a live token is proof the shutdown has not completed.
//
// Clone panics if the token has already been released.
func (t *DelayToken[T]) Clone() *DelayToken[T] {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.released {
		panic("Clone called on a released DelayToken")
	}

	t.state.increaseDelayCount()
	return &DelayToken[T]{state: t.state}
}

// Release releases the token. Releasing the last live token after a
// shutdown was triggered completes the shutdown and wakes everything
// waiting on completion. Release is idempotent.
func (t *DelayToken[T]) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.released {
		return
	}
	t.released = true

	t.state.decreaseDelayCount()
}

// reasonHolder is the one-shot reason shared by every clone of a
// TriggerToken. Whichever clone takes it first empties it for all of them.
type reasonHolder[T any] struct {
	mu     sync.Mutex
	reason *T
}

func (h *reasonHolder[T]) take() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.reason == nil {
		var zero T
		return zero, false
	}

	reason := *h.reason
	h.reason = nil
	return reason, true
}

// TriggerToken triggers a shutdown when released. Hand one to a vital
// task - one whose ending, expected or not, should bring everything else
// down with it.
//
// All clones of a token share a single reason. The first clone to be
// released triggers the shutdown with it; releasing the remaining clones
// does nothing. If the shutdown was already triggered from elsewhere, the
// token's reason is quietly discarded.
//
// [TriggerToken.Forget] suppresses the automatic trigger for the token and
// all of its clones, for when shutdown has been arranged by other means.
//
// As with [DelayToken], releasing must be explicit and cover every exit
// path; see [TriggerFor] for binding a token to a function's lifetime.
type TriggerToken[T any] struct {
	mu       sync.Mutex
	state    *state[T]
	holder   *reasonHolder[T]
	released bool
}

// Clone returns a new token sharing the same reason and the same
// exactly-once trigger.
//
// Clone panics if the token has already been released or forgotten.
func (t *TriggerToken[T]) Clone() *TriggerToken[T] {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.released {
		panic("Clone called on a released TriggerToken")
	}

	return &TriggerToken[T]{state: t.state, holder: t.holder}
}

// Release releases the token, triggering a shutdown with the shared reason
// unless another clone was released or forgotten first. Release is
// idempotent.
func (t *TriggerToken[T]) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.released {
		return
	}
	t.released = true

	if reason, ok := t.holder.take(); ok {
		// Losing the race against another trigger source is fine; the
		// earlier reason stands.
		_ = t.state.trigger(reason)
	}
}

// Forget releases the token without triggering, and prevents every other
// clone from ever triggering with the shared reason. Forget is idempotent,
// and a no-op on a token that was already released.
func (t *TriggerToken[T]) Forget() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.released {
		return
	}
	t.released = true

	_, _ = t.holder.take()
}
