package quell

import "context"

// Manager is the shutdown coordinator that application code holds and
// shares. It provides three groups of functionality:
//
//  1. Triggering a shutdown and observing it: [Manager.Trigger],
//     [Manager.Triggered], [Manager.WaitTriggered]
//  2. Delaying shutdown completion until cleanup is done:
//     [Manager.DelayToken], [Manager.Completed], [Manager.WaitCompleted]
//  3. Triggering a shutdown when a vital task stops: [Manager.TriggerToken]
//
// A Manager is a handle: copying it, or passing it around by value or
// pointer, always refers to the same shutdown. All methods are safe for
// concurrent use, and none of them block - waiting only ever happens
// through the observers and the context-taking Wait methods.
//
// The type parameter T is the shutdown reason, recorded by the first
// trigger and handed to everyone who waits. It is treated as an opaque
// value; if T is a pointer or reference type, everyone receives the same
// referent.
type Manager[T any] struct {
	state *state[T]
}

// NewManager creates a new shutdown manager in the not-triggered state.
func NewManager[T any]() *Manager[T] {
	return &Manager[T]{state: &state[T]{}}
}

// IsTriggered reports whether a shutdown has been triggered.
func (m *Manager[T]) IsTriggered() bool {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()

	return m.state.triggered
}

// IsCompleted reports whether the shutdown has completed: a shutdown was
// triggered and no delay tokens remain. Completion is permanent.
func (m *Manager[T]) IsCompleted() bool {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()

	return m.state.completed()
}

// Reason returns the reason the shutdown was triggered with, if it has
// been.
func (m *Manager[T]) Reason() (T, bool) {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()

	return m.state.reason, m.state.triggered
}

// DelayCount returns the number of live delay tokens. It is a diagnostic -
// useful for logging what's still holding up completion - and is stale the
// moment it returns.
func (m *Manager[T]) DelayCount() int {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()

	return m.state.delayTokens
}

// Trigger triggers the shutdown with the given reason, waking everything
// waiting on it. If no delay tokens are outstanding the shutdown also
// completes in the same call.
//
// Only the first trigger counts. If a reason was already recorded, Trigger
// changes nothing and returns an [AlreadyTriggeredError] carrying both
// reasons; callers that don't care who triggered first can ignore it.
func (m *Manager[T]) Trigger(reason T) error {
	return m.state.trigger(reason)
}

// Triggered returns a new observer that resolves once a shutdown is
// triggered. Each call returns an independent observer; see [Signal] for
// its lifecycle.
func (m *Manager[T]) Triggered() *Signal[T] {
	return &Signal[T]{observer: observer[T]{state: m.state}}
}

// Completed returns a new observer that resolves once the shutdown has
// completed, i.e. it was triggered and every delay token has been
// released. Each call returns an independent observer; see [Completion].
func (m *Manager[T]) Completed() *Completion[T] {
	return &Completion[T]{observer: observer[T]{state: m.state, complete: true}}
}

// WaitTriggered blocks until a shutdown is triggered, returning the
// reason. If ctx is canceled first, it returns ctx.Err() and releases its
// registration.
func (m *Manager[T]) WaitTriggered(ctx context.Context) (T, error) {
	return m.Triggered().Wait(ctx)
}

// WaitCompleted blocks until the shutdown has completed, returning the
// reason. If ctx is canceled first, it returns ctx.Err() and releases its
// registration.
//
// Waiting here at the end of main - usually with a timeout on ctx - is
// what gives background goroutines holding delay tokens the chance to
// finish their cleanup before the process exits.
func (m *Manager[T]) WaitCompleted(ctx context.Context) (T, error) {
	return m.Completed().Wait(ctx)
}

// DelayToken returns a new token that delays shutdown completion for as
// long as it is live.
//
// Acquiring a token is allowed at any point before completion, including
// after the shutdown was triggered; holding one pins the shutdown in the
// triggered-but-not-completed state. Once the shutdown has completed it is
// too late, and DelayToken returns an [AlreadyCompletedError].
func (m *Manager[T]) DelayToken() (*DelayToken[T], error) {
	s := m.state
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed() {
		return nil, &AlreadyCompletedError[T]{Reason: s.reason}
	}

	s.delayTokens += 1
	return &DelayToken[T]{state: s}, nil
}

// TriggerToken returns a new token that triggers a shutdown with the given
// reason when released. See [TriggerToken] for the exactly-once semantics
// shared between its clones.
func (m *Manager[T]) TriggerToken(reason T) *TriggerToken[T] {
	return &TriggerToken[T]{
		state:  m.state,
		holder: &reasonHolder[T]{reason: &reason},
	}
}
