package quell

import "sync"

// state is the record shared by every handle derived from one Manager.
//
// One mutex guards all fields, including both waker lists. It is only ever
// held for plain reads and writes - never across anything blocking - so a
// waiter either observes the already-triggered state and resolves
// immediately, or gets its callback registered before the trigger's wake
// pass and is woken by it. There is no missed-wakeup window in between.
type state[T any] struct {
	mu sync.Mutex

	// triggered is set by the first trigger call and never unset. reason is
	// only meaningful once triggered is true, and is never written again.
	triggered bool
	reason    T

	// delayTokens counts the live DelayTokens. The shutdown is complete
	// once triggered is true and delayTokens is zero; completion is
	// terminal, because new tokens are refused once it is reached.
	delayTokens int

	onTrigger  wakerList
	onComplete wakerList
}

// The wake callbacks stored in the lists are bare channel closes, cheap
// enough to invoke while holding s.mu. Anything woken by them has to take
// the lock itself to read the reason, and simply blocks until the
// triggering call returns.

func (s *state[T]) trigger(reason T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.triggered {
		return &AlreadyTriggeredError[T]{Reason: s.reason, Ignored: reason}
	}

	s.triggered = true
	s.reason = reason

	s.onTrigger.wakeAll()
	// With no delay tokens outstanding, the shutdown completes in the same
	// call that triggered it.
	if s.delayTokens == 0 {
		s.onComplete.wakeAll()
	}
	return nil
}

func (s *state[T]) increaseDelayCount() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.delayTokens += 1
}

func (s *state[T]) decreaseDelayCount() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.delayTokens == 0 {
		panic("delay count decreased below zero")
	}

	s.delayTokens -= 1
	if s.delayTokens == 0 && s.triggered {
		s.onComplete.wakeAll()
	}
}

// completed must be called with s.mu held.
func (s *state[T]) completed() bool {
	return s.triggered && s.delayTokens == 0
}
