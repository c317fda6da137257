package quell

// wakerList is a reusable list of wake callbacks with epoch-tagged slots.
//
// Slots freed by deregister are reused by later registrations, and wakeAll
// clears every slot and increases the epoch, invalidating all outstanding
// tokens. Deregistering with a token from an earlier epoch is a silent
// no-op, so a waiter that resolves some time after a mass wake can't clear
// a slot that has since been handed to someone else.
//
// The combination keeps the list from growing past the high-water mark of
// *concurrently* registered waiters, no matter how many sequential
// register/wake cycles happen over its lifetime.
//
// The zero value is ready to use. Synchronization is the caller's problem;
// every method must be called with the owning state's lock held.
type wakerList struct {
	// wakers holds the registered callbacks, with nil for empty slots.
	wakers []func()

	// freeSlots indexes the empty slots in wakers.
	freeSlots []int

	// epoch is increased by every wakeAll.
	epoch uint64
}

// wakerToken identifies one registered callback, for deregistration.
type wakerToken struct {
	epoch uint64
	index int
}

// register stores a callback to be invoked by the next wakeAll, reusing a
// free slot if there is one.
func (l *wakerList) register(wake func()) wakerToken {
	if n := len(l.freeSlots); n != 0 {
		index := l.freeSlots[n-1]
		l.freeSlots = l.freeSlots[:n-1]
		l.wakers[index] = wake
		return wakerToken{epoch: l.epoch, index: index}
	}

	l.wakers = append(l.wakers, wake)
	return wakerToken{epoch: l.epoch, index: len(l.wakers) - 1}
}

// deregister removes a previously registered callback, returning whether it
// was still registered. Stale tokens (issued before the last wakeAll) are
// ignored.
func (l *wakerList) deregister(token wakerToken) bool {
	if token.epoch != l.epoch || l.wakers[token.index] == nil {
		return false
	}

	l.wakers[token.index] = nil
	l.freeSlots = append(l.freeSlots, token.index)
	return true
}

// wakeAll invokes every registered callback, clears the list, and increases
// the epoch.
func (l *wakerList) wakeAll() {
	for i, wake := range l.wakers {
		if wake != nil {
			wake()
		}
		l.wakers[i] = nil
	}
	l.wakers = l.wakers[:0]
	l.freeSlots = l.freeSlots[:0]
	l.epoch += 1
}
