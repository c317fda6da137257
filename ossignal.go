package quell

import (
	"os"
	ossignal "os/signal" // rename so we can have identifiers named 'signal'
	"sync"
)

// TriggerOnSignal triggers m with the given reason when any of the listed
// OS signals is delivered to the process. Signals arriving after the
// shutdown was triggered are ignored, so mashing ctrl-c doesn't change the
// recorded reason.
//
// The returned stop function undoes the os/signal registration and stops
// the forwarding goroutine. Call it when m is no longer in use; it is safe
// to call more than once.
func TriggerOnSignal[T any](m *Manager[T], reason T, signals ...os.Signal) (stop func()) {
	ch := make(chan os.Signal, 1)
	ossignal.Notify(ch, signals...)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ch:
				_ = m.Trigger(reason)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ossignal.Stop(ch)
			close(done)
		})
	}
}
