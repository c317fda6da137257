package quell

import "fmt"

// AlreadyTriggeredError is returned by [Manager.Trigger] when a shutdown
// reason was already recorded. It carries both the existing reason and the
// one that was not recorded; the shutdown state is unchanged.
type AlreadyTriggeredError[T any] struct {
	// Reason is the reason the shutdown was originally triggered with.
	Reason T
	// Ignored is the reason passed to the failed Trigger call.
	Ignored T
}

func (e *AlreadyTriggeredError[T]) Error() string {
	return fmt.Sprintf("shutdown already triggered with reason %v, ignoring reason %v", e.Reason, e.Ignored)
}

// AlreadyCompletedError is returned by [Manager.DelayToken] and [DelayFor]
// when the shutdown has already completed, meaning it is too late to delay
// it. It carries the final shutdown reason.
type AlreadyCompletedError[T any] struct {
	Reason T
}

func (e *AlreadyCompletedError[T]) Error() string {
	return fmt.Sprintf("shutdown already completed with reason %v", e.Reason)
}

// ShutdownError is returned by [CancelOnTrigger] when the computation was
// abandoned because a shutdown was triggered before it finished. It carries
// the shutdown reason.
type ShutdownError[T any] struct {
	Reason T
}

func (e *ShutdownError[T]) Error() string {
	return fmt.Sprintf("abandoned because a shutdown was triggered: %v", e.Reason)
}
