// obligatory // comment

/*
Package quell coordinates graceful shutdown of concurrently running tasks.

There are two separate but related problems in shutting down gracefully:
stopping work that is still running, and waiting for cleanup to finish
before the process exits. Both are handled by [Manager], which can be
shared freely between goroutines - every handle derived from it uses the
same internal state.

A shutdown is triggered at most once, with a typed reason describing why.
The reason type is up to the application and is never inspected here; an
exit code, an error, a string, whatever makes sense.

# Triggering a shutdown

Call [Manager.Trigger] to trigger a shutdown directly. The first call wins;
later calls return an [AlreadyTriggeredError] carrying both reasons and
change nothing. [TriggerOnSignal] forwards OS signals into Trigger, for the
usual interrupt handling.

Some tasks are vital: when they stop, everything should stop.
[Manager.TriggerToken] returns a handle that triggers a shutdown when
released, and [TriggerFor] binds that release to a function call so the
trigger happens however the function ends.

# Stopping running work

Tasks that want to react to the shutdown themselves can select over
[Signal.Done] (from [Manager.Triggered]) or block in [Manager.WaitTriggered].
Tasks with no shutdown logic of their own can be wrapped with
[CancelOnTrigger], which cancels their context and abandons them as soon as
a shutdown is triggered.

# Waiting for cleanup

Cleanup that must finish before the shutdown is considered complete is
registered by holding a [DelayToken] (see [Manager.DelayToken], [DelayFor]).
The shutdown completes once it has been triggered and every token has been
released; [Manager.WaitCompleted] blocks until then. Typically the end of
main waits there before exiting, so background goroutines get to run their
cleanup.

For a complete example, see cmd/echo-server or the package example.
*/
package quell
