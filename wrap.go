package quell

import "context"

// CancelOnTrigger races f against the shutdown signal.
//
// f is started immediately, with a context that is canceled as soon as a
// shutdown is triggered. If f returns first, its result is returned as-is,
// and triggers that happen afterwards have no effect on it. If the
// shutdown is triggered first, f is abandoned - CancelOnTrigger stops
// waiting for it and returns a [ShutdownError] carrying the reason. The
// abandoned f keeps running in the background until it notices its
// context's cancellation; f must honor its context for the cancellation to
// be prompt.
//
// When f finishes at the same moment a shutdown is triggered, f's result
// wins - it is checked first on every wakeup. That is an artifact of check
// ordering, not a priority guarantee.
//
// If ctx itself is canceled before either side settles, CancelOnTrigger
// returns ctx.Err().
func CancelOnTrigger[T, R any](ctx context.Context, m *Manager[T], f func(context.Context) (R, error)) (R, error) {
	signal := m.Triggered()
	defer signal.Close()

	fctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		value R
		err   error
	}

	// Buffered so an abandoned f can still deliver its result and exit.
	results := make(chan result, 1)
	go func() {
		value, err := f(fctx)
		results <- result{value: value, err: err}
	}()

	// f's result is preferred whenever it is already available.
	select {
	case res := <-results:
		return res.value, res.err
	default:
	}

	var zero R
	select {
	case res := <-results:
		return res.value, res.err
	case <-signal.Done():
		select {
		case res := <-results:
			return res.value, res.err
		default:
		}
		reason, _ := signal.Reason()
		return zero, &ShutdownError[T]{Reason: reason}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// DelayFor runs f while holding a delay token, preventing the shutdown
// from completing until f returns. The token is released on every exit
// path, including a panic in f.
//
// If the shutdown has already completed, DelayFor returns an
// [AlreadyCompletedError] without running f.
func DelayFor[T, R any](ctx context.Context, m *Manager[T], f func(context.Context) (R, error)) (R, error) {
	token, err := m.DelayToken()
	if err != nil {
		var zero R
		return zero, err
	}

	return DelayWith(ctx, token, f)
}

// DelayWith runs f while holding token, releasing it when f returns.
// Unlike [DelayFor] it cannot fail: holding a token is proof the shutdown
// has not completed.
//
// DelayWith takes over releasing the token. A caller that still needs the
// token afterwards should pass a [DelayToken.Clone] instead.
func DelayWith[T, R any](ctx context.Context, token *DelayToken[T], f func(context.Context) (R, error)) (R, error) {
	defer token.Release()
	return f(ctx)
}

// TriggerFor runs f while holding a trigger token, so that a shutdown with
// the given reason is triggered as soon as f returns or panics. Wrapping a
// program's main task with it makes everything else shut down when that
// task stops, however it stops.
func TriggerFor[T, R any](ctx context.Context, m *Manager[T], reason T, f func(context.Context) (R, error)) (R, error) {
	token := m.TriggerToken(reason)
	defer token.Release()
	return f(ctx)
}
