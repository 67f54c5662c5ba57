package loader

import "sync"

// Future is a single-completion Future<void>: one consumer-visible
// resolution or rejection, monotonic. Distinct from the waiter-callback
// channel so the loader keeps its legacy synchronous-callback interface
// (spec §4.5, §9) while still giving async consumers something to await.
type Future struct {
	once sync.Once
	done chan struct{}
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// resolve completes the future exactly once; subsequent calls are no-ops.
func (f *Future) resolve(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Wait blocks until the future resolves — the spec's bundle loader has no
// cancellation (§5), so Wait takes no context — then returns the
// rejection error, or nil on success.
func (f *Future) Wait() error {
	<-f.done
	return f.err
}

// Done reports whether the future has already resolved, without
// blocking.
func (f *Future) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
