// Package loader implements the bundle loader: the sole mechanism for
// bringing new define calls into a registry.Registry, by fetching
// additional chunks and deduplicating concurrent requests for the same
// URL (spec §4.5).
package loader

import (
	"sync"

	"github.com/jupyter/extension-builder/pkg/registry"
)

// state is a BundleEntry's lifecycle stage. Monotonic: Pending can only
// move to Loaded or Failed, both terminal.
type state int

const (
	statePending state = iota
	stateLoaded
	stateFailed
)

// Callback is a waiter invoked with the loader's bound require once its
// bundle loads.
type Callback func(require registry.RequireFunc)

// Injector starts fetching url and invokes exactly one of onLoad/onError
// when the fetch settles. It must not block: a real browser injector
// attaches a <script> tag and returns immediately, resolving later from
// the DOM's load/error events.
type Injector interface {
	Inject(url string, onLoad func(), onError func(err error))
}

// bundleEntry is a BundleEntry: per-URL load state, the FIFO waiter list,
// and a Future resolved once the bundle leaves Pending.
type bundleEntry struct {
	mu      sync.Mutex
	url     string
	state   state
	waiters []Callback
	future  *Future
}

// Loader owns one set of BundleEntry records and the Injector used to
// fetch them. require is the bound require passed to waiter callbacks
// (spec's boundRequire).
type Loader struct {
	mu       sync.Mutex
	bundles  map[string]*bundleEntry
	injector Injector
	require  registry.RequireFunc
}

// New creates a Loader backed by injector, whose waiter callbacks will be
// invoked with require.
func New(injector Injector, require registry.RequireFunc) *Loader {
	return &Loader{
		bundles:  make(map[string]*bundleEntry),
		injector: injector,
		require:  require,
	}
}

// EnsureBundle looks up or creates the BundleEntry for url. If it's
// already Loaded, callback (if any) is invoked before returning an
// already-resolved Future. If Pending, callback is appended to the
// waiter list. If Failed, the same (already-rejected) Future is returned
// without re-invoking anything — failed bundles never retry (spec §4.5).
func (l *Loader) EnsureBundle(url string, callback Callback) *Future {
	l.mu.Lock()
	entry, exists := l.bundles[url]
	if exists {
		l.mu.Unlock()
		return l.joinExisting(entry, callback)
	}

	// Record the pending entry before the unlock below so a re-entrant
	// second call for the same url during this creation joins this same
	// entry rather than racing a second Inject.
	entry = &bundleEntry{url: url, state: statePending, future: newFuture()}
	if callback != nil {
		entry.waiters = append(entry.waiters, callback)
	}
	l.bundles[url] = entry
	l.mu.Unlock()

	l.injector.Inject(url,
		func() { l.onLoad(entry) },
		func(err error) { l.onError(entry, err) },
	)
	return entry.future
}

func (l *Loader) joinExisting(entry *bundleEntry, callback Callback) *Future {
	entry.mu.Lock()
	switch entry.state {
	case stateLoaded:
		entry.mu.Unlock()
		if callback != nil {
			callback(l.require)
		}
	case stateFailed:
		entry.mu.Unlock()
		// No synchronous invocation on failure; the future's rejection
		// is the sole signal (spec §4.5, §9 open question).
	default: // statePending
		if callback != nil {
			entry.waiters = append(entry.waiters, callback)
		}
		entry.mu.Unlock()
	}
	return entry.future
}

func (l *Loader) onLoad(entry *bundleEntry) {
	entry.mu.Lock()
	entry.state = stateLoaded
	waiters := entry.waiters
	entry.waiters = nil
	entry.mu.Unlock()

	// Drained in FIFO append order. A waiter that itself calls
	// EnsureBundle re-enters through l.mu, a different lock than
	// entry.mu (already released above), so this tolerates re-entrancy
	// without deadlocking.
	for _, cb := range waiters {
		cb(l.require)
	}
	entry.future.resolve(nil)
}

func (l *Loader) onError(entry *bundleEntry, err error) {
	entry.mu.Lock()
	entry.state = stateFailed
	entry.waiters = nil
	entry.mu.Unlock()

	entry.future.resolve(&BundleLoadFailedError{URL: entry.url, Err: err})
}
