package loader

import (
	"errors"
	"sync"
	"testing"

	"github.com/jupyter/extension-builder/pkg/registry"
)

// manualInjector lets tests control exactly when onLoad/onError fire,
// and counts how many times Inject was called per URL (for the dedup
// property).
type manualInjector struct {
	mu       sync.Mutex
	pending  map[string]func()
	failFunc map[string]func(error)
	calls    map[string]int
}

func newManualInjector() *manualInjector {
	return &manualInjector{
		pending:  make(map[string]func()),
		failFunc: make(map[string]func(error)),
		calls:    make(map[string]int),
	}
}

func (m *manualInjector) Inject(url string, onLoad func(), onError func(error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[url]++
	m.pending[url] = onLoad
	m.failFunc[url] = onError
}

func (m *manualInjector) fire(url string) {
	m.mu.Lock()
	cb := m.pending[url]
	m.mu.Unlock()
	cb()
}

func (m *manualInjector) fail(url string, err error) {
	m.mu.Lock()
	cb := m.failFunc[url]
	m.mu.Unlock()
	cb(err)
}

func noopRequire(string) (registry.Exports, error) { return registry.Exports{}, nil }

// TestS4BundleDedup implements spec §8 S4: two ensureBundle calls for the
// same URL before load invoke cbA then cbB, each exactly once, and both
// futures resolve; only one script is ever injected.
func TestS4BundleDedup(t *testing.T) {
	inj := newManualInjector()
	l := New(inj, noopRequire)

	var order []string
	futA := l.EnsureBundle("x.js", func(registry.RequireFunc) { order = append(order, "A") })
	futB := l.EnsureBundle("x.js", func(registry.RequireFunc) { order = append(order, "B") })

	if inj.calls["x.js"] != 1 {
		t.Fatalf("script injected %d times, want 1", inj.calls["x.js"])
	}

	inj.fire("x.js")

	if len(order) != 2 || order[0] != "A" || order[1] != "B" {
		t.Fatalf("waiter order = %v, want [A B]", order)
	}
	if err := futA.Wait(); err != nil {
		t.Errorf("futA: %v", err)
	}
	if err := futB.Wait(); err != nil {
		t.Errorf("futB: %v", err)
	}
}

func TestEnsureBundleAlreadyLoadedInvokesSynchronously(t *testing.T) {
	inj := newManualInjector()
	l := New(inj, noopRequire)

	fut := l.EnsureBundle("x.js", nil)
	inj.fire("x.js")
	if err := fut.Wait(); err != nil {
		t.Fatal(err)
	}

	called := false
	fut2 := l.EnsureBundle("x.js", func(registry.RequireFunc) { called = true })
	if !called {
		t.Error("callback on an already-loaded bundle should be invoked")
	}
	if !fut2.Done() {
		t.Error("future for an already-loaded bundle should already be resolved")
	}
	if inj.calls["x.js"] != 1 {
		t.Errorf("script re-injected, calls = %d", inj.calls["x.js"])
	}
}

func TestEnsureBundleLoadFailure(t *testing.T) {
	inj := newManualInjector()
	l := New(inj, noopRequire)

	waiterCalled := false
	fut := l.EnsureBundle("bad.js", func(registry.RequireFunc) { waiterCalled = true })

	boom := errors.New("network error")
	inj.fail("bad.js", boom)

	err := fut.Wait()
	var loadErr *BundleLoadFailedError
	if !errors.As(err, &loadErr) {
		t.Fatalf("got %T: %v, want *BundleLoadFailedError", err, err)
	}
	if loadErr.URL != "bad.js" {
		t.Errorf("URL = %q, want bad.js", loadErr.URL)
	}
	if waiterCalled {
		t.Error("waiters must not be invoked on failure, only the future rejects")
	}
}

func TestEnsureBundleNoRetryAfterFailure(t *testing.T) {
	inj := newManualInjector()
	l := New(inj, noopRequire)

	fut1 := l.EnsureBundle("bad.js", nil)
	inj.fail("bad.js", errors.New("boom"))
	_ = fut1.Wait()

	fut2 := l.EnsureBundle("bad.js", nil)
	if inj.calls["bad.js"] != 1 {
		t.Errorf("bundle re-fetched after terminal failure, calls = %d", inj.calls["bad.js"])
	}
	if fut2 != fut1 {
		t.Error("a failed BundleEntry must not be recreated; expected the same Future")
	}
}
