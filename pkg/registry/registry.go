// Package registry implements the runtime semver-resolving module
// registry: the in-browser half of the core (spec §4.4). A Registry
// holds modules defined under exact-version paths and resolves
// semver-ranged require calls against them, instantiating each module at
// most once so independently-built extensions share one instance of a
// dependency whenever semver allows.
package registry

import (
	"sync"

	"github.com/jupyter/extension-builder/internal/semverx"
	"github.com/jupyter/extension-builder/internal/vpath"
)

// Exports is the object a factory populates and require returns. Modeled
// as a plain map so both hand-written Go factories (tests, §8 scenarios)
// and a JS-engine bridge (pkg/jshost) can share the same registry.
type Exports map[string]any

// RequireFunc is the function signature a factory receives as its third
// argument — require bound to the owning Registry.
type RequireFunc func(rangedPath string) (Exports, error)

// Factory is a module body: it receives its own (still-empty) Instance,
// that instance's Exports map (the same map, passed separately for
// convenience), and a bound require. It populates exports by mutating the
// map in place.
type Factory func(module *Instance, exports Exports, require RequireFunc)

// Instance is a ModuleInstance: the per-module state created on first
// require. Loaded flips false->true exactly once, after the factory
// returns.
type Instance struct {
	ID      string
	Exports Exports
	Loaded  bool
}

// entry is a ModuleEntry: a registered factory plus its (at most one)
// instantiation. Never evicted once created.
type entry struct {
	id       string
	factory  Factory
	instance *Instance
}

// Registry is one arena of factories, instances, and caches. Factories
// and caches are never shared across Registry instances — a host that
// needs isolation between extensions creates more than one.
type Registry struct {
	mu        sync.Mutex
	factories map[string]*entry // exact-version path string -> entry
	cache     map[string]string // raw requested string -> resolved exact path
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		factories: make(map[string]*entry),
		cache:     make(map[string]string),
	}
}

// Define records factory under exactPath. Re-definition of an
// already-defined path is a no-op: the first factory registered for a
// path wins, which is what lets multiple chunks carry overlapping copies
// of the same shared library without conflict.
func (r *Registry) Define(exactPath string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[exactPath]; exists {
		return
	}
	r.factories[exactPath] = &entry{id: exactPath, factory: factory}
}

// Require resolves rangedPath against all registered modules and returns
// its exports, instantiating the module on first use. See spec §4.4 for
// the seven-step algorithm this implements.
func (r *Registry) Require(rangedPath string) (Exports, error) {
	r.mu.Lock()
	if resolved, ok := r.cache[rangedPath]; ok {
		e := r.factories[resolved]
		r.mu.Unlock()
		return r.instantiate(e)
	}

	reqPath, ok := vpath.Parse(rangedPath)
	if !ok {
		r.mu.Unlock()
		return nil, &BadPathError{Path: rangedPath}
	}

	var candidates []string // exact-version paths sharing (pkg, sub)
	var versions []string
	for path, e := range r.factories {
		p, ok := vpath.Parse(path)
		if !ok {
			continue
		}
		if p.Pkg == reqPath.Pkg && p.Sub == reqPath.Sub {
			candidates = append(candidates, e.id)
			versions = append(versions, p.Version)
		}
	}
	if len(candidates) == 0 {
		r.mu.Unlock()
		return nil, &NoMatchError{Pkg: reqPath.Pkg, Sub: reqPath.Sub}
	}

	// Always checked against the range, even with a single candidate —
	// one registered version does not mean it satisfies the request.
	maxVersion, ok := semverx.MaxSatisfying(versions, reqPath.Version)
	if !ok {
		r.mu.Unlock()
		return nil, &NoSatisfyingError{Pkg: reqPath.Pkg, Sub: reqPath.Sub, Range: reqPath.Version, Candidates: versions}
	}
	resolved := vpath.Format(vpath.Path{Pkg: reqPath.Pkg, Version: maxVersion, Sub: reqPath.Sub})

	// A failed resolution never poisons the cache (spec §7); only
	// successes are memoised.
	r.cache[rangedPath] = resolved
	e := r.factories[resolved]
	r.mu.Unlock()

	return r.instantiate(e)
}

// instantiate runs steps 6/7 of spec §4.4. If e already has an instance —
// whether fully loaded, or still mid-factory because this call is a
// cyclic reentry — it returns that instance's exports without invoking
// the factory again. Only the call that creates the instance runs the
// factory, after installing the instance, so a cycle participant reading
// from its not-yet-populated partner observes the same map identity (with
// not-yet-assigned keys reading as nil, this registry's "undefined").
func (r *Registry) instantiate(e *entry) (Exports, error) {
	r.mu.Lock()
	if e.instance != nil {
		exp := e.instance.Exports
		r.mu.Unlock()
		return exp, nil
	}
	inst := &Instance{ID: e.id, Exports: make(Exports)}
	e.instance = inst
	r.mu.Unlock()

	e.factory(inst, inst.Exports, r.Require)
	inst.Loaded = true
	return inst.Exports, nil
}

// Lookup returns the exports of exactPath if it has already been
// instantiated and its factory has returned, without triggering
// instantiation.
func (r *Registry) Lookup(exactPath string) (Exports, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.factories[exactPath]
	if !ok || e.instance == nil || !e.instance.Loaded {
		return nil, false
	}
	return e.instance.Exports, true
}
