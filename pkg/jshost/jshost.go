// Package jshost hosts a pure-Go JS engine (sobek, the grafana/k6 fork of
// goja) and binds it to a registry.Registry and a loader.Loader, so the
// "browser-side" half of the spec (runtime registry + bundle loader) is
// exercisable without an actual browser. A rewritten chunk's JS text —
// the literal output of internal/rewriter — runs inside the Host's
// Runtime: `<name>.define(...)`, the bound require, and
// `require.ensure`/`ensureBundle` all resolve to this package's bridges.
// No `e` property is bound on any require, so a rewritten
// `__<name>_require__.e(...)` async-chunk reference is not bridged.
//
// This mirrors how grafana/k6 embeds sobek to run user test scripts
// against Go-implemented host modules (see its internal/js/bundle.go).
package jshost

import (
	"fmt"

	"github.com/grafana/sobek"

	"github.com/jupyter/extension-builder/pkg/loader"
	"github.com/jupyter/extension-builder/pkg/registry"
)

// Host runs chunk scripts and serves as the loader.Execer invoked once a
// chunk's bytes have been fetched.
type Host struct {
	rt         *sobek.Runtime
	registry   *registry.Registry
	loader     *loader.Loader
	pluginName string
}

// New constructs a Host whose global define entry point is
// "<pluginName>.define" and whose bound require/ensureBundle globals
// match the names the rewriter emits for pluginName (spec §6).
// injector, if nil, defaults to an HTTPInjector fetching over the network
// and executing fetched chunks through this same Host.
func New(pluginName string, injector loader.Injector) *Host {
	h := &Host{
		rt:         sobek.New(),
		registry:   registry.New(),
		pluginName: pluginName,
	}
	if injector == nil {
		injector = loader.NewHTTPInjector(nil, h)
	}
	h.loader = loader.New(injector, h.registry.Require)
	h.install()
	return h
}

// Registry exposes the underlying registry, e.g. for tests that want to
// Define Go-native factories alongside JS-defined ones.
func (h *Host) Registry() *registry.Registry { return h.registry }

// Loader exposes the underlying loader for direct EnsureBundle calls.
func (h *Host) Loader() *loader.Loader { return h.loader }

func (h *Host) install() {
	pluginObj := h.rt.NewObject()
	_ = pluginObj.Set("define", h.defineBridge)
	_ = h.rt.Set(h.pluginName, pluginObj)

	requireVal := h.rt.ToValue(h.requireBridge)
	if requireObj, ok := requireVal.(*sobek.Object); ok {
		_ = requireObj.Set("ensure", h.ensureBridge)
	}
	_ = h.rt.Set("require", requireVal)
	_ = h.rt.Set("ensureBundle", h.ensureBridge)
}

func (h *Host) defineBridge(call sobek.FunctionCall) sobek.Value {
	path := call.Argument(0).String()
	factory, ok := sobek.AssertFunction(call.Argument(1))
	if !ok {
		panic(h.rt.NewTypeError("define: second argument must be a factory function"))
	}
	h.registry.Define(path, h.wrapJSFactory(factory))
	return sobek.Undefined()
}

// wrapJSFactory adapts a JS factory function into a registry.Factory,
// bridging the Go Exports map to a JS object reference so mutations made
// from JS (exports.foo = ...) are visible through the Go side and vice
// versa (sobek, like goja, projects a Go map onto a live JS object rather
// than copying it).
func (h *Host) wrapJSFactory(factory sobek.Callable) registry.Factory {
	return func(inst *registry.Instance, exports registry.Exports, req registry.RequireFunc) {
		exportsVal := h.rt.ToValue(map[string]any(exports))

		moduleObj := h.rt.NewObject()
		_ = moduleObj.Set("id", inst.ID)
		_ = moduleObj.Set("exports", exportsVal)

		requireVal := h.rt.ToValue(func(call sobek.FunctionCall) sobek.Value {
			rangedPath := call.Argument(0).String()
			result, err := req(rangedPath)
			if err != nil {
				panic(h.rt.NewGoError(err))
			}
			return h.rt.ToValue(map[string]any(result))
		})
		if requireObj, ok := requireVal.(*sobek.Object); ok {
			_ = requireObj.Set("ensure", h.ensureBridge)
		}

		if _, err := factory(sobek.Undefined(), moduleObj, exportsVal, requireVal); err != nil {
			panic(err)
		}
	}
}

func (h *Host) requireBridge(call sobek.FunctionCall) sobek.Value {
	rangedPath := call.Argument(0).String()
	exports, err := h.registry.Require(rangedPath)
	if err != nil {
		panic(h.rt.NewGoError(err))
	}
	return h.rt.ToValue(map[string]any(exports))
}

func (h *Host) ensureBridge(call sobek.FunctionCall) sobek.Value {
	url := call.Argument(0).String()

	var cb loader.Callback
	if fn, ok := sobek.AssertFunction(call.Argument(1)); ok {
		cb = func(require registry.RequireFunc) {
			requireVal := h.rt.ToValue(func(innerCall sobek.FunctionCall) sobek.Value {
				rp := innerCall.Argument(0).String()
				exports, err := require(rp)
				if err != nil {
					panic(h.rt.NewGoError(err))
				}
				return h.rt.ToValue(map[string]any(exports))
			})
			if _, err := fn(sobek.Undefined(), requireVal); err != nil {
				panic(err)
			}
		}
	}

	fut := h.loader.EnsureBundle(url, cb)
	return h.rt.ToValue(fut)
}

// Exec implements loader.Execer: it runs source (a rewritten chunk's JS
// text) as the named url's script body.
func (h *Host) Exec(url string, source []byte) error {
	_, err := h.rt.RunString(string(source))
	if err != nil {
		return fmt.Errorf("jshost: executing %s: %w", url, err)
	}
	return nil
}

// RunString evaluates arbitrary JS against this Host's runtime — used by
// tests that need to call into defined modules directly (e.g. to read a
// plugin descriptor back out by calling require(...) and inspecting the
// result).
func (h *Host) RunString(src string) (sobek.Value, error) {
	return h.rt.RunString(src)
}
