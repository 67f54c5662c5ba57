// Package plugin normalizes the value sitting at a bundle's entry path —
// the host application's actual contract with a loaded extension (spec
// §6, "Host plugin descriptor interface") — into a flat list of
// Descriptors. It performs shape validation only: the deeper activation
// procedure is the host application's concern, out of scope for the
// core (spec §1's Non-goals).
package plugin

import "github.com/jupyter/extension-builder/pkg/registry"

// Descriptor is one normalized plugin entry: a stable id and the
// function the host calls to activate it. Activate is kept as an
// untyped handle — a sobek function value when sourced through
// pkg/jshost, or a native Go func in tests — since invoking it is the
// host's job, not this package's.
type Descriptor struct {
	ID       string
	Activate any
}

// Normalize turns an entry module's export value into its Descriptors.
// The value is either a single descriptor object or a sequence of them;
// if it is (or, after an __esModule unwrap, resolves to) neither, it
// returns a *NotADescriptorError.
//
// An __esModule-flagged wrapper (the shape a transpiled default export
// takes, same convention tools/please_js's esmdev CJS interop relies on)
// yields its default field before the single-vs-sequence check runs, so
// `export default [{id, activate}, ...]` and `export default {id,
// activate}` both normalize the same as their CJS equivalents.
func Normalize(exported any) ([]Descriptor, error) {
	v := exported
	if m, ok := asMap(v); ok {
		if esModule, _ := m["__esModule"].(bool); esModule {
			v = m["default"]
		}
	}

	if seq, ok := asSequence(v); ok {
		descs := make([]Descriptor, 0, len(seq))
		for i, item := range seq {
			d, err := parseOne(item, i)
			if err != nil {
				return nil, err
			}
			descs = append(descs, d)
		}
		return descs, nil
	}

	d, err := parseOne(v, -1)
	if err != nil {
		return nil, err
	}
	return []Descriptor{d}, nil
}

func parseOne(v any, index int) (Descriptor, error) {
	m, ok := asMap(v)
	if !ok {
		return Descriptor{}, &NotADescriptorError{Value: v}
	}

	id, ok := m["id"].(string)
	if !ok || id == "" {
		return Descriptor{}, &MissingFieldError{Index: index, Field: "id"}
	}

	activate, ok := m["activate"]
	if !ok || activate == nil {
		return Descriptor{}, &MissingFieldError{Index: index, Field: "activate"}
	}

	return Descriptor{ID: id, Activate: activate}, nil
}

// asMap recognizes both registry.Exports and a bare map[string]any, since
// a descriptor can arrive either freshly out of a registry.Instance or
// nested inside a plain map produced while unwrapping an __esModule
// default or a sequence element.
func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case registry.Exports:
		return map[string]any(t), true
	case map[string]any:
		return t, true
	default:
		return nil, false
	}
}

// asSequence recognizes the array shape of a multi-descriptor entry,
// whether it arrives as []any (the common case out of a JS engine
// bridge) or []map[string]any (a native Go caller building one
// directly).
func asSequence(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []map[string]any:
		seq := make([]any, len(t))
		for i, m := range t {
			seq[i] = m
		}
		return seq, true
	default:
		return nil, false
	}
}
