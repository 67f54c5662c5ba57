package plugin

import (
	"errors"
	"testing"

	"github.com/jupyter/extension-builder/pkg/registry"
)

func activateFunc() {}

func TestNormalizeSingleObject(t *testing.T) {
	descs, err := Normalize(registry.Exports{"id": "acme:plugin", "activate": activateFunc})
	if err != nil {
		t.Fatal(err)
	}
	if len(descs) != 1 || descs[0].ID != "acme:plugin" {
		t.Fatalf("got %+v", descs)
	}
}

func TestNormalizeSequence(t *testing.T) {
	exported := []any{
		map[string]any{"id": "acme:a", "activate": activateFunc},
		map[string]any{"id": "acme:b", "activate": activateFunc},
	}
	descs, err := Normalize(exported)
	if err != nil {
		t.Fatal(err)
	}
	if len(descs) != 2 || descs[0].ID != "acme:a" || descs[1].ID != "acme:b" {
		t.Fatalf("got %+v", descs)
	}
}

func TestNormalizeESModuleSingleDefault(t *testing.T) {
	exported := registry.Exports{
		"__esModule": true,
		"default":    map[string]any{"id": "acme:plugin", "activate": activateFunc},
	}
	descs, err := Normalize(exported)
	if err != nil {
		t.Fatal(err)
	}
	if len(descs) != 1 || descs[0].ID != "acme:plugin" {
		t.Fatalf("got %+v", descs)
	}
}

func TestNormalizeESModuleSequenceDefault(t *testing.T) {
	exported := registry.Exports{
		"__esModule": true,
		"default": []any{
			map[string]any{"id": "acme:a", "activate": activateFunc},
			map[string]any{"id": "acme:b", "activate": activateFunc},
		},
	}
	descs, err := Normalize(exported)
	if err != nil {
		t.Fatal(err)
	}
	if len(descs) != 2 {
		t.Fatalf("got %+v", descs)
	}
}

func TestNormalizeMissingID(t *testing.T) {
	_, err := Normalize(registry.Exports{"activate": activateFunc})
	var missing *MissingFieldError
	if !errors.As(err, &missing) || missing.Field != "id" {
		t.Fatalf("got %v, want MissingFieldError{Field: id}", err)
	}
}

func TestNormalizeMissingActivate(t *testing.T) {
	_, err := Normalize(registry.Exports{"id": "acme:plugin"})
	var missing *MissingFieldError
	if !errors.As(err, &missing) || missing.Field != "activate" {
		t.Fatalf("got %v, want MissingFieldError{Field: activate}", err)
	}
}

func TestNormalizeSequenceElementMissingID(t *testing.T) {
	exported := []any{
		map[string]any{"id": "acme:a", "activate": activateFunc},
		map[string]any{"activate": activateFunc},
	}
	_, err := Normalize(exported)
	var missing *MissingFieldError
	if !errors.As(err, &missing) || missing.Index != 1 {
		t.Fatalf("got %v, want MissingFieldError{Index: 1}", err)
	}
}

func TestNormalizeNotADescriptor(t *testing.T) {
	_, err := Normalize("just a string")
	var notADesc *NotADescriptorError
	if !errors.As(err, &notADesc) {
		t.Fatalf("got %v, want NotADescriptorError", err)
	}
}
