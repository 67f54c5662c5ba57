package rewriter

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jupyter/extension-builder/internal/compilation"
	"github.com/jupyter/extension-builder/internal/manifest"
)

func writePkg(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// TestRewriteS5 implements spec §8 scenario S5: a chunk containing one
// module from acme@1.4.2 at /lib/m.js, requiring utils (issuer declares
// "utils": "^3.0.0"), produces a define call wrapping a rewritten require
// and a manifest whose modules entry matches.
func TestRewriteS5(t *testing.T) {
	root := t.TempDir()
	acmeDir := filepath.Join(root, "acme")
	writePkg(t, acmeDir, `{"name":"acme","version":"1.4.2","dependencies":{"utils":"^3.0.0"}}`)
	utilsDir := filepath.Join(root, "utils")
	writePkg(t, utilsDir, `{"name":"utils","version":"3.2.0"}`)

	issuerFile := filepath.Join(acmeDir, "lib", "m.js")
	targetFile := filepath.Join(utilsDir, "lib", "index.js")

	comp := compilation.Compilation{
		PublicPath: "/static/",
		Chunks: []compilation.Chunk{
			{
				ID:      0,
				Name:    "main",
				Hash:    "abc123",
				Files:   []string{"main.js"},
				IsEntry: true,
				Modules: []compilation.Module{
					{
						ID:         1,
						SourcePath: issuerFile,
						Source:     `exports.x = __internalRequire(2);`,
					},
					{
						ID:         2,
						SourcePath: targetFile,
						Source:     `exports.y = 1;`,
					},
				},
			},
		},
	}

	outputs, err := Rewrite(comp, FSResolver{ProjectRoot: root}, Config{Name: "jupyter"})
	if err != nil {
		t.Fatal(err)
	}
	if len(outputs) != 1 {
		t.Fatalf("got %d outputs, want 1", len(outputs))
	}
	out := outputs[0]

	content := string(out.Content)
	if !strings.Contains(content, `jupyter.define("acme@1.4.2/lib/m.js", function(module, exports, __jupyter_require__) {`) {
		t.Errorf("define call missing or malformed:\n%s", content)
	}
	if !strings.Contains(content, `__jupyter_require__("utils@^3.0.0/lib/index.js")`) {
		t.Errorf("rewritten require missing:\n%s", content)
	}

	m, err := manifest.Unmarshal(out.ManifestContent)
	if err != nil {
		t.Fatal(err)
	}
	if m.Entry != "acme@1.4.2/lib/m.js" {
		t.Errorf("Entry = %q, want acme@1.4.2/lib/m.js", m.Entry)
	}
	got := m.Modules["acme@1.4.2/lib/m.js"]
	if len(got) != 1 || got[0] != "utils@^3.0.0/lib/index.js" {
		t.Errorf("Modules[acme@1.4.2/lib/m.js] = %v", got)
	}
}

// TestRewriteS6 implements spec §8 scenario S6: self-reference upgrades
// to ~exactVersion regardless of the declared range.
func TestRewriteS6(t *testing.T) {
	root := t.TempDir()
	acmeDir := filepath.Join(root, "acme")
	writePkg(t, acmeDir, `{"name":"acme","version":"1.4.2"}`)

	issuerFile := filepath.Join(acmeDir, "lib", "m.js")
	targetFile := filepath.Join(acmeDir, "lib", "other.js")

	comp := compilation.Compilation{
		Chunks: []compilation.Chunk{
			{
				ID:    0,
				Files: []string{"main.js"},
				Modules: []compilation.Module{
					{ID: 1, SourcePath: issuerFile, Source: `__internalRequire(2);`},
					{ID: 2, SourcePath: targetFile, Source: `exports.y = 1;`},
				},
			},
		},
	}

	outputs, err := Rewrite(comp, FSResolver{ProjectRoot: root}, Config{})
	if err != nil {
		t.Fatal(err)
	}
	content := string(outputs[0].Content)
	if !strings.Contains(content, `__jupyter_require__("acme@~1.4.2/lib/other.js")`) {
		t.Errorf("self-reference not upgraded to ~exactVersion:\n%s", content)
	}
}

func TestRewriteExternalRejected(t *testing.T) {
	root := t.TempDir()
	comp := compilation.Compilation{
		Chunks: []compilation.Chunk{{
			Files: []string{"main.js"},
			Modules: []compilation.Module{
				{ID: 1, SourcePath: filepath.Join(root, "x.js"), External: true},
			},
		}},
	}
	_, err := Rewrite(comp, FSResolver{ProjectRoot: root}, Config{})
	if err == nil {
		t.Fatal("expected ExternalError")
	}
	var extErr *ExternalError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected *ExternalError, got %T: %v", err, err)
	}
}

func TestRewriteAnnotatedRequireForm(t *testing.T) {
	root := t.TempDir()
	acmeDir := filepath.Join(root, "acme")
	writePkg(t, acmeDir, `{"name":"acme","version":"1.0.0","dependencies":{"utils":"^3.0.0"}}`)
	utilsDir := filepath.Join(root, "utils")
	writePkg(t, utilsDir, `{"name":"utils","version":"3.0.0"}`)

	comp := compilation.Compilation{
		Chunks: []compilation.Chunk{{
			Files: []string{"main.js"},
			Modules: []compilation.Module{
				{ID: 1, SourcePath: filepath.Join(acmeDir, "m.js"), Source: `__internalRequire.e/*! utils */(2)`},
				{ID: 2, SourcePath: filepath.Join(utilsDir, "index.js"), Source: `exports.y = 1;`},
			},
		}},
	}

	outputs, err := Rewrite(comp, FSResolver{ProjectRoot: root}, Config{})
	if err != nil {
		t.Fatal(err)
	}
	content := string(outputs[0].Content)
	if !strings.Contains(content, `__jupyter_require__("utils@^3.0.0/index.js")`) {
		t.Errorf("annotated require not rewritten:\n%s", content)
	}
}

func TestRewriteAsyncChunkReference(t *testing.T) {
	root := t.TempDir()
	writePkg(t, root, `{"name":"app","version":"1.0.0"}`)

	comp := compilation.Compilation{
		PublicPath: "/static/",
		Chunks: []compilation.Chunk{
			{
				ID:    0,
				Files: []string{"main.js"},
				Modules: []compilation.Module{
					{ID: 1, SourcePath: filepath.Join(root, "m.js"), Source: `__internalRequire.e(1)`},
				},
			},
			{
				ID:    1,
				Files: []string{"lazy.abc123.js"},
				Modules: []compilation.Module{
					{ID: 2, SourcePath: filepath.Join(root, "lazy.js"), Source: `exports.z = 1;`},
				},
			},
		},
	}

	outputs, err := Rewrite(comp, FSResolver{ProjectRoot: root}, Config{})
	if err != nil {
		t.Fatal(err)
	}
	content := string(outputs[0].Content)
	if !strings.Contains(content, `__jupyter_require__.e("/static/lazy.abc123.js")`) {
		t.Errorf("async chunk ref not rewritten:\n%s", content)
	}
}

// TestRewritePublicPathSentinel guards spec §4.3 step 3: the
// __internalRequire.p sentinel must be substituted with the quoted
// public path, not left dangling after the require identifier is
// renamed to its per-plugin form.
func TestRewritePublicPathSentinel(t *testing.T) {
	root := t.TempDir()
	writePkg(t, root, `{"name":"app","version":"1.0.0"}`)

	comp := compilation.Compilation{
		PublicPath: "/static/",
		Chunks: []compilation.Chunk{
			{
				ID:    0,
				Files: []string{"main.js"},
				Modules: []compilation.Module{
					{ID: 1, SourcePath: filepath.Join(root, "m.js"), Source: `exports.base = __internalRequire.p;`},
				},
			},
		},
	}

	outputs, err := Rewrite(comp, FSResolver{ProjectRoot: root}, Config{})
	if err != nil {
		t.Fatal(err)
	}
	content := string(outputs[0].Content)
	if !strings.Contains(content, `exports.base = "/static/";`) {
		t.Errorf("public path sentinel not substituted:\n%s", content)
	}
	if strings.Contains(content, "__internalRequire") {
		t.Errorf("unrenamed __internalRequire identifier leaked through:\n%s", content)
	}
}

func TestRewriteUnresolvableAsyncChunk(t *testing.T) {
	root := t.TempDir()
	writePkg(t, root, `{"name":"app","version":"1.0.0"}`)
	comp := compilation.Compilation{
		Chunks: []compilation.Chunk{{
			Files: []string{"main.js"},
			Modules: []compilation.Module{
				{ID: 1, SourcePath: filepath.Join(root, "m.js"), Source: `__internalRequire.e(99)`},
			},
		}},
	}
	_, err := Rewrite(comp, FSResolver{ProjectRoot: root}, Config{})
	if err == nil {
		t.Fatal("expected UnresolvableAsyncChunkError")
	}
}

func TestRewriteContextModule(t *testing.T) {
	root := t.TempDir()
	appDir := filepath.Join(root, "app")
	writePkg(t, appDir, `{"name":"app","version":"1.0.0"}`)

	comp := compilation.Compilation{
		Chunks: []compilation.Chunk{{
			Files: []string{"main.js"},
			Modules: []compilation.Module{
				{
					ID:         1,
					Kind:       compilation.KindContext,
					SourcePath: filepath.Join(appDir, "locales", "index.js"),
					ContextEntries: map[string]int{
						"./fr.json": 3,
						"./en.json": 2,
					},
				},
				{ID: 2, SourcePath: filepath.Join(appDir, "locales", "en.json")},
				{ID: 3, SourcePath: filepath.Join(appDir, "locales", "fr.json")},
			},
		}},
	}

	outputs, err := Rewrite(comp, FSResolver{ProjectRoot: root}, Config{})
	if err != nil {
		t.Fatal(err)
	}
	content := string(outputs[0].Content)

	// Extract the JSON map literal to check key ordering is lexical.
	start := strings.Index(content, "var map = ")
	if start < 0 {
		t.Fatalf("context module body missing map literal:\n%s", content)
	}
	end := strings.Index(content[start:], ";")
	literal := content[start+len("var map = ") : start+end]
	var m map[string]string
	if err := json.Unmarshal([]byte(literal), &m); err != nil {
		t.Fatalf("map literal not valid JSON: %v\n%s", err, literal)
	}
	if len(m) != 2 {
		t.Fatalf("got %d entries, want 2", len(m))
	}
	if strings.Index(literal, `"./en.json"`) > strings.Index(literal, `"./fr.json"`) {
		t.Errorf("map literal keys not in lexical order: %s", literal)
	}
	if !strings.Contains(content, "jupyterContext.keys") {
		t.Errorf("context wrapper missing keys():\n%s", content)
	}
	if !strings.Contains(content, "jupyterContext.resolve") {
		t.Errorf("context wrapper missing resolve():\n%s", content)
	}
}
