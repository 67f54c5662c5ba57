// Package compilation defines the input the chunk rewriter consumes: a
// finished bundler compilation, expressed as chunks of numeric-id
// modules. Driving the actual bundler is out of scope for this repository
// (spec §1); this package is the seam a bundler integration populates.
// internal/esbuildcompile is one concrete (optional) producer.
package compilation

// ModuleKind distinguishes the two module shapes the rewriter must
// transform differently (spec §4.3 step 3).
type ModuleKind int

const (
	// KindRegular is a normal module whose source contains numeric
	// __internalRequire(N) call sites to rewrite.
	KindRegular ModuleKind = iota
	// KindContext is a directory-glob require (webpack "context module"
	// equivalent); its body is synthesized from scratch rather than
	// textually rewritten.
	KindContext
)

// Module is one bundler-assigned module within a Chunk.
type Module struct {
	ID     int // the bundler's numeric module id, unique within the Compilation
	Kind   ModuleKind
	Source string // KindRegular: original source containing __internalRequire(N) sites

	// SourcePath is the absolute filesystem path used for package
	// probing (spec §4.2). Required for both module kinds.
	SourcePath string

	// External marks a module flagged by the bundler as resolved
	// outside the bundle; the rewriter rejects these (ExternalNotAllowed).
	External bool

	// Requires lists the numeric ids this module's __internalRequire(N)
	// call sites reference, alongside the literal source text of each
	// call site so the rewriter can do a precise textual substitution.
	// Order matches occurrence order in Source.
	Requires []RequireSite

	// ContextEntries is populated for KindContext modules: a mapping
	// from the original request string (e.g. "./locales/en.json") to
	// the numeric id of the module it resolves to.
	ContextEntries map[string]int

	// AsyncChunkRefs lists __internalRequire.e(N) call sites loading
	// another chunk by numeric chunk id.
	AsyncChunkRefs []AsyncChunkSite
}

// RequireSite is one __internalRequire(N) occurrence in a module's source.
type RequireSite struct {
	// Literal is the exact source text to replace, e.g.
	// "__internalRequire(42)" or "__internalRequire.e/*! utils */(42)".
	Literal string
	// TargetID is the numeric module id (42 above).
	TargetID int
	// Comment is the inline comment payload for the annotated call-site
	// form (e.g. "utils"), or "" for the unannotated form.
	Comment string
}

// AsyncChunkSite is one __internalRequire.e(N) occurrence referencing
// another chunk by numeric id.
type AsyncChunkSite struct {
	Literal   string
	TargetID  int // numeric chunk id, not module id
}

// Chunk is one bundler output asset containing a set of modules.
type Chunk struct {
	ID      any // number or string
	Name    string
	Hash    string
	Files   []string // asset file names belonging to this chunk; Files[0] is the JS asset
	IsEntry bool
	Modules []Module // concatenation order
}

// Compilation is the full bundler output the rewriter post-processes.
type Compilation struct {
	Chunks     []Chunk
	PublicPath string // substituted for the __internalRequire.p sentinel
}

// ChunkByID finds a chunk by its numeric id, used to resolve
// AsyncChunkSite.TargetID against Compilation.Chunks.
func (c Compilation) ChunkByID(id int) (Chunk, bool) {
	for _, ch := range c.Chunks {
		if n, ok := ch.ID.(int); ok && n == id {
			return ch, true
		}
	}
	return Chunk{}, false
}

// ModuleByID finds a module by its numeric id across all chunks.
func (c Compilation) ModuleByID(id int) (Module, bool) {
	for _, ch := range c.Chunks {
		for _, m := range ch.Modules {
			if m.ID == id {
				return m, true
			}
		}
	}
	return Module{}, false
}
