// Package rewriter implements the chunk rewriter: the bundler
// post-processing step that replaces numeric internal module ids with
// versioned string ids and emits a manifest per chunk (spec §4.3).
package rewriter

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jupyter/extension-builder/internal/compilation"
	"github.com/jupyter/extension-builder/internal/manifest"
	"github.com/jupyter/extension-builder/internal/vpath"
)

// Config is the rewriter's external configuration surface (spec §6).
type Config struct {
	// Name controls the identifiers <name>.define(...), <name>Context,
	// and the internal __<name>_require__ symbol. Defaults to "jupyter".
	Name string
}

func (c Config) pluginName() string {
	if c.Name == "" {
		return "jupyter"
	}
	return c.Name
}

func (c Config) requireSymbol() string {
	return "__" + c.pluginName() + "_require__"
}

func (c Config) contextCtorName() string {
	return c.pluginName() + "Context"
}

// Output is one rewritten chunk: the transformed asset text and its
// sibling manifest.
type Output struct {
	ChunkFile       string
	Content         []byte
	ManifestFile    string
	ManifestContent []byte
}

var (
	reModuleAnnotated = regexp.MustCompile(`__internalRequire\.e/\*!\s*([^*]*?)\s*\*/\((\d+)\)`)
	reModulePlain     = regexp.MustCompile(`__internalRequire\((\d+)\)`)
	reAsyncChunk      = regexp.MustCompile(`__internalRequire\.e\((\d+)\)`)
	rePublicPath      = regexp.MustCompile(`__internalRequire\.p`)
)

// Rewrite transforms comp into one Output per chunk. resolver supplies
// package/version lookups; cfg controls the emitted identifiers.
func Rewrite(comp compilation.Compilation, resolver Resolver, cfg Config) ([]Output, error) {
	outputs := make([]Output, len(comp.Chunks))

	var g errgroup.Group
	for i, chunk := range comp.Chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			out, err := rewriteChunk(comp, chunk, resolver, cfg)
			if err != nil {
				return fmt.Errorf("rewriting chunk %v: %w", chunk.ID, err)
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

func rewriteChunk(comp compilation.Compilation, chunk compilation.Chunk, resolver Resolver, cfg Config) (Output, error) {
	var body strings.Builder
	modulesManifest := make(map[string][]string, len(chunk.Modules))

	var entryDefinePath string

	for i, mod := range chunk.Modules {
		if mod.External {
			return Output{}, &ExternalError{SourcePath: mod.SourcePath}
		}

		definePath, err := resolver.VersionPath(mod.SourcePath)
		if err != nil {
			return Output{}, err
		}
		definePathStr := vpath.Format(definePath)

		var transformed string
		var requirePaths []string
		switch mod.Kind {
		case compilation.KindContext:
			transformed, requirePaths, err = renderContextModule(comp, mod, resolver, cfg)
		default:
			transformed, requirePaths, err = rewriteRegularModule(comp, mod, chunk, resolver, cfg)
		}
		if err != nil {
			return Output{}, err
		}

		modulesManifest[definePathStr] = requirePaths

		if chunk.IsEntry && i == 0 {
			entryDefinePath = definePathStr
		}

		body.WriteString(fmt.Sprintf("/* %s */\n", definePathStr))
		body.WriteString(fmt.Sprintf(
			"%s.define(%q, function(module, exports, %s) {\n%s\n});\n",
			cfg.pluginName(), definePathStr, cfg.requireSymbol(), transformed,
		))
		body.WriteString(fmt.Sprintf("/* end %s */\n\n", definePathStr))
	}

	content := body.String()

	chunkFile := ""
	if len(chunk.Files) > 0 {
		chunkFile = chunk.Files[0]
	}

	m := manifest.Chunk{
		Hash:    chunk.Hash,
		ID:      chunk.ID,
		Name:    chunk.Name,
		Files:   chunk.Files,
		Modules: modulesManifest,
	}
	if chunk.IsEntry {
		m.Entry = entryDefinePath
	}
	manifestBytes, err := manifest.Marshal(m)
	if err != nil {
		return Output{}, err
	}

	return Output{
		ChunkFile:       chunkFile,
		Content:         []byte(content),
		ManifestFile:    chunkFile + ".manifest",
		ManifestContent: manifestBytes,
	}, nil
}

// rewriteRegularModule replaces this module's __internalRequire(N) and
// __internalRequire.e(N) call sites with string-keyed equivalents,
// returning the transformed source and the require paths it now issues
// (for the manifest's modules map).
func rewriteRegularModule(comp compilation.Compilation, mod compilation.Module, chunk compilation.Chunk, resolver Resolver, cfg Config) (string, []string, error) {
	src := mod.Source
	var requirePaths []string

	replaceModuleRequire := func(literal string, idStr string) (string, error) {
		id, err := strconv.Atoi(idStr)
		if err != nil {
			return literal, nil
		}
		target, ok := comp.ModuleByID(id)
		if !ok {
			return "", fmt.Errorf("require site %q references unknown module id %d", literal, id)
		}
		semverPath, err := resolver.SemverPath(mod.SourcePath, target.SourcePath)
		if err != nil {
			return "", err
		}
		s := vpath.Format(semverPath)
		requirePaths = append(requirePaths, s)
		return fmt.Sprintf("__internalRequire(%q)", s), nil
	}

	src, err := replaceAllSubmatch(reModuleAnnotated, src, func(m []string) (string, error) {
		return replaceModuleRequire(m[0], m[2])
	})
	if err != nil {
		return "", nil, err
	}

	src, err = replaceAllSubmatch(reModulePlain, src, func(m []string) (string, error) {
		return replaceModuleRequire(m[0], m[1])
	})
	if err != nil {
		return "", nil, err
	}

	src, err = replaceAllSubmatch(reAsyncChunk, src, func(m []string) (string, error) {
		chunkID, err := strconv.Atoi(m[1])
		if err != nil {
			return m[0], nil
		}
		target, ok := comp.ChunkByID(chunkID)
		if !ok {
			return "", &UnresolvableAsyncChunkError{ChunkID: chunkID}
		}
		if len(target.Files) == 0 {
			return "", &UnresolvableAsyncChunkError{ChunkID: chunkID}
		}
		url := comp.PublicPath + target.Files[0]
		return fmt.Sprintf("__internalRequire.e(%q)", url), nil
	})
	if err != nil {
		return "", nil, err
	}

	// Substitute the public-path sentinel before renaming the require
	// identifier — rePublicPath matches "__internalRequire.p" literally,
	// so it must run while that identifier is still spelled that way.
	src = rePublicPath.ReplaceAllString(src, strconv.Quote(comp.PublicPath))
	src = strings.ReplaceAll(src, "__internalRequire", cfg.requireSymbol())
	return src, requirePaths, nil
}

// replaceAllSubmatch applies fn to every non-overlapping match of re in
// src, substituting fn's return value; fn receives the full submatch
// slice (FindStringSubmatch shape). The first error short-circuits.
func replaceAllSubmatch(re *regexp.Regexp, src string, fn func(match []string) (string, error)) (string, error) {
	var out strings.Builder
	last := 0
	var firstErr error
	locs := re.FindAllStringSubmatchIndex(src, -1)
	for _, loc := range locs {
		if firstErr != nil {
			break
		}
		match := make([]string, len(loc)/2)
		for i := range match {
			if loc[2*i] < 0 {
				continue
			}
			match[i] = src[loc[2*i]:loc[2*i+1]]
		}
		repl, err := fn(match)
		if err != nil {
			firstErr = err
			continue
		}
		out.WriteString(src[last:loc[0]])
		out.WriteString(repl)
		last = loc[1]
	}
	if firstErr != nil {
		return "", firstErr
	}
	out.WriteString(src[last:])
	return out.String(), nil
}

// sortedKeys is shared with context.go.
func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
