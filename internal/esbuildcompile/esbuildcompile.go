// Package esbuildcompile adapts a real esbuild build into the rewriter's
// compilation.Compilation IR. It is one concrete producer of that IR —
// not load-bearing for the rewriter's semantics, which depend only on
// internal/compilation — included because driving the bundler is the one
// piece of this system explicitly out of scope (spec §1) yet every pack
// repo touching bundling reaches for esbuild the way the teacher's
// bundle.go and prebundle.go do.
//
// esbuild's output doesn't carry the fictional __internalRequire(N)
// calling convention this system's rewriter expects (that convention
// belongs to whatever bundler actually produces it in production); this
// adapter only maps esbuild's metafile (outputs and their input files)
// into the shape rewriter.Rewrite consumes, for callers who front esbuild
// with their own require-call annotation pass upstream of rewriting. The
// output files' contents are not carried into the IR: Module.Source is
// left empty.
package esbuildcompile

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/evanw/esbuild/pkg/api"
	"golang.org/x/sync/errgroup"

	"github.com/jupyter/extension-builder/internal/compilation"
)

// Options mirrors the subset of esbuild.BuildOptions this system needs.
// Build always turns the metafile on, so each output chunk's module graph
// is recoverable, and turns code splitting on when Format is ESM.
type Options struct {
	EntryPoints []string
	Outdir      string
	PublicPath  string
	External    []string
	Platform    api.Platform
	Format      api.Format
}

// metafileOutput mirrors the subset of esbuild's JSON metafile schema
// needed to recover a chunk's module list and import edges.
type metafileOutput struct {
	EntryPoint string `json:"entryPoint"`
	Inputs     map[string]struct {
		BytesInOutput int `json:"bytesInOutput"`
	} `json:"inputs"`
	Imports []struct {
		Path string `json:"path"`
		Kind string `json:"kind"`
	} `json:"imports"`
}

type metafile struct {
	Outputs map[string]metafileOutput `json:"outputs"`
}

// Build runs esbuild with a metafile (and code splitting for ESM), then maps the
// result onto compilation.Compilation. Modules are assigned sequential
// numeric ids in sorted-path order per chunk, standing in for whatever
// numeric id scheme a production bundler assigns internally.
func Build(opts Options) (compilation.Compilation, error) {
	result := api.Build(api.BuildOptions{
		EntryPoints: opts.EntryPoints,
		Outdir:      opts.Outdir,
		Bundle:      true,
		Splitting:   opts.Format == api.FormatESModule,
		Write:       false,
		Metafile:    true,
		Platform:    opts.Platform,
		Format:      opts.Format,
		External:    opts.External,
		PublicPath:  opts.PublicPath,
	})
	if len(result.Errors) > 0 {
		msgs := make([]string, len(result.Errors))
		for i, e := range result.Errors {
			msgs[i] = e.Text
		}
		return compilation.Compilation{}, fmt.Errorf("esbuildcompile: build failed: %v", msgs)
	}

	var mf metafile
	if err := json.Unmarshal([]byte(result.Metafile), &mf); err != nil {
		return compilation.Compilation{}, fmt.Errorf("esbuildcompile: parsing metafile: %w", err)
	}

	contentByPath := make(map[string][]byte, len(result.OutputFiles))
	for _, f := range result.OutputFiles {
		contentByPath[f.Path] = f.Contents
	}

	outPaths := make([]string, 0, len(mf.Outputs))
	for p := range mf.Outputs {
		outPaths = append(outPaths, p)
	}
	sort.Strings(outPaths)

	chunks := make([]compilation.Chunk, len(outPaths))
	var g errgroup.Group
	for i, outPath := range outPaths {
		i, outPath := i, outPath
		g.Go(func() error {
			out := mf.Outputs[outPath]
			inputPaths := make([]string, 0, len(out.Inputs))
			for p := range out.Inputs {
				inputPaths = append(inputPaths, p)
			}
			sort.Strings(inputPaths)

			mods := make([]compilation.Module, len(inputPaths))
			for j, ip := range inputPaths {
				abs, err := filepath.Abs(ip)
				if err != nil {
					return fmt.Errorf("esbuildcompile: resolving input %s: %w", ip, err)
				}
				mods[j] = compilation.Module{
					ID:         i*100000 + j,
					SourcePath: abs,
				}
			}

			chunks[i] = compilation.Chunk{
				ID:      i,
				Name:    outPath,
				Files:   []string{outPath},
				IsEntry: out.EntryPoint != "",
				Modules: mods,
			}
			_ = contentByPath // collected but not placed in the IR
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return compilation.Compilation{}, err
	}

	return compilation.Compilation{
		Chunks:     chunks,
		PublicPath: opts.PublicPath,
	}, nil
}
