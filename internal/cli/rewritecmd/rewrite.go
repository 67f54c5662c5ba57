// Package rewritecmd implements the "rewrite" subcommand: build entry
// points with esbuild, then rewrite the resulting chunks into
// versioned-path define calls plus per-chunk manifests, writing both to
// disk. Mirrors the teacher's per-subcommand Args+Run convention
// (tools/please_js/bundle/bundle.go).
package rewritecmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/jupyter/extension-builder/internal/esbuildcompile"
	"github.com/jupyter/extension-builder/internal/rewriter"
)

// Args holds the arguments for the rewrite subcommand.
type Args struct {
	EntryPoints []string
	Outdir      string
	PublicPath  string
	ProjectRoot string
	Name        string
	External    []string
	Platform    string
}

func Run(args Args) error {
	if len(args.EntryPoints) == 0 {
		return fmt.Errorf("rewritecmd: at least one entry point is required")
	}
	if args.ProjectRoot == "" {
		return fmt.Errorf("rewritecmd: --project-root is required")
	}

	comp, err := esbuildcompile.Build(esbuildcompile.Options{
		EntryPoints: args.EntryPoints,
		Outdir:      args.Outdir,
		PublicPath:  args.PublicPath,
		External:    args.External,
		Platform:    parsePlatform(args.Platform),
		Format:      api.FormatESModule,
	})
	if err != nil {
		return fmt.Errorf("rewritecmd: building entry points: %w", err)
	}

	resolver := &rewriter.FSResolver{ProjectRoot: args.ProjectRoot}
	outputs, err := rewriter.Rewrite(comp, resolver, rewriter.Config{Name: args.Name})
	if err != nil {
		return fmt.Errorf("rewritecmd: rewriting chunks: %w", err)
	}

	if err := os.MkdirAll(args.Outdir, 0o755); err != nil {
		return fmt.Errorf("rewritecmd: creating output dir: %w", err)
	}

	for _, out := range outputs {
		if err := writeFile(filepath.Join(args.Outdir, out.ChunkFile), out.Content); err != nil {
			return err
		}
		if err := writeFile(filepath.Join(args.Outdir, out.ManifestFile), out.ManifestContent); err != nil {
			return err
		}
	}
	return nil
}

func parsePlatform(p string) api.Platform {
	if p == "node" {
		return api.PlatformNode
	}
	return api.PlatformBrowser
}

func writeFile(path string, content []byte) error {
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("rewritecmd: writing %s: %w", path, err)
	}
	return nil
}
