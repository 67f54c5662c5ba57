// Command extbuilder drives the versioned-module rewriter and its
// supporting probes from the command line. Structured after the
// teacher's please_js CLI: a single flags struct with one embedded
// struct per subcommand, dispatched through a name-keyed map.
package main

import (
	"log"
	"os"

	"github.com/thought-machine/go-flags"

	"github.com/jupyter/extension-builder/internal/cli/probecmd"
	"github.com/jupyter/extension-builder/internal/cli/resolvecmd"
	"github.com/jupyter/extension-builder/internal/cli/rewritecmd"
	"github.com/jupyter/extension-builder/internal/cli/servecmd"
)

var opts = struct {
	Usage string

	Rewrite struct {
		ProjectRoot string   `short:"r" long:"project-root" required:"true" description:"Project root for package probing"`
		Outdir      string   `short:"o" long:"out-dir" required:"true" description:"Output directory for rewritten chunks and manifests"`
		PublicPath  string   `short:"p" long:"public-path" default:"/" description:"Public path prefix baked into async-chunk references"`
		Name        string   `short:"n" long:"name" default:"jupyter" description:"Plugin namespace (define/require identifier prefix)"`
		Platform    string   `long:"platform" default:"browser" description:"esbuild target platform: browser, node"`
		External    []string `long:"external" description:"Packages to leave external (rejected as rewrite targets)"`
		Args        struct {
			Entries []string `positional-arg-name:"entries" required:"true" description:"Entry point files"`
		} `positional-args:"true"`
	} `command:"rewrite" description:"Build entry points and rewrite the resulting chunks into versioned-path define calls"`

	Probe struct {
		ProjectRoot string `short:"r" long:"project-root" required:"true" description:"Project root for package probing"`
		Args        struct {
			Path string `positional-arg-name:"path" required:"true" description:"Source file to probe from"`
		} `positional-args:"true"`
	} `command:"probe" description:"Print the nearest accepting package descriptor for a source file"`

	Resolve struct {
		ProjectRoot string `short:"r" long:"project-root" required:"true" description:"Project root for package probing"`
		Target      string `short:"t" long:"target" required:"true" description:"Target package name"`
		Args        struct {
			Path string `positional-arg-name:"path" required:"true" description:"Issuing source file"`
		} `positional-args:"true"`
	} `command:"resolve" description:"Print the semver range a require site for a target package would embed"`

	Serve struct {
		Port int    `short:"p" long:"port" default:"8080" description:"HTTP port"`
		Args struct {
			Dir string `positional-arg-name:"dir" required:"true" description:"Directory of rewritten chunks to serve"`
		} `positional-args:"true"`
	} `command:"serve" description:"Serve a directory of rewritten chunks over HTTP"`
}{
	Usage: `
extbuilder rewrites bundler chunks into versioned, semver-resolvable module definitions and serves/probes the surrounding package graph.

It provides these main operations:
  - rewrite: build entry points with esbuild and rewrite the output chunks
  - probe:   find the nearest accepting package descriptor for a file
  - resolve: print the semver range a require site would embed
  - serve:   serve a directory of rewritten chunks over HTTP
`,
}

var subCommands = map[string]func() int{
	"rewrite": func() int {
		if err := rewritecmd.Run(rewritecmd.Args{
			EntryPoints: opts.Rewrite.Args.Entries,
			Outdir:      opts.Rewrite.Outdir,
			PublicPath:  opts.Rewrite.PublicPath,
			ProjectRoot: opts.Rewrite.ProjectRoot,
			Name:        opts.Rewrite.Name,
			External:    opts.Rewrite.External,
			Platform:    opts.Rewrite.Platform,
		}); err != nil {
			log.Fatal(err)
		}
		return 0
	},
	"probe": func() int {
		if err := probecmd.Run(os.Stdout, probecmd.Args{
			Path:        opts.Probe.Args.Path,
			ProjectRoot: opts.Probe.ProjectRoot,
		}); err != nil {
			log.Fatal(err)
		}
		return 0
	},
	"resolve": func() int {
		if err := resolvecmd.Run(os.Stdout, resolvecmd.Args{
			IssuerPath:    opts.Resolve.Args.Path,
			ProjectRoot:   opts.Resolve.ProjectRoot,
			TargetPackage: opts.Resolve.Target,
		}); err != nil {
			log.Fatal(err)
		}
		return 0
	},
	"serve": func() int {
		if err := servecmd.Run(servecmd.Args{
			Dir:  opts.Serve.Args.Dir,
			Port: opts.Serve.Port,
		}); err != nil {
			log.Fatal(err)
		}
		return 0
	},
}

func main() {
	p := flags.NewParser(&opts, flags.Default)
	_, err := p.Parse()
	if err != nil {
		os.Exit(1)
	}
	if p.Active == nil {
		p.WriteHelp(os.Stderr)
		os.Exit(1)
	}
	os.Exit(subCommands[p.Active.Name]())
}
