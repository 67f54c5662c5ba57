// Package resolvecmd implements the "resolve" subcommand: given an
// issuing source file and a target package name, print the semver range
// (or self-reference override) that would be embedded at a require site
// (spec §4.2's semver-path rules).
package resolvecmd

import (
	"fmt"
	"io"

	"github.com/jupyter/extension-builder/internal/pkgprobe"
)

// Args holds the arguments for the resolve subcommand.
type Args struct {
	IssuerPath    string
	ProjectRoot   string
	TargetPackage string
}

func Run(w io.Writer, args Args) error {
	issuer, err := pkgprobe.Probe(args.IssuerPath, args.ProjectRoot)
	if err != nil {
		return fmt.Errorf("resolvecmd: probing issuer: %w", err)
	}

	rng, err := pkgprobe.RangeFor(issuer, issuer.Version, args.TargetPackage, pkgprobe.DefaultFileLinkResolver)
	if err != nil {
		return fmt.Errorf("resolvecmd: %w", err)
	}

	fmt.Fprintln(w, rng)
	return nil
}
