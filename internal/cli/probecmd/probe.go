// Package probecmd implements the "probe" subcommand: given a source
// file and a project root, print the nearest accepting package
// descriptor as JSON (spec §4.2).
package probecmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jupyter/extension-builder/internal/pkgprobe"
)

// Args holds the arguments for the probe subcommand.
type Args struct {
	Path        string
	ProjectRoot string
}

func Run(w io.Writer, args Args) error {
	desc, err := pkgprobe.Probe(args.Path, args.ProjectRoot)
	if err != nil {
		return fmt.Errorf("probecmd: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(desc); err != nil {
		return fmt.Errorf("probecmd: encoding descriptor: %w", err)
	}
	return nil
}
