package commands

import (
	"context"
	"fmt"

	ferrors "git.home.luguber.info/inful/catalogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/catalogbuilder/internal/merge"
)

// MergeCmd implements the 'merge' command.
type MergeCmd struct {
	Files []string `arg:"" name:"files" help:"YAML or JSON files, merged left to right"`
	JSON  bool     `short:"j" help:"Print the result as JSON instead of YAML"`
	Show  bool     `help:"Print every loaded file instead of merging"`
}

func (m *MergeCmd) Run(g *Global, _ *CLI) error {
	docs := merge.Load(context.Background(), g.Files, m.Files)
	if failed := merge.Failed(docs); len(failed) > 0 {
		if err := printJSON(g.Err, failed); err != nil {
			return err
		}
		return ferrors.ValidationError(fmt.Sprintf("%d of %d files could not be loaded", len(failed), len(docs))).Build()
	}
	if m.Show {
		return printJSON(g.Out, docs)
	}

	result, err := merge.Merge(docs)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryValidation, "failed to merge").Build()
	}
	if m.JSON {
		_, err := fmt.Fprintln(g.Out, merge.JSON(result))
		return err
	}
	out, err := merge.YAML(result)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to encode YAML").Build()
	}
	_, err = fmt.Fprint(g.Out, out)
	return err
}
