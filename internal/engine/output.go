package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/hashicorp/go-multierror"

	"git.home.luguber.info/inful/catalogbuilder/internal/fileops"
	"git.home.luguber.info/inful/catalogbuilder/internal/logfields"
	"git.home.luguber.info/inful/catalogbuilder/internal/module"
)

// Write saves every document at <root>/<catalogName>. It stops at the first failure.
func Write(ctx context.Context, files fileops.FileOps, root string, docs []*module.Document) error {
	for _, d := range docs {
		target, err := OutputPath(root, d.CatalogName)
		if err != nil {
			return err
		}
		if err := files.Save(ctx, target, []byte(d.Value)); err != nil {
			return err
		}
		slog.Debug("Wrote catalog document", logfields.CatalogName(d.CatalogName), logfields.SourceType(string(d.SourceType)))
	}
	return nil
}

// OutputPath joins root and a catalog name, rejecting names that leave root.
func OutputPath(root, catalogName string) (string, error) {
	clean := path.Clean(strings.ReplaceAll(catalogName, "\\", "/"))
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("catalog name %q escapes %s", catalogName, root)
	}
	return fileops.Join(root, clean), nil
}

// Report writes documents in dry-run form. Each value is exactly what Write would save.
func Report(w io.Writer, docs []*module.Document) error {
	for _, d := range docs {
		if _, err := fmt.Fprintf(w, "[%s] %s from [%s]\n%s\n\n", d.CatalogName, d.SourceType, d.PathOffset, d.Value); err != nil {
			return err
		}
	}
	return nil
}

// ReportErrors writes one line per error record.
func ReportErrors(w io.Writer, errs []*module.ErrorRecord) error {
	for _, e := range errs {
		if _, err := fmt.Fprintf(w, "%s error in %s: %v\n", e.Kind, e.Context, e.Err); err != nil {
			return err
		}
	}
	return nil
}

// Err combines the run's error records into one error, or nil when there are none.
func (r *Result) Err() error {
	var merr *multierror.Error
	for _, e := range r.Errors {
		merr = multierror.Append(merr, e)
	}
	return merr.ErrorOrNil()
}
