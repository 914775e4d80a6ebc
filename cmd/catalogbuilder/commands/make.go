package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/catalogbuilder/internal/engine"
	ferrors "git.home.luguber.info/inful/catalogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/catalogbuilder/internal/logfields"
	"git.home.luguber.info/inful/catalogbuilder/internal/metrics"
)

// MakeCmd implements the 'make' command.
type MakeCmd struct {
	GenerationFlags `embed:""`

	DryRun      bool   `name:"dryrun" help:"Print the documents instead of writing them"`
	Strict      bool   `help:"Exit non-zero when any module failed"`
	MetricsFile string `name:"metrics-file" help:"Write run metrics in Prometheus text format to this file"`
}

func (m *MakeCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	metricsFile := firstNonEmpty(m.MetricsFile, g.Config.Metrics.File)
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var prom *metrics.PrometheusRecorder
	if metricsFile != "" {
		prom = metrics.NewPrometheusRecorder(nil)
		recorder = prom
	}

	eng, err := m.Engine(ctx, g, root, recorder)
	if err != nil {
		return err
	}
	result, err := eng.Run(ctx)
	if err != nil {
		return scanError(err, root.Dir)
	}

	if m.DryRun {
		if err := engine.Report(g.Out, result.Documents); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to print documents").Build()
		}
	} else if err := engine.Write(ctx, g.Files, root.Dir, result.Documents); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write catalog files").
			WithContext("dir", root.Dir).
			Build()
	}
	if err := engine.ReportErrors(g.Err, result.Errors); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to print errors").Build()
	}

	if prom != nil {
		if err := prom.WriteTextfile(metricsFile); err != nil {
			g.Logger.Warn("Failed to write metrics", logfields.Path(metricsFile), logfields.Error(err))
		} else {
			g.Logger.Debug("Wrote metrics", logfields.Path(metricsFile))
		}
	}

	g.Logger.Info("Catalog generation complete",
		logfields.RunID(result.RunID),
		logfields.Count(len(result.Documents)),
		slog.Int("errors", len(result.Errors)),
		slog.Bool("dryrun", m.DryRun))

	if m.Strict {
		if err := result.Err(); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryGeneration, "some modules failed").
				WithContext("errors", len(result.Errors)).
				Build()
		}
	}
	return nil
}
