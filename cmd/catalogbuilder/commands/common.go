package commands

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/catalogbuilder/internal/config"
	"git.home.luguber.info/inful/catalogbuilder/internal/fileops"
	"git.home.luguber.info/inful/catalogbuilder/internal/metrics"
	"git.home.luguber.info/inful/catalogbuilder/internal/retry"
)

// Global is the state shared by every subcommand.
type Global struct {
	Logger *slog.Logger
	Config *config.Config
	Files  *fileops.OS
	Out    io.Writer
	Err    io.Writer
}

// NewGlobal returns the global state for a process writing to stdout and stderr.
func NewGlobal() *Global {
	return &Global{
		Logger: slog.Default(),
		Config: config.Default(),
		Files:  fileops.NewOS(nil),
		Out:    os.Stdout,
		Err:    os.Stderr,
	}
}

// Retrier builds a retrier from the configured retry policy.
func (g *Global) Retrier(recorder metrics.Recorder) *retry.Retrier {
	return retry.New(retry.NewPolicy(g.Config.Retry), recorder)
}

// CLI definition & global flags.
type CLI struct {
	Config   string           `short:"c" help:"Configuration file path" default:".catalogbuilder.yaml"`
	Dir      string           `short:"d" help:"Directory to scan" default:"."`
	Verbose  bool             `short:"v" help:"Enable verbose logging"`
	LogLevel string           `name:"log-level" help:"Log level (debug|info|warn|error); overrides the config file"`
	Version  kong.VersionFlag `name:"version" help:"Show version and exit"`

	Make      MakeCmd      `cmd:"" help:"Generate catalog-info files for every module below --dir"`
	Debug     DebugCmd     `cmd:"" help:"Inspect the intermediate stages of generation"`
	Catalogs  CatalogsCmd  `cmd:"" help:"Find, validate and register catalog files"`
	Summarise SummariseCmd `cmd:"" help:"Summarise the catalog files of a repository as JSON"`
	Merge     MergeCmd     `cmd:"" help:"Deep-merge YAML or JSON files left to right"`
	Rollup    RollupCmd    `cmd:"" help:"Collect the stats files of every enabled repository of an organisation"`
}

// AfterApply runs after flag parsing; loads the config file into g and sets up
// logging once. An explicit --config must exist, the default one is optional.
func (c *CLI) AfterApply(g *Global) error {
	cfg, err := config.Load(c.Config, c.Config == config.DefaultPath)
	if err != nil {
		return err
	}
	g.Config = cfg

	format := cfg.Logging.Format
	level := cfg.Logging.Level
	if c.LogLevel != "" {
		level = config.NormalizeLogLevel(c.LogLevel)
	}
	if c.Verbose {
		level = config.LogLevelDebug
	}
	opts := &slog.HandlerOptions{Level: level.SlogLevel()}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	g.Logger = slog.New(handler)
	slog.SetDefault(g.Logger)
	return nil
}

// firstNonEmpty returns the first value that is not blank.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
