// Command htmlminifier minifies HTML files, standard input or whole
// directory trees.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/livefir/htmlminifier"
	"github.com/livefir/htmlminifier/internal/logfields"
)

// Version information (can be overridden at build time with -ldflags)
var version = "dev"

// CLI definition. Minifier switches come from the embedded Settings.
type CLI struct {
	Config  string           `short:"c" help:"YAML file with minifier settings. Flags win over the file."`
	Verbose bool             `short:"v" help:"Enable verbose logging."`
	Version kong.VersionFlag `name:"version" help:"Show version and exit."`

	Output    string   `short:"o" help:"Write the result to this file instead of stdout."`
	InputDir  string   `help:"Minify every matching file under this directory."`
	OutputDir string   `help:"Write the files minified from --input-dir here."`
	FileExt   []string `help:"Extensions minified in directory mode." default:"html,htm"`
	Jobs      int      `short:"j" help:"Files minified in parallel." default:"4"`
	Watch     bool     `short:"w" help:"Keep running and re-minify files under --input-dir when they change."`
	DumpTree  bool     `help:"Print the parsed document tree instead of minifying."`
	Stats     bool     `help:"Log minification statistics when done."`

	Settings `embed:""`

	Files []string `arg:"" optional:"" help:"Files to minify. Standard input is read when none are given."`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("htmlminifier"),
		kong.Description("Minify HTML documents."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	}, options...)
	return kong.New(cli, options...)
}

// flagSet reports whether the named flag was given on the command line.
func flagSet(ctx *kong.Context, name string) bool {
	for _, f := range ctx.Flags() {
		if f.Name == name {
			return f.Set
		}
	}
	return false
}

func main() {
	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Run(ctx, flagSet(kctx, "html5"), os.Stdin, os.Stdout); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Run minifies what the flags select. html5Set tells whether --html5 or
// --no-html5 was given, so the config file value can be kept otherwise.
func (c *CLI) Run(ctx context.Context, html5Set bool, stdin io.Reader, stdout io.Writer) error {
	settings := &Settings{HTML5: true}
	if c.Config != "" {
		loaded, err := LoadSettings(c.Config)
		if err != nil {
			return err
		}
		settings = loaded
	}
	settings.Merge(&c.Settings, html5Set)
	if err := settings.Check(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if c.Jobs < 1 {
		return MultiError{{Field: "jobs", Message: "must be at least 1"}}
	}

	logger := slog.Default()
	collector := htmlminifier.NewCollector()
	opts := settings.Options()
	opts.Logger = logger
	opts.Metrics = collector
	p := &Processor{Options: opts, DumpTree: c.DumpTree, Logger: logger}

	level := slog.LevelDebug
	if c.Stats {
		level = slog.LevelInfo
	}
	defer logStats(logger, level, collector)

	switch {
	case c.InputDir != "":
		if c.OutputDir == "" {
			return errors.New("--output-dir is required with --input-dir")
		}
		if len(c.Files) > 0 || c.Output != "" {
			return errors.New("--input-dir cannot be combined with files or --output")
		}
		if err := p.Dir(ctx, c.InputDir, c.OutputDir, c.FileExt, c.Jobs); err != nil {
			return err
		}
		if !c.Watch {
			return nil
		}
		logStats(logger, level, collector)
		collector.Reset()
		w, err := NewWatcher(p, c.InputDir, c.OutputDir, c.FileExt)
		if err != nil {
			return err
		}
		return w.Run(ctx)
	case c.Watch:
		return errors.New("--watch requires --input-dir")
	case len(c.Files) == 0:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		out, err := p.Bytes(data)
		if err != nil {
			return err
		}
		return c.write(out, stdout)
	}

	if c.Output != "" && len(c.Files) > 1 {
		return errors.New("--output takes a single input file")
	}
	for _, name := range c.Files {
		data, err := os.ReadFile(name)
		if err != nil {
			return err
		}
		out, err := p.Bytes(data)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if err := c.write(out, stdout); err != nil {
			return err
		}
	}
	return nil
}

// logStats logs the counters of collector at level.
func logStats(logger *slog.Logger, level slog.Level, collector *htmlminifier.Collector) {
	stats := collector.GetMetrics()
	attrs := []slog.Attr{
		slog.Int64("documents", stats.Documents),
		slog.Int64("parse_errors", stats.ParseErrors),
		logfields.BytesIn(int(stats.BytesIn)),
		logfields.BytesOut(int(stats.BytesOut)),
		slog.Float64("ratio", collector.CompressionRatio()),
		slog.Int64("comments_removed", stats.CommentsRemoved),
		slog.Int64("elements_removed", stats.ElementsRemoved),
		slog.Int64("attributes_removed", stats.AttributesRemoved),
		slog.Int64("delegate_calls", stats.DelegateCalls),
		slog.Float64("delegate_failure_rate", collector.DelegateFailureRate()),
	}
	counters := collector.GetCustomCounters()
	for _, name := range slices.Sorted(maps.Keys(counters)) {
		attrs = append(attrs, slog.Int64(name, counters[name]))
	}
	logger.LogAttrs(context.Background(), level, "minification finished", attrs...)
}

func (c *CLI) write(out []byte, stdout io.Writer) error {
	if c.Output != "" {
		return os.WriteFile(c.Output, out, 0644)
	}
	_, err := stdout.Write(out)
	return err
}
