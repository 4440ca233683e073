package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/panbanda/mondrian/internal/output"
	"github.com/panbanda/mondrian/internal/progress"
	"github.com/panbanda/mondrian/internal/service/analysis"
	scannerSvc "github.com/panbanda/mondrian/internal/service/scanner"
	"github.com/panbanda/mondrian/pkg/config"
	"github.com/urfave/cli/v2"
)

// getPaths returns paths from positional args, defaulting to ["."]
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"."}
}

// loadConfig loads the file named by --config, or the first config found in
// the working directory.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	result, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, err
	}
	return result.Config, nil
}

// newLogger writes structured logs to w: warnings by default, everything
// with --verbose or output.verbose.
func newLogger(c *cli.Context, cfg *config.Config, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if c.Bool("verbose") || cfg.Output.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// useColor reports whether text written to w should be colored.
func useColor(c *cli.Context, cfg *config.Config, w io.Writer) bool {
	if c.Bool("no-color") || !cfg.Output.Color {
		return false
	}
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// buildGraph scans the command's paths, from the working tree or from
// --ref, and builds their graph with a progress bar on stderr.
func buildGraph(ctx context.Context, c *cli.Context, cfg *config.Config) (*analysis.GraphResult, error) {
	paths := getPaths(c)
	scanner := scannerSvc.New(scannerSvc.WithConfig(cfg))

	var (
		scan *scannerSvc.ScanResult
		err  error
	)
	if ref := c.String("ref"); ref != "" {
		scan, err = scanner.ScanRevision(ref, paths)
	} else {
		scan, err = scanner.ScanPaths(paths)
	}
	if err != nil {
		return nil, err
	}
	notices := output.NewWriterFormatter(output.FormatText, c.App.ErrWriter, useColor(c, cfg, c.App.ErrWriter))
	if scan.Skipped > 0 {
		notices.Warning("Skipped %d files larger than %d bytes", scan.Skipped, cfg.Analysis.MaxFileSize)
	}
	if len(scan.Files) == 0 {
		return nil, nil
	}

	logger := newLogger(c, cfg, c.App.ErrWriter)
	tracker := progress.NewTracker("Building coupling graph...", len(scan.Files), progress.WithWriter(c.App.ErrWriter))
	svc := analysis.New(analysis.WithConfig(cfg), analysis.WithLogger(logger))
	result, err := svc.BuildGraph(ctx, scan.Files, analysis.GraphOptions{
		Source:     scan.Source,
		OnProgress: tracker.Tick,
	})
	if err != nil {
		tracker.FinishError(err)
		return nil, err
	}
	tracker.FinishSuccess()

	if result.Errors.HasErrors() {
		notices.Warning("%d of %d files could not be read", len(result.Errors.Errors), len(scan.Files))
	}
	if len(result.Partial) > 0 {
		notices.Warning("%d files have syntax errors, declarations were recovered around them", len(result.Partial))
	}
	return result, nil
}
