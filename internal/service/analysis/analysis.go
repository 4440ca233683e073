// Package analysis runs the parse, graph and metrics pipeline shared by the
// CLI and the tool server.
package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/panbanda/mondrian/internal/fileproc"
	"github.com/panbanda/mondrian/pkg/analyzer/metrics"
	"github.com/panbanda/mondrian/pkg/ast"
	"github.com/panbanda/mondrian/pkg/ast/treesitter"
	"github.com/panbanda/mondrian/pkg/config"
	"github.com/panbanda/mondrian/pkg/grapher"
	"github.com/panbanda/mondrian/pkg/source"
)

// Service orchestrates graph construction.
type Service struct {
	config *config.Config
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.DefaultConfig(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GraphOptions configures a graph run.
type GraphOptions struct {
	// Source reads file contents; the filesystem when nil.
	Source     source.ContentSource
	OnProgress func()
}

// GraphResult is a built graph with the parse outcome.
type GraphResult struct {
	*grapher.Result
	Files []*ast.File
	// Partial lists the files parsed around syntax errors.
	Partial []string
	// Errors holds the files that could not be read or parsed; nil when
	// every file was parsed.
	Errors *fileproc.ProcessingErrors
}

// Parse turns files into declaration trees in parallel. The trees keep the
// order of files; unreadable files are skipped and reported.
func (s *Service) Parse(ctx context.Context, files []string, opts GraphOptions) ([]*ast.File, *fileproc.ProcessingErrors) {
	src := opts.Source
	if src == nil {
		src = source.NewFilesystem()
	}

	parseOpts := []fileproc.Option{fileproc.WithWorkers(s.config.Analysis.Workers)}
	if opts.OnProgress != nil {
		parseOpts = append(parseOpts, fileproc.WithProgress(opts.OnProgress))
	}

	return fileproc.MapFilesWithResource(ctx, files,
		treesitter.New,
		(*treesitter.Provider).Close,
		func(p *treesitter.Provider, path string) (*ast.File, error) {
			content, err := src.Read(path)
			if err != nil {
				return nil, fmt.Errorf("read: %w", err)
			}
			return p.ParseSource(path, content)
		},
		parseOpts...,
	)
}

// BuildGraph parses files and builds their coupling graph with the
// configured call exclusions. Per-file failures do not fail the run; only
// cancellation does.
func (s *Service) BuildGraph(ctx context.Context, files []string, opts GraphOptions) (*GraphResult, error) {
	s.logger.Debug("parsing", "files", len(files), "workers", s.config.Analysis.Workers)
	parsed, errs := s.Parse(ctx, files, opts)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if errs.HasErrors() {
		for _, pe := range errs.Errors {
			s.logger.Warn("file skipped", "path", pe.Path, "error", pe.Err)
		}
	}

	var partial []string
	for _, f := range parsed {
		if f.Partial {
			partial = append(partial, f.Path)
			s.logger.Warn("syntax errors, declarations recovered around them", "path", f.Path)
		}
	}

	g := grapher.New(
		grapher.WithLogger(s.logger),
		grapher.WithExclusions(s.config.Exclusions()),
	)
	result := g.Run(parsed)
	s.logger.Info("graph built",
		"files", len(parsed),
		"vertices", result.Graph.Order(),
		"edges", result.Graph.Size())

	return &GraphResult{
		Result:  result,
		Files:   parsed,
		Partial: partial,
		Errors:  errs,
	}, nil
}

// Metrics computes the code metrics of a built graph.
func (s *Service) Metrics(result *GraphResult, top int) *metrics.Report {
	return metrics.Analyze(result.Graph, metrics.WithTop(top))
}
