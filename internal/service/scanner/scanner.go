// Package scanner resolves the command line paths of a run into the PHP
// files to analyze and the source to read them from.
package scanner

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/panbanda/mondrian/internal/scanner"
	"github.com/panbanda/mondrian/internal/vcs"
	"github.com/panbanda/mondrian/pkg/config"
	"github.com/panbanda/mondrian/pkg/source"
)

// ScanResult contains the result of a file scan.
type ScanResult struct {
	Files []string
	// Source reads the content of Files.
	Source source.ContentSource
	// Revision is the commit hash of a revision scan, empty for the
	// working tree.
	Revision string
	RepoRoot string
	// Skipped counts files dropped for exceeding the maximum size.
	Skipped int
}

// Service provides file scanning functionality.
type Service struct {
	config *config.Config
	opener vcs.Opener
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithOpener sets the VCS opener (for testing).
func WithOpener(opener vcs.Opener) Option {
	return func(s *Service) {
		s.opener = opener
	}
}

// New creates a new scanner service.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.DefaultConfig(),
		opener: vcs.DefaultOpener(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanPaths scans files and directories of the working tree. No paths
// means the current directory.
func (s *Service) ScanPaths(paths []string) (*ScanResult, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	abs := make([]string, 0, len(paths))
	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, &scanner.PathError{Path: path, Err: err}
		}
		abs = append(abs, absPath)
	}

	files, err := scanner.NewScanner(s.config).ScanPaths(abs)
	if err != nil {
		return nil, err
	}
	files, skipped := scanner.FilterBySize(files, s.config.Analysis.MaxFileSize)

	return &ScanResult{
		Files:   files,
		Source:  source.NewFilesystem(),
		Skipped: skipped,
	}, nil
}

// ScanRevision scans the given paths as they are in revision ref of the
// repository enclosing the first path. Files are reported relative to the
// repository root.
func (s *Service) ScanRevision(ref string, paths []string) (*ScanResult, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	repo, err := s.opener.PlainOpen(paths[0])
	if err != nil {
		return nil, &GitError{Err: err}
	}
	tree, err := repo.Resolve(ref)
	if err != nil {
		return nil, err
	}

	root := repo.Root()
	prefixes := make([]string, 0, len(paths))
	for _, path := range paths {
		rel, err := repoRelative(root, path)
		if err != nil {
			return nil, &scanner.PathError{Path: path, Err: err}
		}
		prefixes = append(prefixes, rel)
	}

	files, err := scanner.NewScanner(s.config).ScanTree(tree, prefixes)
	if err != nil {
		return nil, fmt.Errorf("list files of %s: %w", ref, err)
	}

	return &ScanResult{
		Files:    files,
		Source:   source.NewTree(tree, root),
		Revision: tree.Hash(),
		RepoRoot: root,
	}, nil
}

func repoRelative(root, path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, absPath)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("outside repository %s", root)
	}
	return filepath.ToSlash(rel), nil
}

// GitError indicates the path is not a git repository.
type GitError struct {
	Err error
}

func (e *GitError) Error() string {
	return "not a git repository (or any parent): " + e.Err.Error()
}

func (e *GitError) Unwrap() error {
	return e.Err
}
