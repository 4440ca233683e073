// Package scanner discovers the PHP sources of a project.
package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/panbanda/mondrian/internal/vcs"
	"github.com/panbanda/mondrian/pkg/config"
	"github.com/panbanda/mondrian/pkg/parser"
)

// PathError records a requested path that could not be scanned.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// Scanner finds PHP source files.
type Scanner struct {
	config   *config.Config
	matchers []gitignore.Matcher
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// findGitRoot finds the root of the git repository by looking for .git directory.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return ""
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadExcludePatterns compiles config exclude patterns and, when enabled,
// every .gitignore of the enclosing repository into one matcher.
func (s *Scanner) loadExcludePatterns(root string) {
	s.matchers = s.matchers[:0]

	var patterns []gitignore.Pattern
	for _, pattern := range s.config.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}

	if s.config.Exclude.Gitignore {
		if gitRoot := findGitRoot(root); gitRoot != "" {
			if gitPatterns, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil); err == nil {
				// patterns are read relative to the git root, paths are
				// matched relative to root
				if absRoot, err := filepath.Abs(root); err == nil {
					if rel, err := filepath.Rel(gitRoot, absRoot); err == nil && rel != "." {
						s.matchers = append(s.matchers, prefixedMatcher{
							prefix:  splitPath(rel),
							matcher: gitignore.NewMatcher(gitPatterns),
						})
						gitPatterns = nil
					}
				}
				patterns = append(patterns, gitPatterns...)
			}
		}
	}

	if len(patterns) > 0 {
		s.matchers = append(s.matchers, gitignore.NewMatcher(patterns))
	}
}

// prefixedMatcher matches paths relative to a subdirectory of the
// repository against patterns read at the repository root.
type prefixedMatcher struct {
	prefix  []string
	matcher gitignore.Matcher
}

func (m prefixedMatcher) Match(p []string, isDir bool) bool {
	full := make([]string, 0, len(m.prefix)+len(p))
	full = append(full, m.prefix...)
	full = append(full, p...)
	return m.matcher.Match(full, isDir)
}

func splitPath(rel string) []string {
	return strings.Split(filepath.ToSlash(rel), "/")
}

// isExcluded checks a path relative to the scan root.
func (s *Scanner) isExcluded(rel string, isDir bool) bool {
	if isDir {
		base := path.Base(filepath.ToSlash(rel))
		for _, dir := range s.config.Exclude.Dirs {
			if base == dir {
				return true
			}
		}
	} else if s.config.ShouldExclude(rel) {
		return true
	}

	parts := splitPath(rel)
	for _, m := range s.matchers {
		if m.Match(parts, isDir) {
			return true
		}
	}
	return false
}

// ScanDir recursively scans a directory for PHP files, in lexical order.
// Symlinks that resolve outside the root are skipped.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	files := make([]string, 0, 256)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadExcludePatterns(root)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, _ := filepath.Rel(root, path)
		if relPath == "." {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				return nil
			}
		}

		if d.IsDir() {
			if s.isExcluded(relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.isExcluded(relPath, false) {
			return nil
		}
		if parser.DetectLanguage(path) == parser.LangPHP {
			files = append(files, path)
		}
		return nil
	})

	return files, walkErr
}

// isWithinRoot checks if a path is contained within the root directory.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// ScanFile checks if a single file should be analyzed.
func (s *Scanner) ScanFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if s.config.ShouldExclude(filepath.Base(path)) {
		return false, nil
	}
	return parser.DetectLanguage(path) == parser.LangPHP, nil
}

// ScanPaths expands files and directories into the PHP files to analyze.
// The result keeps the order of paths, directories expanding in lexical
// order, and drops duplicates. Paths that cannot be read are reported as
// *PathError values joined into the returned error; the files found in the
// remaining paths are still returned.
func (s *Scanner) ScanPaths(paths []string) ([]string, error) {
	var (
		files []string
		errs  []error
		seen  = make(map[string]bool)
	)
	add := func(f string) {
		key := filepath.Clean(f)
		if !seen[key] {
			seen[key] = true
			files = append(files, f)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			errs = append(errs, &PathError{Path: p, Err: err})
			continue
		}
		if !info.IsDir() {
			ok, err := s.ScanFile(p)
			if err != nil {
				errs = append(errs, &PathError{Path: p, Err: err})
			} else if ok {
				add(p)
			}
			continue
		}
		found, err := s.ScanDir(p)
		if err != nil {
			errs = append(errs, &PathError{Path: p, Err: err})
		}
		for _, f := range found {
			add(f)
		}
	}
	return files, errors.Join(errs...)
}

// ScanTree lists the PHP files of a git tree under the given
// slash-separated prefixes (all files when none). Exclusions and the
// maximum file size apply as for the working tree. The result is sorted.
func (s *Scanner) ScanTree(tree vcs.Tree, prefixes []string) ([]string, error) {
	entries, err := tree.Entries()
	if err != nil {
		return nil, err
	}

	s.matchers = s.matchers[:0]
	var patterns []gitignore.Pattern
	for _, pattern := range s.config.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}
	if len(patterns) > 0 {
		s.matchers = append(s.matchers, gitignore.NewMatcher(patterns))
	}

	maxSize := s.config.Analysis.MaxFileSize
	var files []string
	for _, e := range entries {
		if parser.DetectLanguage(e.Path) != parser.LangPHP || !underAny(e.Path, prefixes) {
			continue
		}
		if maxSize > 0 && e.Size > maxSize {
			continue
		}
		if s.inExcludedDir(e.Path) || s.isExcluded(e.Path, false) {
			continue
		}
		files = append(files, e.Path)
	}
	sort.Strings(files)
	return files, nil
}

func (s *Scanner) inExcludedDir(p string) bool {
	dir := path.Dir(p)
	for dir != "." && dir != "/" {
		if s.isExcluded(dir, true) {
			return true
		}
		dir = path.Dir(dir)
	}
	return false
}

func underAny(p string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, prefix := range prefixes {
		prefix = strings.Trim(path.Clean(filepath.ToSlash(prefix)), "/")
		if prefix == "" || prefix == "." || p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}

// FilterBySize filters files that exceed the configured maximum size.
// Returns the filtered list and the count of files that were skipped.
// If maxSize is 0, returns the original list unchanged.
func FilterBySize(files []string, maxSize int64) ([]string, int) {
	if maxSize <= 0 {
		return files, 0
	}

	filtered := make([]string, 0, len(files))
	skipped := 0
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil || info.Size() > maxSize {
			skipped++
			continue
		}
		filtered = append(filtered, f)
	}
	return filtered, skipped
}
