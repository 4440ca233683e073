// Package source abstracts where analysed file contents come from.
package source

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/panbanda/mondrian/internal/vcs"
)

// ContentSource provides file content from a specific source.
type ContentSource interface {
	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
}

// FilesystemSource reads files from the local filesystem.
type FilesystemSource struct{}

// NewFilesystem creates a source that reads from the filesystem.
func NewFilesystem() *FilesystemSource {
	return &FilesystemSource{}
}

// Read implements ContentSource.
func (f *FilesystemSource) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// TreeSource reads files from a git tree. Paths are relative to the
// repository root; absolute paths under root are accepted too.
// It is safe for concurrent use by multiple goroutines.
type TreeSource struct {
	tree vcs.Tree
	root string
	mu   sync.Mutex
}

// NewTree creates a source that reads from a git tree of the repository
// checked out at root.
func NewTree(tree vcs.Tree, root string) *TreeSource {
	return &TreeSource{tree: tree, root: root}
}

// Read implements ContentSource.
func (t *TreeSource) Read(path string) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tree.File(t.rel(path))
}

func (t *TreeSource) rel(path string) string {
	if t.root != "" && filepath.IsAbs(path) {
		if rel, err := filepath.Rel(t.root, path); err == nil && !strings.HasPrefix(rel, "..") {
			path = rel
		}
	}
	return filepath.ToSlash(path)
}
