// Package vcs reads source trees out of git revisions.
package vcs

import (
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrRevisionNotFound is returned when a revision does not resolve to a commit.
var ErrRevisionNotFound = errors.New("revision not found")

// TreeEntry is a file in a git tree.
type TreeEntry struct {
	Path string
	Size int64
}

// Tree is the file tree of one commit.
type Tree interface {
	// Hash returns the commit hash the tree belongs to.
	Hash() string
	// Entries returns all files in the tree (recursively), sorted by path.
	Entries() ([]TreeEntry, error)
	// File returns the content of the file at the slash-separated path.
	File(path string) ([]byte, error)
}

// Repository provides access to the revisions of a git repository.
type Repository interface {
	// Resolve returns the tree of the commit rev names (branch, tag, hash,
	// HEAD~2 ...).
	Resolve(rev string) (Tree, error)
	// Root returns the working tree root of the repository.
	Root() string
}

// Opener opens git repositories.
type Opener interface {
	// PlainOpen opens a git repository, detecting .git in parent directories.
	PlainOpen(path string) (Repository, error)
}

// GitOpener opens git repositories using go-git.
type GitOpener struct{}

// NewGitOpener creates a new GitOpener.
func NewGitOpener() *GitOpener {
	return &GitOpener{}
}

// PlainOpen implements Opener.
func (o *GitOpener) PlainOpen(dir string) (Repository, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", dir, err)
	}
	root := dir
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	return &gitRepository{repo: repo, root: root}, nil
}

// gitRepository wraps go-git Repository.
type gitRepository struct {
	repo *git.Repository
	root string
}

func (r *gitRepository) Root() string {
	return r.root
}

func (r *gitRepository) Resolve(rev string) (Tree, error) {
	if rev == "" {
		rev = "HEAD"
	}
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRevisionNotFound, rev, err)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRevisionNotFound, rev, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("read tree of %s: %w", rev, err)
	}
	return &gitTree{tree: tree, hash: commit.Hash.String()}, nil
}

// gitTree wraps go-git Tree.
type gitTree struct {
	tree *object.Tree
	hash string
}

func (t *gitTree) Hash() string {
	return t.hash
}

func (t *gitTree) Entries() ([]TreeEntry, error) {
	var entries []TreeEntry
	iter := t.tree.Files()
	defer iter.Close()
	err := iter.ForEach(func(f *object.File) error {
		entries = append(entries, TreeEntry{Path: f.Name, Size: f.Size})
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func (t *gitTree) File(name string) ([]byte, error) {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	f, err := t.tree.File(name)
	if err != nil {
		return nil, fmt.Errorf("%s@%s: %w", name, shortHash(t.hash), err)
	}
	content, err := f.Contents()
	if err != nil {
		return nil, err
	}
	return []byte(content), nil
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}

// Default opener singleton
var defaultOpener Opener = NewGitOpener()

// DefaultOpener returns the default git opener.
func DefaultOpener() Opener {
	return defaultOpener
}

// SetDefaultOpener sets the default git opener (useful for testing).
func SetDefaultOpener(opener Opener) {
	defaultOpener = opener
}
