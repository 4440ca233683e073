package vcs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// commitFiles writes files into the worktree of repo and commits them.
func commitFiles(t *testing.T, repo *git.Repository, root string, files map[string]string, msg string) {
	t.Helper()
	w, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := w.Add(filepath.ToSlash(name)); err != nil {
			t.Fatal(err)
		}
	}
	_, err = w.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func initTestRepoWithHistory(t *testing.T) string {
	t.Helper()
	repoPath := t.TempDir()
	repo, err := git.PlainInit(repoPath, false)
	if err != nil {
		t.Fatalf("Failed to init repo: %v", err)
	}
	commitFiles(t, repo, repoPath, map[string]string{
		"src/A.php": "<?php class A {}\n",
	}, "Initial commit")
	commitFiles(t, repo, repoPath, map[string]string{
		"src/A.php": "<?php class A extends B {}\n",
		"src/B.php": "<?php class B {}\n",
	}, "Second commit")
	return repoPath
}

func TestGitOpener_PlainOpen_NonExistent(t *testing.T) {
	_, err := NewGitOpener().PlainOpen(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("PlainOpen() should return error for a directory outside any repository")
	}
}

func TestGitOpener_DetectsParentRepository(t *testing.T) {
	repoPath := initTestRepoWithHistory(t)

	repo, err := NewGitOpener().PlainOpen(filepath.Join(repoPath, "src"))
	if err != nil {
		t.Fatalf("PlainOpen() error = %v", err)
	}
	if repo.Root() != repoPath {
		t.Errorf("Root() = %q, want %q", repo.Root(), repoPath)
	}
}

func TestResolve_Head(t *testing.T) {
	repo, err := NewGitOpener().PlainOpen(initTestRepoWithHistory(t))
	if err != nil {
		t.Fatal(err)
	}

	tree, err := repo.Resolve("")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(tree.Hash()) != 40 {
		t.Errorf("Hash() = %q, want a full sha", tree.Hash())
	}

	entries, err := tree.Entries()
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if len(entries) != 2 || entries[0].Path != "src/A.php" || entries[1].Path != "src/B.php" {
		t.Errorf("Entries() = %+v", entries)
	}

	content, err := tree.File("src/A.php")
	if err != nil {
		t.Fatalf("File() error = %v", err)
	}
	if string(content) != "<?php class A extends B {}\n" {
		t.Errorf("File() = %q", content)
	}
}

func TestResolve_Ancestor(t *testing.T) {
	repo, err := NewGitOpener().PlainOpen(initTestRepoWithHistory(t))
	if err != nil {
		t.Fatal(err)
	}

	tree, err := repo.Resolve("HEAD~1")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	entries, err := tree.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("Entries() at HEAD~1 = %+v, want one file", entries)
	}
	content, err := tree.File("/src/A.php")
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "<?php class A {}\n" {
		t.Errorf("File() = %q", content)
	}
	if _, err := tree.File("src/B.php"); err == nil {
		t.Error("File() should fail for a file added later")
	}
}

func TestResolve_UnknownRevision(t *testing.T) {
	repo, err := NewGitOpener().PlainOpen(initTestRepoWithHistory(t))
	if err != nil {
		t.Fatal(err)
	}
	_, err = repo.Resolve("no-such-branch")
	if !errors.Is(err, ErrRevisionNotFound) {
		t.Errorf("Resolve() error = %v, want ErrRevisionNotFound", err)
	}
}

func TestDefaultOpener(t *testing.T) {
	orig := DefaultOpener()
	defer SetDefaultOpener(orig)

	custom := NewGitOpener()
	SetDefaultOpener(custom)
	if DefaultOpener() != Opener(custom) {
		t.Error("SetDefaultOpener() did not replace the default")
	}
}
