package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
)

func TestSeedGitRepo(t *testing.T) {
	dir, commit := SeedGitRepo(t, map[string]string{
		"coroutine.h":      "#pragma once\n",
		"detail/channel.h":  "#pragma once\n",
	})

	if _, err := os.Stat(filepath.Join(dir, "detail", "channel.h")); err != nil {
		t.Fatalf("expected committed file: %v", err)
	}
	repo, err := git.PlainOpen(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	head, err := repo.Head()
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.Hash().String() != commit {
		t.Errorf("HEAD = %s, want %s", head.Hash(), commit)
	}
}
