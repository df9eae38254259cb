// Package git collects best-effort repository metadata for report
// artifacts. A target that is not a git repository yields empty metadata,
// never an error surfaced to the run.
package git

import (
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
)

// Metadata describes the repository state of a scan target.
type Metadata struct {
	Branch     string
	CommitHash string
	RemoteURL  string
}

// CollectMetadata opens the repository containing target (walking up to the
// repository root) and reads branch, HEAD commit and origin URL.
func CollectMetadata(target string) Metadata {
	var md Metadata

	root, ok := findRepositoryRoot(target)
	if !ok {
		return md
	}

	repo, err := gogit.PlainOpen(root)
	if err != nil {
		return md
	}

	if head, err := repo.Head(); err == nil {
		if head.Name().IsBranch() {
			md.Branch = head.Name().Short()
		}
		md.CommitHash = head.Hash().String()
	}

	if remote, err := repo.Remote("origin"); err == nil {
		if cfg := remote.Config(); cfg != nil && len(cfg.URLs) > 0 {
			md.RemoteURL = strings.TrimSuffix(cfg.URLs[0], ".git")
		}
	}

	return md
}

// findRepositoryRoot walks up from path looking for a .git directory.
func findRepositoryRoot(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}

	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		abs = filepath.Dir(abs)
	}

	for {
		if _, err := os.Stat(filepath.Join(abs, ".git")); err == nil {
			return abs, true
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", false
		}
		abs = parent
	}
}
