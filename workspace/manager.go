// Package workspace prepares a work order's workspace tree (either used
// pass-through or staged into a sanitized temporary copy), captures git
// status/diff against that tree, and offers snapshot/compare and template
// utilities for workspace content.
package workspace

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/agent-backplane/abp/abperrors"
	"github.com/agent-backplane/abp/contract"
)

// Prepared is a workspace ready for a run: either the caller's own tree
// (pass-through) or a freshly staged temporary copy.
type Prepared struct {
	path   string
	staged bool
}

// Path returns the absolute path a backend should operate in.
func (p *Prepared) Path() string { return p.path }

// Staged reports whether this workspace is a temporary staged copy.
func (p *Prepared) Staged() bool { return p.staged }

// Cleanup removes the staged temporary directory. It is a no-op for
// pass-through workspaces.
func (p *Prepared) Cleanup() error {
	if !p.staged {
		return nil
	}
	return os.RemoveAll(p.path)
}

// Manager prepares workspaces according to a WorkspaceSpec.
type Manager struct{}

// NewManager returns a ready-to-use Manager.
func NewManager() *Manager { return &Manager{} }

// Prepare realizes spec into a Prepared workspace: pass-through uses the
// root path as-is, staged copies the filtered source tree into a fresh
// temp directory and initializes a git repository with one baseline commit.
func (m *Manager) Prepare(spec contract.WorkspaceSpec) (*Prepared, error) {
	switch spec.Mode {
	case contract.WorkspacePassThrough:
		return &Prepared{path: spec.Root}, nil

	case contract.WorkspaceStaged:
		dest, err := os.MkdirTemp("", "abp-workspace-")
		if err != nil {
			return nil, abperrors.Wrap(abperrors.WorkspaceInitFailed, "create staging dir", err)
		}
		rules, err := NewIncludeExcludeGlobs(spec.Include, spec.Exclude)
		if err != nil {
			os.RemoveAll(dest)
			return nil, abperrors.Wrap(abperrors.WorkspaceInitFailed, "compile include/exclude globs", err)
		}
		if err := copyWorkspace(spec.Root, dest, rules); err != nil {
			os.RemoveAll(dest)
			return nil, abperrors.Wrap(abperrors.WorkspaceStagingFailed, "stage workspace", err)
		}
		if err := ensureGitRepo(dest); err != nil {
			os.RemoveAll(dest)
			return nil, abperrors.Wrap(abperrors.WorkspaceStagingFailed, "initialize git repo", err)
		}
		return &Prepared{path: dest, staged: true}, nil

	default:
		return nil, abperrors.Newf(abperrors.WorkspaceInitFailed, "unknown workspace mode: %s", spec.Mode)
	}
}

func copyWorkspace(srcRoot, destRoot string, rules *IncludeExcludeGlobs) error {
	return filepath.WalkDir(srcRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Name() == ".git" {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(srcRoot, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		relSlash := filepath.ToSlash(rel)
		if !rules.Allowed(relSlash) {
			// A directory that doesn't itself match an include pattern like
			// "src/**" (which matches files under src, not "src" alone) may
			// still contain files that do; keep walking into it, just don't
			// create it here (copying a matched file below creates its
			// parent directories as needed).
			return nil
		}

		destPath := filepath.Join(destRoot, rel)
		if d.IsDir() {
			return os.MkdirAll(destPath, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return err
		}
		return copyFile(path, destPath)
	})
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, info.Mode().Perm())
}

func ensureGitRepo(path string) error {
	if _, err := os.Stat(filepath.Join(path, ".git")); err == nil {
		return nil
	}
	ctx := context.Background()
	for _, args := range [][]string{
		{"init"},
		{"add", "-A"},
		{"-c", "user.email=abp@localhost", "-c", "user.name=abp", "commit", "-m", "initial workspace snapshot", "--allow-empty"},
	} {
		cmd := exec.CommandContext(ctx, "git", args...)
		cmd.Dir = path
		if out, err := cmd.CombinedOutput(); err != nil {
			return abperrors.Wrap(abperrors.WorkspaceStagingFailed, strings.TrimSpace(string(out)), err)
		}
	}
	return nil
}

// GitStatus returns `git status --porcelain` output for path, or "" if the
// command fails (e.g. the path is not a git repository).
func GitStatus(path string) (string, bool) {
	cmd := exec.CommandContext(context.Background(), "git", "status", "--porcelain")
	cmd.Dir = path
	out, err := cmd.Output()
	if err != nil {
		return "", false
	}
	return string(out), true
}

// GitDiff returns `git diff` output for path, or "" if the command fails.
func GitDiff(path string) (string, bool) {
	cmd := exec.CommandContext(context.Background(), "git", "diff")
	cmd.Dir = path
	out, err := cmd.Output()
	if err != nil {
		return "", false
	}
	return string(out), true
}
