package workspace

import (
	"context"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/agent-backplane/abp/abperrors"
)

// DiffSummary classifies a post-run workspace diff against its baseline commit.
type DiffSummary struct {
	Added          []string
	Modified       []string
	Deleted        []string
	TotalAdditions int
	TotalDeletions int
}

// IsEmpty reports whether no file-level changes were detected.
func (s DiffSummary) IsEmpty() bool {
	return len(s.Added) == 0 && len(s.Modified) == 0 && len(s.Deleted) == 0
}

// FileCount returns the total number of files touched.
func (s DiffSummary) FileCount() int {
	return len(s.Added) + len(s.Modified) + len(s.Deleted)
}

// TotalChanges returns the total line-level changes (additions + deletions).
func (s DiffSummary) TotalChanges() int {
	return s.TotalAdditions + s.TotalDeletions
}

// DiffWorkspace stages every change in p (via `git add -A`) then classifies
// it by running `git diff --cached --name-status` and
// `git diff --cached --numstat`. p must be a git repository; a staged
// workspace from Manager.Prepare always is.
func DiffWorkspace(p *Prepared) (DiffSummary, error) {
	ctx := context.Background()
	if err := runGit(ctx, p.Path(), "add", "-A"); err != nil {
		return DiffSummary{}, abperrors.Wrap(abperrors.WorkspaceStagingFailed, "git add -A", err)
	}

	nameStatus, err := gitOutput(ctx, p.Path(), "diff", "--cached", "--name-status")
	if err != nil {
		return DiffSummary{}, abperrors.Wrap(abperrors.WorkspaceStagingFailed, "git diff --name-status", err)
	}
	numstat, err := gitOutput(ctx, p.Path(), "diff", "--cached", "--numstat")
	if err != nil {
		return DiffSummary{}, abperrors.Wrap(abperrors.WorkspaceStagingFailed, "git diff --numstat", err)
	}

	var summary DiffSummary
	for _, line := range strings.Split(nameStatus, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		statusCode, path, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		switch statusCode[0] {
		case 'A':
			summary.Added = append(summary.Added, path)
		case 'M':
			summary.Modified = append(summary.Modified, path)
		case 'D':
			summary.Deleted = append(summary.Deleted, path)
		default:
			summary.Modified = append(summary.Modified, path)
		}
	}

	for _, line := range strings.Split(numstat, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) < 3 {
			continue
		}
		if parts[0] == "-" || parts[1] == "-" {
			continue
		}
		added, errA := strconv.Atoi(parts[0])
		deleted, errD := strconv.Atoi(parts[1])
		if errA == nil && errD == nil {
			summary.TotalAdditions += added
			summary.TotalDeletions += deleted
		}
	}

	sort.Strings(summary.Added)
	sort.Strings(summary.Modified)
	sort.Strings(summary.Deleted)

	return summary, nil
}

func runGit(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return abperrors.Newf(abperrors.WorkspaceStagingFailed, "git %s failed: %s", strings.Join(args, " "), strings.TrimSpace(string(out)))
	}
	return nil
}

func gitOutput(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", abperrors.Newf(abperrors.WorkspaceStagingFailed, "git %s failed", strings.Join(args, " "))
	}
	return string(out), nil
}
