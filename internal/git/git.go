package git

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
)

// Exposure describes how git sees the vault file
type Exposure struct {
	IsRepo  bool
	Tracked bool
	Ignored bool
}

// Available reports whether a git binary is on PATH
func Available() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// IsGitRepo checks if dir is inside a git work tree
func IsGitRepo(ctx context.Context, dir string) bool {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = dir
	return cmd.Run() == nil
}

// IsTracked checks if a file is tracked by git
func IsTracked(ctx context.Context, dir, name string) bool {
	cmd := exec.CommandContext(ctx, "git", "ls-files", "--", name)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return false
	}
	return len(strings.TrimSpace(string(output))) > 0
}

// IsIgnored checks if a file is ignored by any .gitignore
func IsIgnored(ctx context.Context, dir, name string) bool {
	cmd := exec.CommandContext(ctx, "git", "check-ignore", "-q", "--", name)
	cmd.Dir = dir
	// exit code 0 means ignored
	return cmd.Run() == nil
}

// CheckVault inspects the vault file at path. Without git installed, or once
// ctx is done, the result reports no repository.
func CheckVault(ctx context.Context, path string) *Exposure {
	e := &Exposure{}
	if !Available() {
		return e
	}

	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	if !IsGitRepo(ctx, dir) {
		return e
	}

	e.IsRepo = true
	e.Tracked = IsTracked(ctx, dir, name)
	e.Ignored = IsIgnored(ctx, dir, name)
	return e
}

// Warning returns a user-facing line when the vault is at risk, or ""
func (e *Exposure) Warning(path string) string {
	switch {
	case !e.IsRepo:
		return ""
	case e.Tracked:
		return "error: vault file is tracked by git (run: git rm --cached " + path + ")"
	case !e.Ignored:
		return "warning: vault file is inside a git repository and not in .gitignore"
	default:
		return ""
	}
}
