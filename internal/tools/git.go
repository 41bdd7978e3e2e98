package tools

import (
	"bytes"
	"os/exec"
	"strings"
)

// GitTool provides read-mostly git operations. Patch application defaults
// to dry-run so the model validates before it mutates.
type GitTool struct {
	WorkingDir string
	AllowExec  bool
	DryRunOnly bool
}

// Status returns git status --short.
func (g *GitTool) Status() (string, error) {
	if !g.AllowExec {
		return "", NewError(KindAccessDenied, "git.status", "git operations disabled")
	}
	return g.run(nil, "status", "--short")
}

// Diff returns the working tree diff, optionally limited to a path.
func (g *GitTool) Diff(path string) (string, error) {
	if !g.AllowExec {
		return "", NewError(KindAccessDenied, "git.diff", "git operations disabled")
	}
	args := []string{"diff"}
	if path != "" {
		args = append(args, "--", path)
	}
	return g.run(nil, args...)
}

// ApplyPatch applies a unified diff; with dryRun it only validates via
// --check. When the tool is configured dry-run-only, real application is
// refused.
func (g *GitTool) ApplyPatch(patch string, dryRun bool) (string, error) {
	if !g.AllowExec {
		return "", NewError(KindAccessDenied, "git.apply_patch", "git operations disabled")
	}
	if strings.TrimSpace(patch) == "" {
		return "", NewError(KindInvalidArguments, "git.apply_patch", "patch is required")
	}
	if g.DryRunOnly && !dryRun {
		return "", NewError(KindAccessDenied, "git.apply_patch", "apply_patch is restricted to dry-run mode")
	}

	args := []string{"apply"}
	if dryRun {
		args = append(args, "--check")
	}
	args = append(args, "-")
	out, err := g.run(strings.NewReader(patch), args...)
	if err != nil {
		return out, err
	}
	if dryRun && out == "" {
		out = "patch applies cleanly"
	}
	return out, nil
}

func (g *GitTool) run(stdin *strings.Reader, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	if g.WorkingDir != "" {
		cmd.Dir = g.WorkingDir
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != nil {
		cmd.Stdin = stdin
	}

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return stderr.String(), NewError(KindInternal, "git", msg)
	}
	return stdout.String(), nil
}
