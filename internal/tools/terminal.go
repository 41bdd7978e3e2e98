package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Terminal executes commands with allow/deny checks and a hard timeout.
type Terminal struct {
	WorkingDir     string
	Allowed        []string
	Denied         []string
	Timeout        time.Duration
	AllowExecution bool
}

// ExecResult carries output and status code.
type ExecResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}

// Exec runs a command if allowed by configuration. A non-zero exit is not
// an error here; the result carries the code and the model decides what
// to do with it. Timeouts and policy violations are errors.
func (t *Terminal) Exec(ctx context.Context, command string, args ...string) (ExecResult, error) {
	if !t.AllowExecution {
		return ExecResult{}, NewError(KindAccessDenied, "terminal.exec", "execution disabled by configuration")
	}
	if command == "" {
		return ExecResult{}, NewError(KindInvalidArguments, "terminal.exec", "command is required")
	}
	if err := t.validateCommand(command); err != nil {
		return ExecResult{}, err
	}

	timeout := t.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, command, args...)
	if t.WorkingDir != "" {
		cmd.Dir = t.WorkingDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	res := ExecResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if ctx.Err() != nil {
		return res, NewError(KindTimeout, "terminal.exec",
			fmt.Sprintf("command %q timed out after %s", command, timeout))
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.ExitCode = 0
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		return res, WrapError("terminal.exec", err)
	}

	return res, nil
}

func (t *Terminal) validateCommand(cmd string) error {
	lower := strings.ToLower(cmd)
	for _, deny := range t.Denied {
		if lower == strings.ToLower(deny) {
			return NewError(KindAccessDenied, "terminal.exec", fmt.Sprintf("command %q is denied", cmd))
		}
	}
	if len(t.Allowed) > 0 {
		for _, allow := range t.Allowed {
			if lower == strings.ToLower(allow) {
				return nil
			}
		}
		return NewError(KindAccessDenied, "terminal.exec", fmt.Sprintf("command %q is not in allowlist", cmd))
	}
	return nil
}
