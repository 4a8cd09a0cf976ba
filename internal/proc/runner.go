// Package proc spawns external developer tools and captures their output.
package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/synca/py-mcp-server/internal/core"
)

// Command describes a single child-process invocation. It is built once per
// invocation and never mutated afterwards.
type Command struct {
	Path string
	Args []string
	Dir  string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// Result holds the captured streams and exit code of one finished child.
// A non-zero exit code is data, not a fault.
type Result struct {
	Stdout          string
	Stderr          string
	ExitCode        int
	StdoutTruncated bool
	StderrTruncated bool
}

// Combined returns stdout and stderr joined in the fixed order parsers rely
// on, regardless of how the child interleaved its writes at the OS level.
func (r Result) Combined() string {
	return r.Stdout + "\n" + r.Stderr
}

type Config struct {
	MaxOutputBytes int
}

// Runner executes commands to completion. It is stateless and safe for
// concurrent use; every call spawns its own independent child process.
type Runner struct {
	cfg Config
}

func NewRunner(cfg Config) *Runner {
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = 1 << 20
	}
	return &Runner{cfg: cfg}
}

// Execute runs cmd and blocks until the child has exited and both output
// streams are fully drained. No timeout is imposed here: cancelling ctx is
// the caller's termination hook and kills the child. A failure to start the
// child is returned as a *core.LaunchError; exit codes are never errors.
func (r *Runner) Execute(ctx context.Context, cmd Command) (Result, error) {
	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir

	// Separate buffer per stream; os/exec drains each pipe on its own
	// goroutine, so a child writing large volumes to both cannot deadlock.
	var stdoutBuf, stderrBuf bytes.Buffer
	c.Stdout = &stdoutBuf
	c.Stderr = &stderrBuf

	runErr := c.Run()

	var res Result
	res.Stdout, res.StdoutTruncated = truncateOutput(stdoutBuf.String(), r.cfg.MaxOutputBytes)
	res.Stderr, res.StderrTruncated = truncateOutput(stderrBuf.String(), r.cfg.MaxOutputBytes)

	if runErr == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		res.ExitCode = -1
		return res, fmt.Errorf("%s interrupted: %w", cmd.Path, ctx.Err())
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	res.ExitCode = -1
	return res, &core.LaunchError{Tool: cmd.Path, Err: runErr}
}

func truncateOutput(s string, limit int) (string, bool) {
	if len(s) <= limit {
		return s, false
	}
	return s[:limit] + "\n... [output truncated]", true
}
