package proc

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/synca/py-mcp-server/internal/core"
)

func TestExecuteCapturesStdout(t *testing.T) {
	runner := NewRunner(Config{})
	res, err := runner.Execute(context.Background(), Command{
		Path: "sh", Args: []string{"-c", "echo out; echo err >&2"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 0 {
		t.Fatalf("expected exit 0, got %d", res.ExitCode)
	}
	if res.Stdout != "out\n" {
		t.Fatalf("unexpected stdout: %q", res.Stdout)
	}
	if res.Stderr != "err\n" {
		t.Fatalf("unexpected stderr: %q", res.Stderr)
	}
}

// Non-zero exit codes are data, not errors.
func TestExecuteNonZeroExit(t *testing.T) {
	runner := NewRunner(Config{})
	res, err := runner.Execute(context.Background(), Command{
		Path: "sh", Args: []string{"-c", "exit 3"},
	})
	if err != nil {
		t.Fatalf("expected exit code as data, got error: %v", err)
	}
	if res.ExitCode != 3 {
		t.Fatalf("expected exit 3, got %d", res.ExitCode)
	}
}

func TestExecuteMissingBinary(t *testing.T) {
	runner := NewRunner(Config{})
	_, err := runner.Execute(context.Background(), Command{Path: "definitely-not-a-binary-9f2c"})
	if err == nil {
		t.Fatal("expected a launch error")
	}
	var launchErr *core.LaunchError
	if !errors.As(err, &launchErr) {
		t.Fatalf("expected *core.LaunchError, got %T: %v", err, err)
	}
	if launchErr.ErrorCode() != "launch_failed" {
		t.Fatalf("unexpected code: %q", launchErr.ErrorCode())
	}
}

func TestExecuteHonoursDir(t *testing.T) {
	dir := t.TempDir()
	runner := NewRunner(Config{})
	res, err := runner.Execute(context.Background(), Command{
		Path: "pwd", Dir: dir,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != dir {
		t.Fatalf("expected cwd %q, got %q", dir, res.Stdout)
	}
}

func TestExecuteCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner := NewRunner(Config{})
	res, err := runner.Execute(ctx, Command{Path: "sh", Args: []string{"-c", "sleep 30"}})
	if err == nil {
		t.Fatal("expected an error for a cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}
	if res.ExitCode != -1 {
		t.Fatalf("expected exit -1, got %d", res.ExitCode)
	}
}

func TestExecuteTruncatesOutput(t *testing.T) {
	runner := NewRunner(Config{MaxOutputBytes: 16})
	res, err := runner.Execute(context.Background(), Command{
		Path: "sh", Args: []string{"-c", "printf '%0.s-' $(seq 1 64)"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.StdoutTruncated {
		t.Fatal("expected stdout to be marked truncated")
	}
	if !strings.HasSuffix(res.Stdout, "... [output truncated]") {
		t.Fatalf("expected truncation marker, got %q", res.Stdout)
	}
	if res.StderrTruncated {
		t.Fatal("stderr was empty and must not be marked truncated")
	}
}

func TestCommandString(t *testing.T) {
	cmd := Command{Path: "pytest", Args: []string{"-v", "--cov"}}
	if got := cmd.String(); got != "pytest -v --cov" {
		t.Fatalf("unexpected string: %q", got)
	}
}

func TestCombinedOrder(t *testing.T) {
	res := Result{Stdout: "A", Stderr: "B"}
	if got := res.Combined(); got != "A\nB" {
		t.Fatalf("unexpected combined output: %q", got)
	}
}
