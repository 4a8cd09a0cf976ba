package core

import (
	"errors"
	"fmt"
)

// CodedError is implemented by domain errors that carry a machine-readable code.
type CodedError interface {
	error
	ErrorCode() string
}

// PathNotFoundError reports a target path that does not exist. It is raised
// before any child process is spawned.
type PathNotFoundError struct {
	Path string
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("Path '%s' does not exist", e.Path)
}

func (e *PathNotFoundError) ErrorCode() string { return "path_not_found" }

// LaunchError reports a child process that could not be started at all
// (executable missing, permission denied). Distinct from a child that ran and
// exited non-zero, which is data rather than an error.
type LaunchError struct {
	Tool string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Tool, e.Err)
}

func (e *LaunchError) ErrorCode() string { return "launch_failed" }

func (e *LaunchError) Unwrap() error { return e.Err }

// ExecError reports a tool that ran but exited outside its routine exit-code
// set (for mypy and flake8, anything above 1).
type ExecError struct {
	Tool     string
	ExitCode int
	Stderr   string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Tool, e.Stderr)
}

func (e *ExecError) ErrorCode() string { return "tool_execution_failed" }

// Code returns the machine-readable code for err, or "unhandled_fault" when
// err carries none. Used for telemetry status labels and structured logs.
func Code(err error) string {
	var coded CodedError
	if errors.As(err, &coded) {
		return coded.ErrorCode()
	}
	return "unhandled_fault"
}
