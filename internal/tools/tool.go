// Package tools exposes pytest, mypy and flake8 as structured operations
// with a uniform result envelope.
package tools

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/synca/py-mcp-server/internal/core"
	"github.com/synca/py-mcp-server/internal/proc"
	"github.com/synca/py-mcp-server/internal/telemetry"
)

// Request carries the caller-supplied inputs for one invocation. ExtraArgs
// always follow built-in flags, so callers can override them where the
// underlying tool uses last-wins flag semantics.
type Request struct {
	Path      string
	ExtraArgs []string

	// pytest
	Verbose        bool
	Coverage       bool
	CoverageSource string

	// mypy
	DisallowUntypedDefs    bool
	DisallowIncompleteDefs bool
	Exclude                []string

	// flake8
	MaxLineLength int
}

// Tool is implemented once per external tool: it builds the command for a
// request and interprets the captured output under that tool's exit-code
// semantics. Implementations are stateless and safe for concurrent use.
type Tool interface {
	Name() string
	Command(req Request) proc.Command
	Interpret(req Request, res proc.Result) (*core.ToolData, error)
}

// Runner abstracts proc.Runner so tool pipelines can be tested without
// spawning processes.
type Runner interface {
	Execute(ctx context.Context, cmd proc.Command) (proc.Result, error)
}

// Run drives one invocation through the shared pipeline: validate the target
// path, build the command, execute it, interpret the output, and wrap the
// outcome in an Envelope. Nothing escapes as a panic or returned error; all
// failures degrade to an unsuccessful Envelope.
func Run(ctx context.Context, runner Runner, tool Tool, req Request) (env core.Envelope) {
	defer func() {
		if rec := recover(); rec != nil {
			env = failure(tool, fmt.Errorf("%v", rec))
		}
	}()

	if _, err := os.Stat(req.Path); err != nil {
		return failure(tool, &core.PathNotFoundError{Path: req.Path})
	}

	res, err := runner.Execute(ctx, tool.Command(req))
	if err != nil {
		return failure(tool, err)
	}

	data, err := tool.Interpret(req, res)
	if err != nil {
		return failure(tool, err)
	}
	data.ProjectPath = req.Path
	data.HasIssues = data.IssuesCount > 0
	return core.Envelope{Success: true, Data: data}
}

// failure converts any pipeline error into an unsuccessful envelope. Coded
// errors surface their own message; anything else gets the uniform
// "Failed to run <tool>" wrapping.
func failure(tool Tool, err error) core.Envelope {
	var launchErr *core.LaunchError
	if errors.As(err, &launchErr) {
		telemetry.IncLaunchFailure(tool.Name())
	}

	var coded core.CodedError
	msg := fmt.Sprintf("Failed to run %s: %v", tool.Name(), err)
	if errors.As(err, &coded) {
		msg = coded.Error()
	}
	return core.Envelope{Success: false, Error: msg}
}

// Set bundles the three tool implementations configured with their
// executable paths.
type Set struct {
	Pytest *PytestTool
	Mypy   *MypyTool
	Flake8 *Flake8Tool
}

type Executables struct {
	Pytest string
	Mypy   string
	Flake8 string
}

func NewSet(execs Executables) Set {
	if execs.Pytest == "" {
		execs.Pytest = "pytest"
	}
	if execs.Mypy == "" {
		execs.Mypy = "mypy"
	}
	if execs.Flake8 == "" {
		execs.Flake8 = "flake8"
	}
	return Set{
		Pytest: &PytestTool{Executable: execs.Pytest},
		Mypy:   &MypyTool{Executable: execs.Mypy},
		Flake8: &Flake8Tool{Executable: execs.Flake8},
	}
}

// ByName returns the tool registered under name.
func (s Set) ByName(name string) (Tool, bool) {
	switch name {
	case "pytest":
		return s.Pytest, true
	case "mypy":
		return s.Mypy, true
	case "flake8":
		return s.Flake8, true
	default:
		return nil, false
	}
}

func (s Set) All() []Tool {
	return []Tool{s.Pytest, s.Mypy, s.Flake8}
}
