package tools

import (
	"fmt"
	"strings"

	"github.com/synca/py-mcp-server/internal/core"
	"github.com/synca/py-mcp-server/internal/proc"
)

// Flake8Tool runs the flake8 linter. Exit codes 0 and 1 are routine;
// anything above 1 means flake8 itself failed.
type Flake8Tool struct {
	Executable string
}

func (t *Flake8Tool) Name() string { return "flake8" }

// Command runs flake8 with the target path appended last; flake8 takes it
// positionally rather than as a working directory.
func (t *Flake8Tool) Command(req Request) proc.Command {
	var args []string
	if req.MaxLineLength > 0 {
		args = append(args, fmt.Sprintf("--max-line-length=%d", req.MaxLineLength))
	}
	args = append(args, req.ExtraArgs...)
	args = append(args, req.Path)
	return proc.Command{Path: t.Executable, Args: args}
}

func (t *Flake8Tool) Interpret(req Request, res proc.Result) (*core.ToolData, error) {
	if res.ExitCode > 1 {
		return nil, &core.ExecError{Tool: t.Name(), ExitCode: res.ExitCode, Stderr: res.Stderr}
	}

	issues := 0
	if stdout := strings.TrimSpace(res.Stdout); stdout != "" {
		issues = len(strings.Split(stdout, "\n"))
	}

	output := strings.TrimSpace(res.Combined())
	if output == "" {
		output = "No issues found"
	}
	message := "No issues found"
	if issues > 0 {
		message = fmt.Sprintf("Found %d issues", issues)
	}

	return &core.ToolData{
		Message:     message,
		Output:      output,
		IssuesCount: issues,
	}, nil
}
