package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/synca/py-mcp-server/internal/core"
	"github.com/synca/py-mcp-server/internal/proc"
)

// mypyConfigFile is searched for in the target path and then its parent.
const mypyConfigFile = "mypy.ini"

// MypyTool runs the mypy type checker. Exit codes 0 and 1 are routine
// ("clean" and "issues found"); anything above 1 means mypy itself failed.
type MypyTool struct {
	Executable string
}

func (t *MypyTool) Name() string { return "mypy" }

// Command runs mypy on "." with the target path as working directory.
// Flag order: config autodiscovery, strictness flags, excludes, then
// caller-supplied arguments so they can override the built-ins.
func (t *MypyTool) Command(req Request) proc.Command {
	var args []string
	if cfg := findConfigFile(req.Path); cfg != "" {
		args = append(args, "--config-file", cfg)
	}
	if req.DisallowUntypedDefs {
		args = append(args, "--disallow-untyped-defs")
	}
	if req.DisallowIncompleteDefs {
		args = append(args, "--disallow-incomplete-defs")
	}
	excludes := req.Exclude
	if len(excludes) == 0 && shouldExcludeTests(req.Path, req.ExtraArgs) {
		excludes = []string{"tests/"}
	}
	for _, p := range excludes {
		args = append(args, "--exclude="+p)
	}
	args = append(args, req.ExtraArgs...)
	args = append(args, ".")
	return proc.Command{Path: t.Executable, Args: args, Dir: req.Path}
}

func (t *MypyTool) Interpret(req Request, res proc.Result) (*core.ToolData, error) {
	if res.ExitCode > 1 {
		return nil, &core.ExecError{Tool: t.Name(), ExitCode: res.ExitCode, Stderr: res.Stderr}
	}

	issues := 0
	for _, line := range strings.Split(res.Stdout, "\n") {
		if strings.Contains(line, ": error:") {
			issues++
		}
	}

	message := "No issues found"
	output := "No issues found"
	if issues > 0 {
		message = fmt.Sprintf("Found %d type issues", issues)
		output = strings.TrimSpace(res.Combined())
	}

	return &core.ToolData{
		Message:     message,
		Output:      output,
		IssuesCount: issues,
	}, nil
}

// findConfigFile looks for a mypy config file in the target path and then in
// its parent directory.
func findConfigFile(path string) string {
	for _, dir := range []string{path, filepath.Dir(filepath.Clean(path))} {
		candidate := filepath.Join(dir, mypyConfigFile)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// shouldExcludeTests reports whether a tests/ subdirectory should be
// excluded automatically: the target has one, is not itself named tests,
// and the caller did not pass its own exclude.
func shouldExcludeTests(path string, extraArgs []string) bool {
	if filepath.Base(filepath.Clean(path)) == "tests" {
		return false
	}
	for _, arg := range extraArgs {
		if strings.HasPrefix(arg, "--exclude") {
			return false
		}
	}
	info, err := os.Stat(filepath.Join(path, "tests"))
	return err == nil && info.IsDir()
}
