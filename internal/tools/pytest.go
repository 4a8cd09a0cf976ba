package tools

import (
	"strings"

	"github.com/synca/py-mcp-server/internal/core"
	"github.com/synca/py-mcp-server/internal/proc"
	"github.com/synca/py-mcp-server/internal/telemetry"
)

// PytestTool runs the pytest test runner. Every exit code is a routine
// outcome: pytest signals failing or uncollected tests through its exit
// code, and that is still a successful invocation of the tool itself.
type PytestTool struct {
	Executable string
}

func (t *PytestTool) Name() string { return "pytest" }

// Command runs pytest with the target path as working directory. Built-in
// flags precede caller-supplied ones.
func (t *PytestTool) Command(req Request) proc.Command {
	var args []string
	if req.Verbose {
		args = append(args, "-v")
	}
	if req.Coverage {
		if req.CoverageSource != "" {
			args = append(args, "--cov="+req.CoverageSource)
		} else {
			args = append(args, "--cov")
		}
	}
	args = append(args, req.ExtraArgs...)
	return proc.Command{Path: t.Executable, Args: args, Dir: req.Path}
}

func (t *PytestTool) Interpret(req Request, res proc.Result) (*core.ToolData, error) {
	combined := res.Combined()

	summary := ParseSummary(combined)
	if summary.Total == 0 {
		telemetry.IncParseFallback("summary")
	}

	// Coverage data is attached only when this invocation asked for coverage
	// or the output carries the threshold sentinel (coverage configured in
	// the project itself); otherwise the run had no coverage at all.
	var coverage *core.CoverageReport
	if req.Coverage || strings.Contains(combined, CoverageSentinel) {
		coverage = ParseCoverageTable(combined)
		if coverage.Total == 0 && len(coverage.ByFile) == 0 {
			telemetry.IncParseFallback("coverage")
		}
	}

	issues := summary.Failed
	if coverage != nil && coverage.Failure != "" {
		issues++
	}

	message := "All tests passed successfully"
	if res.ExitCode != 0 {
		message = "Some tests failed"
	}

	return &core.ToolData{
		Message:     message,
		Output:      strings.TrimSpace(combined),
		IssuesCount: issues,
		TestSummary: summary,
		Coverage:    coverage,
	}, nil
}
