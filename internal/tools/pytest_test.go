package tools

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/synca/py-mcp-server/internal/core"
	"github.com/synca/py-mcp-server/internal/proc"
)

func TestPytestCommand(t *testing.T) {
	tool := &PytestTool{Executable: "pytest"}

	cmd := tool.Command(Request{Path: "/proj"})
	if cmd.Path != "pytest" || cmd.Dir != "/proj" || len(cmd.Args) != 0 {
		t.Fatalf("unexpected command: %+v", cmd)
	}

	cmd = tool.Command(Request{
		Path:           "/proj",
		Verbose:        true,
		Coverage:       true,
		CoverageSource: "mypkg",
		ExtraArgs:      []string{"-k", "smoke"},
	})
	want := []string{"-v", "--cov=mypkg", "-k", "smoke"}
	if !reflect.DeepEqual(cmd.Args, want) {
		t.Fatalf("expected args %v, got %v", want, cmd.Args)
	}

	cmd = tool.Command(Request{Path: "/proj", Coverage: true})
	if !reflect.DeepEqual(cmd.Args, []string{"--cov"}) {
		t.Fatalf("expected bare --cov, got %v", cmd.Args)
	}
}

func TestPytestAllPassed(t *testing.T) {
	runner := &fakeRunner{result: proc.Result{
		Stdout:   "===== 3 passed in 0.12s =====\n",
		ExitCode: 0,
	}}
	env := Run(context.Background(), runner, &PytestTool{Executable: "pytest"}, Request{Path: t.TempDir()})

	if !env.Success {
		t.Fatalf("unexpected failure: %q", env.Error)
	}
	if env.Data.Message != "All tests passed successfully" {
		t.Fatalf("unexpected message: %q", env.Data.Message)
	}
	want := &core.TestSummary{Total: 3, Passed: 3}
	if !reflect.DeepEqual(env.Data.TestSummary, want) {
		t.Fatalf("expected summary %+v, got %+v", want, env.Data.TestSummary)
	}
	if env.Data.Coverage != nil {
		t.Fatalf("expected no coverage report, got %+v", env.Data.Coverage)
	}
	if env.Data.IssuesCount != 0 {
		t.Fatalf("expected zero issues, got %d", env.Data.IssuesCount)
	}
}

// Failing tests are a routine outcome: the envelope stays successful and the
// failures surface as counts.
func TestPytestFailuresAreRoutine(t *testing.T) {
	runner := &fakeRunner{result: proc.Result{
		Stdout:   "===== 1 failed, 1 passed in 0.01s =====\n",
		ExitCode: 1,
	}}
	env := Run(context.Background(), runner, &PytestTool{Executable: "pytest"}, Request{Path: t.TempDir()})

	if !env.Success {
		t.Fatalf("expected success envelope, got error %q", env.Error)
	}
	if env.Data.Message != "Some tests failed" {
		t.Fatalf("unexpected message: %q", env.Data.Message)
	}
	s := env.Data.TestSummary
	if s.Total != 2 || s.Passed != 1 || s.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if env.Data.IssuesCount != 1 || !env.Data.HasIssues {
		t.Fatalf("expected one issue, got %+v", env.Data)
	}
}

func TestPytestCoverageRequested(t *testing.T) {
	out := strings.Join([]string{
		"Name         Stmts   Miss  Cover",
		"--------------------------------",
		"pkg/a.py        10      1    90%",
		"TOTAL           10      1    90%",
		"===== 2 passed in 0.05s =====",
	}, "\n")
	runner := &fakeRunner{result: proc.Result{Stdout: out, ExitCode: 0}}
	env := Run(context.Background(), runner, &PytestTool{Executable: "pytest"}, Request{Path: t.TempDir(), Coverage: true})

	if !env.Success {
		t.Fatalf("unexpected failure: %q", env.Error)
	}
	cov := env.Data.Coverage
	if cov == nil {
		t.Fatal("expected coverage report when coverage is requested")
	}
	if cov.Total != 90.0 {
		t.Fatalf("expected total 90.0, got %v", cov.Total)
	}
	if cov.ByFile["pkg/a.py"] != 90.0 {
		t.Fatalf("unexpected per-file coverage: %v", cov.ByFile)
	}
}

// A threshold failure printed by pytest-cov counts as one more issue even
// when every test passed.
func TestPytestCoverageThresholdFailure(t *testing.T) {
	out := strings.Join([]string{
		"Name         Stmts   Miss  Cover",
		"--------------------------------",
		"pkg/a.py        10      5    50%",
		"TOTAL           10      5    50%",
		"FAIL Required test coverage of 80% not reached. Total coverage: 50.00%",
		"===== 2 passed in 0.05s =====",
	}, "\n")
	runner := &fakeRunner{result: proc.Result{Stdout: out, ExitCode: 1}}
	env := Run(context.Background(), runner, &PytestTool{Executable: "pytest"}, Request{Path: t.TempDir(), Coverage: true})

	if !env.Success {
		t.Fatalf("unexpected failure: %q", env.Error)
	}
	cov := env.Data.Coverage
	if cov == nil || cov.Failure == "" {
		t.Fatalf("expected a coverage failure, got %+v", cov)
	}
	if env.Data.IssuesCount != 1 {
		t.Fatalf("expected threshold failure to count as an issue, got %d", env.Data.IssuesCount)
	}
}

// Coverage configured in the project itself shows up without the option set;
// the sentinel in the output is enough to attach the report.
func TestPytestCoverageSentinelTriggers(t *testing.T) {
	out := strings.Join([]string{
		"Name         Stmts   Miss  Cover",
		"--------------------------------",
		"pkg/a.py        10      1    90%",
		"TOTAL           10      1    90%",
		"Required test coverage of 80% reached. Total coverage: 90.00%",
		"===== 2 passed in 0.05s =====",
	}, "\n")
	runner := &fakeRunner{result: proc.Result{Stdout: out, ExitCode: 0}}
	env := Run(context.Background(), runner, &PytestTool{Executable: "pytest"}, Request{Path: t.TempDir()})

	if !env.Success {
		t.Fatalf("unexpected failure: %q", env.Error)
	}
	if env.Data.Coverage == nil {
		t.Fatal("expected coverage report to be attached from output alone")
	}
	if env.Data.Coverage.Total != 90.0 {
		t.Fatalf("expected total 90.0, got %v", env.Data.Coverage.Total)
	}
}

// Unparseable output still produces a successful envelope with a zeroed
// summary.
func TestPytestUnparseableOutput(t *testing.T) {
	runner := &fakeRunner{result: proc.Result{
		Stdout:   "INTERNALERROR> something went sideways\n",
		ExitCode: 3,
	}}
	env := Run(context.Background(), runner, &PytestTool{Executable: "pytest"}, Request{Path: t.TempDir()})

	if !env.Success {
		t.Fatalf("unexpected failure: %q", env.Error)
	}
	if env.Data.TestSummary.Total != 0 {
		t.Fatalf("expected zeroed summary, got %+v", env.Data.TestSummary)
	}
	if env.Data.Message != "Some tests failed" {
		t.Fatalf("unexpected message: %q", env.Data.Message)
	}
}
