// Package mcp exposes the tool orchestrators over the Model Context
// Protocol on stdio.
package mcp

import (
	"context"
	"encoding/json"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/synca/py-mcp-server/internal/telemetry"
	"github.com/synca/py-mcp-server/internal/tools"
)

type Config struct {
	Version string

	// CallTimeout bounds a single tool invocation. Expiry cancels the
	// invocation context, which kills the child process.
	CallTimeout time.Duration
}

type Server struct {
	mcp     *server.MCPServer
	runner  tools.Runner
	set     tools.Set
	logger  *slog.Logger
	timeout time.Duration
}

func NewServer(runner tools.Runner, set tools.Set, logger *slog.Logger, cfg Config) *Server {
	version := cfg.Version
	if version == "" {
		version = "0.0.0-dev"
	}

	s := &Server{
		runner:  runner,
		set:     set,
		logger:  logger,
		timeout: cfg.CallTimeout,
	}

	srv := server.NewMCPServer("py-mcp-server", version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	srv.AddTool(pytestDefinition(), s.handlePytest)
	srv.AddTool(mypyDefinition(), s.handleMypy)
	srv.AddTool(flake8Definition(), s.handleFlake8)
	s.mcp = srv
	return s
}

// ServeStdio blocks serving MCP over stdin/stdout until the stream closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// Definitions returns the tool schemas registered with the server. Used by
// mcpdocgen.
func Definitions() []mcp.Tool {
	return []mcp.Tool{pytestDefinition(), mypyDefinition(), flake8Definition()}
}

func pytestDefinition() mcp.Tool {
	return mcp.NewTool("pytest",
		mcp.WithDescription("Run the pytest test runner on a Python project and return a structured test summary"),
		mcp.WithString("path", mcp.Required(),
			mcp.Description("Directory path from which to run pytest (working directory)")),
		mcp.WithArray("args",
			mcp.Description("Additional arguments passed through to pytest"),
			mcp.Items(map[string]any{"type": "string"})),
		mcp.WithBoolean("verbose",
			mcp.Description("Run pytest with -v")),
		mcp.WithBoolean("coverage",
			mcp.Description("Collect coverage with --cov")),
		mcp.WithString("coverage_source",
			mcp.Description("Package name passed as --cov=<package>")),
	)
}

func mypyDefinition() mcp.Tool {
	return mcp.NewTool("mypy",
		mcp.WithDescription("Run the mypy type checker on a Python project and return a structured issue count"),
		mcp.WithString("path", mcp.Required(),
			mcp.Description("Directory path from which to run mypy (working directory)")),
		mcp.WithArray("args",
			mcp.Description("Additional arguments passed through to mypy"),
			mcp.Items(map[string]any{"type": "string"})),
		mcp.WithBoolean("disallow_untyped_defs",
			mcp.Description("Pass --disallow-untyped-defs")),
		mcp.WithBoolean("disallow_incomplete_defs",
			mcp.Description("Pass --disallow-incomplete-defs")),
		mcp.WithArray("exclude",
			mcp.Description("Paths passed as --exclude=<path>; overrides the automatic tests/ exclude"),
			mcp.Items(map[string]any{"type": "string"})),
	)
}

func flake8Definition() mcp.Tool {
	return mcp.NewTool("flake8",
		mcp.WithDescription("Run the flake8 linter on a Python project and return a structured issue count"),
		mcp.WithString("path", mcp.Required(),
			mcp.Description("Path to the Python project to lint")),
		mcp.WithArray("args",
			mcp.Description("Additional arguments passed through to flake8"),
			mcp.Items(map[string]any{"type": "string"})),
		mcp.WithNumber("max_line_length",
			mcp.Description("Maximum line length passed as --max-line-length=<n>")),
	)
}

func (s *Server) handlePytest(ctx context.Context, call mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := call.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	req := tools.Request{
		Path:           path,
		ExtraArgs:      call.GetStringSlice("args", nil),
		Verbose:        call.GetBool("verbose", false),
		Coverage:       call.GetBool("coverage", false),
		CoverageSource: call.GetString("coverage_source", ""),
	}
	return s.invoke(ctx, s.set.Pytest, req), nil
}

func (s *Server) handleMypy(ctx context.Context, call mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := call.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	req := tools.Request{
		Path:                   path,
		ExtraArgs:              call.GetStringSlice("args", nil),
		DisallowUntypedDefs:    call.GetBool("disallow_untyped_defs", false),
		DisallowIncompleteDefs: call.GetBool("disallow_incomplete_defs", false),
		Exclude:                call.GetStringSlice("exclude", nil),
	}
	return s.invoke(ctx, s.set.Mypy, req), nil
}

func (s *Server) handleFlake8(ctx context.Context, call mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := call.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	req := tools.Request{
		Path:          path,
		ExtraArgs:     call.GetStringSlice("args", nil),
		MaxLineLength: call.GetInt("max_line_length", 0),
	}
	return s.invoke(ctx, s.set.Flake8, req), nil
}

// invoke runs one tool call through the shared pipeline and serializes the
// envelope as the MCP result. Envelope failures are still tool results, not
// protocol errors.
func (s *Server) invoke(ctx context.Context, tool tools.Tool, req tools.Request) *mcp.CallToolResult {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	traceID := uuid.New().String()
	start := time.Now()
	env := tools.Run(ctx, s.runner, tool, req)
	telemetry.ObserveToolDuration(tool.Name(), time.Since(start))

	status := "ok"
	if !env.Success {
		status = "failed"
	}
	telemetry.IncToolCall(tool.Name(), status)
	s.logger.Info("tool call",
		"tool", tool.Name(),
		"trace_id", traceID,
		"path", req.Path,
		"success", env.Success,
		"duration", time.Since(start).String(),
	)

	payload, err := json.Marshal(env)
	if err != nil {
		return mcp.NewToolResultError("encode result: " + err.Error())
	}
	return mcp.NewToolResultText(string(payload))
}
