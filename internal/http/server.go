// Package http serves the tool operations over a small REST surface:
// POST /api/v1/tools/{tool} plus health, version and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/synca/py-mcp-server/internal/telemetry"
	"github.com/synca/py-mcp-server/internal/tools"
)

const maxRequestBodyBytes = 1 << 20

type BuildInfo struct {
	Version   string
	GitCommit string
	BuildTime string
}

type Config struct {
	// CallTimeout bounds a single tool invocation; expiry kills the child.
	CallTimeout time.Duration
	Build       BuildInfo
}

type Server struct {
	srv     *http.Server
	runner  tools.Runner
	set     tools.Set
	logger  *slog.Logger
	timeout time.Duration
	build   BuildInfo
}

func NewServer(addr string, runner tools.Runner, set tools.Set, logger *slog.Logger, cfg Config) *Server {
	s := &Server{
		runner:  runner,
		set:     set,
		logger:  logger,
		timeout: cfg.CallTimeout,
		build:   cfg.Build,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /version", s.handleVersion)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("POST /api/v1/tools/{tool}", s.handleToolCall)

	s.srv = &http.Server{
		Addr:        addr,
		Handler:     withLogging(logger, mux),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("http server starting", "addr", s.srv.Addr)
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.srv.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version":    s.build.Version,
		"git_commit": s.build.GitCommit,
		"build_time": s.build.BuildTime,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	io.WriteString(w, telemetry.RenderPrometheus())
}

// toolCallBody is the JSON request accepted for every tool; fields that a
// given tool does not know are simply ignored by it.
type toolCallBody struct {
	Path                   string   `json:"path"`
	Args                   []string `json:"args,omitempty"`
	Verbose                bool     `json:"verbose,omitempty"`
	Coverage               bool     `json:"coverage,omitempty"`
	CoverageSource         string   `json:"coverage_source,omitempty"`
	DisallowUntypedDefs    bool     `json:"disallow_untyped_defs,omitempty"`
	DisallowIncompleteDefs bool     `json:"disallow_incomplete_defs,omitempty"`
	Exclude                []string `json:"exclude,omitempty"`
	MaxLineLength          int      `json:"max_line_length,omitempty"`
}

// handleToolCall runs one invocation and always answers 200 with the result
// envelope: orchestration failures are envelope data, not transport errors.
func (s *Server) handleToolCall(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("tool")
	tool, ok := s.set.ByName(name)
	if !ok {
		writeErr(w, http.StatusNotFound, fmt.Sprintf("unknown tool: %s", name))
		return
	}

	var body toolCallBody
	if err := decodeJSONBody(w, r, &body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if body.Path == "" {
		writeErr(w, http.StatusBadRequest, "path is required")
		return
	}

	req := tools.Request{
		Path:                   body.Path,
		ExtraArgs:              body.Args,
		Verbose:                body.Verbose,
		Coverage:               body.Coverage,
		CoverageSource:         body.CoverageSource,
		DisallowUntypedDefs:    body.DisallowUntypedDefs,
		DisallowIncompleteDefs: body.DisallowIncompleteDefs,
		Exclude:                body.Exclude,
		MaxLineLength:          body.MaxLineLength,
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	env := tools.Run(ctx, s.runner, tool, req)
	telemetry.ObserveToolDuration(tool.Name(), time.Since(start))
	status := "ok"
	if !env.Success {
		status = "failed"
	}
	telemetry.IncToolCall(tool.Name(), status)

	writeJSON(w, http.StatusOK, env)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("request body must contain a single JSON object")
	}
	return nil
}

func withLogging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(sw, r)
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", fmt.Sprintf("%dms", time.Since(start).Milliseconds()),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
