package core

// Envelope is the uniform response wrapper for every tool invocation.
// Used by both HTTP and MCP transports. Data is non-nil only when Success
// is true; Error is non-empty only when Success is false.
type Envelope struct {
	Success bool      `json:"success"`
	Data    *ToolData `json:"data"`
	Error   string    `json:"error,omitempty"`
}

// ToolData is the structured payload of a successful invocation. The
// TestSummary and Coverage fields are populated by the test runner only.
type ToolData struct {
	Message     string          `json:"message"`
	Output      string          `json:"output"`
	ProjectPath string          `json:"project_path"`
	IssuesCount int             `json:"issues_count"`
	HasIssues   bool            `json:"has_issues"`
	TestSummary *TestSummary    `json:"test_summary,omitempty"`
	Coverage    *CoverageReport `json:"coverage,omitempty"`
}

// TestSummary holds the outcome counts extracted from a test run.
// Total always equals the sum of the five outcome counts; it is computed,
// never read from tool output.
type TestSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	XFailed int `json:"xfailed"`
	XPassed int `json:"xpassed"`
}

// CoverageReport holds the coverage table extracted from a test run.
// Failure carries the threshold-failure row text when the run did not meet
// the required coverage.
type CoverageReport struct {
	Total   float64            `json:"total"`
	ByFile  map[string]float64 `json:"by_file"`
	Failure string             `json:"failure,omitempty"`
}

// NewCoverageReport returns a zero-valued report with an allocated map.
func NewCoverageReport() *CoverageReport {
	return &CoverageReport{ByFile: make(map[string]float64)}
}
