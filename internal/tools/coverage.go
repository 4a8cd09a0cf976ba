package tools

import (
	"strconv"
	"strings"

	"github.com/synca/py-mcp-server/internal/core"
)

// CoverageSentinel appears in pytest output when a coverage threshold is
// configured. Its presence alone is enough to attempt table extraction.
const CoverageSentinel = "Required test coverage"

// failurePrefix starts the row pytest-cov prints when the configured
// coverage threshold was not reached.
const failurePrefix = "FAIL"

// tableState tracks where the line scanner is relative to the coverage table.
type tableState int

const (
	stateBefore tableState = iota
	stateInTable
	stateAfterTotal
)

// ParseCoverageTable extracts the coverage table from combined tool output:
//
//	Name                           Stmts   Miss  Cover
//	--------------------------------------------------
//	snake/__init__.py                  0      0   100%
//	TOTAL                            444     49    89%
//
// It is total: output without a well-formed table yields the zero-valued
// report, and rows that fail to parse are dropped silently.
func ParseCoverageTable(output string) *core.CoverageReport {
	report := core.NewCoverageReport()
	state := stateBefore

	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		switch state {
		case stateBefore:
			if isTableHeader(line) {
				state = stateInTable
			}
		case stateInTable:
			switch {
			case trimmed == "":
				return report
			case strings.HasPrefix(trimmed, "--"):
				// separator between the header and the rows
			case strings.Contains(line, "TOTAL"):
				applyRow(report, line)
				state = stateAfterTotal
			default:
				applyRow(report, line)
			}
		case stateAfterTotal:
			// pytest-cov prints the threshold-failure row after the table
			// footer; anything else ends the table.
			if !strings.HasPrefix(trimmed, failurePrefix) {
				return report
			}
			applyRow(report, line)
		}
	}
	return report
}

// isTableHeader reports whether line carries all four column markers of a
// coverage table header, in any relative order.
func isTableHeader(line string) bool {
	return strings.Contains(line, "Name") &&
		strings.Contains(line, "Stmts") &&
		strings.Contains(line, "Miss") &&
		strings.Contains(line, "Cover")
}

// applyRow interprets one table row. A usable row has more than three
// whitespace-separated fields and ends in a percentage; the entity name is
// everything except the trailing three numeric columns, which reconstructs
// file paths containing spaces.
func applyRow(report *core.CoverageReport, line string) {
	fields := strings.Fields(line)
	if len(fields) <= 3 {
		return
	}
	last := fields[len(fields)-1]
	if !strings.HasSuffix(last, "%") {
		return
	}
	value, err := strconv.ParseFloat(strings.TrimSuffix(last, "%"), 64)
	if err != nil {
		return
	}
	name := strings.Join(fields[:len(fields)-3], " ")
	switch {
	case name == "TOTAL":
		report.Total = value
	case strings.HasPrefix(name, failurePrefix):
		report.Failure = name
	default:
		report.ByFile[name] = value
	}
}
