package tools

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/synca/py-mcp-server/internal/core"
)

// outcomeKeywords is ordered longest first so that "xpassed"/"xfailed"
// fragments are never credited to "passed"/"failed".
var outcomeKeywords = []string{"xfailed", "xpassed", "skipped", "failed", "passed"}

// durationClause matches the trailing " in 0.42s" that pytest appends to its
// summary line. Everything from the clause onward is discarded before the
// counts are read.
var durationClause = regexp.MustCompile(` in [0-9.]+s\b`)

// ParseSummary extracts the outcome counts from the delimited summary line a
// test run emits near the end of its output. It is total: text without a
// recognizable summary line yields the all-zero summary, and fragments that
// fail to parse are ignored individually.
func ParseSummary(output string) *core.TestSummary {
	summary := &core.TestSummary{}
	body, ok := summaryLine(output)
	if !ok {
		return summary
	}

	for _, fragment := range strings.Split(body, ",") {
		keyword, ok := matchOutcome(fragment)
		if !ok {
			continue
		}
		count, ok := leadingInt(fragment)
		if !ok {
			continue
		}
		switch keyword {
		case "passed":
			summary.Passed = count
		case "failed":
			summary.Failed = count
		case "skipped":
			summary.Skipped = count
		case "xfailed":
			summary.XFailed = count
		case "xpassed":
			summary.XPassed = count
		}
	}

	summary.Total = summary.Passed + summary.Failed + summary.Skipped +
		summary.XFailed + summary.XPassed
	return summary
}

// summaryLine finds the summary line: bracketed by runs of '=' on both
// sides, carrying either a duration clause or a trailing outcome keyword,
// and mentioning at least one outcome. Lines like section banners or
// "no tests ran" match none of the keywords and are skipped. The last
// qualifying line wins, since the summary is emitted at the end of a run.
func summaryLine(output string) (string, bool) {
	var found string
	var ok bool
	for _, raw := range strings.Split(output, "\n") {
		line := strings.TrimSpace(raw)
		if !strings.HasPrefix(line, "=") || !strings.HasSuffix(line, "=") {
			continue
		}
		body := strings.TrimSpace(strings.Trim(line, "="))
		if body == "" {
			continue
		}
		if loc := durationClause.FindStringIndex(body); loc != nil {
			body = strings.TrimSpace(body[:loc[0]])
		} else if !endsWithOutcome(body) {
			continue
		}
		if _, matched := matchOutcome(body); !matched {
			continue
		}
		found, ok = body, true
	}
	return found, ok
}

// matchOutcome returns the single outcome keyword a fragment belongs to,
// longest keyword first.
func matchOutcome(fragment string) (string, bool) {
	for _, keyword := range outcomeKeywords {
		if strings.Contains(fragment, keyword) {
			return keyword, true
		}
	}
	return "", false
}

func endsWithOutcome(body string) bool {
	for _, keyword := range outcomeKeywords {
		if strings.HasSuffix(body, keyword) {
			return true
		}
	}
	return false
}

func leadingInt(fragment string) (int, bool) {
	fields := strings.Fields(fragment)
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
