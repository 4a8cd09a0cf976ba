// Package telemetry keeps process-local counters for tool invocations,
// rendered in Prometheus text exposition format by the HTTP surface.
package telemetry

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

var defaultRegistry = newRegistry()

type registry struct {
	mu                  sync.Mutex
	toolCalls           map[string]map[string]int64
	toolDurationBuckets map[string][]int64
	launchFailures      map[string]int64
	parseFallbacks      map[string]int64
}

func newRegistry() *registry {
	return &registry{
		toolCalls:           make(map[string]map[string]int64),
		toolDurationBuckets: make(map[string][]int64),
		launchFailures:      make(map[string]int64),
		parseFallbacks:      make(map[string]int64),
	}
}

func IncToolCall(toolName, status string) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	if _, ok := defaultRegistry.toolCalls[toolName]; !ok {
		defaultRegistry.toolCalls[toolName] = make(map[string]int64)
	}
	defaultRegistry.toolCalls[toolName][status]++
}

func ObserveToolDuration(toolName string, d time.Duration) {
	buckets := []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60}
	sec := d.Seconds()

	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	if _, ok := defaultRegistry.toolDurationBuckets[toolName]; !ok {
		defaultRegistry.toolDurationBuckets[toolName] = make([]int64, len(buckets)+1)
	}
	idx := len(buckets)
	for i, b := range buckets {
		if sec <= b {
			idx = i
			break
		}
	}
	defaultRegistry.toolDurationBuckets[toolName][idx]++
}

// IncLaunchFailure counts child processes that could not be spawned at all.
func IncLaunchFailure(toolName string) {
	defaultRegistry.mu.Lock()
	defaultRegistry.launchFailures[toolName]++
	defaultRegistry.mu.Unlock()
}

// IncParseFallback counts parses that degraded to zero-valued structures
// (kind is "summary" or "coverage").
func IncParseFallback(kind string) {
	defaultRegistry.mu.Lock()
	defaultRegistry.parseFallbacks[kind]++
	defaultRegistry.mu.Unlock()
}

func RenderPrometheus() string {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()

	var sb strings.Builder

	sb.WriteString("# TYPE pymcp_tool_calls_total counter\n")
	for _, tool := range sortedKeys(defaultRegistry.toolCalls) {
		for _, status := range sortedKeys(defaultRegistry.toolCalls[tool]) {
			sb.WriteString(fmt.Sprintf("pymcp_tool_calls_total{tool=\"%s\",status=\"%s\"} %d\n", tool, status, defaultRegistry.toolCalls[tool][status]))
		}
	}

	sb.WriteString("# TYPE pymcp_tool_duration_seconds_bucket counter\n")
	bucketLabels := []string{"0.1", "0.5", "1", "2", "5", "10", "30", "60", "+Inf"}
	for _, tool := range sortedKeys(defaultRegistry.toolDurationBuckets) {
		for i, v := range defaultRegistry.toolDurationBuckets[tool] {
			sb.WriteString(fmt.Sprintf("pymcp_tool_duration_seconds_bucket{tool=\"%s\",le=\"%s\"} %d\n", tool, bucketLabels[i], v))
		}
	}

	sb.WriteString("# TYPE pymcp_launch_failures_total counter\n")
	for _, tool := range sortedKeys(defaultRegistry.launchFailures) {
		sb.WriteString(fmt.Sprintf("pymcp_launch_failures_total{tool=\"%s\"} %d\n", tool, defaultRegistry.launchFailures[tool]))
	}

	sb.WriteString("# TYPE pymcp_parse_fallbacks_total counter\n")
	for _, kind := range sortedKeys(defaultRegistry.parseFallbacks) {
		sb.WriteString(fmt.Sprintf("pymcp_parse_fallbacks_total{kind=\"%s\"} %d\n", kind, defaultRegistry.parseFallbacks[kind]))
	}

	return sb.String()
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
