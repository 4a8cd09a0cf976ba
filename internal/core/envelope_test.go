package core

import (
	"encoding/json"
	"testing"
)

func TestEnvelopeJSON(t *testing.T) {
	t.Run("success carries data and omits error", func(t *testing.T) {
		env := Envelope{
			Success: true,
			Data: &ToolData{
				Message:     "No issues found",
				Output:      "No issues found",
				ProjectPath: "/proj",
			},
		}
		raw, err := json.Marshal(env)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if _, present := m["error"]; present {
			t.Fatalf("error key must be omitted on success: %s", raw)
		}
		data, ok := m["data"].(map[string]any)
		if !ok {
			t.Fatalf("expected data object, got %s", raw)
		}
		for _, key := range []string{"message", "output", "project_path", "issues_count", "has_issues"} {
			if _, present := data[key]; !present {
				t.Fatalf("data missing key %q: %s", key, raw)
			}
		}
		if _, present := data["test_summary"]; present {
			t.Fatalf("test_summary must be omitted when nil: %s", raw)
		}
		if _, present := data["coverage"]; present {
			t.Fatalf("coverage must be omitted when nil: %s", raw)
		}
	})

	t.Run("failure carries null data and message", func(t *testing.T) {
		env := Envelope{Success: false, Error: "Path '/x' does not exist"}
		raw, err := json.Marshal(env)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		want := `{"success":false,"data":null,"error":"Path '/x' does not exist"}`
		if string(raw) != want {
			t.Fatalf("expected %s, got %s", want, raw)
		}
	})
}

func TestCoverageReportJSON(t *testing.T) {
	report := NewCoverageReport()
	report.Total = 89
	report.ByFile["snake/game.py"] = 72.5

	raw, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["total"] != 89.0 {
		t.Fatalf("unexpected total: %v", m["total"])
	}
	if _, present := m["failure"]; present {
		t.Fatalf("failure must be omitted when empty: %s", raw)
	}
}
