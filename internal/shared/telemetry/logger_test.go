package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestWriteEmitsJSONLine(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()

	Warn("reports.member_unresolved", map[string]any{
		"project_id": 7,
		"error":      errors.New("boom"),
		"level":      "ignored",
	})

	line := strings.TrimSpace(buf.String())
	var payload map[string]any
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}
	if payload["level"] != "warn" {
		t.Fatalf("unexpected level: %v", payload["level"])
	}
	if payload["msg"] != "reports.member_unresolved" {
		t.Fatalf("unexpected msg: %v", payload["msg"])
	}
	if payload["error"] != "boom" {
		t.Fatalf("expected error text, got %v", payload["error"])
	}
	if payload["project_id"] != float64(7) {
		t.Fatalf("unexpected project_id: %v", payload["project_id"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("missing ts")
	}
}
