package logs

import (
	"strings"
	"testing"
)

func TestParseLine(t *testing.T) {
	line := `{"ts":"2025-01-02T15:04:05Z","level":"info","msg":"marker detected","component":"detection","session_id":"20250102_150405","marker":"Kill Feed","timestamp":12.5}`
	entry, ok := ParseLine(line)
	if !ok {
		t.Fatal("expected JSON line to parse")
	}
	if entry.Message != "marker detected" || entry.Component != "detection" || entry.SessionID != "20250102_150405" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry.Time.IsZero() {
		t.Fatal("expected timestamp")
	}
	if _, ok := entry.Fields["ts"]; ok {
		t.Fatal("reserved keys should not be repeated in fields")
	}

	formatted := entry.Format()
	for _, want := range []string{"INFO", "[20250102_150405]", "detection: marker detected", "marker=Kill Feed", "timestamp=12.5"} {
		if !strings.Contains(formatted, want) {
			t.Fatalf("formatted line %q missing %q", formatted, want)
		}
	}
	if strings.Index(formatted, "marker=") > strings.Index(formatted, "timestamp=") {
		t.Fatalf("expected fields sorted, got %q", formatted)
	}
}

func TestFormatLinePassesThroughPlainText(t *testing.T) {
	if got := FormatLine("not json"); got != "not json" {
		t.Fatalf("unexpected %q", got)
	}
	if _, ok := ParseLine("{broken"); ok {
		t.Fatal("expected malformed JSON to be rejected")
	}
}

func TestSessionFilter(t *testing.T) {
	if SessionFilter("  ") != nil {
		t.Fatal("expected nil filter for empty session")
	}
	keep := SessionFilter("a")
	if !keep(`{"session_id":"a"}`) || keep(`{"session_id":"b"}`) || keep("plain") {
		t.Fatal("unexpected filter result")
	}
}
