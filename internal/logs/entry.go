package logs

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// Entry is one parsed JSON log line.
type Entry struct {
	Time      time.Time
	Level     string
	Message   string
	Component string
	SessionID string
	Fields    map[string]any
}

var reservedKeys = []string{"ts", "level", "msg", "component", "session_id", "source"}

// ParseLine decodes a JSON log line. Non-JSON lines report false.
func ParseLine(line string) (Entry, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		return Entry{}, false
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, false
	}
	entry := Entry{
		Level:     stringField(raw, "level"),
		Message:   stringField(raw, "msg"),
		Component: stringField(raw, "component"),
		SessionID: stringField(raw, "session_id"),
	}
	if ts := stringField(raw, "ts"); ts != "" {
		entry.Time, _ = time.Parse(time.RFC3339Nano, ts)
	}
	for _, key := range reservedKeys {
		delete(raw, key)
	}
	if len(raw) > 0 {
		entry.Fields = raw
	}
	return entry, true
}

// SessionFilter keeps lines tagged with session. Empty session keeps all.
func SessionFilter(session string) func(string) bool {
	session = strings.TrimSpace(session)
	if session == "" {
		return nil
	}
	return func(line string) bool {
		entry, ok := ParseLine(line)
		return ok && entry.SessionID == session
	}
}

// Format renders the entry as "15:04:05 LEVEL component: message key=value".
func (e Entry) Format() string {
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("15:04:05"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s ", strings.ToUpper(e.Level))
	if e.SessionID != "" {
		fmt.Fprintf(&b, "[%s] ", e.SessionID)
	}
	if e.Component != "" {
		b.WriteString(e.Component)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	for _, key := range slices.Sorted(maps.Keys(e.Fields)) {
		fmt.Fprintf(&b, " %s=%v", key, e.Fields[key])
	}
	return b.String()
}

// FormatLine pretty-prints JSON lines and returns anything else unchanged.
func FormatLine(line string) string {
	if entry, ok := ParseLine(line); ok {
		return entry.Format()
	}
	return line
}

func stringField(raw map[string]any, key string) string {
	if value, ok := raw[key].(string); ok {
		return value
	}
	return ""
}
