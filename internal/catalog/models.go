package catalog

import (
	"strings"
	"time"
)

// Status is the persisted outcome of a session.
type Status string

const (
	StatusRecording    Status = "recording"
	StatusProcessing   Status = "processing"
	StatusComplete     Status = "complete"
	StatusNoHighlights Status = "no_highlights"
	StatusFailed       Status = "failed"
	StatusInterrupted  Status = "interrupted"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	switch s {
	case StatusComplete, StatusNoHighlights, StatusFailed, StatusInterrupted:
		return true
	default:
		return false
	}
}

// ParseStatus converts a user-supplied status name, case-insensitively.
func ParseStatus(value string) (Status, bool) {
	candidate := Status(strings.ToLower(strings.TrimSpace(value)))
	switch candidate {
	case StatusRecording, StatusProcessing, StatusComplete, StatusNoHighlights, StatusFailed, StatusInterrupted:
		return candidate, true
	default:
		return "", false
	}
}

// Session is one recording and its highlight outcome.
type Session struct {
	ID             string
	Name           string
	Folder         string
	RecordingPath  string
	Status         Status
	StartedAt      time.Time
	EndedAt        *time.Time
	Detections     int
	Clips          int
	RecordingBytes int64
	MergedPath     string
	MergedDuration float64
	ErrorKind      string
	ErrorMessage   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Duration returns the recorded length, or zero while still recording.
func (s *Session) Duration() time.Duration {
	if s == nil || s.EndedAt == nil {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// Summary counts sessions by status.
type Summary struct {
	Total        int
	Complete     int
	NoHighlights int
	Failed       int
	Active       int
	Clips        int
}
