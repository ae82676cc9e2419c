package api

import (
	"time"

	"clipwatch/internal/catalog"
	"clipwatch/internal/encoder"
	"clipwatch/internal/recorder"
	"clipwatch/internal/status"
)

// FromSession converts a catalog row to its API representation.
func FromSession(session *catalog.Session) Session {
	if session == nil {
		return Session{}
	}
	dto := Session{
		ID:              session.ID,
		Name:            session.Name,
		Folder:          session.Folder,
		RecordingPath:   session.RecordingPath,
		Status:          string(session.Status),
		StartedAt:       FormatTime(session.StartedAt),
		DurationSeconds: session.Duration().Seconds(),
		Detections:      session.Detections,
		Clips:           session.Clips,
		RecordingBytes:  session.RecordingBytes,
		MergedPath:      session.MergedPath,
		MergedDuration:  session.MergedDuration,
		ErrorKind:       session.ErrorKind,
		ErrorMessage:    session.ErrorMessage,
		UpdatedAt:       FormatTime(session.UpdatedAt),
	}
	if session.EndedAt != nil {
		dto.EndedAt = FormatTime(*session.EndedAt)
	}
	return dto
}

// FromSessions converts a slice of catalog rows into API DTOs.
func FromSessions(sessions []*catalog.Session) []Session {
	if len(sessions) == 0 {
		return nil
	}
	out := make([]Session, 0, len(sessions))
	for _, session := range sessions {
		if session == nil {
			continue
		}
		out = append(out, FromSession(session))
	}
	return out
}

// FromActiveSession converts the orchestrator's session, measuring elapsed
// time against now.
func FromActiveSession(session *recorder.Session, now time.Time) *ActiveSession {
	if session == nil {
		return nil
	}
	dto := &ActiveSession{
		ID:         session.ID,
		Name:       session.Name,
		Folder:     session.Folder,
		OutputPath: session.OutputPath,
		State:      string(session.State),
		StartedAt:  FormatTime(session.StartTime),
	}
	switch {
	case session.EndTime != nil:
		dto.ElapsedSeconds = session.Duration().Seconds()
	case !session.StartTime.IsZero():
		dto.ElapsedSeconds = now.Sub(session.StartTime).Seconds()
	}
	return dto
}

// FromEvent converts a status hub event.
func FromEvent(evt status.Event) StatusEvent {
	return StatusEvent{
		Sequence:  evt.Sequence,
		Timestamp: FormatTime(evt.Timestamp),
		Phase:     string(evt.Phase),
		Message:   evt.Message,
		SessionID: evt.SessionID,
	}
}

// FromEvents converts status hub events.
func FromEvents(events []status.Event) []StatusEvent {
	if len(events) == 0 {
		return nil
	}
	out := make([]StatusEvent, 0, len(events))
	for _, evt := range events {
		out = append(out, FromEvent(evt))
	}
	return out
}

// FromEncoderStats converts an encoder resource sample.
func FromEncoderStats(stats *encoder.Stats) *EncoderStats {
	if stats == nil {
		return nil
	}
	return &EncoderStats{
		PID:           stats.PID,
		CPUPercent:    stats.CPUPercent,
		RSSBytes:      stats.RSSBytes,
		Nice:          stats.Nice,
		UptimeSeconds: stats.Uptime.Seconds(),
	}
}

// FromSummary converts catalog counts.
func FromSummary(summary catalog.Summary) SessionSummary {
	return SessionSummary(summary)
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// ParseTime reverses FormatTime. Empty or malformed input yields the zero time.
func ParseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(dateTimeFormat, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
