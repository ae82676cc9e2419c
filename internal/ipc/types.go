package ipc

import "clipwatch/internal/api"

// ServiceName is the RPC service name registered by the server.
const ServiceName = "Clipwatch"

// Session mirrors the HTTP API session DTO for internal IPC callers.
type Session = api.Session

// ActiveSession mirrors the HTTP API active-session DTO.
type ActiveSession = api.ActiveSession

// StatusEvent mirrors the HTTP API status event DTO.
type StatusEvent = api.StatusEvent

// StartRequest begins a recording. An empty Folder uses the configured
// recordings directory.
type StartRequest struct {
	Folder string `json:"folder"`
}

// StartResponse describes the session that was started.
type StartResponse struct {
	Session ActiveSession `json:"session"`
}

// StopRequest ends the active recording.
type StopRequest struct {
	// Wait blocks until highlight processing finishes.
	Wait bool `json:"wait"`
}

// StopResponse reports the stopped session and, when waited for, its outcome.
type StopResponse struct {
	Session ActiveSession `json:"session"`
	Outcome *Session      `json:"outcome,omitempty"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse is the combined daemon and recorder status.
type StatusResponse = api.DaemonStatus

// EventsRequest polls the status stream after Since.
type EventsRequest struct {
	Since      uint64 `json:"since"`
	Limit      int    `json:"limit"`
	Follow     bool   `json:"follow"`
	WaitMillis int    `json:"wait_millis"`
}

// EventsResponse carries status events and the next cursor.
type EventsResponse = api.EventStreamResponse

// SessionListRequest filters the catalog by status names.
type SessionListRequest struct {
	Limit    int      `json:"limit"`
	Statuses []string `json:"statuses"`
}

// SessionListResponse contains catalogued sessions newest first.
type SessionListResponse struct {
	Sessions []Session `json:"sessions"`
}

// SessionDescribeRequest fetches one session.
type SessionDescribeRequest struct {
	ID string `json:"id"`
}

// SessionDescribeResponse contains a single session.
type SessionDescribeResponse struct {
	Session Session `json:"session"`
}

// SessionRemoveRequest deletes catalog rows by ID.
type SessionRemoveRequest struct {
	IDs []string `json:"ids"`
}

// SessionRemoveResponse reports how many rows were removed.
type SessionRemoveResponse struct {
	Removed int `json:"removed"`
}

// LogTailRequest fetches log lines based on offset and follow semantics.
type LogTailRequest struct {
	Offset     int64  `json:"offset"`
	Limit      int    `json:"limit"`
	Follow     bool   `json:"follow"`
	WaitMillis int    `json:"wait_millis"`
	SessionID  string `json:"session_id"`
}

// LogTailResponse returns log lines and the next offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// ShutdownRequest asks the daemon process to exit.
type ShutdownRequest struct{}

// ShutdownResponse acknowledges a shutdown request.
type ShutdownResponse struct {
	Accepted bool `json:"accepted"`
}
