package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Session describes a catalogued recording in a transport-friendly format.
type Session struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Folder          string  `json:"folder"`
	RecordingPath   string  `json:"recordingPath"`
	Status          string  `json:"status"`
	StartedAt       string  `json:"startedAt,omitempty"`
	EndedAt         string  `json:"endedAt,omitempty"`
	DurationSeconds float64 `json:"durationSeconds"`
	Detections      int     `json:"detections"`
	Clips           int     `json:"clips"`
	RecordingBytes  int64   `json:"recordingBytes"`
	MergedPath      string  `json:"mergedPath,omitempty"`
	MergedDuration  float64 `json:"mergedDuration,omitempty"`
	ErrorKind       string  `json:"errorKind,omitempty"`
	ErrorMessage    string  `json:"errorMessage,omitempty"`
	UpdatedAt       string  `json:"updatedAt,omitempty"`
}

// ActiveSession is the recording currently owned by the orchestrator.
type ActiveSession struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Folder         string  `json:"folder"`
	OutputPath     string  `json:"outputPath"`
	State          string  `json:"state"`
	StartedAt      string  `json:"startedAt,omitempty"`
	ElapsedSeconds float64 `json:"elapsedSeconds"`
}

// StatusEvent is one entry of the status stream.
type StatusEvent struct {
	Sequence  uint64 `json:"seq"`
	Timestamp string `json:"ts"`
	Phase     string `json:"phase"`
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

// EncoderStats is a resource sample of the running encoder.
type EncoderStats struct {
	PID           int     `json:"pid"`
	CPUPercent    float64 `json:"cpuPercent"`
	RSSBytes      uint64  `json:"rssBytes"`
	Nice          int32   `json:"nice"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

// SessionSummary counts catalogued sessions by outcome.
type SessionSummary struct {
	Total        int `json:"total"`
	Complete     int `json:"complete"`
	NoHighlights int `json:"noHighlights"`
	Failed       int `json:"failed"`
	Active       int `json:"active"`
	Clips        int `json:"clips"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	State        string         `json:"state"`
	Session      *ActiveSession `json:"session,omitempty"`
	Detections   int            `json:"detections"`
	Encoder      *EncoderStats  `json:"encoder,omitempty"`
	Latest       *StatusEvent   `json:"latest,omitempty"`
	Sessions     SessionSummary `json:"sessions"`
	CatalogPath  string         `json:"catalogPath"`
	LockFilePath string         `json:"lockFilePath"`
	LogPath      string         `json:"logPath"`
	APIBind      string         `json:"apiBind,omitempty"`
}

// SessionListResponse wraps a collection of sessions.
type SessionListResponse struct {
	Sessions []Session `json:"sessions"`
}

// SessionResponse wraps a single session.
type SessionResponse struct {
	Session Session `json:"session"`
}

// EventStreamResponse carries status events and the cursor for the next poll.
type EventStreamResponse struct {
	Events []StatusEvent `json:"events"`
	Next   uint64        `json:"next"`
}
