package recorder

import (
	"time"

	"clipwatch/internal/highlights"
)

// State is the orchestrator lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateStarting  State = "starting"
	StateRecording State = "recording"
	// StateStopping covers the encoder shutdown and the highlight worker.
	StateStopping State = "stopping"
)

// FolderLayout is the session folder name format.
const FolderLayout = "20060102_150405"

// Session describes one recording.
type Session struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Folder     string     `json:"folder"`
	OutputPath string     `json:"output_path"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time,omitempty"`
	State      State      `json:"state"`
}

// Duration is the validated recording length, or zero before EndTime is stamped.
func (s Session) Duration() time.Duration {
	if s.EndTime == nil {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// Result is the outcome of the stop-time worker.
type Result struct {
	Session        Session
	Detections     []time.Duration
	Manifest       highlights.Manifest
	RecordingBytes int64
	MergedPath     string
	Merged         bool
	// Stage names the step that failed when Err is set.
	Stage string
	Err   error
}

// Snapshot is a point-in-time view of the orchestrator.
type Snapshot struct {
	State      State    `json:"state"`
	Session    *Session `json:"session,omitempty"`
	Detections int      `json:"detections"`
	EncoderPID int      `json:"encoder_pid,omitempty"`
	Last       *Result  `json:"-"`
}
