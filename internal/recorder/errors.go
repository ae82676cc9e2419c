package recorder

import "clipwatch/internal/services"

var (
	// ErrAlreadyRecording rejects Start while a session is starting, recording
	// or still being processed.
	ErrAlreadyRecording = services.Wrap(services.ErrValidation, "recorder", "start", "recording already in progress", nil)
	// ErrNotRecording rejects Stop when no session is recording.
	ErrNotRecording = services.Wrap(services.ErrValidation, "recorder", "stop", "no recording in progress", nil)
)
