package encoder

import (
	"fmt"

	"clipwatch/internal/services"
)

var (
	// ErrEncoderNotFound reports that no ffmpeg executable could be resolved.
	ErrEncoderNotFound = fmt.Errorf("%w: encoder executable not found", services.ErrConfiguration)
	// ErrEncoderStartFailed reports that ffmpeg could not be launched or exited during startup.
	ErrEncoderStartFailed = fmt.Errorf("%w: encoder failed to start", services.ErrExternalTool)
)
