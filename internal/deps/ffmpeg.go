package deps

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// FFmpegEnvVar overrides the ffmpeg executable used for recording, trimming and merging.
const FFmpegEnvVar = "CLIPWATCH_FFMPEG"

// ErrFFmpegNotFound reports that no usable ffmpeg binary could be located.
var ErrFFmpegNotFound = errors.New("ffmpeg binary not found")

// ResolveFFmpeg locates the ffmpeg executable. The CLIPWATCH_FFMPEG environment
// variable wins over the configured binary, which wins over PATH lookup. An
// explicitly named binary that does not resolve is an error rather than a
// silent fallback to PATH.
func ResolveFFmpeg(configured string) (string, error) {
	if value := strings.TrimSpace(os.Getenv(FFmpegEnvVar)); value != "" {
		return lookup(value, FFmpegEnvVar)
	}
	if value := strings.TrimSpace(configured); value != "" {
		return lookup(value, "encoder.binary")
	}
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf("%w: install ffmpeg or set %s", ErrFFmpegNotFound, FFmpegEnvVar)
	}
	return path, nil
}

func lookup(candidate, source string) (string, error) {
	path, err := exec.LookPath(candidate)
	if err != nil {
		return "", fmt.Errorf("%w: %s=%q: %v", ErrFFmpegNotFound, source, candidate, err)
	}
	return path, nil
}

// CheckFFmpeg reports ffmpeg availability using ResolveFFmpeg's lookup order.
func CheckFFmpeg(configured string) Status {
	status := Status{
		Name:        "FFmpeg",
		Command:     "ffmpeg",
		Description: "Records the screen and trims/merges highlight clips",
	}
	if value := strings.TrimSpace(os.Getenv(FFmpegEnvVar)); value != "" {
		status.Command = value
	} else if value := strings.TrimSpace(configured); value != "" {
		status.Command = value
	}
	path, err := ResolveFFmpeg(configured)
	if err != nil {
		status.Detail = err.Error()
		return status
	}
	status.Available = true
	status.Resolved = path
	return status
}
