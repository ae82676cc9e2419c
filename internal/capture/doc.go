// Package capture grabs single full-screen frames for marker detection.
//
// Frames come from a short-lived ffmpeg invocation against the same capture
// device the recording uses, encoded as PNG on stdout. The recording process
// keeps exclusive ownership of audio; grabs only ever open the video input.
package capture
