// Package detection runs the marker detection loop that records highlight
// timestamps while a session is being recorded.
//
// Loop captures frames, hands them to a Matcher, and offers every match to a
// Buffer that debounces detections closer together than the minimum gap.
// Timestamps are durations relative to the session start.
package detection
