// Package ffprobe runs ffprobe against recordings and merged highlight files and
// decodes the JSON it prints.
//
// Inspect returns a Result; Summarize reduces it to the handful of fields the
// session catalog stores.
package ffprobe
