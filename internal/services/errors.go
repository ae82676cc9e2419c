package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// kinds is checked in order; the first marker found names the error.
var kinds = []struct {
	marker error
	label  string
}{
	{ErrConfiguration, "configuration"},
	{ErrValidation, "validation"},
	{ErrNotFound, "not_found"},
	{ErrTimeout, "timeout"},
	{ErrExternalTool, "external_tool"},
}

// Wrap tags err with marker (ErrTransient when nil) and prefixes it with
// "stage: operation: message", skipping blank parts.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	detail := joinNonEmpty(stage, operation, message)
	if detail == "" {
		detail = "service failure"
	}
	if err == nil {
		return fmt.Errorf("%w: %s", marker, detail)
	}
	return fmt.Errorf("%w: %s: %w", marker, detail, err)
}

// Kind labels err by its marker. Unmarked errors are "transient"; nil is "".
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.marker) {
			return k.label
		}
	}
	return "transient"
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ": ")
}
