package preflight

import (
	"context"
	"strings"

	"clipwatch/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// MarkerLister returns the marker image files found in a directory.
type MarkerLister func(dir string) ([]string, error)

// RunAll executes all applicable preflight checks for the given config.
// A nil lister skips the marker check.
func RunAll(ctx context.Context, cfg *config.Config, list MarkerLister) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Recordings directory", cfg.Paths.RecordingsDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	if list != nil {
		results = append(results, CheckMarkers(cfg.Paths.MarkersDir, list))
	}

	if strings.TrimSpace(cfg.Notifications.NtfyTopic) != "" {
		results = append(results, CheckNtfy(ctx, cfg.Notifications.NtfyTopic))
	}

	for _, dep := range CheckSystemDeps(cfg) {
		result := Result{Name: dep.Name, Passed: dep.Available, Detail: dep.Detail}
		if dep.Available {
			result.Detail = dep.Resolved
		}
		results = append(results, result)
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
