package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clipwatch/internal/api"
	"clipwatch/internal/catalog"
	"clipwatch/internal/config"
	"clipwatch/internal/deps"
	"clipwatch/internal/ipc"
	"clipwatch/internal/preflight"
)

const catalogQueryTimeout = 2 * time.Second

// Snapshot is the status view shown by `clipwatch status`. Daemon is nil when
// the daemon is offline; Sessions then comes from the catalog directly.
type Snapshot struct {
	Daemon            *ipc.StatusResponse
	Sessions          api.SessionSummary
	Dependencies      []deps.Status
	DependencySummary DependencySummary
	Checks            []preflight.Result
}

// BuildStatusSnapshot asks the daemon for its status and fills the rest
// from local checks.
func BuildStatusSnapshot(ctx context.Context, socketPath string, cfg *config.Config, markers preflight.MarkerLister) (*Snapshot, error) {
	if cfg == nil {
		return nil, errors.New("configuration not available")
	}
	snap := &Snapshot{Daemon: daemonStatus(socketPath)}
	if snap.Daemon != nil {
		snap.Sessions = snap.Daemon.Sessions
	} else {
		snap.Sessions = catalogSummary(ctx, cfg)
	}

	snap.Dependencies = preflight.CheckSystemDeps(cfg)
	snap.DependencySummary = BuildDependencySummary(snap.Dependencies)

	snap.Checks = append(snap.Checks, preflight.CheckDirectoryAccess("Recordings", cfg.Paths.RecordingsDir))
	if markers != nil {
		snap.Checks = append(snap.Checks, preflight.CheckMarkers(cfg.Paths.MarkersDir, markers))
	}
	snap.Checks = append(snap.Checks,
		preflight.CheckNotificationsFromConfig(ctx, cfg),
		preflight.CheckAPIFromConfig(cfg),
	)
	return snap, nil
}

func daemonStatus(socketPath string) *ipc.StatusResponse {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		return nil
	}
	defer client.Close()
	status, err := client.Status()
	if err != nil {
		return nil
	}
	return status
}

// catalogSummary reads the catalog directly; failures leave the summary empty.
func catalogSummary(ctx context.Context, cfg *config.Config) api.SessionSummary {
	store, err := catalog.Open(cfg)
	if err != nil {
		return api.SessionSummary{}
	}
	defer store.Close()
	queryCtx, cancel := context.WithTimeout(ctx, catalogQueryTimeout)
	defer cancel()
	summary, err := store.Summarize(queryCtx)
	if err != nil {
		return api.SessionSummary{}
	}
	return api.FromSummary(summary)
}

// DependencySummary counts available and missing external tools.
type DependencySummary struct {
	Total           int
	Available       int
	MissingRequired int
	MissingOptional int
	Severity        string
	Detail          string
}

// BuildDependencySummary folds tool statuses into one severity line.
func BuildDependencySummary(statuses []deps.Status) DependencySummary {
	if len(statuses) == 0 {
		return DependencySummary{Severity: "info", Detail: "No dependency checks configured"}
	}
	sum := DependencySummary{Total: len(statuses)}
	for _, status := range statuses {
		switch {
		case status.Available:
			sum.Available++
		case status.Optional:
			sum.MissingOptional++
		default:
			sum.MissingRequired++
		}
	}

	sum.Severity = "ok"
	sum.Detail = fmt.Sprintf("%d/%d available", sum.Available, sum.Total)
	if sum.MissingRequired+sum.MissingOptional == 0 {
		return sum
	}
	sum.Severity = "warn"
	if sum.MissingRequired > 0 {
		sum.Severity = "error"
	}
	sum.Detail += fmt.Sprintf(" (missing: %d required, %d optional)", sum.MissingRequired, sum.MissingOptional)
	return sum
}
