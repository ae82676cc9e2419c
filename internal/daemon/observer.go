package daemon

import (
	"context"
	"time"

	"clipwatch/internal/catalog"
	"clipwatch/internal/logging"
	"clipwatch/internal/notifications"
	"clipwatch/internal/recorder"
	"clipwatch/internal/services"
)

const probeTimeout = 30 * time.Second

// SessionStarted records a new catalog row.
func (d *Daemon) SessionStarted(ctx context.Context, session recorder.Session) {
	row := &catalog.Session{
		ID:            session.ID,
		Name:          session.Name,
		Folder:        session.Folder,
		RecordingPath: session.OutputPath,
		Status:        catalog.StatusRecording,
		StartedAt:     session.StartTime,
	}
	if err := d.store.Begin(ctx, row); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, d.logger), "session not catalogued", "catalog_insert_failed",
			logging.String("session", session.ID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "the session will be missing from `clipwatch sessions`"),
		)
	}
}

// SessionFinished stores the outcome and publishes the matching notification.
func (d *Daemon) SessionFinished(ctx context.Context, result recorder.Result) {
	logger := logging.WithContext(ctx, d.logger)
	row := d.outcome(ctx, result)

	if err := d.store.Update(ctx, row); err != nil {
		logging.WarnWithContext(logger, "session outcome not catalogued", "catalog_update_failed",
			logging.String("session", row.ID),
			logging.Error(err),
		)
	}
	d.notify(ctx, result, row)
}

func (d *Daemon) outcome(ctx context.Context, result recorder.Result) *catalog.Session {
	session := result.Session
	row, err := d.store.Get(ctx, session.ID)
	if err != nil || row == nil {
		row = &catalog.Session{
			ID:            session.ID,
			Name:          session.Name,
			Folder:        session.Folder,
			RecordingPath: session.OutputPath,
			StartedAt:     session.StartTime,
		}
		if beginErr := d.store.Begin(ctx, row); beginErr != nil {
			d.logger.Debug("late catalog insert failed", logging.Error(beginErr))
		}
	}

	row.EndedAt = session.EndTime
	row.Detections = len(result.Detections)
	row.Clips = len(result.Manifest.Clips)
	row.RecordingBytes = result.RecordingBytes

	switch {
	case result.Err != nil:
		row.Status = catalog.StatusFailed
		row.ErrorKind = services.Kind(result.Err)
		row.ErrorMessage = result.Err.Error()
	case result.Merged:
		row.Status = catalog.StatusComplete
		row.MergedPath = result.MergedPath
		row.MergedDuration = d.mergedDuration(ctx, result.MergedPath)
	default:
		row.Status = catalog.StatusNoHighlights
	}
	return row
}

// mergedDuration is best effort; zero means unknown.
func (d *Daemon) mergedDuration(ctx context.Context, path string) float64 {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	result, err := d.probe(probeCtx, d.cfg.FFprobeBinary(), path)
	if err != nil {
		d.logger.Info("merged output not inspected",
			logging.String("path", path),
			logging.Error(err),
		)
		return 0
	}
	duration := result.DurationSeconds()
	d.logger.Info("merged output inspected",
		logging.String("path", path),
		logging.Float64("duration_seconds", duration),
		logging.Int64("size_bytes", result.SizeBytes()),
	)
	return duration
}

func (d *Daemon) notify(ctx context.Context, result recorder.Result, row *catalog.Session) {
	var (
		event   notifications.Event
		payload notifications.Payload
	)
	switch row.Status {
	case catalog.StatusComplete:
		event = notifications.EventHighlightsReady
		payload = notifications.Payload{
			"session":  row.Name,
			"clips":    row.Clips,
			"duration": row.MergedDuration,
			"output":   row.MergedPath,
		}
	case catalog.StatusNoHighlights:
		event = notifications.EventNoHighlights
		payload = notifications.Payload{
			"session":   row.Name,
			"recording": row.RecordingPath,
		}
	case catalog.StatusFailed:
		event = notifications.EventSessionFailed
		payload = notifications.Payload{
			"session": row.Name,
			"stage":   result.Stage,
			"error":   row.ErrorMessage,
		}
	default:
		return
	}
	if err := d.notifier.Publish(ctx, event, payload); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, d.logger), "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic and network access"),
		)
	}
}
