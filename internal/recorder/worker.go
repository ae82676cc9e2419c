package recorder

import (
	"context"
	"fmt"
	"path/filepath"

	"clipwatch/internal/fileutil"
	"clipwatch/internal/logging"
	"clipwatch/internal/services"
	"clipwatch/internal/status"
)

// process is the stop-time highlight worker. It owns the detection buffer
// until it clears it and never changes orchestrator state except through
// finish.
func (r *Recorder) process(ctx context.Context, session Session, done chan struct{}) {
	logger := logging.WithContext(ctx, r.logger)
	result := Result{Session: session}

	defer func() {
		if rec := recover(); rec != nil {
			result.Stage = "worker"
			result.Err = fmt.Errorf("highlight worker panic: %v", rec)
			logging.ErrorWithContext(logger, "highlight worker panicked", "highlights_panic", logging.Any("panic", rec))
		}
		r.detector.ClearTimestamps()
		r.finish(ctx, result, done)
	}()

	r.publish(&session, status.PhaseValidating, "Validating recorded file...")
	size, err := fileutil.NonEmptyFile(session.OutputPath)
	if err != nil {
		result.Stage = "validating"
		result.Err = services.Wrap(services.ErrValidation, "recorder", "validate recording", session.OutputPath, err)
		logging.ErrorWithContext(logger, "recording file missing or empty; skipping highlights", "recording_invalid",
			logging.Error(result.Err),
			logging.String(logging.FieldErrorHint, "inspect the ffmpeg diagnostics in the log"),
		)
		r.publish(&session, status.PhaseFailed, "Recording file missing or empty; highlights skipped.")
		return
	}
	end := r.now()
	session.EndTime = &end
	result.Session = session
	result.RecordingBytes = size
	r.publish(&session, status.PhaseValidating, "Recording file saved successfully.")

	timestamps := r.detector.Timestamps()
	result.Detections = timestamps
	if len(timestamps) == 0 {
		logger.Info("no detections; highlights skipped", logging.Duration("duration", session.Duration()))
		r.publish(&session, status.PhaseComplete, "No highlights detected.")
		return
	}

	r.publish(&session, status.PhaseExtracting, fmt.Sprintf("Extracting %d clips...", len(timestamps)))
	manifest, err := r.extractor.ExtractAll(services.WithStage(ctx, "extracting"), timestamps, session.OutputPath, session.Duration())
	result.Manifest = manifest
	if err != nil {
		result.Stage = "extracting"
		result.Err = err
		logging.ErrorWithContext(logger, "clip extraction failed", "extraction_failed", logging.Error(err))
		r.publish(&session, status.PhaseFailed, "Clip extraction failed: "+err.Error())
		return
	}
	if manifest.Empty() {
		logging.WarnWithContext(logger, "no clips extracted; merge skipped", "no_clips",
			logging.Int("detections", len(timestamps)),
			logging.String(logging.FieldImpact, "no highlight file for this session"),
		)
		r.publish(&session, status.PhaseComplete, "No clips could be extracted; merge skipped.")
		return
	}

	output := r.merger.OutputPath(session.Folder)
	r.publish(&session, status.PhaseMerging, fmt.Sprintf("Merging %d clips into %s...", len(manifest.Clips), filepath.Base(output)))
	merged, err := r.merger.Merge(services.WithStage(ctx, "merging"), manifest, output)
	if err != nil {
		result.Stage = "merging"
		result.Err = err
		logging.ErrorWithContext(logger, "merge failed; clips kept", "merge_failed",
			logging.Error(err),
			logging.Int("clips", len(manifest.Clips)),
			logging.String(logging.FieldImpact, "individual clips remain in the session folder"),
		)
		r.publish(&session, status.PhaseFailed, "Merge failed; individual clips kept.")
		return
	}
	result.Merged = merged
	if merged {
		result.MergedPath = output
	}
	logger.Info("highlights ready", logging.Int("clips", len(manifest.Clips)), logging.String("output", output))
	r.publish(&session, status.PhaseComplete, "Highlights ready: "+output)
}

// finish notifies the observer, then returns the orchestrator to idle.
func (r *Recorder) finish(ctx context.Context, result Result, done chan struct{}) {
	r.observer.SessionFinished(ctx, result)

	r.mu.Lock()
	if r.worker == done {
		r.state = StateIdle
		r.session = nil
		r.proc = nil
		r.last = &result
	}
	r.mu.Unlock()
	r.publish(&result.Session, status.PhaseIdle, "Ready.")
	close(done)
}
