package highlights

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"clipwatch/internal/config"
	"clipwatch/internal/deps"
	"clipwatch/internal/fileutil"
	"clipwatch/internal/logging"
	"clipwatch/internal/services"
)

// ClipJob is the plan and outcome for one detection timestamp.
type ClipJob struct {
	SourceTimestamp time.Duration
	AdjustedStart   time.Duration
	ClipPath        string
	Succeeded       bool
	Err             error
}

// Manifest lists successfully extracted clips in timestamp order.
type Manifest struct {
	Clips []string
	Jobs  []ClipJob
}

// Empty reports whether no clip was extracted.
func (m Manifest) Empty() bool {
	return len(m.Clips) == 0
}

// Option configures an Extractor or Merger.
type Option func(*runner)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(r *runner) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// WithNotifier registers a callback for user-facing progress messages.
func WithNotifier(fn func(string)) Option {
	return func(r *runner) {
		r.notify = fn
	}
}

// WithLeadIn overrides the configured lead-in policy.
func WithLeadIn(policy LeadIn) Option {
	return func(r *runner) {
		if policy != nil {
			r.leadIn = policy
		}
	}
}

// runner carries what trims and merges have in common.
type runner struct {
	cfg     *config.Config
	logger  *slog.Logger
	exec    Executor
	notify  func(string)
	leadIn  LeadIn
	resolve func(string) (string, error)
}

func newRunner(cfg *config.Config, logger *slog.Logger, opts []Option) runner {
	r := runner{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "highlights"),
		exec:    commandExecutor{},
		leadIn:  LeadInFromConfig(cfg),
		resolve: deps.ResolveFFmpeg,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func (r runner) emit(msg string) {
	if r.notify != nil {
		r.notify(msg)
	}
}

func (r runner) ffmpeg() (string, error) {
	binary, err := r.resolve(r.cfg.Encoder.Binary)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "highlights", "resolve ffmpeg", "", err)
	}
	return binary, nil
}

func (r runner) debugOutput(logger *slog.Logger) func(string) {
	return func(line string) {
		logger.Debug("ffmpeg output", logging.String("line", line))
	}
}

// Extractor trims clips out of a finished recording.
type Extractor struct {
	runner
	clip time.Duration
}

// NewExtractor constructs an Extractor from the highlights configuration.
func NewExtractor(cfg *config.Config, logger *slog.Logger, opts ...Option) *Extractor {
	return &Extractor{
		runner: newRunner(cfg, logger, opts),
		clip:   seconds(cfg.Highlights.ClipSeconds),
	}
}

// ClipLength returns the fixed duration of every clip.
func (e *Extractor) ClipLength() time.Duration {
	return e.clip
}

// Plan computes clip jobs for timestamps without running anything. Jobs are
// sorted by source timestamp and written beside source.
func (e *Extractor) Plan(timestamps []time.Duration, source string, recordingDuration time.Duration) []ClipJob {
	ordered := slices.Clone(timestamps)
	slices.Sort(ordered)

	dir := filepath.Dir(source)
	jobs := make([]ClipJob, 0, len(ordered))
	for _, ts := range ordered {
		jobs = append(jobs, ClipJob{
			SourceTimestamp: ts,
			AdjustedStart:   ClampStart(ts-e.leadIn.LeadIn(), recordingDuration, e.clip),
			ClipPath:        filepath.Join(dir, ClipName(ts, e.cfg.ContainerExt())),
		})
	}
	return jobs
}

// ClampStart keeps a clip of length clip inside a recording of the given
// duration. Recordings no longer than one clip always start at zero.
func ClampStart(start, duration, clip time.Duration) time.Duration {
	if duration <= clip {
		return 0
	}
	return max(0, min(start, duration-clip))
}

// ClipName names a clip after its unadjusted detection timestamp.
func ClipName(ts time.Duration, ext string) string {
	return fmt.Sprintf("clip_%.3f.%s", ts.Seconds(), ext)
}

// ExtractAll runs one stream-copy trim per timestamp, sequentially. Failed
// jobs are logged and skipped. The returned error is non-nil only when ffmpeg
// cannot be located at all.
func (e *Extractor) ExtractAll(ctx context.Context, timestamps []time.Duration, source string, recordingDuration time.Duration) (Manifest, error) {
	logger := logging.WithContext(ctx, e.logger)
	jobs := e.Plan(timestamps, source, recordingDuration)
	manifest := Manifest{Jobs: jobs}
	if len(jobs) == 0 {
		return manifest, nil
	}

	binary, err := e.ffmpeg()
	if err != nil {
		return manifest, err
	}

	for i := range jobs {
		job := &manifest.Jobs[i]
		e.emit(fmt.Sprintf("Extracting clip %d of %d...", i+1, len(jobs)))
		job.Err = e.exec.Run(ctx, binary, e.trimArgs(*job, source), e.debugOutput(logger))
		if job.Err == nil {
			if _, statErr := fileutil.NonEmptyFile(job.ClipPath); statErr != nil {
				job.Err = fmt.Errorf("clip not written: %w", statErr)
			}
		}
		if job.Err != nil {
			logging.WarnWithContext(logger, "clip extraction failed; skipping", "clip_failed",
				logging.Duration("timestamp", job.SourceTimestamp),
				logging.String("clip", job.ClipPath),
				logging.Error(job.Err),
				logging.String(logging.FieldImpact, "highlight reel will omit this moment"),
			)
			continue
		}
		job.Succeeded = true
		manifest.Clips = append(manifest.Clips, job.ClipPath)
		logger.Info("clip extracted",
			logging.Duration("timestamp", job.SourceTimestamp),
			logging.Duration("start", job.AdjustedStart),
			logging.String("clip", job.ClipPath),
		)
	}

	logger.Info("clip extraction finished",
		logging.Int("requested", len(jobs)),
		logging.Int("succeeded", len(manifest.Clips)),
	)
	return manifest, nil
}

func (e *Extractor) trimArgs(job ClipJob, source string) []string {
	return []string{
		"-hide_banner", "-nostdin", "-y",
		"-ss", formatSeconds(job.AdjustedStart),
		"-i", source,
		"-t", formatSeconds(e.clip),
		"-c", "copy",
		"-f", e.cfg.ContainerMuxer(),
		job.ClipPath,
	}
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}
