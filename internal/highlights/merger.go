package highlights

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"clipwatch/internal/config"
	"clipwatch/internal/fileutil"
	"clipwatch/internal/logging"
	"clipwatch/internal/services"
)

// ListFileName is the concat demuxer input written beside the merged output.
const ListFileName = "filelist.txt"

// MergedBaseName is the stem of the merged highlight file.
const MergedBaseName = "merged_output"

// Merger concatenates extracted clips.
type Merger struct {
	runner
}

// NewMerger constructs a Merger using the configured merge codecs.
func NewMerger(cfg *config.Config, logger *slog.Logger, opts ...Option) *Merger {
	return &Merger{runner: newRunner(cfg, logger, opts)}
}

// OutputPath returns the merged file location inside a session folder.
func (m *Merger) OutputPath(folder string) string {
	return filepath.Join(folder, MergedBaseName+"."+m.cfg.ContainerExt())
}

// Merge writes the concat list and re-encodes every clip in manifest into
// outputPath. An empty manifest is a no-op reporting false. Clip files are
// never modified.
func (m *Merger) Merge(ctx context.Context, manifest Manifest, outputPath string) (bool, error) {
	logger := logging.WithContext(ctx, m.logger)
	if manifest.Empty() {
		logger.Info("no clips to merge")
		return false, nil
	}

	binary, err := m.ffmpeg()
	if err != nil {
		return false, err
	}

	listPath := filepath.Join(filepath.Dir(outputPath), ListFileName)
	if err := fileutil.WriteFileAtomic(listPath, []byte(ConcatList(manifest.Clips)), 0o644); err != nil {
		return false, services.Wrap(services.ErrTransient, "highlights", "write concat list", listPath, err)
	}

	m.emit("Merging clips...")
	args := []string{
		"-hide_banner", "-nostdin", "-y",
		"-f", "concat", "-safe", "0",
		"-i", listPath,
		"-c:v", m.cfg.Highlights.MergeVideoCodec,
		"-c:a", m.cfg.Highlights.MergeAudioCodec,
		"-f", m.cfg.ContainerMuxer(),
		outputPath,
	}
	if err := m.exec.Run(ctx, binary, args, m.debugOutput(logger)); err != nil {
		return false, services.Wrap(services.ErrExternalTool, "highlights", "merge clips", fmt.Sprintf("%d clips", len(manifest.Clips)), err)
	}
	if _, err := fileutil.NonEmptyFile(outputPath); err != nil {
		return false, services.Wrap(services.ErrExternalTool, "highlights", "merge clips", "merged output missing", err)
	}

	logger.Info("clips merged", logging.Int("clips", len(manifest.Clips)), logging.String("output", outputPath))
	return true, nil
}

// ConcatList renders paths in concat demuxer syntax.
func ConcatList(paths []string) string {
	var b strings.Builder
	for _, p := range paths {
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(p, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}
