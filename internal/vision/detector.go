package vision

import (
	"log/slog"

	"clipwatch/internal/config"
	"clipwatch/internal/detection"
)

// Detector binds an Engine to a loaded Library for use by the detection loop.
type Detector struct {
	engine  *Engine
	library *Library
}

// NewDetector pairs engine with lib. The detector owns lib and closes it.
func NewDetector(engine *Engine, lib *Library) *Detector {
	return &Detector{engine: engine, library: lib}
}

// Match scores one encoded frame.
func (d *Detector) Match(frame []byte) (detection.Match, error) {
	res, err := d.engine.Match(frame, d.library)
	if err != nil {
		return detection.Match{}, err
	}
	return detection.Match{Matched: res.Matched, Score: res.Score, Marker: res.Marker}, nil
}

// Len returns the number of loaded markers.
func (d *Detector) Len() int {
	return d.library.Len()
}

// Close releases the marker library.
func (d *Detector) Close() error {
	return d.library.Close()
}

// FilterFromConfig returns the edge filter configured for detection.
func FilterFromConfig(cfg *config.Config) EdgeFilter {
	if cfg == nil || cfg.Detection.CannyLow <= 0 || cfg.Detection.CannyHigh <= 0 {
		return DefaultEdgeFilter
	}
	return EdgeFilter{Low: float32(cfg.Detection.CannyLow), High: float32(cfg.Detection.CannyHigh)}
}

// NewMatcherFactory reloads the marker directory every time a loop starts so
// markers added between sessions are picked up without a restart.
func NewMatcherFactory(cfg *config.Config, logger *slog.Logger) detection.MatcherFactory {
	filter := FilterFromConfig(cfg)
	engine := NewEngine(cfg.Detection.Threshold, filter)
	return func() (detection.Matcher, error) {
		lib, err := LoadLibrary(cfg.Paths.MarkersDir, filter, logger)
		if err != nil {
			return nil, err
		}
		return NewDetector(engine, lib), nil
	}
}
