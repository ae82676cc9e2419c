package vision

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gocv.io/x/gocv"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"clipwatch/internal/logging"
)

var markerExtensions = []string{".png", ".jpg", ".jpeg", ".bmp"}

// EdgeFilter holds the Canny hysteresis thresholds.
type EdgeFilter struct {
	Low  float32
	High float32
}

// DefaultEdgeFilter matches the thresholds markers are authored against.
var DefaultEdgeFilter = EdgeFilter{Low: 100, High: 200}

func (f EdgeFilter) apply(gray gocv.Mat) gocv.Mat {
	edges := gocv.NewMat()
	gocv.Canny(gray, &edges, f.Low, f.High)
	return edges
}

// Marker is a reference image reduced to its edge map.
type Marker struct {
	Name   string
	File   string
	Width  int
	Height int
	edges  gocv.Mat
}

// Library is an immutable, ordered set of markers. Close releases native memory.
type Library struct {
	markers []Marker
}

// IsMarkerFile reports whether name has a supported image extension.
func IsMarkerFile(name string) bool {
	return slices.Contains(markerExtensions, strings.ToLower(filepath.Ext(name)))
}

// DisplayName turns "kill_feed-icon.png" into "Kill Feed Icon".
func DisplayName(file string) string {
	stem := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	stem = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(stem)
	return cases.Title(language.English).String(strings.Join(strings.Fields(stem), " "))
}

// ListMarkerFiles returns supported image files in dir in lexical order.
func ListMarkerFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read marker directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !IsMarkerFile(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

// LoadLibrary reads every marker image in dir as grayscale and applies the edge
// filter once. An empty directory yields an empty library; unreadable images are
// skipped with a warning; a missing directory is an error.
func LoadLibrary(dir string, filter EdgeFilter, logger *slog.Logger) (*Library, error) {
	logger = logging.NewComponentLogger(logger, "vision")
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("marker directory not configured")
	}
	files, err := ListMarkerFiles(dir)
	if err != nil {
		return nil, err
	}

	lib := &Library{}
	for _, file := range files {
		gray := gocv.IMRead(file, gocv.IMReadGrayScale)
		if gray.Empty() {
			gray.Close()
			logging.WarnWithContext(logger, "marker image unreadable; skipping", "marker_unreadable",
				logging.String("file", file),
				logging.String(logging.FieldErrorHint, "re-export the image as PNG"),
				logging.String(logging.FieldImpact, "this marker will not be detected"),
			)
			continue
		}
		edges := filter.apply(gray)
		marker := Marker{
			Name:   DisplayName(file),
			File:   file,
			Width:  gray.Cols(),
			Height: gray.Rows(),
			edges:  edges,
		}
		gray.Close()
		lib.markers = append(lib.markers, marker)
		logger.Debug("marker loaded", logging.String("marker", marker.Name), logging.Int("width", marker.Width), logging.Int("height", marker.Height))
	}
	logger.Info("marker library loaded", logging.String("dir", dir), logging.Int("markers", len(lib.markers)))
	return lib, nil
}

// Len returns the number of loaded markers.
func (l *Library) Len() int {
	if l == nil {
		return 0
	}
	return len(l.markers)
}

// Markers returns marker display names in match order.
func (l *Library) Markers() []string {
	if l == nil {
		return nil
	}
	names := make([]string, 0, len(l.markers))
	for _, m := range l.markers {
		names = append(names, m.Name)
	}
	return names
}

// Close releases the native edge maps.
func (l *Library) Close() error {
	if l == nil {
		return nil
	}
	for i := range l.markers {
		_ = l.markers[i].edges.Close()
	}
	l.markers = nil
	return nil
}
