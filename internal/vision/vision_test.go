package vision

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"clipwatch/internal/config"
	"clipwatch/internal/logging"
)

func squareImage(t *testing.T, width, height, x, y, side int) []byte {
	t.Helper()
	return rectImage(t, width, height, image.Rect(x, y, x+side, y+side))
}

// rectImage draws a white rectangle on black; parts outside the canvas are clipped.
func rectImage(t *testing.T, width, height int, rect image.Rectangle) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, width, height))
	rect = rect.Intersect(img.Bounds())
	for py := rect.Min.Y; py < rect.Max.Y; py++ {
		for px := rect.Min.X; px < rect.Max.X; px++ {
			img.SetGray(px, py, color.Gray{Y: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func blankImage(t *testing.T, width, height int) []byte {
	t.Helper()
	return squareImage(t, width, height, 0, 0, 0)
}

func writeMarker(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatalf("write marker: %v", err)
	}
}

func loadTestLibrary(t *testing.T) *Library {
	t.Helper()
	dir := t.TempDir()
	writeMarker(t, dir, "kill_feed-icon.png", squareImage(t, 40, 40, 10, 10, 20))
	writeMarker(t, dir, "notes.txt", []byte("not an image"))
	writeMarker(t, dir, "broken.png", []byte("definitely not png"))

	lib, err := LoadLibrary(dir, DefaultEdgeFilter, logging.NewNop())
	if err != nil {
		t.Fatalf("LoadLibrary: %v", err)
	}
	t.Cleanup(func() { _ = lib.Close() })
	return lib
}

func TestLoadLibrarySkipsUnreadableAndNonImages(t *testing.T) {
	lib := loadTestLibrary(t)
	if lib.Len() != 1 {
		t.Fatalf("expected 1 marker, got %d (%v)", lib.Len(), lib.Markers())
	}
	if got := lib.Markers()[0]; got != "Kill Feed Icon" {
		t.Fatalf("unexpected marker name %q", got)
	}
}

func TestLoadLibraryMissingDirFails(t *testing.T) {
	if _, err := LoadLibrary(filepath.Join(t.TempDir(), "absent"), DefaultEdgeFilter, logging.NewNop()); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestLoadLibraryEmptyDir(t *testing.T) {
	lib, err := LoadLibrary(t.TempDir(), DefaultEdgeFilter, logging.NewNop())
	if err != nil {
		t.Fatalf("LoadLibrary: %v", err)
	}
	if lib.Len() != 0 {
		t.Fatalf("expected empty library, got %d", lib.Len())
	}
}

func TestEngineMatchesMarkerInFrame(t *testing.T) {
	lib := loadTestLibrary(t)
	engine := NewEngine(0, DefaultEdgeFilter)

	res, err := engine.Match(squareImage(t, 200, 200, 120, 60, 20), lib)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if !res.Matched {
		t.Fatalf("expected match, got score %.3f", res.Score)
	}
	if res.Score < 0.9 {
		t.Fatalf("expected near-perfect score, got %.3f", res.Score)
	}
	if res.Marker != "Kill Feed Icon" {
		t.Fatalf("unexpected marker %q", res.Marker)
	}
}

func TestEngineShortCircuitsOnFirstMatch(t *testing.T) {
	dir := t.TempDir()
	// The square runs off the bottom of the canvas, so its edge map lacks the
	// bottom side and only partly matches the frame.
	writeMarker(t, dir, "a_open-square.png", rectImage(t, 40, 40, image.Rect(10, 10, 30, 50)))
	writeMarker(t, dir, "b_square.png", squareImage(t, 40, 40, 10, 10, 20))
	lib, err := LoadLibrary(dir, DefaultEdgeFilter, logging.NewNop())
	if err != nil {
		t.Fatalf("LoadLibrary: %v", err)
	}
	defer lib.Close()
	if got := lib.Markers(); len(got) != 2 || got[0] != "A Open Square" {
		t.Fatalf("unexpected marker order %v", got)
	}

	engine := NewEngine(DefaultThreshold, DefaultEdgeFilter)
	res, err := engine.Match(squareImage(t, 200, 200, 120, 60, 20), lib)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if !res.Matched || res.Marker != "A Open Square" {
		t.Fatalf("expected the first matching marker to win, got %+v", res)
	}
	if res.Score >= 0.99 {
		t.Fatalf("expected a partial score from the first marker, got %.3f", res.Score)
	}
}

func TestEngineRejectsBlankFrame(t *testing.T) {
	lib := loadTestLibrary(t)
	engine := NewEngine(DefaultThreshold, DefaultEdgeFilter)

	res, err := engine.Match(blankImage(t, 200, 200), lib)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if res.Matched {
		t.Fatalf("expected no match on blank frame, got score %.3f", res.Score)
	}
}

func TestEngineSkipsMarkersLargerThanFrame(t *testing.T) {
	lib := loadTestLibrary(t)
	engine := NewEngine(DefaultThreshold, DefaultEdgeFilter)

	res, err := engine.Match(blankImage(t, 20, 20), lib)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if res.Matched || res.Score != 0 {
		t.Fatalf("expected zero score, got %+v", res)
	}
}

func TestEngineRejectsUndecodableFrame(t *testing.T) {
	lib := loadTestLibrary(t)
	engine := NewEngine(DefaultThreshold, DefaultEdgeFilter)
	if _, err := engine.Match(nil, lib); err == nil {
		t.Fatal("expected error for empty frame")
	}
	if _, err := engine.Match([]byte("garbage"), lib); err == nil {
		t.Fatal("expected error for undecodable frame")
	}
}

func TestMatcherFactoryReloadsMarkers(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.MarkersDir = t.TempDir()
	factory := NewMatcherFactory(&cfg, logging.NewNop())

	first, err := factory()
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	if first.Len() != 0 {
		t.Fatalf("expected empty marker set, got %d", first.Len())
	}
	_ = first.Close()

	writeMarker(t, cfg.Paths.MarkersDir, "headshot.png", squareImage(t, 40, 40, 10, 10, 20))
	second, err := factory()
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	defer second.Close()
	if second.Len() != 1 {
		t.Fatalf("expected reload to pick up new marker, got %d", second.Len())
	}

	match, err := second.Match(squareImage(t, 120, 120, 50, 50, 20))
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if !match.Matched || match.Marker != "Headshot" {
		t.Fatalf("unexpected match %+v", match)
	}
}

func TestDisplayNameAndExtensions(t *testing.T) {
	cases := map[string]string{
		"kill_feed-icon.png":    "Kill Feed Icon",
		"/tmp/markers/ACE.jpeg": "Ace",
		"double__sep.bmp":       "Double Sep",
	}
	for in, want := range cases {
		if got := DisplayName(in); got != want {
			t.Fatalf("DisplayName(%q) = %q, want %q", in, got, want)
		}
	}
	for _, name := range []string{"a.PNG", "b.jpg", "c.jpeg", "d.bmp"} {
		if !IsMarkerFile(name) {
			t.Fatalf("expected %s to be a marker file", name)
		}
	}
	for _, name := range []string{"a.gif", "readme", "x.png.txt"} {
		if IsMarkerFile(name) {
			t.Fatalf("expected %s to be rejected", name)
		}
	}
}

func TestFilterFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Detection.CannyLow = 50
	cfg.Detection.CannyHigh = 150
	if got := FilterFromConfig(&cfg); got.Low != 50 || got.High != 150 {
		t.Fatalf("unexpected filter %+v", got)
	}
	if got := FilterFromConfig(nil); got != DefaultEdgeFilter {
		t.Fatalf("expected default filter, got %+v", got)
	}
}
