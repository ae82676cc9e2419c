package vision

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// DefaultThreshold is the correlation coefficient a marker must exceed.
const DefaultThreshold = 0.40

// Result describes the outcome of matching one frame.
type Result struct {
	Matched bool
	Score   float64
	Marker  string
}

// Engine compares frames against a Library.
type Engine struct {
	threshold float64
	filter    EdgeFilter
}

// NewEngine builds an engine. A non-positive threshold uses DefaultThreshold.
func NewEngine(threshold float64, filter EdgeFilter) *Engine {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Engine{threshold: threshold, filter: filter}
}

// Match decodes an encoded frame (PNG, BMP or JPEG) and matches it.
func (e *Engine) Match(frame []byte, lib *Library) (Result, error) {
	if len(frame) == 0 {
		return Result{}, errors.New("empty frame")
	}
	img, err := gocv.IMDecode(frame, gocv.IMReadUnchanged)
	if err != nil {
		return Result{}, fmt.Errorf("decode frame: %w", err)
	}
	defer img.Close()
	if img.Empty() {
		return Result{}, errors.New("decode frame: no image data")
	}
	return e.MatchMat(img, lib)
}

// MatchMat matches a decoded frame. Multi-channel frames are converted to grayscale.
func (e *Engine) MatchMat(frame gocv.Mat, lib *Library) (Result, error) {
	gray, err := toGray(frame)
	if err != nil {
		return Result{}, err
	}
	if gray.Ptr() != frame.Ptr() {
		defer gray.Close()
	}

	edges := e.filter.apply(gray)
	defer edges.Close()

	scores := gocv.NewMat()
	defer scores.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	best := Result{}
	for i := range lib.markers {
		marker := &lib.markers[i]
		if marker.Width > edges.Cols() || marker.Height > edges.Rows() {
			continue
		}
		gocv.MatchTemplate(edges, marker.edges, &scores, gocv.TmCcoeffNormed, mask)
		_, maxVal, _, _ := gocv.MinMaxLoc(scores)
		score := float64(maxVal)
		if score > e.threshold {
			return Result{Matched: true, Score: score, Marker: marker.Name}, nil
		}
		if score > best.Score {
			best = Result{Score: score, Marker: marker.Name}
		}
	}
	return best, nil
}

func toGray(frame gocv.Mat) (gocv.Mat, error) {
	switch frame.Channels() {
	case 1:
		return frame, nil
	case 3:
		gray := gocv.NewMat()
		if err := gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray); err != nil {
			gray.Close()
			return gocv.Mat{}, fmt.Errorf("convert frame to grayscale: %w", err)
		}
		return gray, nil
	case 4:
		gray := gocv.NewMat()
		if err := gocv.CvtColor(frame, &gray, gocv.ColorBGRAToGray); err != nil {
			gray.Close()
			return gocv.Mat{}, fmt.Errorf("convert frame to grayscale: %w", err)
		}
		return gray, nil
	default:
		return gocv.Mat{}, fmt.Errorf("unsupported frame with %d channels", frame.Channels())
	}
}
