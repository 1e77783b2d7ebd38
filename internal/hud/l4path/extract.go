package l4path

import (
	"errors"
	"fmt"
	"image"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/lapdelta/internal/hud/l1pixels"
	"github.com/banshee-data/lapdelta/internal/monitoring"
)

// ErrPathExtractionFailed marks every reason a reference path could not be
// built. Callers must disable position output when they see it.
var ErrPathExtractionFailed = errors.New("path extraction failed")

var logf = monitoring.Prefixed("path")

// Extract votes over samples and builds the reference TrackPath.
func Extract(samples []image.Image, cfg Config) (*TrackPath, error) {
	v := NewVoter(cfg.Families...)
	for i, img := range samples {
		if err := v.Add(img); err != nil {
			return nil, fmt.Errorf("%w: sample %d: %v", ErrPathExtractionFailed, i, err)
		}
	}
	return ExtractFromVoter(v, cfg)
}

// ExtractFromVoter builds the TrackPath from an already populated Voter.
func ExtractFromVoter(v *Voter, cfg Config) (*TrackPath, error) {
	if v.Samples() == 0 || v.Samples() < cfg.MinSamples {
		return nil, fmt.Errorf("%w: %d samples, need at least %d", ErrPathExtractionFailed, v.Samples(), max(cfg.MinSamples, 1))
	}

	raw := v.Threshold(cfg.VoteFraction)
	if raw.Empty() {
		return nil, fmt.Errorf("%w: no pixel reached vote fraction %.2f", ErrPathExtractionFailed, cfg.VoteFraction)
	}

	clean := CleanMask(raw, cfg.DilateRadius)
	contour := l1pixels.TraceContour(clean)
	if len(contour) < 3 {
		return nil, fmt.Errorf("%w: contour has %d points", ErrPathExtractionFailed, len(contour))
	}

	pts := make([]r2.Vec, len(contour))
	for i, c := range contour {
		pts[i] = r2.Vec{X: float64(c.X), Y: float64(c.Y)}
	}
	path, err := NewTrackPath(pts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPathExtractionFailed, err)
	}
	if cfg.Origin != nil {
		path = path.WithOrigin(*cfg.Origin)
	}
	if cfg.Reverse {
		path = path.Reversed()
	}

	logf("extracted track path: %d points, %.1f px long, %d of %d pixels kept after cleaning (%d samples)",
		path.Len(), path.Total(), clean.Count(), raw.Count(), v.Samples())
	return path, nil
}
