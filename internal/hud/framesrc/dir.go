package framesrc

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/banshee-data/lapdelta/internal/config"
	"github.com/banshee-data/lapdelta/internal/hud/pipeline"
	"github.com/banshee-data/lapdelta/internal/monitoring"
)

var logf = monitoring.Prefixed("framesrc")

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".bmp": true, ".tif": true, ".tiff": true, ".gif": true}

// DirSource yields the images of a directory as frames. It is not safe
// for concurrent use.
type DirSource struct {
	files   []string
	fps     float64
	regions map[string]image.Rectangle
	next    int
}

// NewDirSource lists the images in dir. Timestamps are index/fps seconds.
func NewDirSource(dir string, fps float64, layout *config.LayoutConfig) (*DirSource, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %g", fps)
	}
	if layout == nil {
		return nil, fmt.Errorf("frame source needs a layout")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no image files in %s", dir)
	}
	sort.Strings(files)

	regions := make(map[string]image.Rectangle, len(layout.Regions))
	for name, r := range layout.Regions {
		regions[name] = image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
	}
	logf("found %d frames in %s", len(files), dir)
	return &DirSource{files: files, fps: fps, regions: regions}, nil
}

// Len returns the number of frames.
func (s *DirSource) Len() int { return len(s.files) }

// Next implements pipeline.FrameSource.
func (s *DirSource) Next(ctx context.Context) (pipeline.Frame, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.Frame{}, err
	}
	if s.next >= len(s.files) {
		return pipeline.Frame{}, io.EOF
	}
	i := s.next
	s.next++

	img, err := imaging.Open(s.files[i])
	if err != nil {
		return pipeline.Frame{}, fmt.Errorf("frame %d: %w", i, err)
	}
	f := pipeline.Frame{
		Index:     int64(i),
		Timestamp: float64(i) / s.fps,
		Regions:   make(map[string]image.Image, len(s.regions)),
	}
	for name, r := range s.regions {
		f.Regions[name] = crop(img, r)
	}
	return f, nil
}

// Rewind restarts the sequence from the first frame.
func (s *DirSource) Rewind() { s.next = 0 }

// SampleRegion decodes n frames spread evenly over the sequence and
// returns the named region of each, for reference path extraction.
func (s *DirSource) SampleRegion(name string, n int) ([]image.Image, error) {
	r, ok := s.regions[name]
	if !ok {
		return nil, fmt.Errorf("unknown region %q", name)
	}
	if n <= 0 {
		return nil, fmt.Errorf("sample count must be positive, got %d", n)
	}
	n = min(n, len(s.files))

	out := make([]image.Image, 0, n)
	for k := 0; k < n; k++ {
		i := k * len(s.files) / n
		img, err := imaging.Open(s.files[i])
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		out = append(out, crop(img, r))
	}
	return out, nil
}

// crop returns the part of r inside img, re-based at the origin. A region
// outside the frame yields nil.
func crop(img image.Image, r image.Rectangle) image.Image {
	if r.Intersect(img.Bounds()).Empty() {
		return nil
	}
	return imaging.Crop(img, r)
}
