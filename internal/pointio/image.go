package pointio

import (
	"fmt"
	"image"
	"strings"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"

	"github.com/cwbudde/ransacfit/internal/geom"
)

// Foreground selects which pixels of an image become points.
type Foreground string

const (
	// ForegroundDark takes pixels darker than the threshold level, as for
	// drawings on white paper.
	ForegroundDark Foreground = "dark"
	// ForegroundBright takes pixels at or above the threshold level.
	ForegroundBright Foreground = "bright"
	// ForegroundEdges thresholds the Sobel gradient magnitude, turning
	// filled shapes into outlines.
	ForegroundEdges Foreground = "edges"
)

// ImageOptions controls how images are turned into points.
type ImageOptions struct {
	Level      uint8      `yaml:"level" json:"level"`
	Foreground Foreground `yaml:"foreground" json:"foreground"`

	// MaxPoints subsamples the foreground pixels evenly if positive.
	MaxPoints int `yaml:"max_points" json:"maxPoints"`
}

// DefaultImageOptions returns dark foreground at mid-gray level.
func DefaultImageOptions() ImageOptions {
	return ImageOptions{Level: 128, Foreground: ForegroundDark}
}

// LoadImage decodes the image at path and extracts its foreground pixels.
func LoadImage(path string, opts ImageOptions) ([]geom.Point, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return FromImage(img, opts)
}

// FromImage returns the pixel coordinates of the foreground of img,
// relative to its top-left corner, in row-major order.
func FromImage(img image.Image, opts ImageOptions) ([]geom.Point, error) {
	var want uint8
	switch Foreground(strings.ToLower(string(opts.Foreground))) {
	case ForegroundDark, "":
		want = 0
	case ForegroundBright:
		want = 255
	case ForegroundEdges:
		img = effect.Sobel(img)
		want = 255
	default:
		return nil, fmt.Errorf("unknown foreground %q (want dark, bright or edges)", opts.Foreground)
	}

	bin := segment.Threshold(img, opts.Level)
	b := bin.Bounds()

	var pts []geom.Point
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if bin.GrayAt(x, y).Y == want {
				pts = append(pts, geom.Pt(float64(x-b.Min.X), float64(y-b.Min.Y)))
			}
		}
	}
	return subsample(pts, opts.MaxPoints), nil
}

func subsample(pts []geom.Point, max int) []geom.Point {
	if max <= 0 || len(pts) <= max {
		return pts
	}
	out := make([]geom.Point, max)
	step := float64(len(pts)) / float64(max)
	for i := range out {
		out[i] = pts[int(float64(i)*step)]
	}
	return out
}
