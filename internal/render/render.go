// Package render draws point sets and detected primitives into images.
package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/cwbudde/ransacfit/internal/detect"
	"github.com/cwbudde/ransacfit/internal/geom"
)

// DefaultMaxSide is the longest side of an auto-sized canvas.
const DefaultMaxSide = 4096

// Options controls the overlay layout.
type Options struct {
	// Width and Height fix the canvas size. If zero, the canvas covers the
	// bounding box of the points plus Margin.
	Width, Height int

	// MaxSide bounds the longest side of an auto-sized canvas. Larger
	// point extents are drawn at a reduced scale. Zero means no bound.
	MaxSide int

	// Scale maps point units to pixels.
	Scale  float64
	Margin int

	// StrokeWidth is the primitive outline width in pixels.
	StrokeWidth float64

	Background color.Color
	PointColor color.Color
}

// DefaultOptions returns a white canvas at unit scale.
func DefaultOptions() Options {
	return Options{
		Scale:       1,
		MaxSide:     DefaultMaxSide,
		Margin:      10,
		StrokeWidth: 1.5,
		Background:  color.White,
		PointColor:  color.Gray{Y: 170},
	}
}

// Palette returns n well separated colors, stepping the hue by the golden
// angle.
func Palette(n int) []color.Color {
	out := make([]color.Color, n)
	for i := range out {
		h := math.Mod(float64(i)*137.508, 360)
		out[i] = colorful.Hsv(h, 0.85, 0.85).Clamped()
	}
	return out
}

// viewport maps point coordinates to pixels.
type viewport struct {
	origin geom.Point
	scale  float64
	margin float64
}

func (v viewport) toPixel(p geom.Point) (int, int) {
	return int(math.Round((p.X-v.origin.X)*v.scale + v.margin)),
		int(math.Round((p.Y-v.origin.Y)*v.scale + v.margin))
}

func (v viewport) toPoint(x, y int) geom.Point {
	return geom.Pt(
		(float64(x)-v.margin)/v.scale+v.origin.X,
		(float64(y)-v.margin)/v.scale+v.origin.Y,
	)
}

// Overlay draws pts in the point color, the inliers of each detection in
// its palette color and the final primitives as outlines on top.
func Overlay(pts []geom.Point, detections []detect.Detection, opts Options) *image.NRGBA {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	vp := viewport{scale: opts.Scale, margin: float64(opts.Margin)}

	width, height := opts.Width, opts.Height
	if width <= 0 || height <= 0 {
		lo, hi := bounds(pts)
		vp.origin = lo
		if opts.MaxSide > 0 {
			avail := math.Max(float64(opts.MaxSide-2*opts.Margin-1), 1)
			if ext := math.Max(hi.X-lo.X, hi.Y-lo.Y); ext*vp.scale > avail {
				vp.scale = avail / ext
			}
		}
		width = int(math.Ceil((hi.X-lo.X)*vp.scale)) + 2*opts.Margin + 1
		height = int(math.Ceil((hi.Y-lo.Y)*vp.scale)) + 2*opts.Margin + 1
		if opts.MaxSide > 0 {
			width, height = min(width, opts.MaxSide), min(height, opts.MaxSide)
		}
	} else {
		vp.margin = 0
	}

	img := imaging.New(width, height, opts.Background)
	for _, p := range pts {
		dot(img, vp, p, opts.PointColor)
	}

	colors := Palette(len(detections))
	for i, d := range detections {
		for _, idx := range d.Inliers {
			if idx >= 0 && idx < len(pts) {
				dot(img, vp, pts[idx], colors[i])
			}
		}
	}
	for i, d := range detections {
		stroke(img, vp, d.Final, opts.StrokeWidth, colors[i])
	}
	return img
}

// Encode writes img as PNG.
func Encode(w io.Writer, img image.Image) error {
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return fmt.Errorf("failed to encode overlay: %w", err)
	}
	return nil
}

// Save writes img to path; the format follows the file extension.
func Save(path string, img image.Image) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save overlay: %w", err)
	}
	return nil
}

// bounds returns the bounding box of the finite points of pts.
func bounds(pts []geom.Point) (lo, hi geom.Point) {
	first := true
	for _, p := range pts {
		if !finite(p) {
			continue
		}
		if first {
			lo, hi, first = p, p, false
			continue
		}
		lo.X, lo.Y = math.Min(lo.X, p.X), math.Min(lo.Y, p.Y)
		hi.X, hi.Y = math.Max(hi.X, p.X), math.Max(hi.Y, p.Y)
	}
	return lo, hi
}

func finite(p geom.Point) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

func dot(img *image.NRGBA, vp viewport, p geom.Point, c color.Color) {
	if !finite(p) {
		return
	}
	x, y := vp.toPixel(p)
	if image.Pt(x, y).In(img.Bounds()) {
		img.Set(x, y, c)
	}
}

// stroke colors every pixel whose center lies within half the stroke width
// of the shape.
func stroke(img *image.NRGBA, vp viewport, s detect.Shape, width float64, c color.Color) {
	curve := s.Curve()
	if curve == nil {
		return
	}
	half := width / 2 / vp.scale
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if math.Abs(curve.Distance(vp.toPoint(x, y))) <= half {
				img.Set(x, y, c)
			}
		}
	}
}
