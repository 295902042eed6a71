package render

import (
	"bytes"
	"image/color"
	"image/png"
	"math"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/cwbudde/ransacfit/internal/detect"
	"github.com/cwbudde/ransacfit/internal/geom"
)

func sameColor(a, b color.Color) bool {
	r1, g1, b1, a1 := a.RGBA()
	r2, g2, b2, a2 := b.RGBA()
	return r1>>8 == r2>>8 && g1>>8 == g2>>8 && b1>>8 == b2>>8 && a1>>8 == a2>>8
}

func circleScene() ([]geom.Point, []detect.Detection) {
	c, _ := geom.NewCircle(50, 50, 20)
	pts := []geom.Point{geom.Pt(30, 50), geom.Pt(70, 50), geom.Pt(50, 30), geom.Pt(50, 70), geom.Pt(0, 0)}
	d := detect.Detection{Final: detect.ShapeOf(c), Inliers: []int{0, 1, 2, 3}}
	return pts, []detect.Detection{d}
}

func TestOverlayAutoSize(t *testing.T) {
	pts, dets := circleScene()
	opts := DefaultOptions()
	img := Overlay(pts, dets, opts)

	// bounding box 70x70 plus margins
	if w, h := img.Bounds().Dx(), img.Bounds().Dy(); w != 91 || h != 91 {
		t.Fatalf("Expected 91x91 canvas, got %dx%d", w, h)
	}

	want := Palette(1)[0]
	// (70, 50) lies on the circle
	if got := img.At(80, 60); !sameColor(got, want) {
		t.Errorf("Expected circle color at (80, 60), got %v", got)
	}
	// (0, 0) is an outlier drawn in the point color
	if got := img.At(10, 10); !sameColor(got, opts.PointColor) {
		t.Errorf("Expected point color at (10, 10), got %v", got)
	}
	// the circle center is background
	if got := img.At(60, 60); !sameColor(got, color.White) {
		t.Errorf("Expected background at the center, got %v", got)
	}
}

func TestOverlayFixedSize(t *testing.T) {
	pts, dets := circleScene()
	opts := DefaultOptions()
	opts.Width, opts.Height = 100, 80
	opts.Scale = 2
	img := Overlay(pts, dets, opts)

	if w, h := img.Bounds().Dx(), img.Bounds().Dy(); w != 100 || h != 80 {
		t.Fatalf("Expected 100x80 canvas, got %dx%d", w, h)
	}
	// (36, 36) at scale 2 is within 0.2 of the circle
	if got := img.At(72, 72); !sameColor(got, Palette(1)[0]) {
		t.Errorf("Expected circle color at (72, 72), got %v", got)
	}
}

func TestOverlayBoundedCanvas(t *testing.T) {
	pts := []geom.Point{geom.Pt(0, 0), geom.Pt(100000, 50000)}
	opts := DefaultOptions()
	img := Overlay(pts, nil, opts)

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w != DefaultMaxSide {
		t.Errorf("Expected width %d, got %d", DefaultMaxSide, w)
	}
	// the aspect ratio survives the reduced scale
	if h < 2055 || h > 2062 {
		t.Errorf("Expected height near half the width, got %d", h)
	}
	if got := img.At(10, 10); !sameColor(got, opts.PointColor) {
		t.Errorf("Expected point color at (10, 10), got %v", got)
	}

	line, _ := geom.LineThrough(pts[0], pts[1])
	opts.MaxSide = 200
	img = Overlay(pts, []detect.Detection{{Final: detect.ShapeOf(line)}}, opts)
	if w, h := img.Bounds().Dx(), img.Bounds().Dy(); w > 200 || h > 200 {
		t.Errorf("Expected canvas within 200x200, got %dx%d", w, h)
	}
}

func TestOverlaySkipsNonFinitePoints(t *testing.T) {
	pts := []geom.Point{geom.Pt(0, 0), geom.Pt(10, 10), geom.Pt(math.NaN(), 3), geom.Pt(4, math.Inf(1))}
	img := Overlay(pts, nil, DefaultOptions())

	if w, h := img.Bounds().Dx(), img.Bounds().Dy(); w != 31 || h != 31 {
		t.Fatalf("Expected 31x31 canvas, got %dx%d", w, h)
	}
	if err := Encode(&bytes.Buffer{}, img); err != nil {
		t.Errorf("Encode failed: %v", err)
	}
}

func TestEncodeAndSave(t *testing.T) {
	pts, dets := circleScene()
	img := Overlay(pts, dets, DefaultOptions())

	var buf bytes.Buffer
	if err := Encode(&buf, img); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Errorf("Expected bounds %v, got %v", img.Bounds(), decoded.Bounds())
	}

	path := filepath.Join(t.TempDir(), "overlay.png")
	if err := Save(path, img); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := imaging.Open(path); err != nil {
		t.Errorf("Open failed: %v", err)
	}
}

func TestPalette(t *testing.T) {
	colors := Palette(8)
	for i := range colors {
		for j := i + 1; j < len(colors); j++ {
			if sameColor(colors[i], colors[j]) {
				t.Errorf("Colors %d and %d are identical", i, j)
			}
		}
	}
}
