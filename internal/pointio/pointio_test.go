package pointio

import (
	"bytes"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/google/go-cmp/cmp"

	"github.com/cwbudde/ransacfit/internal/geom"
)

func TestReadText(t *testing.T) {
	in := `# sampled circle
x,y
1,2
3.5;4
  -1e2	7  9

5 6
`
	got, err := ReadText(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadText failed: %v", err)
	}
	want := []geom.Point{geom.Pt(1, 2), geom.Pt(3.5, 4), geom.Pt(-100, 7), geom.Pt(5, 6)}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("Points differ (-want +got):\n%s", d)
	}
}

func TestReadTextErrors(t *testing.T) {
	tests := map[string]string{
		"bad coordinate": "1,2\n3,abc\n",
		"single column":  "1,2\n3\n",
		"nan":            "x,y\n1,2\nNaN,3\n",
		"infinity":       "x,y\n1,2\n+Inf,4\n",
		"nan first line": "nan 1\n1,2\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ReadText(strings.NewReader(in)); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestReadJSON(t *testing.T) {
	in := `[[1, 2], {"x": 3, "y": 4}, {"X": 5, "Y": 6}]`
	got, err := ReadJSON(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	want := []geom.Point{geom.Pt(1, 2), geom.Pt(3, 4), geom.Pt(5, 6)}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("Points differ (-want +got):\n%s", d)
	}

	for _, bad := range []string{`{"x": 1}`, `[[1]]`, `[{"x": 1}]`, `[true]`} {
		if _, err := ReadJSON(strings.NewReader(bad)); err == nil {
			t.Errorf("Expected error for %s", bad)
		}
	}
}

func TestWriteTextRoundTrip(t *testing.T) {
	pts := []geom.Point{geom.Pt(0.1, -2), geom.Pt(1e-7, 12345.678)}
	var buf bytes.Buffer
	if err := WriteText(&buf, pts); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}
	got, err := ReadText(&buf)
	if err != nil {
		t.Fatalf("ReadText failed: %v", err)
	}
	if d := cmp.Diff(pts, got); d != "" {
		t.Errorf("Points differ (-want +got):\n%s", d)
	}
}

func testImage() *image.NRGBA {
	img := imaging.New(20, 10, color.White)
	img.Set(7, 2, color.Black)
	img.Set(3, 4, color.Black)
	return img
}

func TestFromImage(t *testing.T) {
	got, err := FromImage(testImage(), DefaultImageOptions())
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	want := []geom.Point{geom.Pt(7, 2), geom.Pt(3, 4)}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("Points differ (-want +got):\n%s", d)
	}

	opts := DefaultImageOptions()
	opts.Foreground = ForegroundBright
	got, err = FromImage(testImage(), opts)
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	if len(got) != 198 {
		t.Errorf("Expected 198 bright pixels, got %d", len(got))
	}

	opts.MaxPoints = 50
	got, _ = FromImage(testImage(), opts)
	if len(got) != 50 {
		t.Errorf("Expected 50 subsampled pixels, got %d", len(got))
	}

	opts.Foreground = "purple"
	if _, err := FromImage(testImage(), opts); err == nil {
		t.Error("Expected error for unknown foreground")
	}
}

func TestFromImageEdges(t *testing.T) {
	img := imaging.New(30, 30, color.White)
	for y := 10; y < 20; y++ {
		for x := 10; x < 20; x++ {
			img.Set(x, y, color.Black)
		}
	}

	opts := DefaultImageOptions()
	opts.Foreground = ForegroundEdges
	got, err := FromImage(img, opts)
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("Expected edge pixels")
	}
	for _, p := range got {
		if p == geom.Pt(15, 15) {
			t.Fatal("Interior pixel reported as edge")
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	csv := filepath.Join(dir, "pts.csv")
	if err := os.WriteFile(csv, []byte("1,2\n3,4\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	js := filepath.Join(dir, "pts.json")
	if err := os.WriteFile(js, []byte("[[1,2],[3,4]]"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	png := filepath.Join(dir, "pts.png")
	if err := imaging.Save(testImage(), png); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	for path, n := range map[string]int{csv: 2, js: 2, png: 2} {
		pts, err := Load(path, DefaultImageOptions())
		if err != nil {
			t.Fatalf("Load(%s) failed: %v", filepath.Base(path), err)
		}
		if len(pts) != n {
			t.Errorf("Load(%s): expected %d points, got %d", filepath.Base(path), n, len(pts))
		}
	}

	if _, err := Load(filepath.Join(dir, "missing.csv"), DefaultImageOptions()); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestFinite(t *testing.T) {
	if !Finite(1, -2.5, 0) {
		t.Error("Expected finite coordinates to pass")
	}
	for _, c := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if Finite(1, c) {
			t.Errorf("Expected %v to be rejected", c)
		}
	}
}
