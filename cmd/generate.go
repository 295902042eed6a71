package main

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cwbudde/ransacfit/internal/geom"
	"github.com/cwbudde/ransacfit/internal/pointio"
)

var (
	genLines    []string
	genCircles  []string
	genEllipses []string
	genPerShape int
	genNoise    float64
	genOutliers int
	genSeed     int64
	genOut      string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic point set",
	Long: `Writes noisy points on the given primitives plus uniform outliers as
"x,y" lines. Outliers are spread over the bounding box of the shape points.`,
	Example: `  ransacfit generate --circle 30,30,20 --circle 100,100,25 --outliers 50 --out circles.csv
  ransacfit generate --line 0,3,100,203 --ellipse 50,50,40,20,0.5 --noise 0.5`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringArrayVar(&genLines, "line", nil, "Line segment x1,y1,x2,y2 (repeatable)")
	generateCmd.Flags().StringArrayVar(&genCircles, "circle", nil, "Circle cx,cy,r (repeatable)")
	generateCmd.Flags().StringArrayVar(&genEllipses, "ellipse", nil, "Ellipse cx,cy,ra,rb,theta (repeatable)")
	generateCmd.Flags().IntVar(&genPerShape, "n", 150, "Points per primitive")
	generateCmd.Flags().Float64Var(&genNoise, "noise", 0.5, "Maximum deviation from the primitive")
	generateCmd.Flags().IntVar(&genOutliers, "outliers", 50, "Number of uniform outliers")
	generateCmd.Flags().Int64Var(&genSeed, "seed", 1, "Random seed")
	generateCmd.Flags().StringVar(&genOut, "out", "-", "Output file (- for stdout)")
	rootCmd.AddCommand(generateCmd)
}

// shapeList lists the primitives to sample.
type shapeList struct {
	lines    [][2]geom.Point
	circles  []geom.Circle
	ellipses []geom.Ellipse
}

func (s shapeList) empty() bool {
	return len(s.lines) == 0 && len(s.circles) == 0 && len(s.ellipses) == 0
}

func parseShapes(lines, circles, ellipses []string) (shapeList, error) {
	var shapes shapeList
	for _, s := range lines {
		v, err := parseFloats(s, 4)
		if err != nil {
			return shapes, fmt.Errorf("invalid --line %q: %w", s, err)
		}
		p, q := geom.Pt(v[0], v[1]), geom.Pt(v[2], v[3])
		if p == q {
			return shapes, fmt.Errorf("invalid --line %q: end points coincide", s)
		}
		shapes.lines = append(shapes.lines, [2]geom.Point{p, q})
	}
	for _, s := range circles {
		v, err := parseFloats(s, 3)
		if err != nil {
			return shapes, fmt.Errorf("invalid --circle %q: %w", s, err)
		}
		c, ok := geom.NewCircle(v[0], v[1], v[2])
		if !ok {
			return shapes, fmt.Errorf("invalid --circle %q: radius must be positive", s)
		}
		shapes.circles = append(shapes.circles, c)
	}
	for _, s := range ellipses {
		v, err := parseFloats(s, 5)
		if err != nil {
			return shapes, fmt.Errorf("invalid --ellipse %q: %w", s, err)
		}
		e, ok := geom.NewEllipse(v[0], v[1], v[2], v[3], v[4])
		if !ok {
			return shapes, fmt.Errorf("invalid --ellipse %q: axes must be positive", s)
		}
		shapes.ellipses = append(shapes.ellipses, e)
	}
	return shapes, nil
}

func parseFloats(s string, n int) ([]float64, error) {
	fields := strings.Split(s, ",")
	if len(fields) != n {
		return nil, fmt.Errorf("want %d comma-separated numbers, got %d", n, len(fields))
	}
	v := make([]float64, n)
	for i, f := range fields {
		x, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, err
		}
		v[i] = x
	}
	return v, nil
}

// generatePoints samples perShape points on every primitive of shapes, adds
// outliers uniformly over their bounding box and shuffles the result.
func generatePoints(rng *rand.Rand, shapes shapeList, perShape int, noise float64, outliers int) []geom.Point {
	var pts []geom.Point
	for _, l := range shapes.lines {
		pts = append(pts, geom.SampleLine(rng, l[0], l[1], perShape, noise)...)
	}
	for _, c := range shapes.circles {
		pts = append(pts, geom.SampleCircle(rng, c, perShape, noise)...)
	}
	for _, e := range shapes.ellipses {
		pts = append(pts, geom.SampleEllipse(rng, e, perShape, noise)...)
	}

	if outliers > 0 && len(pts) > 0 {
		lo := geom.Pt(math.Inf(1), math.Inf(1))
		hi := geom.Pt(math.Inf(-1), math.Inf(-1))
		for _, p := range pts {
			lo = geom.Pt(math.Min(lo.X, p.X), math.Min(lo.Y, p.Y))
			hi = geom.Pt(math.Max(hi.X, p.X), math.Max(hi.Y, p.Y))
		}
		pts = append(pts, geom.SampleUniform(rng, lo, hi, outliers)...)
	}

	rng.Shuffle(len(pts), func(i, j int) { pts[i], pts[j] = pts[j], pts[i] })
	return pts
}

func runGenerate(cmd *cobra.Command, args []string) error {
	shapes, err := parseShapes(genLines, genCircles, genEllipses)
	if err != nil {
		return err
	}
	if shapes.empty() {
		return fmt.Errorf("at least one --line, --circle or --ellipse is required")
	}
	if genPerShape <= 0 || genOutliers < 0 {
		return fmt.Errorf("--n must be positive and --outliers non-negative")
	}

	pts := generatePoints(rand.New(rand.NewSource(genSeed)), shapes, genPerShape, genNoise, genOutliers)

	var w io.Writer = cmd.OutOrStdout()
	if genOut != "-" {
		f, err := os.Create(genOut)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := pointio.WriteText(w, pts); err != nil {
		return err
	}
	if genOut != "-" {
		slog.Info("Wrote points", "path", genOut, "points", len(pts))
	}
	return nil
}
