// Package detect drives sequential primitive extraction over a point set
// and converts engine results into serializable detections.
package detect

import (
	"fmt"
	"strings"

	"github.com/cwbudde/ransacfit/internal/geom"
)

// Kind names a primitive type.
type Kind string

const (
	KindLine    Kind = "line"
	KindCircle  Kind = "circle"
	KindEllipse Kind = "ellipse"
)

// Kinds lists the supported primitive kinds.
var Kinds = []Kind{KindLine, KindCircle, KindEllipse}

// ParseKind parses a primitive name, ignoring case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown primitive %q (want line, circle or ellipse)", s)
}

// Shape holds exactly one primitive matching Kind.
type Shape struct {
	Kind    Kind          `json:"kind"`
	Line    *geom.Line    `json:"line,omitempty"`
	Circle  *geom.Circle  `json:"circle,omitempty"`
	Ellipse *geom.Ellipse `json:"ellipse,omitempty"`
}

// ShapeOf wraps a line, circle or ellipse.
func ShapeOf(c geom.Curve2d) Shape {
	switch v := c.(type) {
	case geom.Line:
		return Shape{Kind: KindLine, Line: &v}
	case geom.Circle:
		return Shape{Kind: KindCircle, Circle: &v}
	case geom.Ellipse:
		return Shape{Kind: KindEllipse, Ellipse: &v}
	}
	panic(fmt.Sprintf("detect: unsupported primitive %T", c))
}

// Curve returns the wrapped primitive, or nil if the shape is empty.
func (s Shape) Curve() geom.Curve2d {
	switch {
	case s.Line != nil:
		return *s.Line
	case s.Circle != nil:
		return *s.Circle
	case s.Ellipse != nil:
		return *s.Ellipse
	}
	return nil
}

// Distance implements geom.Curve2d.
func (s Shape) Distance(p geom.Point) float64 {
	return s.Curve().Distance(p)
}

func (s Shape) String() string {
	switch {
	case s.Line != nil:
		return fmt.Sprintf("line(%.4g x %+.4g y %+.4g = 0)", s.Line.A, s.Line.B, s.Line.C)
	case s.Circle != nil:
		return fmt.Sprintf("circle(center=(%.4g, %.4g) r=%.4g)", s.Circle.Center.X, s.Circle.Center.Y, s.Circle.Radius)
	case s.Ellipse != nil:
		e := s.Ellipse
		return fmt.Sprintf("ellipse(center=(%.4g, %.4g) ra=%.4g rb=%.4g theta=%.4g)", e.Center.X, e.Center.Y, e.Ra, e.Rb, e.Theta)
	}
	return "empty"
}
