package main

import (
	"math/rand"
	"testing"

	"github.com/cwbudde/ransacfit/internal/geom"
)

func TestParseShapes(t *testing.T) {
	shapes, err := parseShapes(
		[]string{"0,3,100,203"},
		[]string{"30,30,20", " 100 , 100 , 25 "},
		[]string{"50,50,40,20,0.5"},
	)
	if err != nil {
		t.Fatalf("parseShapes failed: %v", err)
	}
	if len(shapes.lines) != 1 || len(shapes.circles) != 2 || len(shapes.ellipses) != 1 {
		t.Fatalf("Unexpected shapes: %+v", shapes)
	}
	if shapes.circles[1].Radius != 25 {
		t.Errorf("Expected radius 25, got %g", shapes.circles[1].Radius)
	}
	if shapes.empty() {
		t.Error("Expected non-empty shape list")
	}
}

func TestParseShapes_Errors(t *testing.T) {
	tests := map[string][3][]string{
		"short line":      {{"1,2,3"}, nil, nil},
		"degenerate line": {{"1,2,1,2"}, nil, nil},
		"bad number":      {nil, {"1,x,3"}, nil},
		"zero radius":     {nil, {"1,2,0"}, nil},
		"negative axis":   {nil, nil, {"0,0,-1,2,0"}},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := parseShapes(args[0], args[1], args[2]); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestGeneratePoints(t *testing.T) {
	c, _ := geom.NewCircle(30, 30, 20)
	shapes := shapeList{circles: []geom.Circle{c}}

	pts := generatePoints(rand.New(rand.NewSource(1)), shapes, 100, 0.5, 25)
	if len(pts) != 125 {
		t.Fatalf("Expected 125 points, got %d", len(pts))
	}

	near := 0
	for _, p := range pts {
		if p.X < 9.5 || p.X > 50.5 || p.Y < 9.5 || p.Y > 50.5 {
			t.Fatalf("Point %v outside the bounding box", p)
		}
		if c.Distance(p) <= 0.5+1e-9 {
			near++
		}
	}
	if near < 100 {
		t.Errorf("Expected at least 100 points near the circle, got %d", near)
	}

	again := generatePoints(rand.New(rand.NewSource(1)), shapes, 100, 0.5, 25)
	for i := range pts {
		if pts[i] != again[i] {
			t.Fatalf("Expected identical points for the same seed at %d", i)
		}
	}
}
