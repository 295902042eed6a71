package sample

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/cwbudde/ransacfit/internal/geom"
)

func TestDrawUniqueAndPresent(t *testing.T) {
	pts := make([]geom.Point, 20)
	ps := geom.NewPointSet(pts)
	ps.Remove(0, 3, 7, 8, 15)

	s := New(5, rand.New(rand.NewSource(17)))
	for i := 0; i < 10000; i++ {
		draw, err := s.Draw(ps)
		if err != nil {
			t.Fatalf("Draw failed: %v", err)
		}
		if len(draw) != 5 {
			t.Fatalf("Expected 5 indices, got %d", len(draw))
		}
		seen := make(map[int]bool)
		for _, j := range draw {
			if !ps.Present(j) {
				t.Fatalf("Draw %d contains absent index %d", i, j)
			}
			if seen[j] {
				t.Fatalf("Draw %d contains duplicate index %d: %v", i, j, draw)
			}
			seen[j] = true
		}
	}
}

func TestDrawExactlyK(t *testing.T) {
	ps := geom.NewPointSet(make([]geom.Point, 6))
	ps.Remove(1, 4, 5)

	s := New(3, rand.New(rand.NewSource(1)))
	draw, err := s.Draw(ps)
	if err != nil {
		t.Fatalf("Draw failed: %v", err)
	}
	seen := map[int]bool{}
	for _, j := range draw {
		seen[j] = true
	}
	for _, j := range []int{0, 2, 3} {
		if !seen[j] {
			t.Errorf("Expected index %d in %v", j, draw)
		}
	}
}

func TestDrawTooFew(t *testing.T) {
	ps := geom.NewPointSet(make([]geom.Point, 4))
	ps.Remove(0, 1)

	s := New(3, rand.New(rand.NewSource(1)))
	_, err := s.Draw(ps)
	if !errors.Is(err, ErrTooFewElements) {
		t.Fatalf("Expected ErrTooFewElements, got %v", err)
	}
}

func TestDrawDeterministic(t *testing.T) {
	ps := geom.NewPointSet(make([]geom.Point, 100))
	s1 := New(4, rand.New(rand.NewSource(99)))
	s2 := New(4, rand.New(rand.NewSource(99)))

	for i := 0; i < 100; i++ {
		d1, _ := s1.Draw(ps)
		d2, _ := s2.Draw(ps)
		for j := range d1 {
			if d1[j] != d2[j] {
				t.Fatalf("Draw %d differs: %v vs %v", i, d1, d2)
			}
		}
	}
}

func TestDrawFrom(t *testing.T) {
	a, b, c := 1, 2, 3
	items := []*int{nil, &a, nil, &b, &c, nil}

	s := New(3, rand.New(rand.NewSource(5)))
	got, err := DrawFrom(s, items)
	if err != nil {
		t.Fatalf("DrawFrom failed: %v", err)
	}
	sum := 0
	for _, p := range got {
		if p == nil {
			t.Fatal("Expected no nil elements")
		}
		sum += *p
	}
	if sum != 6 {
		t.Errorf("Expected all three elements, got sum %d", sum)
	}

	if _, err := DrawFrom(New(4, rand.New(rand.NewSource(5))), items); !errors.Is(err, ErrTooFewElements) {
		t.Errorf("Expected ErrTooFewElements, got %v", err)
	}
}
