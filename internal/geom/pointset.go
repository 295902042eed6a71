package geom

// PointSet is a fixed-length collection of points with a presence flag per
// slot. A point's identity is its index. Extraction marks points absent
// instead of deleting them, so indices stay stable across extractions.
type PointSet struct {
	points  []Point
	present []bool
	count   int
}

// NewPointSet wraps pts; all points start present. The slice is not copied.
func NewPointSet(pts []Point) *PointSet {
	present := make([]bool, len(pts))
	for i := range present {
		present[i] = true
	}
	return &PointSet{points: pts, present: present, count: len(pts)}
}

// Len returns the number of slots, present or not.
func (ps *PointSet) Len() int { return len(ps.points) }

// Count returns the number of present points.
func (ps *PointSet) Count() int { return ps.count }

// Present reports whether slot i holds a present point.
func (ps *PointSet) Present(i int) bool {
	return i >= 0 && i < len(ps.present) && ps.present[i]
}

// At returns the point in slot i regardless of its presence.
func (ps *PointSet) At(i int) Point { return ps.points[i] }

// Points returns the points at the given indices.
func (ps *PointSet) Points(idx []int) []Point {
	out := make([]Point, len(idx))
	for j, i := range idx {
		out[j] = ps.points[i]
	}
	return out
}

// PresentIndices returns the indices of all present points in ascending order.
func (ps *PointSet) PresentIndices() []int {
	out := make([]int, 0, ps.count)
	for i, ok := range ps.present {
		if ok {
			out = append(out, i)
		}
	}
	return out
}

// Remove marks the given slots absent. Already absent slots are ignored.
func (ps *PointSet) Remove(idx ...int) {
	for _, i := range idx {
		if ps.Present(i) {
			ps.present[i] = false
			ps.count--
		}
	}
}

// Restore marks the given slots present again.
func (ps *PointSet) Restore(idx ...int) {
	for _, i := range idx {
		if i >= 0 && i < len(ps.present) && !ps.present[i] {
			ps.present[i] = true
			ps.count++
		}
	}
}
