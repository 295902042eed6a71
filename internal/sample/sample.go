// Package sample draws random subsets of distinct, present elements.
package sample

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrTooFewElements is returned when fewer than k present elements exist.
var ErrTooFewElements = errors.New("too few present elements to draw from")

// Source is an indexed collection in which some slots may be absent.
type Source interface {
	Len() int
	Present(i int) bool
	Count() int
}

// UniqueSampler draws k distinct indices of present elements, each draw
// uniform over the present slots. It is not safe for concurrent use.
type UniqueSampler struct {
	k   int
	rng *rand.Rand
	idx []int
}

// New creates a sampler for draws of size k using rng as random source.
func New(k int, rng *rand.Rand) *UniqueSampler {
	if k < 1 {
		panic(fmt.Sprintf("sample: draw size must be positive, got %d", k))
	}
	return &UniqueSampler{k: k, rng: rng, idx: make([]int, 0, k)}
}

// K returns the draw size.
func (s *UniqueSampler) K() int { return s.k }

// Draw returns k distinct indices of present elements of src. The result is
// a fresh slice owned by the caller.
func (s *UniqueSampler) Draw(src Source) ([]int, error) {
	if c := src.Count(); c < s.k {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrTooFewElements, s.k, c)
	}
	n := src.Len()
	s.idx = s.idx[:0]
	for len(s.idx) < s.k {
		i := s.rng.Intn(n)
		if !src.Present(i) || s.picked(i) {
			continue
		}
		s.idx = append(s.idx, i)
	}
	out := make([]int, s.k)
	copy(out, s.idx)
	return out, nil
}

func (s *UniqueSampler) picked(i int) bool {
	for _, j := range s.idx {
		if j == i {
			return true
		}
	}
	return false
}

// DrawFrom draws k distinct non-nil elements from items, where nil entries
// count as absent.
func DrawFrom[T any](s *UniqueSampler, items []*T) ([]*T, error) {
	idx, err := s.Draw(sliceSource[T](items))
	if err != nil {
		return nil, err
	}
	out := make([]*T, len(idx))
	for j, i := range idx {
		out[j] = items[i]
	}
	return out, nil
}

type sliceSource[T any] []*T

func (s sliceSource[T]) Len() int { return len(s) }

func (s sliceSource[T]) Present(i int) bool { return s[i] != nil }

func (s sliceSource[T]) Count() int {
	n := 0
	for _, p := range s {
		if p != nil {
			n++
		}
	}
	return n
}
