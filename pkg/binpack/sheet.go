package binpack

import "image"

type strategy interface {
	reset(size image.Point)
	insert(id int, size image.Point) (image.Rectangle, bool)
}

type growthPhase int

const (
	growWidth growthPhase = iota
	swapWidthHeight
)

// Placement is a placed element.
type Placement struct {
	ID   int
	Rect image.Rectangle
}

// Sheet is one output canvas. It grows by doubling its width, then by
// swapping width and height, alternating between the two.
type Sheet struct {
	size   image.Point
	phase  growthPhase
	algo   strategy
	placed map[int]image.Rectangle
	order  []int
	sizes  map[int]image.Point

	// full is set once growing failed to rearrange the existing elements.
	full bool
}

func newSheet(opts Options) *Sheet {
	s := &Sheet{
		size:   opts.StartSize,
		placed: make(map[int]image.Rectangle),
		sizes:  make(map[int]image.Point),
	}
	switch opts.Algorithm {
	case Guillotine:
		s.algo = newGuillotine(opts.Margin, opts.Policy)
	default:
		s.algo = newMaxRects(opts.Margin)
	}
	s.algo.reset(s.size)
	return s
}

// Size returns the current sheet dimensions.
func (s *Sheet) Size() image.Point {
	return s.size
}

// Len returns the number of placed elements.
func (s *Sheet) Len() int {
	return len(s.order)
}

// Rect returns the placement of id.
func (s *Sheet) Rect(id int) (image.Rectangle, bool) {
	r, ok := s.placed[id]
	return r, ok
}

// Placements returns every placed element in insertion order.
func (s *Sheet) Placements() []Placement {
	out := make([]Placement, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, Placement{ID: id, Rect: s.placed[id]})
	}
	return out
}

func (s *Sheet) insert(id int, size image.Point) bool {
	r, ok := s.algo.insert(id, size)
	if !ok {
		return false
	}
	s.placed[id] = r
	s.order = append(s.order, id)
	s.sizes[id] = size
	return true
}

func (s *Sheet) nextSize() image.Point {
	if s.phase == growWidth {
		return image.Pt(s.size.X*2, s.size.Y)
	}
	return image.Pt(s.size.Y, s.size.X)
}

func (s *Sheet) canGrow(max image.Point) bool {
	return !s.full && fits(max, s.nextSize())
}

func (s *Sheet) grow() {
	s.size = s.nextSize()
	s.phase = (s.phase + 1) % 2
}

// replay resets the strategy at the current size and inserts every element
// again in its original order.
func (s *Sheet) replay() bool {
	s.algo.reset(s.size)
	clear(s.placed)
	for _, id := range s.order {
		r, ok := s.algo.insert(id, s.sizes[id])
		if !ok {
			return false
		}
		s.placed[id] = r
	}
	return true
}

// growAndRearrange grows the sheet until every element placed so far fits
// again. When that would exceed max, the previous layout is restored, the
// sheet is marked full and false is returned.
func (s *Sheet) growAndRearrange(max image.Point) bool {
	size, phase := s.size, s.phase
	for s.canGrow(max) {
		s.grow()
		if s.replay() {
			return true
		}
	}
	s.size, s.phase = size, phase
	s.replay()
	s.full = true
	return false
}
