package binpack

import (
	"image"
	"math"
)

type usedArea struct {
	id   int
	area image.Rectangle
}

// maxRects pads every request by the margin on its right and bottom edge
// before searching, so neighbouring elements are always separated.
type maxRects struct {
	free   []image.Rectangle
	used   []usedArea
	margin image.Point
}

func newMaxRects(margin image.Point) *maxRects {
	return &maxRects{margin: margin}
}

func (m *maxRects) reset(size image.Point) {
	m.free = append(m.free[:0], image.Rectangle{Max: size})
	m.used = m.used[:0]
}

func (m *maxRects) insert(id int, size image.Point) (image.Rectangle, bool) {
	padded := size.Add(m.margin)
	best := m.bestShortSideFit(padded)
	if best < 0 {
		return image.Rectangle{}, false
	}

	chosen := m.free[best]
	placed := image.Rectangle{Min: chosen.Min, Max: chosen.Min.Add(padded)}
	m.used = append(m.used, usedArea{id: id, area: placed})

	right := image.Rect(placed.Max.X, chosen.Min.Y, chosen.Max.X, chosen.Max.Y)
	below := image.Rect(chosen.Min.X, placed.Max.Y, chosen.Max.X, chosen.Max.Y)
	m.free = append(m.free[:best], m.free[best+1:]...)
	if area(right) > 0 {
		m.free = append(m.free, right)
	}
	if area(below) > 0 {
		m.free = append(m.free, below)
	}

	m.splitFree(placed)
	m.prune()

	return image.Rectangle{Min: placed.Min, Max: placed.Min.Add(size)}, true
}

// bestShortSideFit returns the index of the free rectangle leaving the
// smallest leftover on its shorter side, or -1.
func (m *maxRects) bestShortSideFit(size image.Point) int {
	best, bestScore := -1, math.MaxInt
	for i, f := range m.free {
		have := f.Size()
		if !fits(have, size) {
			continue
		}
		score := min(have.X-size.X, have.Y-size.Y)
		if score < bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

// splitFree replaces every free rectangle overlapping placed with the parts
// of it that lie outside placed.
func (m *maxRects) splitFree(placed image.Rectangle) {
	var pieces []image.Rectangle
	kept := m.free[:0]
	for _, f := range m.free {
		in := f.Intersect(placed)
		if area(in) == 0 {
			kept = append(kept, f)
			continue
		}
		candidates := [4]image.Rectangle{
			image.Rect(f.Min.X, f.Min.Y, in.Min.X, f.Max.Y), // left
			image.Rect(f.Min.X, in.Max.Y, f.Max.X, f.Max.Y), // bottom
			image.Rect(f.Min.X, f.Min.Y, f.Max.X, in.Min.Y), // top
			image.Rect(in.Max.X, f.Min.Y, f.Max.X, f.Max.Y), // right
		}
		for _, c := range candidates {
			if area(c) > 0 {
				pieces = append(pieces, c)
			}
		}
	}
	m.free = append(kept, pieces...)
}

// prune drops free rectangles fully contained in another one.
func (m *maxRects) prune() {
	for i := 0; i < len(m.free); i++ {
		for j := i + 1; j < len(m.free); {
			if m.free[j].In(m.free[i]) {
				m.free = append(m.free[:j], m.free[j+1:]...)
				continue
			}
			if m.free[i].In(m.free[j]) {
				m.free = append(m.free[:i], m.free[i+1:]...)
				i--
				break
			}
			j++
		}
	}
}
