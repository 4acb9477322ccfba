// Package tile prepares sprite images for packing.
//
// A Tile is created from a source image, trimmed of transparent borders,
// checked against previously seen content, then extruded by one pixel so
// texture filtering never samples a neighbouring sprite. Every stage takes
// a Tile value and returns the transformed value.
package tile

import (
	"errors"
	"image"
)

const (
	// NoSequence marks a tile that is not part of an animation sequence.
	NoSequence = -1
	// MaxSequence is the largest sequence index an index file can hold.
	MaxSequence = 0xFFFE
)

// Processing errors.
var (
	ErrZeroWidth     = errors.New("tile trimmed to zero width with non-zero height")
	ErrNoInputDir    = errors.New("input directory not found")
	ErrSequenceRange = errors.New("sequence index out of range")
	ErrNormalSize    = errors.New("normal map size differs from its image")
)

// Tile is one sprite and its placement metadata.
//
// X, Y, Width and Height describe the packed rectangle. OffsetX and OffsetY
// locate that rectangle inside the source buffer of OriginalWidth x
// OriginalHeight pixels.
type Tile struct {
	Name       string
	Index      int
	SourcePath string
	HasNormal  bool

	X, Y           int
	Width, Height  int
	OffsetX        int
	OffsetY        int
	OriginalWidth  int
	OriginalHeight int

	Sheet       int
	DuplicateOf int

	Pixels *image.NRGBA
}

// New creates an unplaced tile covering the whole of pixels.
func New(name string, index int, pixels *image.NRGBA) Tile {
	b := pixels.Bounds()
	return Tile{
		Name:           name,
		Index:          index,
		Width:          b.Dx(),
		Height:         b.Dy(),
		OriginalWidth:  b.Dx(),
		OriginalHeight: b.Dy(),
		Sheet:          -1,
		DuplicateOf:    -1,
		Pixels:         pixels,
	}
}

// Size returns the packed size.
func (t Tile) Size() image.Point {
	return image.Pt(t.Width, t.Height)
}

// Source returns the packed rectangle in source buffer coordinates.
func (t Tile) Source() image.Rectangle {
	return image.Rect(t.OffsetX, t.OffsetY, t.OffsetX+t.Width, t.OffsetY+t.Height)
}

// IsDuplicate reports whether t reuses another tile's pixels.
func (t Tile) IsDuplicate() bool {
	return t.DuplicateOf >= 0
}

// copyGeometry takes every source and placement field from c.
func (t Tile) copyGeometry(c Tile) Tile {
	t.X, t.Y = c.X, c.Y
	t.OffsetX, t.OffsetY = c.OffsetX, c.OffsetY
	t.Width, t.Height = c.Width, c.Height
	t.OriginalWidth, t.OriginalHeight = c.OriginalWidth, c.OriginalHeight
	t.Sheet = c.Sheet
	return t
}
