package tile

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"image"

	"github.com/Faultbox/atlastool/internal/imageio"
)

// Trim shrinks the tile to the smallest box holding every non-transparent
// pixel. Edges are scanned left, top, bottom, right, and no dimension is
// shrunk below one pixel while scanning. A fully transparent tile ends with
// zero width and height and should be dropped.
func Trim(t Tile) (Tile, error) {
	if t.Width <= 0 && t.Height > 0 {
		return t, ErrZeroWidth
	}
	p := t.Pixels
	if p == nil || t.Height <= 0 {
		return t, nil
	}

	for t.Width > 1 && columnClear(p, t.OffsetX, t.OffsetY, t.OffsetY+t.Height) {
		t.OffsetX++
		t.Width--
	}
	for t.Height > 1 && rowClear(p, t.OffsetY, t.OffsetX, t.OffsetX+t.Width) {
		t.OffsetY++
		t.Height--
	}
	for t.Height > 1 && rowClear(p, t.OffsetY+t.Height-1, t.OffsetX, t.OffsetX+t.Width) {
		t.Height--
	}
	for t.Width > 1 && columnClear(p, t.OffsetX+t.Width-1, t.OffsetY, t.OffsetY+t.Height) {
		t.Width--
	}

	if t.Width == 1 && t.Height == 1 && alpha(p, t.OffsetX, t.OffsetY) == 0 {
		t.Width, t.Height = 0, 0
	}
	if t.Width <= 0 && t.Height > 0 {
		return t, ErrZeroWidth
	}
	return t, nil
}

func alpha(p *image.NRGBA, x, y int) uint8 {
	return p.Pix[p.PixOffset(x, y)+3]
}

func rowClear(p *image.NRGBA, y, x0, x1 int) bool {
	for x := x0; x < x1; x++ {
		if alpha(p, x, y) != 0 {
			return false
		}
	}
	return true
}

func columnClear(p *image.NRGBA, x, y0, y1 int) bool {
	for y := y0; y < y1; y++ {
		if alpha(p, x, y) != 0 {
			return false
		}
	}
	return true
}

// Hash returns the SHA-256 of the tile's full source buffer, prefixed with
// its dimensions. Two tiles hash equal only when their untrimmed pixels and
// sizes are identical.
func Hash(t Tile) [sha256.Size]byte {
	h := sha256.New()
	p := t.Pixels
	var dims [8]byte
	binary.LittleEndian.PutUint32(dims[:4], uint32(t.OriginalWidth))
	binary.LittleEndian.PutUint32(dims[4:], uint32(t.OriginalHeight))
	h.Write(dims[:])
	if p != nil {
		n := t.OriginalWidth * 4
		for y := 0; y < t.OriginalHeight; y++ {
			o := p.PixOffset(p.Rect.Min.X, p.Rect.Min.Y+y)
			h.Write(p.Pix[o : o+n])
		}
	}
	var sum [sha256.Size]byte
	h.Sum(sum[:0])
	return sum
}

// Extrude grows the tile's packed box by one pixel on every side so the
// box carries a border around the sprite content. The source buffer is
// reallocated two pixels larger, content inset by one, when it has no room
// left around the box.
//
// The forced form is used for normal maps: it always reallocates and never
// touches the box, which is already final from the colour map. The content
// is inset only if the colour map itself was reallocated.
func Extrude(t Tile, forced bool) Tile {
	if t.Pixels == nil {
		return t
	}

	if forced || t.OffsetX == 0 || t.OffsetY == 0 ||
		t.OriginalWidth-t.Width < t.OffsetX+2 ||
		t.OriginalHeight-t.Height < t.OffsetY+2 {
		b := t.Pixels.Bounds()
		inset := 1
		if forced && t.OriginalWidth <= b.Dx() && t.OriginalHeight <= b.Dy() {
			inset = 0
		}
		grown := image.NewNRGBA(image.Rect(0, 0, b.Dx()+2, b.Dy()+2))
		imageio.Copy(grown, image.Pt(inset, inset), t.Pixels, b)
		t.Pixels = grown

		if !forced {
			t.OffsetX++
			t.OffsetY++
			t.OriginalWidth += 2
			t.OriginalHeight += 2
		}
	}

	if !forced {
		t.OffsetX--
		t.OffsetY--
		t.Width += 2
		t.Height += 2
	}
	return t
}

// Bleed fills the one pixel border of an extruded tile with copies of the
// adjacent content pixels. It works on a copy of the buffer.
func Bleed(t Tile) Tile {
	if t.Pixels == nil || t.Width < 3 || t.Height < 3 {
		return t
	}
	p := image.NewNRGBA(t.Pixels.Rect)
	copy(p.Pix, t.Pixels.Pix)

	x0, y0 := t.OffsetX, t.OffsetY
	x1, y1 := x0+t.Width-1, y0+t.Height-1
	set := func(dx, dy, sx, sy int) {
		d, s := p.PixOffset(dx, dy), p.PixOffset(sx, sy)
		copy(p.Pix[d:d+4], p.Pix[s:s+4])
	}
	for y := y0 + 1; y < y1; y++ {
		set(x0, y, x0+1, y)
		set(x1, y, x1-1, y)
	}
	for x := x0; x <= x1; x++ {
		set(x, y0, x, y0+1)
		set(x, y1, x, y1-1)
	}

	t.Pixels = p
	return t
}

// annotate attaches the tile identity to a processing error.
func annotate(t Tile, err error) error {
	return fmt.Errorf("tile %q (%s): %w", t.Name, t.SourcePath, err)
}
