package tile

import (
	"crypto/sha256"
	"image"
	"sort"
)

// Set holds the tiles of one atlas, addressed by integer id.
type Set struct {
	// Bleed fills the extrusion border with edge pixels instead of
	// leaving it transparent.
	Bleed bool

	tiles  []Tile
	hashes map[[sha256.Size]byte]int
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{hashes: make(map[[sha256.Size]byte]int)}
}

// Len returns the number of stored tiles, duplicates included.
func (s *Set) Len() int {
	return len(s.tiles)
}

// Tile returns the tile with the given id.
func (s *Set) Tile(id int) Tile {
	return s.tiles[id]
}

// Tiles returns the stored tiles in id order.
func (s *Set) Tiles() []Tile {
	return s.tiles
}

// Add processes t and stores it. Content already seen is stored as a
// duplicate of the first tile that carried it. A fully transparent tile is
// not stored and ok is false.
func (s *Set) Add(t Tile) (id int, ok bool, err error) {
	sum := Hash(t)
	if canon, seen := s.hashes[sum]; seen {
		t = t.copyGeometry(s.tiles[canon])
		t.DuplicateOf = canon
		t.Pixels = nil
		s.tiles = append(s.tiles, t)
		return len(s.tiles) - 1, true, nil
	}

	t, err = Trim(t)
	if err != nil {
		return -1, false, annotate(t, err)
	}
	if t.Width == 0 || t.Height == 0 {
		return -1, false, nil
	}
	t = Extrude(t, false)
	if s.Bleed {
		t = Bleed(t)
	}

	id = len(s.tiles)
	s.hashes[sum] = id
	s.tiles = append(s.tiles, t)
	return id, true, nil
}

// SetNormal attaches a normal map buffer to tile id, extruded to match the
// tile's final geometry.
func (s *Set) SetNormal(id int, normal *image.NRGBA) Tile {
	n := s.tiles[id]
	n.Pixels = normal
	return Extrude(n, true)
}

// Place records the packed position of tile id.
func (s *Set) Place(id, sheet int, at image.Point) {
	s.tiles[id].Sheet = sheet
	s.tiles[id].X = at.X
	s.tiles[id].Y = at.Y
}

// Release drops the pixel buffer of tile id once it has been rendered.
func (s *Set) Release(id int) {
	s.tiles[id].Pixels = nil
}

// PackOrder returns the ids of canonical tiles, widest first, then tallest.
func (s *Set) PackOrder() []int {
	var ids []int
	for id, t := range s.tiles {
		if !t.IsDuplicate() {
			ids = append(ids, id)
		}
	}
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := s.tiles[ids[i]], s.tiles[ids[j]]
		if a.Width != b.Width {
			return a.Width > b.Width
		}
		return a.Height > b.Height
	})
	return ids
}

// Resolve copies the placement of every canonical tile into its duplicates.
func (s *Set) Resolve() {
	for id, t := range s.tiles {
		if !t.IsDuplicate() {
			continue
		}
		c := s.tiles[t.DuplicateOf]
		s.tiles[id].X, s.tiles[id].Y = c.X, c.Y
		s.tiles[id].Sheet = c.Sheet
	}
}
