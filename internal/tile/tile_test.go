package tile

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Faultbox/atlastool/internal/imageio"
)

var opaque = color.NRGBA{R: 200, G: 100, B: 50, A: 255}

// solidTile returns a w x h tile with box filled with c.
func solidTile(w, h int, box image.Rectangle, c color.NRGBA) Tile {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return New("t", NoSequence, img)
}

func TestTrim_SinglePixel(t *testing.T) {
	tl, err := Trim(solidTile(5, 5, image.Rect(2, 3, 3, 4), opaque))
	if err != nil {
		t.Fatalf("trim failed: %v", err)
	}
	if got := tl.Source(); got != image.Rect(2, 3, 3, 4) {
		t.Errorf("expected box (2,3)-(3,4), got %v", got)
	}
	if tl.OriginalWidth != 5 || tl.OriginalHeight != 5 {
		t.Errorf("original size changed: %dx%d", tl.OriginalWidth, tl.OriginalHeight)
	}
}

func TestTrim_KeepsAllContent(t *testing.T) {
	src := solidTile(10, 10, image.Rect(3, 2, 7, 6), opaque)
	src.Pixels.SetNRGBA(8, 8, color.NRGBA{A: 1})

	tl, err := Trim(src)
	if err != nil {
		t.Fatalf("trim failed: %v", err)
	}
	box := tl.Source()
	if box != image.Rect(3, 2, 9, 9) {
		t.Errorf("expected box (3,2)-(9,9), got %v", box)
	}
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if src.Pixels.NRGBAAt(x, y).A != 0 && !image.Pt(x, y).In(box) {
				t.Errorf("pixel (%d,%d) lies outside the trimmed box", x, y)
			}
		}
	}
}

func TestTrim_Transparent(t *testing.T) {
	tl, err := Trim(solidTile(6, 4, image.Rectangle{}, opaque))
	if err != nil {
		t.Fatalf("trim failed: %v", err)
	}
	if tl.Width != 0 || tl.Height != 0 {
		t.Errorf("expected zero area, got %dx%d", tl.Width, tl.Height)
	}
}

func TestTrim_ZeroWidth(t *testing.T) {
	tl := New("bad", NoSequence, image.NewNRGBA(image.Rect(0, 0, 0, 3)))
	if _, err := Trim(tl); !errors.Is(err, ErrZeroWidth) {
		t.Errorf("expected ErrZeroWidth, got %v", err)
	}
}

func TestExtrude_InPlace(t *testing.T) {
	tl, _ := Trim(solidTile(10, 10, image.Rect(3, 2, 7, 6), opaque))
	buf := tl.Pixels

	ex := Extrude(tl, false)
	if ex.Pixels != buf {
		t.Error("expected the buffer to be reused when there is room around the box")
	}
	if got := ex.Source(); got != image.Rect(2, 1, 8, 7) {
		t.Errorf("expected box (2,1)-(8,7), got %v", got)
	}
	if ex.OriginalWidth != 10 || ex.OriginalHeight != 10 {
		t.Errorf("expected original 10x10, got %dx%d", ex.OriginalWidth, ex.OriginalHeight)
	}
}

func TestExtrude_Reallocates(t *testing.T) {
	src := solidTile(4, 4, image.Rect(0, 0, 4, 4), opaque)
	ex := Extrude(src, false)

	if ex.OriginalWidth != 6 || ex.OriginalHeight != 6 {
		t.Fatalf("expected original 6x6, got %dx%d", ex.OriginalWidth, ex.OriginalHeight)
	}
	if got := ex.Pixels.Bounds(); got != image.Rect(0, 0, 6, 6) {
		t.Fatalf("expected 6x6 buffer, got %v", got)
	}
	if got := ex.Source(); got != image.Rect(0, 0, 6, 6) {
		t.Errorf("expected box covering the whole buffer, got %v", got)
	}
	if ex.Pixels.NRGBAAt(1, 1) != opaque || ex.Pixels.NRGBAAt(4, 4) != opaque {
		t.Error("expected content inset by one pixel")
	}
	if ex.Pixels.NRGBAAt(0, 0).A != 0 || ex.Pixels.NRGBAAt(5, 3).A != 0 {
		t.Error("expected a transparent border")
	}
	if src.Width != 4 || src.Pixels.Bounds().Dx() != 4 {
		t.Error("extrude modified its input")
	}
}

func TestExtrude_ForcedNormal(t *testing.T) {
	colour := Extrude(solidTile(4, 4, image.Rect(0, 0, 4, 4), opaque), false)
	normal := solidTile(4, 4, image.Rect(0, 0, 4, 4), color.NRGBA{B: 255, A: 255}).Pixels

	n := colour
	n.Pixels = normal
	n = Extrude(n, true)
	if n.Source() != colour.Source() || n.OriginalWidth != colour.OriginalWidth {
		t.Error("forced extrude changed the geometry")
	}
	if n.Pixels.NRGBAAt(1, 1).B != 255 || n.Pixels.NRGBAAt(0, 0).A != 0 {
		t.Error("expected normal content inset to match the colour map")
	}

	// No reallocation of the colour map: the normal map keeps its origin.
	trimmed, _ := Trim(solidTile(10, 10, image.Rect(3, 2, 7, 6), opaque))
	colour = Extrude(trimmed, false)
	n = colour
	n.Pixels = solidTile(10, 10, image.Rect(3, 2, 7, 6), color.NRGBA{B: 255, A: 255}).Pixels
	n = Extrude(n, true)
	if n.Pixels.NRGBAAt(3, 2).B != 255 {
		t.Error("expected normal content at its original position")
	}
}

func TestBleed(t *testing.T) {
	ex := Bleed(Extrude(solidTile(3, 3, image.Rect(0, 0, 3, 3), opaque), false))
	for _, p := range []image.Point{{0, 0}, {4, 0}, {0, 2}, {4, 4}, {2, 4}} {
		if got := ex.Pixels.NRGBAAt(p.X, p.Y); got != opaque {
			t.Errorf("border pixel %v: expected %v, got %v", p, opaque, got)
		}
	}
}

func TestHash(t *testing.T) {
	a := solidTile(4, 4, image.Rect(1, 1, 2, 2), opaque)
	b := solidTile(4, 4, image.Rect(1, 1, 2, 2), opaque)
	if Hash(a) != Hash(b) {
		t.Error("expected equal content to hash equal")
	}

	c := solidTile(4, 4, image.Rect(1, 1, 2, 2), color.NRGBA{R: 1, A: 255})
	if Hash(a) == Hash(c) {
		t.Error("expected different pixels to hash differently")
	}

	wide := solidTile(8, 2, image.Rectangle{}, opaque)
	square := solidTile(4, 4, image.Rectangle{}, opaque)
	if Hash(wide) == Hash(square) {
		t.Error("expected different shapes to hash differently")
	}
}

func TestSet_Dedupe(t *testing.T) {
	s := NewSet()
	first, ok, err := s.Add(solidTile(8, 8, image.Rect(2, 2, 5, 6), opaque))
	if err != nil || !ok {
		t.Fatalf("add failed: ok=%v err=%v", ok, err)
	}
	dup, ok, err := s.Add(solidTile(8, 8, image.Rect(2, 2, 5, 6), opaque))
	if err != nil || !ok {
		t.Fatalf("add duplicate failed: ok=%v err=%v", ok, err)
	}

	d := s.Tile(dup)
	if d.DuplicateOf != first {
		t.Errorf("expected duplicate of %d, got %d", first, d.DuplicateOf)
	}
	if d.Pixels != nil {
		t.Error("expected duplicate pixels to be released")
	}
	if d.Source() != s.Tile(first).Source() {
		t.Errorf("expected duplicate geometry %v, got %v", s.Tile(first).Source(), d.Source())
	}
	if got := s.PackOrder(); !reflect.DeepEqual(got, []int{first}) {
		t.Errorf("expected only the canonical tile in pack order, got %v", got)
	}

	s.Place(first, 1, image.Pt(7, 9))
	s.Resolve()
	d = s.Tile(dup)
	if d.X != 7 || d.Y != 9 || d.Sheet != 1 {
		t.Errorf("expected resolved placement (7,9) on sheet 1, got (%d,%d) on %d", d.X, d.Y, d.Sheet)
	}
}

func TestSet_DropsTransparent(t *testing.T) {
	s := NewSet()
	if _, ok, err := s.Add(solidTile(5, 5, image.Rectangle{}, opaque)); ok || err != nil {
		t.Errorf("expected transparent tile to be dropped, ok=%v err=%v", ok, err)
	}
	if s.Len() != 0 {
		t.Errorf("expected empty set, got %d tiles", s.Len())
	}
}

func TestSet_PackOrder(t *testing.T) {
	s := NewSet()
	sizes := []image.Point{{4, 4}, {10, 2}, {4, 8}, {10, 6}, {4, 4}}
	for i, sz := range sizes {
		// Distinct colours keep the tiles from being deduplicated.
		c := color.NRGBA{R: uint8(i), A: 255}
		if _, _, err := s.Add(solidTile(sz.X, sz.Y, image.Rect(0, 0, sz.X, sz.Y), c)); err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}

	want := []int{3, 1, 2, 0, 4}
	if got := s.PackOrder(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected order %v, got %v", want, got)
	}
}

func TestParseName(t *testing.T) {
	tests := []struct {
		rel   string
		name  string
		index int
		err   error
	}{
		{"idle.png", "idle", NoSequence, nil},
		{"idle-=-0-=-.png", "idle", 0, nil},
		{"hero/walk-=-12-=-.png", "hero/walk", 12, nil},
		{"hero/a-=-1-=-_left.png", "hero/a_left", 1, nil},
		{"bad-=-x-=-.png", "bad", NoSequence, nil},
		{"open-=-3.png", "open-=-3", NoSequence, nil},
		{"last-=-65534-=-.png", "last", MaxSequence, nil},
		{"over-=-65535-=-.png", "over", NoSequence, ErrSequenceRange},
		{"huge-=-99999999999999999999-=-.png", "huge", NoSequence, ErrSequenceRange},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			name, index, err := ParseName(tt.rel)
			if !errors.Is(err, tt.err) {
				t.Fatalf("ParseName(%q) error = %v, want %v", tt.rel, err, tt.err)
			}
			if name != tt.name || index != tt.index {
				t.Errorf("ParseName(%q) = (%q, %d), want (%q, %d)", tt.rel, name, index, tt.name, tt.index)
			}
		})
	}
}

func TestNormalPath(t *testing.T) {
	if got := NormalPath(filepath.Join("a", "hero.png")); got != filepath.Join("a", "hero_n.png") {
		t.Errorf("unexpected normal path %q", got)
	}
	if !IsNormalMap("dir/hero_n.png") || IsNormalMap("dir/hero.png") {
		t.Error("IsNormalMap misclassified a path")
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := solidTile(w, h, image.Rect(0, 0, w, h), opaque).Pixels
	if err := imageio.Save(path, img); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestWalkAndLoad(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "b", "x.png"), 2, 2)
	writePNG(t, filepath.Join(root, "a.png"), 3, 2)
	writePNG(t, filepath.Join(root, "a_n.png"), 3, 2)
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}

	sources, err := Walk(root)
	if err != nil {
		t.Fatalf("walk failed: %v", err)
	}
	var rels []string
	for _, s := range sources {
		rels = append(rels, s.Rel)
	}
	if want := []string{"a.png", "b/x.png"}; !reflect.DeepEqual(rels, want) {
		t.Fatalf("expected %v, got %v", want, rels)
	}

	tl, err := Load(sources[0])
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if tl.Name != "a" || tl.Width != 3 || tl.Height != 2 || !tl.HasNormal {
		t.Errorf("unexpected tile %+v", tl)
	}
	if _, err := LoadNormal(tl); err != nil {
		t.Errorf("failed to load normal map: %v", err)
	}

	if _, err := Walk(filepath.Join(root, "missing")); !errors.Is(err, ErrNoInputDir) {
		t.Errorf("expected ErrNoInputDir, got %v", err)
	}
}

func TestLoad_SequenceRange(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "run-=-70000-=-.png"), 2, 2)

	sources, err := Walk(root)
	if err != nil {
		t.Fatalf("walk failed: %v", err)
	}
	if _, err := Load(sources[0]); !errors.Is(err, ErrSequenceRange) {
		t.Errorf("expected ErrSequenceRange, got %v", err)
	}
}

func TestLoad_NormalSizeMismatch(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "a.png"), 4, 4)
	writePNG(t, filepath.Join(root, "a_n.png"), 5, 4)

	sources, err := Walk(root)
	if err != nil {
		t.Fatalf("walk failed: %v", err)
	}
	if _, err := Load(sources[0]); !errors.Is(err, ErrNormalSize) {
		t.Errorf("expected ErrNormalSize, got %v", err)
	}
}
