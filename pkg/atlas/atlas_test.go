package atlas

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func sampleAtlas() *Atlas {
	return &Atlas{Pages: []Page{
		{
			Name:   "hero.png",
			Width:  128,
			Height: 64,
			Entries: []Entry{
				{Name: "idle", Index: 0, X: 0, Y: 0, Width: 66, Height: 66, OffsetX: 0, OffsetY: 0, OriginalWidth: 66, OriginalHeight: 66},
				{Name: "idle", Index: 1, X: 0, Y: 0, Width: 66, Height: 66, OffsetX: 0, OffsetY: 0, OriginalWidth: 66, OriginalHeight: 66},
				{Name: "fx/spark", Index: NoSequence, X: 67, Y: 3, Width: 12, Height: 9, OffsetX: 4, OffsetY: 2, OriginalWidth: 34, OriginalHeight: 34},
			},
		},
		{
			Name:   "hero1.png",
			Width:  32,
			Height: 32,
			Entries: []Entry{
				{Name: "shadow", Index: NoSequence, X: 0, Y: 0, Width: 30, Height: 10, OffsetX: 1, OffsetY: 20, OriginalWidth: 34, OriginalHeight: 34},
			},
		},
	}}
}

// buildBinaryAtlas writes a binary table by hand, independent of WriteBinary.
func buildBinaryAtlas(pages map[string][][9]uint16, order []string, names map[string][]string) []byte {
	var buf bytes.Buffer
	buf.WriteString("BATL")
	for _, page := range order {
		buf.WriteByte(byte(len(page)))
		buf.WriteString(page)
		for i, fields := range pages[page] {
			name := names[page][i]
			buf.WriteByte(byte(len(name)))
			buf.WriteString(name)
			binary.Write(&buf, binary.LittleEndian, fields)
		}
		buf.WriteByte(0)
	}
	buf.WriteByte(0)
	return buf.Bytes()
}

func TestParseBinary_Synthetic(t *testing.T) {
	data := buildBinaryAtlas(
		map[string][][9]uint16{
			"a.png": {
				{0, 1, 2, 3, 4, 5, 6, 7, 8},
				{0xFFFF, 10, 20, 30, 40, 0, 0, 30, 40},
			},
		},
		[]string{"a.png"},
		map[string][]string{"a.png": {"walk", "dir/still"}},
	)

	a, err := ParseBinary(data)
	if err != nil {
		t.Fatalf("failed to parse synthetic atlas: %v", err)
	}
	if len(a.Pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(a.Pages))
	}
	page := a.Pages[0]
	if page.Name != "a.png" {
		t.Errorf("expected page name a.png, got %q", page.Name)
	}
	if len(page.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(page.Entries))
	}

	want := Entry{Name: "walk", Index: 0, X: 1, Y: 2, Width: 3, Height: 4, OffsetX: 5, OffsetY: 6, OriginalWidth: 7, OriginalHeight: 8}
	if page.Entries[0] != want {
		t.Errorf("first entry: expected %+v, got %+v", want, page.Entries[0])
	}
	if page.Entries[1].Index != NoSequence {
		t.Errorf("expected 0xFFFF to decode as NoSequence, got %d", page.Entries[1].Index)
	}
	if page.Entries[1].Name != "dir/still" {
		t.Errorf("expected name dir/still, got %q", page.Entries[1].Name)
	}
}

func TestWriteBinary_Layout(t *testing.T) {
	a := &Atlas{Pages: []Page{{
		Name:    "s.png",
		Entries: []Entry{{Name: "t", Index: 3, X: 1, Y: 2, Width: 3, Height: 4, OffsetX: 5, OffsetY: 6, OriginalWidth: 7, OriginalHeight: 8}},
	}}}

	var buf bytes.Buffer
	if err := a.WriteBinary(&buf); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	expected := []byte("BATL")
	expected = append(expected, 5)
	expected = append(expected, "s.png"...)
	expected = append(expected, 1, 't')
	for _, v := range []uint16{3, 1, 2, 3, 4, 5, 6, 7, 8} {
		expected = binary.LittleEndian.AppendUint16(expected, v)
	}
	expected = append(expected, 0, 0)

	if !bytes.Equal(buf.Bytes(), expected) {
		t.Errorf("got  % x\nwant % x", buf.Bytes(), expected)
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	orig := sampleAtlas()

	var buf bytes.Buffer
	if err := orig.WriteBinary(&buf); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	parsed, err := Parse(buf.Bytes())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	// The binary form does not carry sheet sizes.
	for i := range orig.Pages {
		orig.Pages[i].Width, orig.Pages[i].Height = 0, 0
	}
	if !reflect.DeepEqual(orig, parsed) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", parsed, orig)
	}
}

func TestBinaryLongString(t *testing.T) {
	name := strings.Repeat("n", 300)
	a := &Atlas{Pages: []Page{{
		Name:    "p.png",
		Entries: []Entry{{Name: name, Index: NoSequence, Width: 1, Height: 1, OriginalWidth: 1, OriginalHeight: 1}},
	}}}

	var buf bytes.Buffer
	if err := a.WriteBinary(&buf); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	data := buf.Bytes()
	nameAt := len("BATL") + 1 + len("p.png")
	if data[nameAt] != 0xFF {
		t.Fatalf("expected long string marker, got 0x%02x", data[nameAt])
	}
	if got := binary.LittleEndian.Uint16(data[nameAt+1:]); got != 300 {
		t.Errorf("expected long length 300, got %d", got)
	}

	parsed, err := ParseBinary(data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed.Pages[0].Entries[0].Name != name {
		t.Error("long name did not survive round trip")
	}
}

func TestParseBinary_InvalidMagic(t *testing.T) {
	_, err := ParseBinary([]byte("XATL\x00"))
	if err != ErrInvalidMagic {
		t.Errorf("expected ErrInvalidMagic, got %v", err)
	}
}

func TestParseBinary_Truncated(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleAtlas().WriteBinary(&buf); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	data := buf.Bytes()

	for n := 0; n < len(data); n++ {
		_, err := ParseBinary(data[:n])
		if !errors.Is(err, ErrTruncated) {
			t.Fatalf("prefix of %d bytes: expected ErrTruncated, got %v", n, err)
		}
	}
}

func TestWriteBinary_FieldRange(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
	}{
		{"negative x", Entry{Name: "a", X: -1}},
		{"wide", Entry{Name: "a", Width: 70000}},
		{"reserved index", Entry{Name: "a", Index: 0xFFFF}},
		{"empty name", Entry{Index: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Atlas{Pages: []Page{{Name: "p.png", Entries: []Entry{tt.entry}}}}
			err := a.WriteBinary(&bytes.Buffer{})
			if !errors.Is(err, ErrFieldRange) {
				t.Errorf("expected ErrFieldRange, got %v", err)
			}
		})
	}
}

func TestWriteText(t *testing.T) {
	a := &Atlas{Pages: []Page{{
		Name:   "hero.png",
		Width:  64,
		Height: 32,
		Entries: []Entry{
			{Name: "fx/spark", Index: NoSequence, X: 4, Y: 6, Width: 12, Height: 9, OffsetX: 4, OffsetY: 2, OriginalWidth: 34, OriginalHeight: 34},
		},
	}}}

	var buf bytes.Buffer
	if err := a.WriteText(&buf); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	expected := `
hero.png
size: 64,32
format: RGBA8888
filter: Linear,Linear
repeat: none
fx/spark
  rotate: false
  xy: 5, 7
  size: 10, 7
  orig: 32, 32
  offset: 4, 23
  index: -1
`
	if buf.String() != expected {
		t.Errorf("unexpected text output:\n%s", buf.String())
	}
}

func TestTextRoundTrip(t *testing.T) {
	orig := sampleAtlas()

	var buf bytes.Buffer
	if err := orig.WriteText(&buf); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	parsed, err := Parse(buf.Bytes())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !reflect.DeepEqual(orig, parsed) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", parsed, orig)
	}
}

func TestParseText_Malformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"property before region", "\nsheet.png\nsize: 1,1\n  xy: 1, 1\n"},
		{"missing xy", "\nsheet.png\nsprite\n  size: 1, 1\n  orig: 1, 1\n"},
		{"bad pair", "\nsheet.png\nsprite\n  xy: 1\n"},
		{"rotated", "\nsheet.png\nsprite\n  rotate: true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseText([]byte(tt.text))
			if !errors.Is(err, ErrMalformedText) {
				t.Errorf("expected ErrMalformedText, got %v", err)
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hero.atlas")
	var buf bytes.Buffer
	if err := sampleAtlas().WriteBinary(&buf); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("failed to write atlas: %v", err)
	}

	a, err := ParseFile(path)
	if err != nil {
		t.Fatalf("failed to parse file: %v", err)
	}
	if a.EntryCount() != 4 {
		t.Errorf("expected 4 entries, got %d", a.EntryCount())
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.atlas")); err == nil {
		t.Error("expected error for missing file")
	}
}
