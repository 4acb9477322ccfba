// Package atlas reads and writes sprite atlas index tables.
//
// An index table lists, for every sheet image, the sprites packed into it
// and where each sprite came from in its source image. Two encodings exist:
// a compact binary table (magic "BATL") and a line-based text table.
package atlas

import (
	"bytes"
	"errors"
	"fmt"
	"os"
)

// Magic identifies a binary index table.
const Magic = "BATL"

// NoSequence marks an entry that is not part of an animation sequence.
const NoSequence = -1

// Index table errors.
var (
	ErrInvalidMagic  = errors.New("invalid atlas magic: expected 'BATL'")
	ErrTruncated     = errors.New("truncated atlas data")
	ErrMalformedText = errors.New("malformed text atlas")
	ErrStringTooLong = errors.New("string too long for atlas table")
	ErrFieldRange    = errors.New("atlas field out of range")
)

// Entry is one sprite record.
//
// X, Y, Width and Height locate the sprite in the sheet. OffsetX and OffsetY
// give the position of that rectangle inside a source image of
// OriginalWidth x OriginalHeight.
type Entry struct {
	Name           string
	Index          int
	X              int
	Y              int
	Width          int
	Height         int
	OffsetX        int
	OffsetY        int
	OriginalWidth  int
	OriginalHeight int
}

// Page is one sheet image and its entries.
// Width and Height are only carried by the text encoding.
type Page struct {
	Name    string
	Width   int
	Height  int
	Entries []Entry
}

// Atlas is a parsed index table.
type Atlas struct {
	Pages []Page
}

// EntryCount returns the number of entries over all pages.
func (a *Atlas) EntryCount() int {
	n := 0
	for _, p := range a.Pages {
		n += len(p.Entries)
	}
	return n
}

// Parse decodes an index table, detecting the encoding from the magic.
func Parse(data []byte) (*Atlas, error) {
	if bytes.HasPrefix(data, []byte(Magic)) {
		return ParseBinary(data)
	}
	return ParseText(data)
}

// ParseFile decodes an index table from disk.
func ParseFile(path string) (*Atlas, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading atlas file: %w", err)
	}
	a, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return a, nil
}
