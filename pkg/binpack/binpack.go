// Package binpack places rectangles into a growing set of sheets.
//
// Two strategies are available: Guillotine keeps a binary tree of regions
// cut with full-length splits, MaxRects keeps the list of maximal free
// rectangles. The strategy is fixed when the Packer is created.
package binpack

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

// Packing errors.
var (
	ErrNeverFits  = errors.New("element can never fit in a sheet of the maximum size")
	ErrSheetLimit = errors.New("maximum sheet count reached")
	ErrBadOptions = errors.New("invalid packer options")
)

// Algorithm selects the packing strategy.
type Algorithm int

const (
	MaxRects Algorithm = iota
	Guillotine
)

// String returns the config name of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case MaxRects:
		return "maxrects"
	case Guillotine:
		return "guillotine"
	default:
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
}

// ParseAlgorithm parses a case-insensitive algorithm name.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "maxrects", "max_rects", "":
		return MaxRects, nil
	case "guillotine":
		return Guillotine, nil
	}
	return 0, fmt.Errorf("%w: unknown algorithm %q", ErrBadOptions, s)
}

// MarginPolicy controls which edges of a placed rectangle receive margin.
type MarginPolicy int

const (
	MarginNone MarginPolicy = iota
	// MarginAll spaces every element from its neighbours and from the sheet edges.
	MarginAll
	// MarginOnlyBorder adds margin only on edges touching the sheet border.
	MarginOnlyBorder
	// MarginNoBorder adds margin only between elements.
	MarginNoBorder
)

// String returns the config name of the policy.
func (m MarginPolicy) String() string {
	switch m {
	case MarginNone:
		return "none"
	case MarginAll:
		return "all"
	case MarginOnlyBorder:
		return "only_border"
	case MarginNoBorder:
		return "no_border"
	default:
		return fmt.Sprintf("MarginPolicy(%d)", int(m))
	}
}

// ParseMarginPolicy parses a case-insensitive policy name.
func ParseMarginPolicy(s string) (MarginPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return MarginNone, nil
	case "all":
		return MarginAll, nil
	case "only_border", "onlyborder":
		return MarginOnlyBorder, nil
	case "no_border", "noborder":
		return MarginNoBorder, nil
	}
	return 0, fmt.Errorf("%w: unknown margin policy %q", ErrBadOptions, s)
}

// Options configures a Packer.
//
// Policy only affects Guillotine. MaxRects always pads each element by
// Margin on its right and bottom edge, and Margin must be at least one
// pixel on both axes.
type Options struct {
	Algorithm Algorithm
	StartSize image.Point
	MaxSize   image.Point
	MaxSheets int // 0 means unlimited
	Margin    image.Point
	Policy    MarginPolicy
}

// DefaultOptions mirrors the settings the legacy atlases were built with.
func DefaultOptions() Options {
	return Options{
		Algorithm: MaxRects,
		StartSize: image.Pt(32, 32),
		MaxSize:   image.Pt(4096, 4096),
		Margin:    image.Pt(1, 1),
		Policy:    MarginAll,
	}
}

// Validate reports whether the options describe a usable packer.
func (o Options) Validate() error {
	if o.StartSize.X <= 0 || o.StartSize.Y <= 0 {
		return fmt.Errorf("%w: start size %v", ErrBadOptions, o.StartSize)
	}
	if o.StartSize.X > o.MaxSize.X || o.StartSize.Y > o.MaxSize.Y {
		return fmt.Errorf("%w: start size %v exceeds max size %v", ErrBadOptions, o.StartSize, o.MaxSize)
	}
	if o.Margin.X < 0 || o.Margin.Y < 0 {
		return fmt.Errorf("%w: negative margin %v", ErrBadOptions, o.Margin)
	}
	if o.Algorithm == MaxRects && (o.Margin.X < 1 || o.Margin.Y < 1) {
		return fmt.Errorf("%w: maxrects needs a margin of at least 1, got %v", ErrBadOptions, o.Margin)
	}
	if o.MaxSheets < 0 {
		return fmt.Errorf("%w: negative sheet limit %d", ErrBadOptions, o.MaxSheets)
	}
	return nil
}

// fits reports whether a size can hold b.
func fits(a, b image.Point) bool {
	return a.X >= b.X && a.Y >= b.Y
}

func area(r image.Rectangle) int {
	if r.Empty() {
		return 0
	}
	return r.Dx() * r.Dy()
}
