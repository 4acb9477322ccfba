package binpack

import (
	"fmt"
	"image"
)

// Packer distributes elements over as many sheets as needed.
type Packer struct {
	opts      Options
	sheets    []*Sheet
	current   *Sheet
	probe     *Sheet
	reachable []image.Point
}

// New creates a Packer.
func New(opts Options) (*Packer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	p := &Packer{
		opts:  opts,
		probe: newSheet(opts),
	}
	// Every size a sheet can reach by growing, smallest first.
	s := newSheet(opts)
	p.reachable = append(p.reachable, s.size)
	for s.canGrow(opts.MaxSize) {
		s.grow()
		p.reachable = append(p.reachable, s.size)
	}
	return p, nil
}

// Sheets returns the sheets in creation order.
func (p *Packer) Sheets() []*Sheet {
	return p.sheets
}

// Insert places an element of the given size and returns the index of the
// sheet holding it together with its rectangle. Placing another element may
// move earlier ones when their sheet grows; read final positions from
// Sheets once every element is inserted.
func (p *Packer) Insert(id int, size image.Point) (int, image.Rectangle, error) {
	if size.X <= 0 || size.Y <= 0 {
		return 0, image.Rectangle{}, fmt.Errorf("%w: element %d has size %v", ErrBadOptions, id, size)
	}
	if !p.fitsEmptyMax(id, size) {
		return 0, image.Rectangle{}, fmt.Errorf("%w: element %d of size %dx%d, max sheet %dx%d",
			ErrNeverFits, id, size.X, size.Y, p.opts.MaxSize.X, p.opts.MaxSize.Y)
	}

	if p.current == nil {
		p.addSheet()
	}

	for i, s := range p.sheets {
		if s.insert(id, size) {
			return i, s.placed[id], nil
		}
	}

	for {
		switch {
		case p.current.canGrow(p.opts.MaxSize):
			p.current.growAndRearrange(p.opts.MaxSize)
		case p.opts.MaxSheets == 0 || len(p.sheets) < p.opts.MaxSheets:
			p.addSheet()
		default:
			return 0, image.Rectangle{}, fmt.Errorf("%w: %d sheets, element %d of size %dx%d",
				ErrSheetLimit, len(p.sheets), id, size.X, size.Y)
		}
		if p.current.insert(id, size) {
			return len(p.sheets) - 1, p.current.placed[id], nil
		}
	}
}

func (p *Packer) addSheet() {
	p.current = newSheet(p.opts)
	p.sheets = append(p.sheets, p.current)
}

// fitsEmptyMax reports whether the element fits an empty sheet of any size
// reachable by growth, margins included.
func (p *Packer) fitsEmptyMax(id int, size image.Point) bool {
	for i := len(p.reachable) - 1; i >= 0; i-- {
		p.probe.algo.reset(p.reachable[i])
		if _, ok := p.probe.algo.insert(id, size); ok {
			return true
		}
	}
	return false
}
