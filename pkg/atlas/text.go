package atlas

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// The text encoding describes every sprite without its 1px extrusion
// border. Writing subtracts the border, parsing adds it back.
const border = 1

// WriteText encodes the table in the line-based text form.
func (a *Atlas) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, page := range a.Pages {
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, page.Name)
		fmt.Fprintf(bw, "size: %d,%d\n", page.Width, page.Height)
		fmt.Fprintln(bw, "format: RGBA8888")
		fmt.Fprintln(bw, "filter: Linear,Linear")
		fmt.Fprintln(bw, "repeat: none")
		for _, e := range page.Entries {
			sw, sh := e.Width-2*border, e.Height-2*border
			ow, oh := e.OriginalWidth-2*border, e.OriginalHeight-2*border
			fmt.Fprintln(bw, e.Name)
			fmt.Fprintln(bw, "  rotate: false")
			fmt.Fprintf(bw, "  xy: %d, %d\n", e.X+border, e.Y+border)
			fmt.Fprintf(bw, "  size: %d, %d\n", sw, sh)
			fmt.Fprintf(bw, "  orig: %d, %d\n", ow, oh)
			fmt.Fprintf(bw, "  offset: %d, %d\n", e.OffsetX, oh-(sh+e.OffsetY))
			fmt.Fprintf(bw, "  index: %d\n", e.Index)
		}
	}
	return bw.Flush()
}

type textRegion struct {
	name         string
	line         int
	xy, size     [2]int
	orig, offset [2]int
	index        int
	seen         map[string]bool
}

func (r *textRegion) entry() (Entry, error) {
	for _, key := range []string{"xy", "size", "orig"} {
		if !r.seen[key] {
			return Entry{}, fmt.Errorf("%w: line %d: region %q has no %s", ErrMalformedText, r.line, r.name, key)
		}
	}
	w, h := r.size[0]+2*border, r.size[1]+2*border
	ow, oh := r.orig[0]+2*border, r.orig[1]+2*border
	return Entry{
		Name:           r.name,
		Index:          r.index,
		X:              r.xy[0] - border,
		Y:              r.xy[1] - border,
		Width:          w,
		Height:         h,
		OffsetX:        r.offset[0],
		OffsetY:        (oh - 2*border) - (h - 2*border) - r.offset[1],
		OriginalWidth:  ow,
		OriginalHeight: oh,
	}, nil
}

// ParseText decodes a text index table.
func ParseText(data []byte) (*Atlas, error) {
	a := &Atlas{}
	var page *Page
	var region *textRegion

	flush := func() error {
		if region == nil {
			return nil
		}
		e, err := region.entry()
		if err != nil {
			return err
		}
		page.Entries = append(page.Entries, e)
		region = nil
		return nil
	}

	expectPage := true
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), " \t\r")

		if strings.TrimSpace(text) == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			expectPage = true
			continue
		}

		if expectPage {
			a.Pages = append(a.Pages, Page{Name: text})
			page = &a.Pages[len(a.Pages)-1]
			expectPage = false
			continue
		}

		indented := text[0] == ' ' || text[0] == '\t'
		key, value, isProp := strings.Cut(strings.TrimSpace(text), ":")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)

		switch {
		case indented:
			if region == nil || !isProp {
				return nil, fmt.Errorf("%w: line %d: unexpected %q", ErrMalformedText, line, text)
			}
			if err := region.set(key, value); err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedText, line, err)
			}
		case isProp && region == nil && len(page.Entries) == 0 && isPageKey(key):
			if key == "size" {
				v, err := parsePair(value)
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedText, line, err)
				}
				page.Width, page.Height = v[0], v[1]
			}
		default:
			if err := flush(); err != nil {
				return nil, err
			}
			region = &textRegion{name: text, line: line, index: NoSequence, seen: make(map[string]bool)}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedText, err)
	}
	if page == nil {
		return nil, fmt.Errorf("%w: no sheets", ErrMalformedText)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return a, nil
}

func isPageKey(key string) bool {
	switch key {
	case "size", "format", "filter", "repeat":
		return true
	}
	return false
}

func (r *textRegion) set(key, value string) error {
	var err error
	switch key {
	case "rotate":
		if value != "false" {
			return fmt.Errorf("rotated regions are not supported")
		}
	case "xy":
		r.xy, err = parsePair(value)
	case "size":
		r.size, err = parsePair(value)
	case "orig":
		r.orig, err = parsePair(value)
	case "offset":
		r.offset, err = parsePair(value)
	case "index":
		r.index, err = strconv.Atoi(value)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	r.seen[key] = true
	return nil
}

func parsePair(s string) ([2]int, error) {
	a, b, ok := strings.Cut(s, ",")
	if !ok {
		return [2]int{}, fmt.Errorf("expected two values, got %q", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return [2]int{}, err
	}
	y, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return [2]int{}, err
	}
	return [2]int{x, y}, nil
}
