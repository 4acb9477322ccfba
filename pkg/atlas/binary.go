package atlas

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Strings of this length or more use the long form: 0xFF then a uint16 length.
const longStringMarker = 0xFF

const fieldCount = 9

// ParseBinary decodes a binary index table.
func ParseBinary(data []byte) (*Atlas, error) {
	if len(data) < len(Magic) {
		return nil, ErrTruncated
	}
	if string(data[:len(Magic)]) != Magic {
		return nil, ErrInvalidMagic
	}

	r := bytes.NewReader(data[len(Magic):])
	pos := func() int64 { return int64(len(data)) - int64(r.Len()) }

	a := &Atlas{}
	for {
		name, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("%w: reading sheet name at offset %d", ErrTruncated, pos())
		}
		if name == "" {
			break
		}

		page := Page{Name: name}
		for {
			at := pos()
			entryName, err := readString(r)
			if err != nil {
				return nil, fmt.Errorf("%w: reading entry name in sheet %q at offset %d", ErrTruncated, name, at)
			}
			if entryName == "" {
				break
			}

			var fields [fieldCount]uint16
			if err := binary.Read(r, binary.LittleEndian, &fields); err != nil {
				return nil, fmt.Errorf("%w: reading entry %q in sheet %q at offset %d", ErrTruncated, entryName, name, at)
			}
			page.Entries = append(page.Entries, entryFromFields(entryName, fields))
		}
		a.Pages = append(a.Pages, page)
	}

	return a, nil
}

func entryFromFields(name string, f [fieldCount]uint16) Entry {
	index := int(f[0])
	if f[0] == 0xFFFF {
		index = NoSequence
	}
	return Entry{
		Name:           name,
		Index:          index,
		X:              int(f[1]),
		Y:              int(f[2]),
		Width:          int(f[3]),
		Height:         int(f[4]),
		OffsetX:        int(f[5]),
		OffsetY:        int(f[6]),
		OriginalWidth:  int(f[7]),
		OriginalHeight: int(f[8]),
	}
}

func readString(r *bytes.Reader) (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	length := int(n)
	if n == longStringMarker {
		var long uint16
		if err := binary.Read(r, binary.LittleEndian, &long); err != nil {
			return "", err
		}
		length = int(long)
	}
	if length == 0 {
		return "", nil
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// WriteBinary encodes the table in binary form. Entry coordinates are
// written as-is.
func (a *Atlas) WriteBinary(w io.Writer) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(Magic)

	for _, page := range a.Pages {
		if page.Name == "" {
			return fmt.Errorf("%w: empty sheet name", ErrFieldRange)
		}
		if err := writeString(bw, page.Name); err != nil {
			return fmt.Errorf("sheet %q: %w", page.Name, err)
		}
		for _, e := range page.Entries {
			if err := writeEntry(bw, e); err != nil {
				return fmt.Errorf("sheet %q entry %q: %w", page.Name, e.Name, err)
			}
		}
		bw.WriteByte(0)
	}
	bw.WriteByte(0)

	return bw.Flush()
}

func writeEntry(w *bufio.Writer, e Entry) error {
	if e.Name == "" {
		return fmt.Errorf("%w: empty entry name", ErrFieldRange)
	}
	index := e.Index
	switch {
	case index == NoSequence:
		index = 0xFFFF
	case index == 0xFFFF:
		return fmt.Errorf("%w: sequence index 65535 is reserved", ErrFieldRange)
	}
	values := [fieldCount]int{
		index, e.X, e.Y, e.Width, e.Height,
		e.OffsetX, e.OffsetY, e.OriginalWidth, e.OriginalHeight,
	}
	var fields [fieldCount]uint16
	for i, v := range values {
		if v < 0 || v > 0xFFFF {
			return fmt.Errorf("%w: field %d = %d", ErrFieldRange, i, v)
		}
		fields[i] = uint16(v)
	}

	if err := writeString(w, e.Name); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, fields)
}

func writeString(w *bufio.Writer, s string) error {
	switch {
	case len(s) > 0xFFFF:
		return fmt.Errorf("%w: %d bytes", ErrStringTooLong, len(s))
	case len(s) >= longStringMarker:
		w.WriteByte(longStringMarker)
		binary.Write(w, binary.LittleEndian, uint16(len(s)))
	default:
		w.WriteByte(byte(len(s)))
	}
	_, err := w.WriteString(s)
	return err
}
