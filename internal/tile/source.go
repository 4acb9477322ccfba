package tile

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Faultbox/atlastool/internal/imageio"
)

const (
	sequenceMarker = "-=-"
	normalSuffix   = "_n"
)

// Source is an image file found under an input directory.
type Source struct {
	Path string // filesystem path
	Rel  string // path relative to the input root, '/'-separated
}

// Walk lists every decodable image under root in lexical order, skipping
// normal maps.
func Walk(root string) ([]Source, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNoInputDir, root)
	}

	var sources []Source
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !imageio.Supported(path) || IsNormalMap(path) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		sources = append(sources, Source{Path: path, Rel: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return sources, nil
}

// ParseName derives the tile name and sequence index from a relative path.
// "walk/left-=-3-=-.png" yields ("walk/left", 3). A marker whose text is not
// a number is still removed and yields NoSequence; a number above
// MaxSequence is an error.
func ParseName(rel string) (string, int, error) {
	name := filepath.ToSlash(rel)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	start := strings.Index(name, sequenceMarker)
	if start < 0 {
		return name, NoSequence, nil
	}
	numAt := start + len(sequenceMarker)
	end := strings.Index(name[numAt:], sequenceMarker)
	if end < 0 {
		return name, NoSequence, nil
	}
	stripped := name[:start] + name[numAt+end+len(sequenceMarker):]

	digits := name[numAt : numAt+end]
	index, err := strconv.Atoi(digits)
	switch {
	case errors.Is(err, strconv.ErrRange), err == nil && index > MaxSequence:
		return stripped, NoSequence, fmt.Errorf("%w: %s in %s (max %d)", ErrSequenceRange, digits, rel, MaxSequence)
	case err != nil, index < 0:
		index = NoSequence
	}
	return stripped, index, nil
}

// NormalPath returns the normal map path paired with an image path.
func NormalPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + normalSuffix + ext
}

// IsNormalMap reports whether path names a normal map.
func IsNormalMap(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(strings.TrimSuffix(base, filepath.Ext(base)), normalSuffix)
}

// Load decodes src into an unprocessed tile.
func Load(src Source) (Tile, error) {
	name, index, err := ParseName(src.Rel)
	if err != nil {
		return Tile{}, err
	}
	img, err := imageio.Load(src.Path)
	if err != nil {
		return Tile{}, err
	}
	t := New(name, index, img)
	t.SourcePath = src.Path

	size, err := imageio.Size(NormalPath(src.Path))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return t, nil
	case err != nil:
		return Tile{}, err
	case size != img.Bounds().Size():
		return Tile{}, fmt.Errorf("%w: %s is %v, %s is %v",
			ErrNormalSize, NormalPath(src.Rel), size, src.Rel, img.Bounds().Size())
	}
	t.HasNormal = true
	return t, nil
}

// LoadNormal decodes the normal map paired with t.
func LoadNormal(t Tile) (*image.NRGBA, error) {
	return imageio.Load(NormalPath(t.SourcePath))
}
