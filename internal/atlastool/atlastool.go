// Package atlastool collapses directories of sprites into packed atlases
// and expands atlases back into individual sprites.
package atlastool

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Faultbox/atlastool/pkg/binpack"
)

// Errors.
var (
	ErrInputNotFound    = errors.New("input not found")
	ErrEntryOutOfBounds = errors.New("atlas entry outside its sheet")
	ErrUnsafeName       = errors.New("atlas name leaves the output directory")
)

// IndexExt is the extension of atlas index files.
const IndexExt = ".atlas"

const (
	sequenceMarker = "-=-"
	normalSuffix   = "_n"
)

// Options configures Collapse and the batch operations.
type Options struct {
	Pack    binpack.Options
	Text    bool // write the text index instead of the binary one
	Bleed   bool
	Workers int // parallel units in batch runs; <= 0 means one
}

// DefaultOptions returns options matching the legacy tool.
func DefaultOptions() Options {
	return Options{
		Pack:    binpack.DefaultOptions(),
		Workers: 1,
	}
}

// atlasBase strips the extension from the atlas output path.
func atlasBase(atlasPath string) string {
	return strings.TrimSuffix(atlasPath, filepath.Ext(atlasPath))
}

// IndexPath returns the index file written for an atlas output path.
func IndexPath(atlasPath string) string {
	return atlasBase(atlasPath) + IndexExt
}

// sheetPath returns the image path of sheet j out of count.
func sheetPath(atlasPath string, j, count int) string {
	if count <= 1 {
		return atlasBase(atlasPath) + ".png"
	}
	return atlasBase(atlasPath) + strconv.Itoa(j) + ".png"
}

// normalSheetPath returns the normal map path paired with a sheet path.
func normalSheetPath(sheet string) string {
	ext := filepath.Ext(sheet)
	return strings.TrimSuffix(sheet, ext) + normalSuffix + ext
}

// spriteFile returns the slash-separated file name of an expanded sprite.
func spriteFile(name string, index int, normal bool) string {
	p := name
	if index >= 0 {
		p += sequenceMarker + strconv.Itoa(index) + sequenceMarker
	}
	if normal {
		p += normalSuffix
	}
	return p + ".png"
}

// spritePath returns the output path of an expanded sprite.
func spritePath(outDir, name string, index int, normal bool) string {
	return filepath.Join(outDir, filepath.FromSlash(spriteFile(name, index, normal)))
}

// isLocal reports whether the slash-separated name stays below the
// directory it is joined to.
func isLocal(name string) bool {
	return filepath.IsLocal(filepath.FromSlash(name))
}

// notFound maps missing files and directories to ErrInputNotFound.
func notFound(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
