package atlastool

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/atlastool/internal/imageio"
	"github.com/Faultbox/atlastool/internal/logger"
	"github.com/Faultbox/atlastool/pkg/atlas"
)

// PageSummary describes one sheet of an atlas.
type PageSummary struct {
	Name       string
	Width      int
	Height     int
	Entries    int
	Duplicates int // entries sharing a region with an earlier entry
	Sequences  int // entries with a sequence index
	Normals    bool
	Thumbnail  string
}

// Summary describes an atlas index.
type Summary struct {
	Path    string
	Format  string
	Entries int
	Pages   []PageSummary
}

// Inspect summarises the atlas at atlasPath. When thumbDir is set, a
// thumbnail of every sheet no larger than maxDim is written there.
func Inspect(atlasPath, thumbDir string, maxDim uint) (*Summary, error) {
	data, err := os.ReadFile(atlasPath)
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, atlasPath)
		}
		return nil, err
	}
	idx, err := atlas.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", atlasPath, err)
	}

	sum := &Summary{Path: atlasPath, Format: "text", Entries: idx.EntryCount()}
	if bytes.HasPrefix(data, []byte(atlas.Magic)) {
		sum.Format = "binary"
	}

	dir := filepath.Dir(atlasPath)
	for _, page := range idx.Pages {
		ps := PageSummary{Name: page.Name, Width: page.Width, Height: page.Height, Entries: len(page.Entries)}
		seen := make(map[image.Rectangle]bool)
		for _, e := range page.Entries {
			r := image.Rect(e.X, e.Y, e.X+e.Width, e.Y+e.Height)
			if seen[r] {
				ps.Duplicates++
			}
			seen[r] = true
			if e.Index != atlas.NoSequence {
				ps.Sequences++
			}
		}

		sheetFile := filepath.Join(dir, filepath.FromSlash(page.Name))
		if _, err := os.Stat(normalSheetPath(sheetFile)); err == nil {
			ps.Normals = true
		}
		if ps.Width == 0 || thumbDir != "" {
			if err := sheetDetails(&ps, sheetFile, thumbDir, maxDim); err != nil {
				logger.Warn("sheet unavailable", zap.String("sheet", sheetFile), zap.Error(err))
			}
		}
		sum.Pages = append(sum.Pages, ps)
	}
	return sum, nil
}

// sheetDetails fills the sheet size from the image and writes its thumbnail.
func sheetDetails(ps *PageSummary, sheetFile, thumbDir string, maxDim uint) error {
	img, err := imageio.Load(sheetFile)
	if err != nil {
		return err
	}
	b := img.Bounds()
	ps.Width, ps.Height = b.Dx(), b.Dy()

	if thumbDir == "" {
		return nil
	}
	path := filepath.Join(thumbDir, filepath.Base(sheetFile))
	if err := imageio.Save(path, imageio.Thumbnail(img, maxDim)); err != nil {
		return err
	}
	ps.Thumbnail = path
	return nil
}
