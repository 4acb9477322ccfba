package atlastool

import (
	"fmt"
	"image"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/atlastool/internal/imageio"
	"github.com/Faultbox/atlastool/internal/logger"
	"github.com/Faultbox/atlastool/pkg/atlas"
)

// Expand writes every sprite recorded in the index at atlasPath into
// outDir, restoring each at its original size. It returns the number of
// images written, normal maps included.
func Expand(atlasPath, outDir string) (int, error) {
	return expand(logger.Log, atlasPath, outDir)
}

func expand(log *zap.Logger, atlasPath, outDir string) (int, error) {
	idx, err := atlas.ParseFile(atlasPath)
	if err != nil {
		if notFound(err) {
			return 0, fmt.Errorf("%w: %s", ErrInputNotFound, atlasPath)
		}
		return 0, err
	}

	dir := filepath.Dir(atlasPath)
	written := 0
	for _, page := range idx.Pages {
		if !isLocal(page.Name) {
			return written, fmt.Errorf("%w: sheet %q", ErrUnsafeName, page.Name)
		}
		sheetFile := filepath.Join(dir, filepath.FromSlash(page.Name))
		sheet, err := imageio.Load(sheetFile)
		if err != nil {
			if notFound(err) {
				return written, fmt.Errorf("%w: sheet %s", ErrInputNotFound, sheetFile)
			}
			return written, err
		}
		if err := checkEntries(page, sheet.Bounds()); err != nil {
			return written, err
		}

		normals, err := imageio.Load(normalSheetPath(sheetFile))
		if err != nil {
			if notFound(err) {
				log.Debug("no normal sheet", zap.String("sheet", sheetFile))
			} else {
				log.Warn("skipping unreadable normal sheet", zap.String("sheet", sheetFile), zap.Error(err))
			}
			normals = nil
		}

		for _, e := range page.Entries {
			if err := imageio.Save(spritePath(outDir, e.Name, e.Index, false), cut(sheet, e)); err != nil {
				return written, err
			}
			written++
			if normals == nil {
				continue
			}
			if err := imageio.Save(spritePath(outDir, e.Name, e.Index, true), cut(normals, e)); err != nil {
				return written, err
			}
			written++
		}
		log.Debug("page expanded", zap.String("sheet", page.Name), zap.Int("entries", len(page.Entries)))
	}

	log.Info("expanded atlas", zap.String("atlas", atlasPath), zap.Int("pages", len(idx.Pages)), zap.Int("images", written))
	return written, nil
}

// checkEntries validates every entry of page against the sheet bounds and
// its own original size before anything is written. Entry names must
// resolve below the output directory.
func checkEntries(page atlas.Page, bounds image.Rectangle) error {
	for _, e := range page.Entries {
		if !isLocal(spriteFile(e.Name, e.Index, false)) {
			return fmt.Errorf("%w: entry %q on sheet %s", ErrUnsafeName, e.Name, page.Name)
		}
		r := image.Rect(e.X, e.Y, e.X+e.Width, e.Y+e.Height)
		if !r.In(bounds) {
			return fmt.Errorf("%w: %s %v on sheet %s of %v", ErrEntryOutOfBounds, e.Name, r, page.Name, bounds)
		}
		src := image.Rect(e.OffsetX, e.OffsetY, e.OffsetX+e.Width, e.OffsetY+e.Height)
		if !src.In(image.Rect(0, 0, e.OriginalWidth, e.OriginalHeight)) {
			return fmt.Errorf("%w: %s offset %v exceeds original %dx%d",
				ErrEntryOutOfBounds, e.Name, src, e.OriginalWidth, e.OriginalHeight)
		}
	}
	return nil
}

// cut rebuilds the original image of e from the sheet.
func cut(sheet *image.NRGBA, e atlas.Entry) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, e.OriginalWidth, e.OriginalHeight))
	imageio.Copy(img, image.Pt(e.OffsetX, e.OffsetY), sheet, image.Rect(e.X, e.Y, e.X+e.Width, e.Y+e.Height))
	return img
}
