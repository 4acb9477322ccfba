package atlastool

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/atlastool/internal/imageio"
	"github.com/Faultbox/atlastool/internal/logger"
	"github.com/Faultbox/atlastool/internal/tile"
	"github.com/Faultbox/atlastool/pkg/atlas"
	"github.com/Faultbox/atlastool/pkg/binpack"
)

// CollapseResult summarises a collapsed atlas.
type CollapseResult struct {
	Index      string
	Sheets     []string
	Tiles      int // index records written
	Duplicates int
	Dropped    int // fully transparent sources
}

// Collapse packs every sprite under inDir into sheets named after
// atlasPath and writes the matching index next to them.
func Collapse(inDir, atlasPath string, opts Options) (*CollapseResult, error) {
	return collapse(logger.Log, inDir, atlasPath, opts)
}

func collapse(log *zap.Logger, inDir, atlasPath string, opts Options) (*CollapseResult, error) {
	sources, err := tile.Walk(inDir)
	if err != nil {
		if errors.Is(err, tile.ErrNoInputDir) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, inDir)
		}
		return nil, err
	}

	res := &CollapseResult{Index: IndexPath(atlasPath)}
	set := tile.NewSet()
	set.Bleed = opts.Bleed

	for _, src := range sources {
		t, err := tile.Load(src)
		if err != nil {
			log.Error("loading tile failed", zap.String("path", src.Path), zap.Error(err))
			return nil, err
		}
		id, ok, err := set.Add(t)
		if err != nil {
			log.Error("processing tile failed",
				zap.String("tile", t.Name), zap.String("path", src.Path), zap.Error(err))
			return nil, err
		}
		if !ok {
			res.Dropped++
			log.Debug("dropped transparent tile", zap.String("tile", t.Name))
			continue
		}
		if set.Tile(id).IsDuplicate() {
			res.Duplicates++
			log.Debug("duplicate tile", zap.String("tile", t.Name), zap.Int("of", set.Tile(id).DuplicateOf))
		}
	}

	packer, err := binpack.New(opts.Pack)
	if err != nil {
		return nil, err
	}
	for _, id := range set.PackOrder() {
		t := set.Tile(id)
		if _, _, err := packer.Insert(id, t.Size()); err != nil {
			log.Error("packing tile failed", zap.String("tile", t.Name), zap.String("path", t.SourcePath), zap.Error(err))
			return nil, fmt.Errorf("packing %s: %w", t.Name, err)
		}
	}

	sheets := packer.Sheets()
	for j, sheet := range sheets {
		for _, p := range sheet.Placements() {
			set.Place(p.ID, j, p.Rect.Min)
		}
	}
	set.Resolve()

	idx := &atlas.Atlas{}
	for j, sheet := range sheets {
		path := sheetPath(atlasPath, j, len(sheets))
		if err := renderSheet(log, set, sheet, path); err != nil {
			return nil, err
		}
		res.Sheets = append(res.Sheets, path)

		size := sheet.Size()
		idx.Pages = append(idx.Pages, atlas.Page{
			Name:    filepath.Base(path),
			Width:   size.X,
			Height:  size.Y,
			Entries: sheetEntries(set, j),
		})
		log.Debug("sheet written", zap.String("sheet", path), zap.Int("tiles", sheet.Len()),
			zap.Int("width", size.X), zap.Int("height", size.Y))
	}
	res.Tiles = idx.EntryCount()

	if err := writeIndex(idx, res.Index, opts.Text); err != nil {
		return nil, err
	}
	log.Info("collapsed atlas",
		zap.String("atlas", res.Index),
		zap.Int("sheets", len(res.Sheets)),
		zap.Int("tiles", res.Tiles),
		zap.Int("duplicates", res.Duplicates))
	return res, nil
}

// renderSheet draws the tiles placed on sheet and, when any of them has a
// normal map, the matching normal sheet. Tile buffers are released once
// drawn.
func renderSheet(log *zap.Logger, set *tile.Set, sheet *binpack.Sheet, path string) error {
	size := sheet.Size()
	img := image.NewNRGBA(image.Rectangle{Max: size})
	var normals *image.NRGBA

	for _, p := range sheet.Placements() {
		t := set.Tile(p.ID)
		imageio.Copy(img, p.Rect.Min, t.Pixels, t.Source())

		if t.HasNormal {
			nmap, err := tile.LoadNormal(t)
			if err != nil {
				log.Error("loading normal map failed", zap.String("tile", t.Name), zap.Error(err))
				return fmt.Errorf("normal map of %s: %w", t.Name, err)
			}
			if normals == nil {
				normals = image.NewNRGBA(image.Rectangle{Max: size})
			}
			n := set.SetNormal(p.ID, nmap)
			imageio.Copy(normals, p.Rect.Min, n.Pixels, n.Source())
		}
		set.Release(p.ID)
	}

	if err := imageio.Save(path, img); err != nil {
		return err
	}
	if normals != nil {
		if err := imageio.Save(normalSheetPath(path), normals); err != nil {
			return err
		}
	}
	return nil
}

// sheetEntries builds the index records of sheet j in tile order.
func sheetEntries(set *tile.Set, j int) []atlas.Entry {
	var entries []atlas.Entry
	for _, t := range set.Tiles() {
		if t.Sheet != j {
			continue
		}
		entries = append(entries, atlas.Entry{
			Name:           t.Name,
			Index:          t.Index,
			X:              t.X,
			Y:              t.Y,
			Width:          t.Width,
			Height:         t.Height,
			OffsetX:        t.OffsetX,
			OffsetY:        t.OffsetY,
			OriginalWidth:  t.OriginalWidth,
			OriginalHeight: t.OriginalHeight,
		})
	}
	return entries
}

// writeIndex writes idx to path. A partially written file is removed.
func writeIndex(idx *atlas.Atlas, path string, text bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if text {
		err = idx.WriteText(w)
	} else {
		err = idx.WriteBinary(w)
	}
	if err == nil {
		err = w.Flush()
	}
	if err == nil {
		err = f.Close()
	} else {
		f.Close()
	}
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
