// Package imageio loads and stores sprite and sheet images.
package imageio

import (
	"fmt"
	"image"
	_ "image/gif"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Extensions lists the source image extensions that can be decoded.
var Extensions = []string{".png", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// Supported reports whether path has a decodable image extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Load decodes an image file into a non-premultiplied RGBA buffer whose
// bounds start at the origin.
func Load(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return ToNRGBA(img), nil
}

// Size reads the dimensions of an image file without decoding its pixels.
func Size(path string) (image.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Point{}, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return image.Point{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	return image.Pt(cfg.Width, cfg.Height), nil
}

// ToNRGBA converts img to an origin-based *image.NRGBA, reusing it when it
// already is one.
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return dst
}

// Save encodes img as PNG, creating parent directories as needed.
func Save(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

// Copy copies the src rectangle r into dst with its top-left corner at dp.
// Pixels are replaced, not blended. NRGBA sources are copied byte for byte
// so translucent pixels survive without a premultiplied round trip.
func Copy(dst *image.NRGBA, dp image.Point, src image.Image, r image.Rectangle) {
	s, ok := src.(*image.NRGBA)
	if !ok {
		xdraw.Copy(dst, dp, src, r, xdraw.Src, nil)
		return
	}

	dr := image.Rectangle{Min: dp, Max: dp.Add(r.Size())}.Intersect(dst.Rect)
	sr := dr.Sub(dp).Add(r.Min).Intersect(s.Rect)
	if sr.Empty() {
		return
	}
	dr = sr.Sub(r.Min).Add(dp)

	n := sr.Dx() * 4
	for y := 0; y < sr.Dy(); y++ {
		d := dst.PixOffset(dr.Min.X, dr.Min.Y+y)
		o := s.PixOffset(sr.Min.X, sr.Min.Y+y)
		copy(dst.Pix[d:d+n], s.Pix[o:o+n])
	}
}

// Thumbnail scales img down to fit within maxDim x maxDim, keeping its
// aspect ratio. Images already small enough are returned unchanged.
func Thumbnail(img image.Image, maxDim uint) image.Image {
	return resize.Thumbnail(maxDim, maxDim, img, resize.Lanczos3)
}
