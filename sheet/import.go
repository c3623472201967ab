package sheet

import (
	"cmp"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"slices"

	"github.com/ericpauley/go-quantize/quantize"

	"chredit/chr"
	"chredit/log"
)

type ImportOptions struct {
	// Palette, if not nil, maps each pixel to the nearest of its colors.
	Palette *Palette
}

// Import cuts m into 8x8 tiles, in row-major order.
//
// Paletted images with at most 4 colors keep their color indices. Otherwise,
// pixels are either matched against opts.Palette or the image is reduced to 4
// colors, numbered from the darkest to the lightest.
func Import(m image.Image, opts ImportOptions) ([]chr.Tile, error) {
	b := m.Bounds()
	if b.Dx()%chr.TileWidth != 0 || b.Dy()%chr.TileHeight != 0 || b.Empty() {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageSize, b.Dx(), b.Dy())
	}

	index := indexer(m, opts)

	cols, rows := b.Dx()/chr.TileWidth, b.Dy()/chr.TileHeight
	tiles := make([]chr.Tile, 0, cols*rows)
	for ty := range rows {
		for tx := range cols {
			var t chr.Tile
			for y := range chr.TileHeight {
				for x := range chr.TileWidth {
					px := b.Min.X + tx*chr.TileWidth + x
					py := b.Min.Y + ty*chr.TileHeight + y
					t.Set(x, y, index(px, py))
				}
			}
			tiles = append(tiles, t)
		}
	}

	log.ModSheet.WithFields(log.Fields{"width": b.Dx(), "height": b.Dy(), "tiles": len(tiles)}).Debug("image imported")
	return tiles, nil
}

// indexer returns the function giving the palette index of a pixel of m.
func indexer(m image.Image, opts ImportOptions) func(x, y int) uint8 {
	if pm, ok := m.(*image.Paletted); ok && len(pm.Palette) <= 4 && opts.Palette == nil {
		return func(x, y int) uint8 { return pm.ColorIndexAt(x, y) }
	}

	if opts.Palette != nil {
		cp := opts.Palette.ColorPalette()
		return func(x, y int) uint8 { return uint8(cp.Index(m.At(x, y))) }
	}

	b := m.Bounds()
	q := quantize.MedianCutQuantizer{}
	cp := sortByLuminance(q.Quantize(make(color.Palette, 0, 4), m))
	pm := image.NewPaletted(b, cp)
	draw.Draw(pm, b, m, b.Min, draw.Src)

	log.ModSheet.WithField("colors", len(cp)).Debug("image quantized")
	return func(x, y int) uint8 { return pm.ColorIndexAt(x, y) }
}

func luminance(c color.Color) uint32 {
	r, g, b, _ := c.RGBA()
	return (299*r + 587*g + 114*b) / 1000
}

func sortByLuminance(p color.Palette) color.Palette {
	slices.SortStableFunc(p, func(a, b color.Color) int {
		return cmp.Compare(luminance(a), luminance(b))
	})
	return p
}
