// Package sheet renders tiles to images and converts images back to tiles.
package sheet

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"

	"chredit/chr"
	"chredit/log"
)

// ErrImageSize is returned when importing an image whose dimensions are not
// multiples of the tile size.
var ErrImageSize = errors.New("sheet: image size is not a multiple of 8")

// Palette maps the 4 palette indices of a tile to colors.
type Palette [4]color.RGBA

var DefaultPalette = Palette{
	{0x00, 0x00, 0x00, 0xff}, // black
	{0xff, 0x00, 0x00, 0xff}, // red
	{0x00, 0x00, 0xff, 0xff}, // blue
	{0xff, 0xff, 0xff, 0xff}, // white
}

func (p Palette) ColorPalette() color.Palette {
	cp := make(color.Palette, len(p))
	for i, c := range p {
		cp[i] = c
	}
	return cp
}

// TileReader is implemented by types giving access to the tiles of a rom.
type TileReader interface {
	ReadTile(index int) (chr.Tile, error)
	TileCount() int
}

type Options struct {
	Columns int // tiles per row (default 16)
	First   int // index of the first tile to render
	Count   int // number of tiles to render, 0 means up to the last one
	Zoom    int // pixel scaling factor (default 1)
}

func (o *Options) normalize(ntiles int) error {
	if o.Columns <= 0 {
		o.Columns = 16
	}
	if o.Zoom <= 0 {
		o.Zoom = 1
	}
	if o.First < 0 || (ntiles > 0 && o.First >= ntiles) || (ntiles == 0 && o.First != 0) {
		return fmt.Errorf("sheet: first tile %d out of range [0,%d)", o.First, ntiles)
	}
	if o.Count <= 0 || o.Count > ntiles-o.First {
		o.Count = ntiles - o.First
	}
	return nil
}

// Render draws tiles on a paletted image, Columns tiles per row. Cells of the
// last row that have no tile are left to palette index 0.
func Render(r TileReader, pal Palette, opts Options) (*image.Paletted, error) {
	if err := opts.normalize(r.TileCount()); err != nil {
		return nil, err
	}

	cols := min(opts.Columns, max(opts.Count, 1))
	rows := (opts.Count + opts.Columns - 1) / opts.Columns
	rect := image.Rect(0, 0, cols*chr.TileWidth*opts.Zoom, rows*chr.TileHeight*opts.Zoom)
	img := image.NewPaletted(rect, pal.ColorPalette())

	log.ModSheet.WithFields(log.Fields{
		"first": opts.First,
		"count": opts.Count,
		"cols":  cols,
		"rows":  rows,
	}).Debug("rendering sheet")

	// Each row of tiles covers its own span of img.Pix.
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for row := range rows {
		g.Go(func() error {
			for col := range opts.Columns {
				n := row*opts.Columns + col
				if n >= opts.Count {
					break
				}
				t, err := r.ReadTile(opts.First + n)
				if err != nil {
					return err
				}
				DrawTile(img, t, col, row, opts.Zoom)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return img, nil
}

// DrawTile draws t on img at tile coordinates tx, ty, each tile pixel
// covering zoom x zoom image pixels.
func DrawTile(img *image.Paletted, t chr.Tile, tx, ty, zoom int) {
	x0 := img.Rect.Min.X + tx*chr.TileWidth*zoom
	y0 := img.Rect.Min.Y + ty*chr.TileHeight*zoom
	for y := range chr.TileHeight * zoom {
		off := img.PixOffset(x0, y0+y)
		for x := range chr.TileWidth * zoom {
			img.Pix[off+x] = t.At(x/zoom, y/zoom)
		}
	}
}

// EncodePNG writes img to w in PNG format.
func EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	return enc.Encode(w, img)
}
