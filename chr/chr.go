// Package chr encodes and decodes NES pattern table tiles.
//
// The PPU stores an 8x8 tile as two bit planes of 8 bytes each. A pixel value
// is made of one bit from each plane, the first plane giving the low bit:
//
//	plane 0: bytes 0-7, one byte per row, MSB is the leftmost pixel
//	plane 1: bytes 8-15, same layout, gives the high bit
//
// https://www.nesdev.org/wiki/PPU_pattern_tables
package chr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	TileWidth  = 8
	TileHeight = 8
	TilePixels = TileWidth * TileHeight
	TileBytes  = 16 // bytes in an encoded tile
)

// ErrInvalidSize is returned when encoding or decoding data of the wrong size.
var ErrInvalidSize = errors.New("chr: invalid input size")

// Tile is the flat form of a tile: 64 palette indices in row-major order,
// each in [0,3].
type Tile [TilePixels]uint8

// Pattern is the encoded form of a tile, as found in CHR data.
type Pattern [TileBytes]byte

// At returns the palette index of the pixel at x, y.
func (t *Tile) At(x, y int) uint8 {
	return t[y*TileWidth+x]
}

// Set sets the pixel at x, y. Only the 2 low bits of v are kept.
func (t *Tile) Set(x, y int, v uint8) {
	t[y*TileWidth+x] = v & 0x03
}

// Fill sets all pixels to v.
func (t *Tile) Fill(v uint8) {
	for i := range t {
		t[i] = v & 0x03
	}
}

// String returns the tile as 8 lines of 8 space-separated palette indices.
func (t Tile) String() string {
	var sb strings.Builder
	for y := range TileHeight {
		for x := range TileWidth {
			if x != 0 {
				sb.WriteByte(' ')
			}
			sb.WriteByte('0' + t[y*TileWidth+x])
		}
		if y != TileHeight-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// ParseTile parses the text form produced by Tile.String. Any whitespace
// separates pixel values.
func ParseTile(s string) (Tile, error) {
	var t Tile

	fields := strings.Fields(s)
	if len(fields) != TilePixels {
		return t, fmt.Errorf("%w: got %d pixel values, want %d", ErrInvalidSize, len(fields), TilePixels)
	}
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 10, 8)
		if err != nil || v > 3 {
			return t, fmt.Errorf("chr: invalid pixel value %q at x=%d y=%d", f, i%TileWidth, i/TileWidth)
		}
		t[i] = uint8(v)
	}
	return t, nil
}
