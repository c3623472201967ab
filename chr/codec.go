package chr

import "fmt"

// DecodePattern converts an encoded tile into its flat form.
func DecodePattern(p *Pattern) Tile {
	var t Tile

	// Plane 0 holds bit 0 of each pixel.
	for y := range TileHeight {
		for x := range TileWidth {
			t[y*TileWidth+x] |= 0x01 & (p[y] >> (7 - x))
		}
	}

	// Plane 1 holds bit 1. The bit is shifted one less to the right so it
	// lands directly in position 1, the rightmost pixel can't be shifted right
	// by -1 and is shifted left instead.
	for y := range TileHeight {
		b := p[TileHeight+y]
		for x := range TileWidth - 1 {
			t[y*TileWidth+x] |= 0x02 & (b >> (6 - x))
		}
		t[y*TileWidth+7] |= 0x02 & (b << 1)
	}

	return t
}

// EncodeTile converts a flat tile into its encoded form. Only the 2 low bits
// of each pixel are considered.
func EncodeTile(t *Tile) Pattern {
	var p Pattern

	for y := range TileHeight {
		row := t[y*TileWidth : (y+1)*TileWidth]
		for x := range TileWidth {
			p[y] |= (row[x] & 0x01) << (7 - x)
		}

		for x := range TileWidth - 1 {
			p[TileHeight+y] |= (row[x] & 0x02) << (6 - x)
		}
		// Rightmost pixel: bit 1 goes to bit 0.
		p[TileHeight+y] |= (row[7] & 0x02) >> 1
	}

	return p
}

// Decode decodes the 16 bytes in p into a flat tile.
func Decode(p []byte) (Tile, error) {
	if len(p) != TileBytes {
		return Tile{}, fmt.Errorf("%w: decode got %d bytes, want %d", ErrInvalidSize, len(p), TileBytes)
	}
	return DecodePattern((*Pattern)(p)), nil
}

// Encode encodes the 64 pixel values in pix and returns the 16 bytes of the
// encoded tile.
func Encode(pix []uint8) ([]byte, error) {
	if len(pix) != TilePixels {
		return nil, fmt.Errorf("%w: encode got %d pixels, want %d", ErrInvalidSize, len(pix), TilePixels)
	}
	p := EncodeTile((*Tile)(pix))
	return p[:], nil
}
