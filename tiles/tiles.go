// Package tiles reads and writes single tiles of a rom.
package tiles

import (
	"errors"
	"fmt"

	"chredit/chr"
	"chredit/ines"
)

// ErrIndexOutOfRange is returned when a tile index doesn't designate 16 bytes
// inside the rom buffer.
var ErrIndexOutOfRange = errors.New("tiles: index out of range")

// ByteOffset returns the offset in rom.Buf of the tile at index.
func ByteOffset(rom *ines.Rom, index int) (int, error) {
	if n := Count(rom); index < 0 || index >= n {
		return 0, fmt.Errorf("%w: tile %d (rom has %d tiles)", ErrIndexOutOfRange, index, n)
	}
	return rom.DataOffset + index*chr.TileBytes, nil
}

// Count returns the number of whole tiles in the rom data.
func Count(rom *ines.Rom) int {
	if len(rom.Buf) < rom.DataOffset {
		return 0
	}
	return (len(rom.Buf) - rom.DataOffset) / chr.TileBytes
}

// Read decodes the tile at index.
func Read(rom *ines.Rom, index int) (chr.Tile, error) {
	off, err := ByteOffset(rom, index)
	if err != nil {
		return chr.Tile{}, err
	}
	return chr.DecodePattern((*chr.Pattern)(rom.Buf[off : off+chr.TileBytes])), nil
}

// Write encodes t and patches it, in place, at index.
func Write(rom *ines.Rom, t *chr.Tile, index int) error {
	off, err := ByteOffset(rom, index)
	if err != nil {
		return err
	}
	p := chr.EncodeTile(t)
	copy(rom.Buf[off:off+chr.TileBytes], p[:])
	return nil
}
