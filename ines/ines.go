// package ines locates tile data inside NES rom images, optionally prefixed
// by an iNES header.
package ines

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/go-faster/jx"
)

const (
	Magic      = "NES\x1a"
	HeaderSize = 16

	TrainerSize = 512
	PRGUnit     = 0x4000 // 16KB
	CHRUnit     = 0x2000 // 8KB
)

// Flags6
const (
	Flags6HorizontalMirroring = 0x01
	Flags6Battery             = 0x02
	Flags6Trainer             = 0x04
	Flags6FourScreen          = 0x08
)

// Flags7
const Flags7VSSystem = 0x01

// Flags9
const Flags9PAL = 0x01

// ErrMalformedHeader is returned when a buffer starts with the iNES magic
// number but is too short to hold the whole header.
var ErrMalformedHeader = errors.New("ines: malformed header")

// Header holds the fields of an iNES header.
type Header struct {
	PRGROMSize uint8 // in 16KB units
	CHRROMSize uint8 // in 8KB units
	Flags6     uint8
	Flags7     uint8
	PRGRAMSize uint8 // in 8KB units (0 infers 8KB for compatibility)
	Flags9     uint8
	Flags10    uint8 // unofficial
	Mapper     uint8
}

// Rom is a rom image. Buf is shared with the caller, tile writes modify it in
// place.
type Rom struct {
	Header     *Header // nil if there's no iNES header
	Buf        []byte
	DataOffset int // start of tile data
}

// Parse parses the optional iNES header at the start of buf. buf is not
// copied.
func Parse(buf []byte) (*Rom, error) {
	rom := &Rom{Buf: buf}

	if len(buf) < len(Magic) || string(buf[:len(Magic)]) != Magic {
		return rom, nil
	}

	var hdr Header
	if err := hdr.decode(buf); err != nil {
		return nil, err
	}
	rom.Header = &hdr
	rom.DataOffset = HeaderSize
	return rom, nil
}

func (hdr *Header) decode(p []byte) error {
	if len(p) < HeaderSize {
		return fmt.Errorf("%w: got %d bytes, needs %d", ErrMalformedHeader, len(p), HeaderSize)
	}

	hdr.PRGROMSize = p[4]
	hdr.CHRROMSize = p[5]
	hdr.Flags6 = p[6]
	hdr.Flags7 = p[7]
	hdr.PRGRAMSize = p[8]
	hdr.Flags9 = p[9]
	hdr.Flags10 = p[10]

	// flags6 bits 4-7 hold the lower nibble of the mapper, flags7 bits 4-7
	// the upper one.
	hdr.Mapper = (hdr.Flags6 >> 4) | (hdr.Flags7 & 0xf0)
	return nil
}

// HorizontalMirroring reports whether bit 0 of flags6 is set.
func (hdr *Header) HorizontalMirroring() bool { return hdr.Flags6&Flags6HorizontalMirroring != 0 }

// HasBattery indicates the presence of battery backed RAM.
func (hdr *Header) HasBattery() bool { return hdr.Flags6&Flags6Battery != 0 }

// HasTrainer indicates the presence of a 512 bytes trainer before PRG data.
func (hdr *Header) HasTrainer() bool { return hdr.Flags6&Flags6Trainer != 0 }

func (hdr *Header) FourScreen() bool { return hdr.Flags6&Flags6FourScreen != 0 }
func (hdr *Header) VSSystem() bool   { return hdr.Flags7&Flags7VSSystem != 0 }
func (hdr *Header) PAL() bool        { return hdr.Flags9&Flags9PAL != 0 }

// PRGSize returns the size in bytes of PRG ROM.
func (hdr *Header) PRGSize() int { return int(hdr.PRGROMSize) * PRGUnit }

// CHRSize returns the size in bytes of CHR ROM.
func (hdr *Header) CHRSize() int { return int(hdr.CHRROMSize) * CHRUnit }

// CHROffset returns the offset in Buf at which the header says CHR ROM
// starts, clamped to the buffer length. Without header, it's 0.
func (rom *Rom) CHROffset() int {
	if rom.Header == nil {
		return 0
	}
	off := HeaderSize + rom.Header.PRGSize()
	if rom.Header.HasTrainer() {
		off += TrainerSize
	}
	return min(off, len(rom.Buf))
}

// PrintInfos writes a human readable description of the rom to w.
func (rom *Rom) PrintInfos(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	fmt.Fprintf(tw, "size:\t%d bytes\n", len(rom.Buf))
	fmt.Fprintf(tw, "data offset:\t0x%x\n", rom.DataOffset)
	if hdr := rom.Header; hdr == nil {
		fmt.Fprintf(tw, "header:\tnone\n")
	} else {
		fmt.Fprintf(tw, "header:\tiNES\n")
		fmt.Fprintf(tw, "PRG ROM:\t%d x 16KB\n", hdr.PRGROMSize)
		fmt.Fprintf(tw, "CHR ROM:\t%d x 8KB\n", hdr.CHRROMSize)
		fmt.Fprintf(tw, "PRG RAM:\t%d x 8KB\n", hdr.PRGRAMSize)
		fmt.Fprintf(tw, "mapper:\t%d\n", hdr.Mapper)
		fmt.Fprintf(tw, "flags6:\t0x%02x\n", hdr.Flags6)
		fmt.Fprintf(tw, "flags7:\t0x%02x\n", hdr.Flags7)
		fmt.Fprintf(tw, "flags9:\t0x%02x\n", hdr.Flags9)
		fmt.Fprintf(tw, "flags10:\t0x%02x\n", hdr.Flags10)
		fmt.Fprintf(tw, "horizontal mirroring:\t%t\n", hdr.HorizontalMirroring())
		fmt.Fprintf(tw, "battery:\t%t\n", hdr.HasBattery())
		fmt.Fprintf(tw, "trainer:\t%t\n", hdr.HasTrainer())
		fmt.Fprintf(tw, "four screen VRAM:\t%t\n", hdr.FourScreen())
		fmt.Fprintf(tw, "VS system:\t%t\n", hdr.VSSystem())
		fmt.Fprintf(tw, "PAL:\t%t\n", hdr.PAL())
		fmt.Fprintf(tw, "CHR offset:\t0x%x\n", rom.CHROffset())
	}
	return tw.Flush()
}

// EncodeJX writes the rom description as a JSON object.
func (rom *Rom) EncodeJX(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("size", func(e *jx.Encoder) { e.Int(len(rom.Buf)) })
		e.Field("data_offset", func(e *jx.Encoder) { e.Int(rom.DataOffset) })
		e.Field("header", func(e *jx.Encoder) {
			if rom.Header == nil {
				e.Null()
				return
			}
			rom.Header.EncodeJX(e)
		})
		e.Field("chr_offset", func(e *jx.Encoder) { e.Int(rom.CHROffset()) })
	})
}

// EncodeJX writes the header fields as a JSON object.
func (hdr *Header) EncodeJX(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("prg_rom_size", func(e *jx.Encoder) { e.UInt8(hdr.PRGROMSize) })
		e.Field("chr_rom_size", func(e *jx.Encoder) { e.UInt8(hdr.CHRROMSize) })
		e.Field("flags6", func(e *jx.Encoder) { e.UInt8(hdr.Flags6) })
		e.Field("flags7", func(e *jx.Encoder) { e.UInt8(hdr.Flags7) })
		e.Field("prg_ram_size", func(e *jx.Encoder) { e.UInt8(hdr.PRGRAMSize) })
		e.Field("flags9", func(e *jx.Encoder) { e.UInt8(hdr.Flags9) })
		e.Field("flags10", func(e *jx.Encoder) { e.UInt8(hdr.Flags10) })
		e.Field("mapper", func(e *jx.Encoder) { e.UInt8(hdr.Mapper) })
	})
}
