// Package editor provides the single owner of a rom being edited.
//
// All tile writes go through an Editor, which serializes them and notifies
// subscribers of every tile change, so that views can refresh the tiles they
// show.
package editor

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"chredit/chr"
	"chredit/ines"
	"chredit/log"
	"chredit/tiles"
)

// ErrInvalidPixel is returned by SetPixel for coordinates outside of a tile
// or values that are not palette indices.
var ErrInvalidPixel = errors.New("editor: invalid pixel")

// TileChanged is sent to subscribers after a tile has been written.
type TileChanged struct {
	Index int
	Tile  chr.Tile
}

type Editor struct {
	mu    sync.RWMutex // guards the rom buffer and dirty
	rom   *ines.Rom
	dirty bitset

	submu   sync.Mutex
	subs    map[int]func(TileChanged)
	nextsub int
}

func New(rom *ines.Rom) *Editor {
	return &Editor{
		rom:  rom,
		subs: make(map[int]func(TileChanged)),
	}
}

// Rom returns the edited rom. Its buffer must not be modified directly.
func (ed *Editor) Rom() *ines.Rom {
	return ed.rom
}

// Bytes returns the rom buffer, for persistence.
func (ed *Editor) Bytes() []byte {
	ed.mu.RLock()
	defer ed.mu.RUnlock()
	return ed.rom.Buf
}

func (ed *Editor) TileCount() int {
	return tiles.Count(ed.rom)
}

// ReadTile returns the tile at index. It's safe to call ReadTile from
// multiple goroutines.
func (ed *Editor) ReadTile(index int) (chr.Tile, error) {
	ed.mu.RLock()
	defer ed.mu.RUnlock()
	return tiles.Read(ed.rom, index)
}

// WriteTile writes t at index then notifies subscribers.
func (ed *Editor) WriteTile(index int, t chr.Tile) error {
	ed.mu.Lock()
	err := tiles.Write(ed.rom, &t, index)
	if err == nil {
		ed.dirty.set(uint(index))
	}
	ed.mu.Unlock()

	if err != nil {
		return err
	}

	log.ModEdit.WithField("tile", index).Debug("tile written")
	ed.notify(TileChanged{Index: index, Tile: t})
	return nil
}

// SetPixel sets a single pixel of the tile at index.
func (ed *Editor) SetPixel(index, x, y int, v uint8) error {
	if x < 0 || x >= chr.TileWidth || y < 0 || y >= chr.TileHeight || v > 3 {
		return fmt.Errorf("%w: (%d,%d)=%d", ErrInvalidPixel, x, y, v)
	}

	ed.mu.Lock()
	t, err := tiles.Read(ed.rom, index)
	if err == nil {
		t.Set(x, y, v)
		err = tiles.Write(ed.rom, &t, index)
	}
	if err == nil {
		ed.dirty.set(uint(index))
	}
	ed.mu.Unlock()

	if err != nil {
		return err
	}

	log.ModEdit.WithFields(log.Fields{"tile": index, "x": x, "y": y, "val": v}).Debug("pixel set")
	ed.notify(TileChanged{Index: index, Tile: t})
	return nil
}

// Subscribe registers fn to be called after each tile write. fn is called
// from the writing goroutine, after the write has completed. The returned
// function cancels the subscription.
func (ed *Editor) Subscribe(fn func(TileChanged)) (cancel func()) {
	ed.submu.Lock()
	defer ed.submu.Unlock()

	id := ed.nextsub
	ed.nextsub++
	ed.subs[id] = fn

	return func() {
		ed.submu.Lock()
		defer ed.submu.Unlock()
		delete(ed.subs, id)
	}
}

func (ed *Editor) notify(ev TileChanged) {
	ed.submu.Lock()
	fns := make([]func(TileChanged), 0, len(ed.subs))
	for _, id := range slices.Sorted(maps.Keys(ed.subs)) {
		fns = append(fns, ed.subs[id])
	}
	ed.submu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Dirty reports whether a tile has been written since the last ClearDirty.
func (ed *Editor) Dirty() bool {
	ed.mu.RLock()
	defer ed.mu.RUnlock()
	return !ed.dirty.empty()
}

// DirtyTiles returns the indices of the tiles written since the last
// ClearDirty, in increasing order.
func (ed *Editor) DirtyTiles() []int {
	ed.mu.RLock()
	defer ed.mu.RUnlock()
	return ed.dirty.indices()
}

// ClearDirty marks the rom as saved.
func (ed *Editor) ClearDirty() {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	ed.dirty.reset()
}
