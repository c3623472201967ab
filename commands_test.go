package main

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-faster/jx"
	"github.com/google/go-cmp/cmp"

	"chredit/chr"
	"chredit/config"
	"chredit/editor"
	"chredit/ines"
	"chredit/recent"
	"chredit/sheet"
	"chredit/tiles"
)

// testEnv returns an env using the default config, with recent roms kept in a
// temporary directory, and the path to a rom of ntiles tiles, tile i filled
// with i%4.
func testEnv(t *testing.T, ntiles int) (*env, *bytes.Buffer, string) {
	t.Helper()

	dir := t.TempDir()
	rdir, err := recent.DirIn(dir)
	if err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, ines.HeaderSize+ntiles*chr.TileBytes)
	copy(buf, ines.Magic)
	buf[5] = 1
	rom, err := ines.Parse(buf)
	if err != nil {
		t.Fatal(err)
	}
	for i := range ntiles {
		var tile chr.Tile
		tile.Fill(uint8(i % 4))
		if err := tiles.Write(rom, &tile, i); err != nil {
			t.Fatal(err)
		}
	}

	path := filepath.Join(dir, "game.nes")
	if err := os.WriteFile(path, buf, 0644); err != nil {
		t.Fatal(err)
	}

	stdout := &bytes.Buffer{}
	return &env{
		cfg:       config.Default,
		cfgPath:   filepath.Join(dir, "config.toml"),
		recentDir: rdir,
		stdin:     strings.NewReader(""),
		stdout:    stdout,
	}, stdout, path
}

func readTile(t *testing.T, path string, index int) chr.Tile {
	t.Helper()

	buf, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	rom, err := ines.Parse(buf)
	if err != nil {
		t.Fatal(err)
	}
	tile, err := tiles.Read(rom, index)
	if err != nil {
		t.Fatal(err)
	}
	return tile
}

func TestInfo(t *testing.T) {
	e, stdout, path := testEnv(t, 4)

	if err := e.info(Info{RomPath: path}); err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"iNES", "tiles:", "4"} {
		if !strings.Contains(stdout.String(), s) {
			t.Errorf("info output does not contain %q:\n%s", s, stdout)
		}
	}

	stdout.Reset()
	if err := e.info(Info{RomPath: path, JSON: true}); err != nil {
		t.Fatal(err)
	}
	var dataOffset int
	d := jx.DecodeBytes(stdout.Bytes())
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key == "data_offset" {
			v, err := d.Int()
			dataOffset = v
			return err
		}
		return d.Skip()
	})
	if err != nil {
		t.Fatalf("invalid JSON %s: %v", stdout, err)
	}
	if dataOffset != 16 {
		t.Errorf("data_offset = %d, want 16", dataOffset)
	}

	// The rom has been remembered.
	roms := recent.Load(e.recentDir)
	if len(roms) != 1 || roms[0].Path != path {
		t.Fatalf("recent roms = %+v", roms)
	}
}

func TestShow(t *testing.T) {
	e, stdout, path := testEnv(t, 4)

	if err := e.show(Show{RomPath: path, Index: 2}); err != nil {
		t.Fatal(err)
	}
	var want chr.Tile
	want.Fill(2)
	if diff := cmp.Diff(want.String()+"\n", stdout.String()); diff != "" {
		t.Fatalf("show output mismatch (-want +got):\n%s", diff)
	}

	if err := e.show(Show{RomPath: path, Index: 4}); !errors.Is(err, tiles.ErrIndexOutOfRange) {
		t.Fatalf("show(4) error = %v", err)
	}
}

func TestSetPixel(t *testing.T) {
	e, _, path := testEnv(t, 4)

	if err := e.setPixel(SetPixel{RomPath: path, Index: 0, X: 7, Y: 2, Value: 3}); err != nil {
		t.Fatal(err)
	}
	tile := readTile(t, path, 0)
	var want chr.Tile
	want.Set(7, 2, 3)
	if tile != want {
		t.Fatalf("tile 0 =\n%v\nwant\n%v", tile, want)
	}

	for _, v := range []int{-1, 4, 256} {
		err := e.setPixel(SetPixel{RomPath: path, Index: 0, Value: v})
		if !errors.Is(err, editor.ErrInvalidPixel) {
			t.Errorf("setPixel(value=%d) error = %v", v, err)
		}
	}
}

func TestPutOutput(t *testing.T) {
	e, _, path := testEnv(t, 4)

	var in chr.Tile
	for i := range in {
		in[i] = uint8(i % 3)
	}
	e.stdin = strings.NewReader(in.String())

	out := filepath.Join(filepath.Dir(path), "out.nes")
	if err := e.put(Put{RomPath: path, Index: 3, Output: out}); err != nil {
		t.Fatal(err)
	}

	if got := readTile(t, out, 3); got != in {
		t.Fatalf("tile 3 of output =\n%v\nwant\n%v", got, in)
	}
	// Input untouched.
	var orig chr.Tile
	orig.Fill(3)
	if got := readTile(t, path, 3); got != orig {
		t.Fatalf("input rom was modified")
	}

	e.stdin = strings.NewReader("1 2 3")
	if err := e.put(Put{RomPath: path, Index: 0}); !errors.Is(err, chr.ErrInvalidSize) {
		t.Fatalf("put with short tile error = %v", err)
	}
}

func TestExportImport(t *testing.T) {
	e, _, path := testEnv(t, 8)
	dir := filepath.Dir(path)

	pngPath := filepath.Join(dir, "tiles.png")
	if err := e.export(Export{RomPath: path, PNGPath: pngPath, Columns: 4, Zoom: 1, First: 1, Count: 4}); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(pngPath)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(f)
	f.Close()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := img.Bounds(), image.Rect(0, 0, 32, 8); got != want {
		t.Fatalf("exported image bounds = %v, want %v", got, want)
	}

	// Import tiles 1-4 over tiles 0-3.
	if err := e.importImage(Import{RomPath: path, ImagePath: pngPath, At: 0}); err != nil {
		t.Fatal(err)
	}
	for i := range 8 {
		var want chr.Tile
		if i < 4 {
			want.Fill(uint8((i + 1) % 4))
		} else {
			want.Fill(uint8(i % 4))
		}
		if got := readTile(t, path, i); got != want {
			t.Errorf("tile %d =\n%v\nwant\n%v", i, got, want)
		}
	}

	// Doesn't fit.
	if err := e.importImage(Import{RomPath: path, ImagePath: pngPath, At: 6}); err == nil {
		t.Fatalf("import past the end of the rom should fail")
	}
}

func TestImportBadSize(t *testing.T) {
	e, _, path := testEnv(t, 2)

	pngPath := filepath.Join(filepath.Dir(path), "bad.png")
	f, err := os.Create(pngPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 10, 8))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	if err := e.importImage(Import{RomPath: path, ImagePath: pngPath}); !errors.Is(err, sheet.ErrImageSize) {
		t.Fatalf("import error = %v", err)
	}
}

func TestHugeIndex(t *testing.T) {
	e, _, path := testEnv(t, 4)
	orig, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var tile chr.Tile
	tile.Fill(3)
	for _, idx := range []int{1 << 59, 1 << 60, math.MaxInt} {
		if err := e.show(Show{RomPath: path, Index: idx}); !errors.Is(err, tiles.ErrIndexOutOfRange) {
			t.Errorf("show(%d) error = %v", idx, err)
		}
		e.stdin = strings.NewReader(tile.String())
		if err := e.put(Put{RomPath: path, Index: idx}); !errors.Is(err, tiles.ErrIndexOutOfRange) {
			t.Errorf("put(%d) error = %v", idx, err)
		}
		if err := e.setPixel(SetPixel{RomPath: path, Index: idx, Value: 1}); !errors.Is(err, tiles.ErrIndexOutOfRange) {
			t.Errorf("setPixel(%d) error = %v", idx, err)
		}
	}

	pngPath := filepath.Join(filepath.Dir(path), "one.png")
	if err := e.export(Export{RomPath: path, PNGPath: pngPath, Count: 1}); err != nil {
		t.Fatal(err)
	}
	if err := e.importImage(Import{RomPath: path, ImagePath: pngPath, At: math.MaxInt}); err == nil {
		t.Errorf("import at MaxInt should fail")
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(orig, got) {
		t.Fatalf("rom modified by out of range writes")
	}
}

func TestListRecent(t *testing.T) {
	e, stdout, path := testEnv(t, 2)

	if _, err := e.open(path); err != nil {
		t.Fatal(err)
	}
	if err := e.listRecent(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout.String(), path) || !strings.HasPrefix(stdout.String(), "game") {
		t.Fatalf("recent output:\n%s", stdout)
	}
}

func TestExportDefaultPath(t *testing.T) {
	e, _, path := testEnv(t, 4)

	if err := e.export(Export{RomPath: path, Count: 2}); err != nil {
		t.Fatal(err)
	}
	// The exported rom is the most recent one.
	if _, err := os.Stat(filepath.Join(filepath.Dir(path), "game.png")); err != nil {
		t.Fatal(err)
	}
}

func TestWriteConfig(t *testing.T) {
	e, stdout, _ := testEnv(t, 1)

	if err := e.writeConfig(Config{}); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(stdout.String()); got != e.cfgPath {
		t.Errorf("printed path = %q, want %q", got, e.cfgPath)
	}
	cfg, err := config.Load(e.cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(config.Default, cfg); diff != "" {
		t.Fatalf("written config mismatch (-want +got):\n%s", diff)
	}

	if err := e.writeConfig(Config{}); err == nil {
		t.Fatalf("writeConfig should not overwrite an existing file")
	}
	if err := e.writeConfig(Config{Force: true}); err != nil {
		t.Fatalf("writeConfig with force: %v", err)
	}
}
