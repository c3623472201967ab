package main

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/go-faster/jx"

	"chredit/chr"
	"chredit/config"
	"chredit/editor"
	"chredit/log"
	"chredit/recent"
	"chredit/romfile"
	"chredit/sheet"
)

// thumbnailTiles is the number of tiles rendered in recent roms thumbnails.
const thumbnailTiles = 128

// env holds what commands need from the outside world.
type env struct {
	cfg       config.Config
	cfgPath   string
	recentDir string // empty disables recent roms
	stdin     io.Reader
	stdout    io.Writer

	thumbnailStale bool
}

// open opens the rom at path and remembers it as a recent rom.
func (e *env) open(path string) (*romfile.File, error) {
	f, err := romfile.Open(path)
	if err != nil {
		return nil, err
	}

	if e.recentDir != "" {
		if err := e.remember(f); err != nil {
			log.ModCLI.Warnf("failed to add %s to recent roms: %s", path, err)
		}
	}

	f.Editor.Subscribe(func(ev editor.TileChanged) {
		log.ModCLI.WithField("tile", ev.Index).Debug("tile changed")
		if ev.Index < thumbnailTiles {
			e.thumbnailStale = true
		}
	})
	return f, nil
}

func (e *env) remember(f *romfile.File) error {
	if f.Editor.TileCount() == 0 {
		return nil
	}
	img, err := sheet.Render(f.Editor, e.palette(), sheet.Options{Columns: 16, Count: thumbnailTiles})
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := sheet.EncodePNG(&buf, img); err != nil {
		return err
	}
	return recent.Add(e.recentDir, f.Path, buf.Bytes())
}

func (e *env) palette() sheet.Palette {
	pal, err := e.cfg.SheetPalette()
	if err != nil {
		log.ModCLI.Warnf("using default palette: %s", err)
		return sheet.DefaultPalette
	}
	return pal
}

// save saves f to output, or back to its own file if output is empty. The
// recent rom thumbnail is refreshed if shown tiles have changed.
func (e *env) save(f *romfile.File, output string) error {
	var err error
	if output == "" {
		err = f.Save()
	} else {
		err = f.SaveAs(output)
	}
	if err != nil {
		return err
	}

	if e.recentDir != "" && e.thumbnailStale {
		if err := e.remember(f); err != nil {
			log.ModCLI.Warnf("failed to refresh recent rom %s: %s", f.Path, err)
		}
		e.thumbnailStale = false
	}
	return nil
}

func (e *env) info(args Info) error {
	f, err := e.open(args.RomPath)
	if err != nil {
		return err
	}
	rom := f.Editor.Rom()

	if args.JSON {
		var enc jx.Encoder
		enc.SetIdent(2)
		rom.EncodeJX(&enc)
		_, err := fmt.Fprintf(e.stdout, "%s\n", enc.Bytes())
		return err
	}

	if err := rom.PrintInfos(e.stdout); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(e.stdout, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "tiles:\t%d\n", f.Editor.TileCount())
	return tw.Flush()
}

func (e *env) show(args Show) error {
	f, err := e.open(args.RomPath)
	if err != nil {
		return err
	}
	t, err := f.Editor.ReadTile(args.Index)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(e.stdout, t)
	return err
}

func (e *env) setPixel(args SetPixel) error {
	f, err := e.open(args.RomPath)
	if err != nil {
		return err
	}
	if args.Value < 0 || args.Value > 3 {
		return fmt.Errorf("%w: value %d not in [0,3]", editor.ErrInvalidPixel, args.Value)
	}
	if err := f.Editor.SetPixel(args.Index, args.X, args.Y, uint8(args.Value)); err != nil {
		return err
	}
	return e.save(f, args.Output)
}

func (e *env) put(args Put) error {
	f, err := e.open(args.RomPath)
	if err != nil {
		return err
	}

	in, err := io.ReadAll(e.stdin)
	if err != nil {
		return err
	}
	t, err := chr.ParseTile(string(in))
	if err != nil {
		return err
	}
	if err := f.Editor.WriteTile(args.Index, t); err != nil {
		return err
	}
	return e.save(f, args.Output)
}

func (e *env) export(args Export) error {
	f, err := e.open(args.RomPath)
	if err != nil {
		return err
	}
	if f.Editor.TileCount() == 0 {
		return fmt.Errorf("%s: no tile data", args.RomPath)
	}

	opts := sheet.Options{
		Columns: args.Columns,
		Zoom:    args.Zoom,
		First:   args.First,
		Count:   args.Count,
	}
	if opts.Columns == 0 {
		opts.Columns = e.cfg.Sheet.Columns
	}
	if opts.Zoom == 0 {
		opts.Zoom = e.cfg.Sheet.Zoom
	}

	img, err := sheet.Render(f.Editor, e.palette(), opts)
	if err != nil {
		return err
	}

	path := args.PNGPath
	if path == "" {
		path = e.defaultPNGPath(args.RomPath)
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := sheet.EncodePNG(out, img); err != nil {
		out.Close()
		return err
	}
	log.ModCLI.WithFields(log.Fields{"path": path, "size": img.Bounds().Size()}).Info("tiles exported")
	return out.Close()
}

// defaultPNGPath returns where tiles of the rom at romPath are exported when
// no path is given: <rom name>.png in the directory of the most recent rom,
// or in the current directory.
func (e *env) defaultPNGPath(romPath string) string {
	base := filepath.Base(romPath)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + ".png"
	if e.recentDir == "" {
		return name
	}
	if dir, ok := recent.MostRecentDir(recent.Load(e.recentDir)); ok {
		return filepath.Join(dir, name)
	}
	return name
}

func (e *env) importImage(args Import) error {
	f, err := e.open(args.RomPath)
	if err != nil {
		return err
	}

	r, err := os.Open(args.ImagePath)
	if err != nil {
		return err
	}
	defer r.Close()

	img, _, err := image.Decode(r)
	if err != nil {
		return fmt.Errorf("%s: %w", args.ImagePath, err)
	}

	var opts sheet.ImportOptions
	if args.MatchPalette {
		pal := e.palette()
		opts.Palette = &pal
	}
	tiles, err := sheet.Import(img, opts)
	if err != nil {
		return err
	}

	if args.At < 0 || args.At > f.Editor.TileCount()-len(tiles) {
		return fmt.Errorf("%d tiles at index %d don't fit in the rom (%d tiles)", len(tiles), args.At, f.Editor.TileCount())
	}
	for i, t := range tiles {
		if err := f.Editor.WriteTile(args.At+i, t); err != nil {
			return err
		}
	}
	return e.save(f, args.Output)
}

// writeConfig writes the default configuration at e.cfgPath, unless a
// configuration file exists there and args.Force is not set.
func (e *env) writeConfig(args Config) error {
	if !args.Force {
		if _, err := os.Stat(e.cfgPath); err == nil {
			return fmt.Errorf("%s already exists, use --force to overwrite it", e.cfgPath)
		}
	}
	if err := config.Save(e.cfgPath, config.Default); err != nil {
		return err
	}
	log.ModConfig.WithField("path", e.cfgPath).Info("configuration written")
	_, err := fmt.Fprintln(e.stdout, e.cfgPath)
	return err
}

func (e *env) listRecent() error {
	tw := tabwriter.NewWriter(e.stdout, 0, 0, 2, ' ', 0)
	for _, rom := range recent.Load(e.recentDir) {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", rom.Name, rom.LastUsed.Format("2006-01-02 15:04"), rom.Path)
	}
	return tw.Flush()
}
