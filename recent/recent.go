// Package recent remembers the roms recently opened, along with a thumbnail of
// their tiles.
package recent

import (
	"archive/zip"
	"bytes"
	"cmp"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"chredit/log"
)

const extension = ".crr"

// Max is the number of roms Load returns at most.
const Max = 16

// DirIn returns the recent roms directory inside cfgdir, creating it if
// needed.
func DirIn(cfgdir string) (string, error) {
	dir := filepath.Join(cfgdir, "recent-roms")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %v", dir, err)
	}
	return dir, nil
}

type ROM struct {
	Name      string
	Path      string
	Thumbnail []byte // PNG
	LastUsed  time.Time
}

func (r ROM) IsValid() bool {
	return r.Path != "" &&
		r.Thumbnail != nil &&
		r.Name != "" &&
		!r.LastUsed.IsZero()
}

// Add remembers the rom at path. Adding a rom with the same name as a previous
// one replaces it.
func Add(dir, path string, thumbnail []byte) error {
	name := removeExt(filepath.Base(path))
	f, err := os.Create(filepath.Join(dir, name+extension))
	if err != nil {
		return err
	}
	if err := writeArchive(f, path, thumbnail); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	log.ModConfig.WithField("path", path).Debug("added recent rom")
	return nil
}

// writeArchive writes the zip archive describing the rom at path.
func writeArchive(w io.Writer, path string, thumbnail []byte) error {
	zw := zip.NewWriter(w)

	zfw, err := zw.Create("infos.txt")
	if err != nil {
		return err
	}
	if _, err := zfw.Write([]byte(path)); err != nil {
		return err
	}

	zfw, err = zw.Create("thumbnail.png")
	if err != nil {
		return err
	}
	if _, err := zfw.Write(thumbnail); err != nil {
		return err
	}

	return zw.Close()
}

// Load returns the recent roms found in dir, most recent first.
func Load(dir string) []ROM {
	var roms []ROM

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if filepath.Ext(path) != extension {
			return nil
		}

		rom, err := readROM(path, d)
		if err != nil {
			log.ModConfig.Warnf("skipping recent rom %s: %s", path, err)
			return nil
		}
		if rom.IsValid() {
			roms = append(roms, rom)
		}
		return nil
	})

	if err != nil {
		log.ModConfig.Warnf("error loading recent roms: %s", err)
	}

	return normalize(roms)
}

func readROM(path string, d fs.DirEntry) (ROM, error) {
	f, err := os.Open(path)
	if err != nil {
		return ROM{}, err
	}
	defer f.Close()

	dirent, err := d.Info()
	if err != nil {
		return ROM{}, err
	}

	zr, err := zip.NewReader(f, dirent.Size())
	if err != nil {
		return ROM{}, err
	}

	cur := ROM{
		Name:     removeExt(dirent.Name()),
		LastUsed: dirent.ModTime(),
	}

	for _, zf := range zr.File {
		switch zf.Name {
		case "thumbnail.png":
			buf, err := readZipFile(zf)
			if err != nil {
				return ROM{}, err
			}
			cur.Thumbnail = buf
		case "infos.txt":
			buf, err := readZipFile(zf)
			if err != nil {
				return ROM{}, err
			}
			cur.Path = string(bytes.TrimSpace(buf))
		}
	}
	return cur, nil
}

func readZipFile(zf *zip.File) ([]byte, error) {
	zfr, err := zf.Open()
	if err != nil {
		return nil, err
	}
	defer zfr.Close()
	return io.ReadAll(zfr)
}

// normalize sorts the list by last usage, removes duplicates and keeps at most
// Max roms.
func normalize(roms []ROM) []ROM {
	m := make(map[string]ROM, len(roms))
	for _, rom := range roms {
		if prev, ok := m[rom.Name]; !ok || rom.LastUsed.After(prev.LastUsed) {
			m[rom.Name] = rom
		}
	}

	roms = roms[:0]
	for _, rom := range m {
		roms = append(roms, rom)
	}

	slices.SortFunc(roms, func(a, b ROM) int {
		if c := cmp.Compare(b.LastUsed.UnixNano(), a.LastUsed.UnixNano()); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if len(roms) > Max {
		roms = roms[:Max]
	}
	return roms
}

// MostRecentDir returns the directory of the most recently used rom.
func MostRecentDir(roms []ROM) (string, bool) {
	if len(roms) == 0 {
		return "", false
	}

	return filepath.Dir(roms[0].Path), true
}

func removeExt(path string) string {
	return path[:len(path)-len(filepath.Ext(path))]
}
