// Package romfile loads roms from disk and saves them back.
package romfile

import (
	"fmt"
	"os"
	"path/filepath"

	"chredit/editor"
	"chredit/ines"
	"chredit/log"
)

// DefaultExt is appended by SaveAs to file names without extension.
const DefaultExt = ".nes"

// File is a rom opened for edition.
type File struct {
	Path   string
	Editor *editor.Editor
}

// Open loads the rom at path.
func Open(path string) (*File, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	rom, err := ines.Parse(buf)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	f := &File{
		Path:   path,
		Editor: editor.New(rom),
	}

	log.ModROM.WithFields(log.Fields{
		"path":   path,
		"size":   len(buf),
		"header": rom.Header != nil,
		"tiles":  f.Editor.TileCount(),
	}).Info("rom loaded")
	return f, nil
}

// Save writes the rom back to its file.
func (f *File) Save() error {
	if err := writeFile(f.Path, f.Editor.Bytes()); err != nil {
		return fmt.Errorf("save %s: %w", f.Path, err)
	}
	f.Editor.ClearDirty()

	log.ModROM.WithField("path", f.Path).Info("rom saved")
	return nil
}

// SaveAs writes the rom to path, which becomes the rom file. DefaultExt is
// added to path if it has no extension.
func (f *File) SaveAs(path string) error {
	if filepath.Ext(path) == "" {
		path += DefaultExt
	}
	if err := writeFile(path, f.Editor.Bytes()); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	f.Path = path
	f.Editor.ClearDirty()

	log.ModROM.WithField("path", f.Path).Info("rom saved")
	return nil
}

// writeFile writes buf to a temporary file then renames it to path, so that
// path is never left half written.
func writeFile(path string, buf []byte) error {
	mode := os.FileMode(0644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
