package recent

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestAddLoad(t *testing.T) {
	dir, err := DirIn(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if roms := Load(dir); len(roms) != 0 {
		t.Fatalf("Load on empty dir = %v", roms)
	}

	paths := []string{"/roms/a/smb.nes", "/roms/b/zelda.nes", "/roms/c/metroid.nes"}
	now := time.Now()
	for i, path := range paths {
		if err := Add(dir, path, []byte{byte(i)}); err != nil {
			t.Fatal(err)
		}
		// Oldest first.
		mtime := now.Add(time.Duration(i-len(paths)) * time.Hour)
		name := filepath.Join(dir, removeExt(filepath.Base(path))+extension)
		if err := os.Chtimes(name, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}

	// Not a recent rom.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	// Corrupted one.
	if err := os.WriteFile(filepath.Join(dir, "broken"+extension), []byte("not a zip"), 0644); err != nil {
		t.Fatal(err)
	}

	roms := Load(dir)
	var got []string
	for _, r := range roms {
		got = append(got, r.Path)
	}
	want := []string{"/roms/c/metroid.nes", "/roms/b/zelda.nes", "/roms/a/smb.nes"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("recent roms mismatch (-want +got):\n%s", diff)
	}
	if roms[0].Name != "metroid" || string(roms[0].Thumbnail) != "\x02" {
		t.Fatalf("unexpected rom: %+v", roms[0])
	}

	d, ok := MostRecentDir(roms)
	if !ok || d != "/roms/c" {
		t.Fatalf("MostRecentDir() = %q, %t", d, ok)
	}
	if _, ok := MostRecentDir(nil); ok {
		t.Fatalf("MostRecentDir(nil) should return false")
	}
}

func TestNormalize(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var roms []ROM
	for i := range Max + 4 {
		roms = append(roms, ROM{
			Name:     string(rune('a' + i)),
			LastUsed: t0.Add(time.Duration(i) * time.Minute),
		})
	}
	roms = append(roms, ROM{Name: "a", LastUsed: t0.Add(time.Hour)})

	got := normalize(roms)
	if len(got) != Max {
		t.Fatalf("normalize kept %d roms, want %d", len(got), Max)
	}
	if got[0].Name != "a" {
		t.Fatalf("most recent = %q, want %q", got[0].Name, "a")
	}
	for i := 1; i < len(got); i++ {
		if got[i].LastUsed.After(got[i-1].LastUsed) {
			t.Fatalf("roms not sorted by last use: %v", got)
		}
	}
}

type failWriter struct{ n int }

var errDiskFull = errors.New("disk full")

func (w *failWriter) Write(p []byte) (int, error) {
	if w.n < len(p) {
		return 0, errDiskFull
	}
	w.n -= len(p)
	return len(p), nil
}

func TestAddErrors(t *testing.T) {
	// Failures while writing, up to the zip directory flushed on close, are
	// reported.
	for _, n := range []int{0, 10, 60, 120} {
		if err := writeArchive(&failWriter{n: n}, "/roms/smb.nes", make([]byte, 64)); !errors.Is(err, errDiskFull) {
			t.Errorf("writeArchive with %d writable bytes: error = %v", n, err)
		}
	}

	if err := Add(filepath.Join(t.TempDir(), "missing"), "/roms/smb.nes", nil); err == nil {
		t.Errorf("Add in a missing directory should fail")
	}
}
