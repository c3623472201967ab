// Package tests provides real rom files to tests.
package tests

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
)

const testRomsURL = `https://github.com/christopherpow/nes-test-roms/archive/refs/heads/master.zip`

func decompress(zipFile, dest string) error {
	r, err := zip.OpenReader(zipFile)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		fname := strings.Replace(f.Name, "nes-test-roms-master", "nes-test-roms", 1)
		fpath := filepath.Join(dest, fname)
		if !strings.HasPrefix(fpath, filepath.Clean(dest)+string(os.PathSeparator)) {
			return fmt.Errorf("%s: illegal file path", fpath)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(fpath, os.ModePerm); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(fpath), os.ModePerm); err != nil {
			return err
		}
		if err := extract(f, fpath); err != nil {
			return err
		}
	}
	return nil
}

func extract(f *zip.File, path string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func downloadTestRoms(dest string) error {
	resp, err := http.Get(testRomsURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", testRomsURL, resp.Status)
	}

	tmpf, err := os.CreateTemp("", "nes-test-roms-*-.zip")
	if err != nil {
		return err
	}
	defer os.Remove(tmpf.Name())
	defer tmpf.Close()

	if _, err := io.Copy(tmpf, resp.Body); err != nil {
		return err
	}

	if err := decompress(tmpf.Name(), dest); err != nil {
		return fmt.Errorf("failed to decompress test roms: %s", err)
	}
	return nil
}

var romsDir = sync.OnceValues(func() (string, error) {
	_, b, _, _ := runtime.Caller(0)
	testsDir := filepath.Dir(b)
	dir := filepath.Join(testsDir, "nes-test-roms")

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		if err := downloadTestRoms(testsDir); err != nil {
			return "", err
		}
	}
	return dir, nil
})

// RomsPath returns the directory holding the nes-test-roms collection,
// downloading it first if needed. The test is skipped if the roms are not
// available.
func RomsPath(tb testing.TB) string {
	dir, err := romsDir()
	if err != nil {
		tb.Skipf("nes-test-roms not available: %s", err)
	}
	return dir
}

// RomFiles returns the paths of all .nes files in the nes-test-roms collection.
func RomFiles(tb testing.TB) []string {
	var paths []string
	err := filepath.WalkDir(RomsPath(tb), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".nes") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		tb.Fatal(err)
	}
	return paths
}
