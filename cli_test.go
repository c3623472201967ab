package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chredit/log"
)

func TestParseArgs(t *testing.T) {
	rom := "commands.go" // any existing file

	tests := []struct {
		args []string
		mode mode
	}{
		{[]string{"info", rom}, infoMode},
		{[]string{"info", "--json", rom}, infoMode},
		{[]string{"show", rom, "12"}, showMode},
		{[]string{"set-pixel", rom, "1", "2", "3", "1", "-o", "out.nes"}, setPixelMode},
		{[]string{"put", rom, "4"}, putMode},
		{[]string{"export", rom, "out.png", "--columns", "8"}, exportMode},
		{[]string{"import", rom, rom, "--at", "3", "--match-palette"}, importMode},
		{[]string{"recent"}, recentMode},
		{[]string{"config", "--force"}, configMode},
		{[]string{"export", rom}, exportMode},
		{[]string{"version"}, versionMode},
	}

	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			cfg := parseArgs(tt.args)
			if cfg.mode != tt.mode {
				t.Fatalf("parseArgs(%q) mode = %d, want %d", tt.args, cfg.mode, tt.mode)
			}
		})
	}

	cfg := parseArgs([]string{"set-pixel", rom, "1", "2", "3", "1", "-o", "out.nes"})
	if sp := cfg.SetPixel; sp.Index != 1 || sp.X != 2 || sp.Y != 3 || sp.Value != 1 {
		t.Fatalf("set-pixel args = %+v", sp)
	}
}

func TestLogFlag(t *testing.T) {
	defer log.DisableDebugModules(log.ModuleMaskAll)

	cfg := parseArgs([]string{"--log", "edit,rom", "recent"})
	want := logModMask(log.ModEdit.Mask() | log.ModROM.Mask())
	if cfg.Log != want {
		t.Fatalf("log mask = %x, want %x", cfg.Log, want)
	}
	if !log.ModEdit.Enabled(log.DebugLevel) || log.ModCHR.Enabled(log.DebugLevel) {
		t.Fatalf("log modules not enabled as requested")
	}
}

func TestLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chredit.log")

	f, err := openLogFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer log.SetOutput(os.Stderr)

	log.ModCLI.Warnf("written to %s", "file")
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(buf), "written to file") {
		t.Fatalf("log file content: %q", buf)
	}
}
