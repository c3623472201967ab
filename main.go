package main

import (
	"fmt"
	"os"

	"chredit/config"
	"chredit/log"
	"chredit/recent"
)

var version = "dev"

func main() {
	args := parseArgs(os.Args[1:])

	if args.mode == versionMode {
		fmt.Println("chredit", version)
		return
	}

	if args.LogFile != "" {
		f, err := openLogFile(args.LogFile)
		checkf(err, "log file")
		defer f.Close()
	}

	cfg := config.LoadOrDefault()
	e := &env{
		cfg:     cfg,
		cfgPath: config.Path(),
		stdin:   os.Stdin,
		stdout:  os.Stdout,
	}
	if cfg.General.RememberRecent || args.mode == recentMode {
		dir, err := recent.DirIn(config.Dir())
		checkf(err, "recent roms")
		e.recentDir = dir
	}

	var err error
	switch args.mode {
	case infoMode:
		err = e.info(args.Info)
	case showMode:
		err = e.show(args.Show)
	case setPixelMode:
		err = e.setPixel(args.SetPixel)
	case putMode:
		err = e.put(args.Put)
	case exportMode:
		err = e.export(args.Export)
	case importMode:
		err = e.importImage(args.Import)
	case recentMode:
		err = e.listRecent()
	case configMode:
		err = e.writeConfig(args.Config)
	}
	check(err)
}

// openLogFile redirects logs to the file at path, appending to it.
func openLogFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	log.SetOutput(f)
	return f, nil
}

func check(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", err)
	os.Exit(1)
}

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}

	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s: %s\n", fmt.Sprintf(format, args...), err)
	os.Exit(1)
}
