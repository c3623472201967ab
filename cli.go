package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"chredit/log"
)

type mode byte

const (
	infoMode     mode = iota // Show ROM infos
	showMode                 // Print a tile
	setPixelMode             // Set a single pixel
	putMode                  // Write a whole tile from stdin
	exportMode               // Export tiles to PNG
	importMode               // Import tiles from an image
	recentMode               // List recent ROMs
	configMode               // Write the configuration file
	versionMode              // Show chredit version
)

type (
	CLI struct {
		Info     Info     `cmd:"" help:"Show ROM infos."`
		Show     Show     `cmd:"" help:"Print a tile as text."`
		SetPixel SetPixel `cmd:"" help:"Set a single pixel of a tile." name:"set-pixel"`
		Put      Put      `cmd:"" help:"Write a tile read from standard input, in the format printed by 'show'."`
		Export   Export   `cmd:"" help:"Export tiles to a PNG image."`
		Import   Import   `cmd:"" help:"Import tiles from an image."`
		Recent   Recent   `cmd:"" help:"List recently opened ROMs."`
		Config   Config   `cmd:"" help:"Write the default configuration file and print its path."`
		Version  Version  `cmd:"" help:"Show chredit version."`

		Log     logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`
		LogFile string     `name:"log-file" help:"Write logs to this file instead of standard error." type:"path"`

		mode mode
	}

	Info struct {
		RomPath string `arg:"" name:"/path/to/rom" help:"${rompath_help}" type:"existingfile"`
		JSON    bool   `name:"json" help:"Print infos as JSON."`
	}

	Show struct {
		RomPath string `arg:"" name:"/path/to/rom" help:"${rompath_help}" type:"existingfile"`
		Index   int    `arg:"" name:"index" help:"${index_help}"`
	}

	SetPixel struct {
		RomPath string `arg:"" name:"/path/to/rom" help:"${rompath_help}" type:"existingfile"`
		Index   int    `arg:"" name:"index" help:"${index_help}"`
		X       int    `arg:"" name:"x" help:"Pixel column [0-7]."`
		Y       int    `arg:"" name:"y" help:"Pixel row [0-7]."`
		Value   int    `arg:"" name:"value" help:"Palette index [0-3]."`
		Output  string `name:"output" short:"o" help:"${output_help}" type:"path"`
	}

	Put struct {
		RomPath string `arg:"" name:"/path/to/rom" help:"${rompath_help}" type:"existingfile"`
		Index   int    `arg:"" name:"index" help:"${index_help}"`
		Output  string `name:"output" short:"o" help:"${output_help}" type:"path"`
	}

	Export struct {
		RomPath string `arg:"" name:"/path/to/rom" help:"${rompath_help}" type:"existingfile"`
		PNGPath string `arg:"" optional:"" name:"/path/to/png" help:"PNG file to create. (default <rom name>.png next to the most recent rom)" type:"path"`
		Columns int    `name:"columns" help:"Tiles per row. (default from config)"`
		Zoom    int    `name:"zoom" help:"Zoom factor. (default from config)"`
		First   int    `name:"first" help:"Index of the first tile to export." default:"0"`
		Count   int    `name:"count" help:"Number of tiles to export. (default all)"`
	}

	Import struct {
		RomPath      string `arg:"" name:"/path/to/rom" help:"${rompath_help}" type:"existingfile"`
		ImagePath    string `arg:"" name:"/path/to/image" help:"PNG, GIF or JPEG image, dimensions must be multiples of 8." type:"existingfile"`
		At           int    `name:"at" help:"Index of the first tile to overwrite." default:"0"`
		MatchPalette bool   `name:"match-palette" help:"Map image colors to the nearest color of the configured palette."`
		Output       string `name:"output" short:"o" help:"${output_help}" type:"path"`
	}

	Config struct {
		Force bool `name:"force" help:"Overwrite an existing configuration file."`
	}

	Recent  struct{}
	Version struct{}
)

var vars = kong.Vars{
	"rompath_help": "ROM file, with or without iNES header.",
	"index_help":   "Tile index, counted from the start of tile data.",
	"output_help":  "Save the modified ROM to this file instead of overwriting the input.",
	"log_help":     "Enable logging for specified modules.",
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("chredit"),
		kong.Description("NES CHR tile editor."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	switch strings.Fields(ctx.Command())[0] {
	case "info":
		cfg.mode = infoMode
	case "show":
		cfg.mode = showMode
	case "set-pixel":
		cfg.mode = setPixelMode
	case "put":
		cfg.mode = putMode
	case "export":
		cfg.mode = exportMode
	case "import":
		cfg.mode = importMode
	case "recent":
		cfg.mode = recentMode
	case "config":
		cfg.mode = configMode
	case "version":
		cfg.mode = versionMode
	}
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}

	loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.
`
	var strs []string
	for _, m := range log.ModuleNames() {
		strs = append(strs, "    - "+m)
	}

	fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm *logModMask) Decode(ctx *kong.DecodeContext) error {
	nolog := false
	allLogs := false

	var mask log.ModuleMask
	tok := ctx.Scan.Pop()
	s, ok := tok.Value.(string)
	if !ok {
		return fmt.Errorf("expected a list of log modules, got %v", tok.Value)
	}
	for _, v := range strings.Split(s, ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %s", v)
			}
			mask |= mod.Mask()
		}
	}

	if nolog {
		if allLogs {
			return fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if mask != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		log.Disable()
		*lm = 0
		return nil
	}

	if allLogs {
		mask = log.ModuleMaskAll
	}

	log.EnableDebugModules(mask)
	*lm = logModMask(mask)
	return nil
}
