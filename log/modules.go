package log

import (
	"io"

	"gopkg.in/Sirupsen/logrus.v0"
)

type ModuleMask uint64
type Module uint

const (
	ModuleMaskAll ModuleMask = 0xFFFFFFFFFFFFFFFF
)

// Modules of chredit. Warnings and errors are always printed, debug and info
// messages only for the modules enabled with EnableDebugModules.
const (
	ModCHR Module = iota + 1
	ModROM
	ModEdit
	ModSheet
	ModConfig
	ModCLI
)

var modDebugMask ModuleMask = 0

// disabled is set by Disable, after which output can't be changed.
var disabled bool

var modNames = []string{
	"<error>", "chr", "rom", "edit", "sheet", "cfg", "cli",
}

func init() {
	// Level filtering is done per module, let everything through logrus.
	logrus.SetLevel(logrus.DebugLevel)
}

func ModuleByName(name string) (Module, bool) {
	for idx, s := range modNames {
		if idx == 0 {
			continue
		}
		if s == name {
			return Module(idx), true
		}
	}
	return Module(0xFFFFFFFF), false
}

// ModuleNames returns the names of all registered modules.
func ModuleNames() []string {
	return append([]string(nil), modNames[1:]...)
}

func EnableDebugModules(mask ModuleMask) {
	modDebugMask |= mask
}

func DisableDebugModules(mask ModuleMask) {
	modDebugMask &^= mask
}

// Disable silences all logging, whatever the module or level.
func Disable() {
	modDebugMask = 0
	disabled = true
	logrus.SetOutput(io.Discard)
}

// SetOutput redirects all log output to w. It has no effect once logging has
// been disabled.
func SetOutput(w io.Writer) {
	if disabled {
		return
	}
	logrus.SetOutput(w)
}

func (mod Module) Mask() ModuleMask {
	return 1 << ModuleMask(mod)
}

func (mod Module) Enabled(level Level) bool {
	return level <= WarnLevel || modDebugMask&mod.Mask() != 0
}

func (mod Module) String() string {
	if int(mod) < len(modNames) {
		return modNames[mod]
	}
	return modNames[0]
}

// Implement the logging interface directly on modules

func (mod Module) WithFields(fields Fields) Entry {
	return Entry{mod: mod}.WithFields(fields)
}

func (mod Module) WithField(key string, value any) Entry {
	return Entry{mod: mod}.WithField(key, value)
}

func (mod Module) Warnf(format string, args ...any) {
	Entry{mod: mod}.Warnf(format, args...)
}

func (mod Module) Fatalf(format string, args ...any) {
	Entry{mod: mod}.Fatalf(format, args...)
}
