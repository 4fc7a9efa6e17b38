package ddinstall

import (
	"sync/atomic"

	"github.com/gookit/color"
)

// GLOBAL STATE
// We use a value of 1 for critical and 0 for non-critical/default.
var isCriticalAtomic atomic.Int32

// Global variables
var (
	Debug        bool
	version      = "dev" // overridden at build time
	ManifestFile = "Cargo.toml"
	ConfigDir    = ".drivedriver"
	ConfigName   = "config.toml"
	BuildLogName = "build.log.xz"
	LockName     = ".ddinstall.lock"
)

// color helpers
var (
	colInfo    = color.Info // style provided by gookit/color
	colWarn    = color.Warn
	colError   = color.Error
	colSuccess = color.HEX("#1976D2")
	colArrow   = color.HEX("#FFEB3B")
)
