package ddinstall

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml"
)

// Config holds the optional settings from <home>/.drivedriver/config.toml.
// Zero values mean "use the default".
type Config struct {
	BuildTool  string `toml:"build_tool"`
	TargetDir  string `toml:"target_dir"`
	InstallDir string `toml:"install_dir"`
	Jobs       int    `toml:"jobs"`
}

// loadConfig reads the config file under the user's home, merges DDINSTALL_*
// env overrides and applies defaults. A missing config file is not an error.
func loadConfig(home string) (*Config, error) {
	cfg := &Config{}

	path := filepath.Join(home, ConfigDir, ConfigName)
	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file %s: %v", path, err)
		}
	}

	mergeEnvOverrides(cfg)

	if cfg.BuildTool == "" {
		cfg.BuildTool = "cargo"
	}
	if cfg.TargetDir == "" {
		cfg.TargetDir = "target"
	}
	if cfg.InstallDir == "" {
		cfg.InstallDir = filepath.Join(home, "bin")
	}
	return cfg, nil
}

// Merge DDINSTALL_* env overrides
func mergeEnvOverrides(cfg *Config) {
	if v := os.Getenv("DDINSTALL_BUILD_TOOL"); v != "" {
		cfg.BuildTool = v
	}
	if v := os.Getenv("DDINSTALL_TARGET_DIR"); v != "" {
		cfg.TargetDir = v
	}
	if v := os.Getenv("DDINSTALL_INSTALL_DIR"); v != "" {
		cfg.InstallDir = v
	}
	if v := os.Getenv("DDINSTALL_JOBS"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			cfg.Jobs = n
		}
	}
	if os.Getenv("DDINSTALL_DEBUG") == "1" {
		Debug = true
	}
}
