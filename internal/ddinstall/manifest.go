package ddinstall

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
)

// BuildProfile selects the build tool flags and the artifact subdirectory.
type BuildProfile string

const (
	ProfileRelease BuildProfile = "release"
	ProfileDebug   BuildProfile = "debug"
)

// Subdir returns the build tool's output subdirectory for the profile.
func (p BuildProfile) Subdir() string { return string(p) }

// Manifest is the package metadata needed for an install.
type Manifest struct {
	Name    string // first name = "..." declaration, in line order
	Version string // [package] version, best effort, empty when absent
}

// tomlManifest mirrors the [package] table for the metadata decode.
type tomlManifest struct {
	Package struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"package"`
}

// loadManifest reads the manifest in dir and resolves the package name.
func loadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("manifest not found: %s", path)
		}
		return nil, fmt.Errorf("could not read manifest %s: %v", path, err)
	}

	name, ok := scanPackageName(data)
	if !ok {
		return nil, fmt.Errorf("package name not found in manifest %s", path)
	}

	m := &Manifest{Name: name}

	// Version is cosmetic only; a manifest the TOML decoder rejects
	// still installs fine off the line scan.
	var tm tomlManifest
	if err := toml.Unmarshal(data, &tm); err == nil {
		m.Version = tm.Package.Version
	}
	return m, nil
}

// scanPackageName returns the quoted value of the first line assigning
// name, tolerating whitespace around the '='.
func scanPackageName(data []byte) (string, bool) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "name") {
			continue
		}
		rest := strings.TrimSpace(line[len("name"):])
		if !strings.HasPrefix(rest, "=") {
			continue
		}
		rest = rest[1:]

		// Value is the substring between the first pair of double quotes.
		open := strings.Index(rest, `"`)
		if open == -1 {
			continue
		}
		rest = rest[open+1:]
		end := strings.Index(rest, `"`)
		if end == -1 {
			continue
		}
		return rest[:end], true
	}
	return "", false
}
