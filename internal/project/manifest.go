package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// SourceExt is the extension of coral program files.
const SourceExt = ".rinha"

// Manifest is a loaded coral.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

type Config struct {
	Package PackageConfig `toml:"package"`
	Run     RunConfig     `toml:"run"`
	Build   BuildConfig   `toml:"build"`
}

type PackageConfig struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	// Entry is the program file, relative to the manifest.
	Entry string `toml:"entry"`
}

type RunConfig struct {
	Backend   string `toml:"backend"`
	LeakCheck bool   `toml:"leak_check"`
	MaxFrames int    `toml:"max_frames"`
}

type BuildConfig struct {
	Output   string `toml:"output"`
	EmitLLVM bool   `toml:"emit_llvm"`
}

// LoadManifest finds and decodes the manifest above startDir. ok is false
// when there is none.
func LoadManifest(startDir string) (*Manifest, bool, error) {
	manifestPath, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

// LoadConfig decodes and validates one manifest file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if !meta.IsDefined("package") {
		return Config{}, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return Config{}, fmt.Errorf("%s: missing [package].name", path)
	}
	if strings.TrimSpace(cfg.Package.Entry) == "" {
		cfg.Package.Entry = "main" + SourceExt
	}
	switch cfg.Run.Backend {
	case "":
		cfg.Run.Backend = "vm"
	case "vm", "llvm":
	default:
		return Config{}, fmt.Errorf("%s: [run].backend must be \"vm\" or \"llvm\", got %q", path, cfg.Run.Backend)
	}
	if cfg.Run.MaxFrames < 0 {
		return Config{}, fmt.Errorf("%s: [run].max_frames must not be negative", path)
	}
	if strings.TrimSpace(cfg.Build.Output) == "" {
		cfg.Build.Output = cfg.Package.Name
	}
	return cfg, nil
}

// EntryPath resolves the program file named by [package].entry.
func (m *Manifest) EntryPath() (string, error) {
	if m == nil {
		return "", fmt.Errorf("missing project manifest")
	}
	entry := filepath.Join(m.Root, filepath.FromSlash(strings.TrimSpace(m.Config.Package.Entry)))
	info, err := os.Stat(entry)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s: [package].entry does not exist: %s", m.Path, entry)
		}
		return "", fmt.Errorf("%s: failed to stat [package].entry: %w", m.Path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s: [package].entry must be a file", m.Path)
	}
	if ext := filepath.Ext(entry); ext != SourceExt && ext != ".json" {
		return "", fmt.Errorf("%s: [package].entry must be a %s or .json file", m.Path, SourceExt)
	}
	return entry, nil
}

// DefaultManifest is the coral.toml written by `coral init`.
func DefaultManifest(name string) string {
	return fmt.Sprintf(`# coral project manifest
[package]
name = %q
version = "0.1.0"
entry = "main%s"

[run]
backend = "vm"
leak_check = false

[build]
output = %q
`, name, SourceExt, name)
}

// DefaultMain is the program written by `coral init`.
func DefaultMain() string {
	return `let fib = fn (n, k1, k2) => {
  if (n == 0) { k1 } else if (n == 1) { k2 } else { fib(n - 1, k2, k1 + k2) }
};
print("fib(10) = " + fib(10, 0, 1))
`
}
