package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"coral/internal/driver"
	"coral/internal/project"
)

// target is a resolved program to compile, with the manifest that named it
// when the path came from coral.toml.
type target struct {
	path     string
	format   driver.InputFormat
	manifest *project.Manifest
}

func (t target) displayName() string {
	if t.manifest != nil {
		if rel, err := filepath.Rel(t.manifest.Root, t.path); err == nil {
			return rel
		}
	}
	return filepath.Base(t.path)
}

// resolveTarget picks the program named on the command line, or the entry of
// the manifest found above the working directory.
func resolveTarget(args []string) (target, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		path := args[0]
		info, err := os.Stat(path)
		if err != nil {
			return target{}, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if info.IsDir() {
			return resolveManifestTarget(path)
		}
		return target{path: path, format: formatOf(path)}, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return target{}, err
	}
	return resolveManifestTarget(cwd)
}

func resolveManifestTarget(dir string) (target, error) {
	m, ok, err := project.LoadManifest(dir)
	if err != nil {
		return target{}, err
	}
	if !ok {
		return target{}, fmt.Errorf("no program given and no %s found in %s or its parents", project.ManifestName, dir)
	}
	entry, err := m.EntryPath()
	if err != nil {
		return target{}, err
	}
	return target{path: entry, format: formatOf(entry), manifest: m}, nil
}

func formatOf(path string) driver.InputFormat {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return driver.FormatJSON
	}
	return driver.FormatSource
}
