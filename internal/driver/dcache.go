package driver

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"coral/internal/diag"
	"coral/internal/mir"
	"coral/internal/project"
	"coral/internal/source"
	"coral/internal/version"
)

// Bump when DiskPayload or the MIR encoding changes.
const diskCacheSchemaVersion uint16 = 1

// DiskCache stores lowered modules keyed by a digest of the program text.
// Safe for concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is one cached compilation.
type DiskPayload struct {
	Schema   uint16
	Compiler string
	// Warnings are replayed into the bag on a hit.
	Warnings []diag.Diagnostic
	Module   *mir.Module
}

type cacheKey = project.Digest

func newCacheKey(content []byte, jsonInput bool) cacheKey {
	format := "source"
	if jsonInput {
		format = "json"
	}
	return project.Combine(project.HashBytes(content), project.HashBytes([]byte(version.Version+"/"+format)))
}

// OpenDiskCache opens the cache under $XDG_CACHE_HOME/app, falling back to
// ~/.cache/app.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenDiskCacheAt(filepath.Join(base, app))
}

// OpenDiskCacheAt opens a cache rooted at dir.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(key project.Digest) string {
	return filepath.Join(c.dir, "mir", hex.EncodeToString(key[:])+".mp")
}

// Put writes payload through a temp file and an atomic rename.
func (c *DiskCache) Put(key project.Digest, payload *DiskPayload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err = os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get decodes the payload stored under key. A missing entry is not an
// error.
func (c *DiskCache) Get(key project.Digest, out *DiskPayload) (found bool, err error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	return true, nil
}

// DropAll removes every entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}

func (c *DiskCache) load(key cacheKey, file source.FileID, res *Result) (bool, error) {
	var payload DiskPayload
	found, err := c.Get(key, &payload)
	if err != nil || !found {
		return false, err
	}
	if payload.Schema != diskCacheSchemaVersion || payload.Compiler != version.Version {
		return false, nil
	}
	if payload.Module == nil {
		return false, fmt.Errorf("entry %s has no module", hex.EncodeToString(key[:8]))
	}
	if err := mir.Validate(payload.Module); err != nil {
		return false, fmt.Errorf("cached module is invalid: %w", err)
	}
	rebaseModule(payload.Module, file)
	for _, d := range payload.Warnings {
		d.Primary.File = file
		for i := range d.Notes {
			d.Notes[i].Span.File = file
		}
		res.Bag.Add(d)
	}
	res.MIR = payload.Module
	res.MIR.Source = res.File.Path
	return true, nil
}

func (c *DiskCache) store(key cacheKey, res *Result) error {
	payload := &DiskPayload{
		Schema:   diskCacheSchemaVersion,
		Compiler: version.Version,
		Module:   res.MIR,
	}
	for _, d := range res.Bag.Items() {
		if d.Severity == diag.SevWarning {
			payload.Warnings = append(payload.Warnings, d)
		}
	}
	return c.Put(key, payload)
}

// rebaseModule points every span of m at file. Cached modules keep the
// offsets of the text they were lowered from, which the key guarantees
// is identical.
func rebaseModule(m *mir.Module, file source.FileID) {
	for _, f := range m.Funcs {
		f.Span.File = file
		for i := range f.Locals {
			f.Locals[i].Span.File = file
		}
		for bi := range f.Blocks {
			b := &f.Blocks[bi]
			for ii := range b.Instrs {
				b.Instrs[ii].Span.File = file
			}
			b.Term.Span.File = file
		}
	}
}
