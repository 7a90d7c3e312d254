// Package runtimeembed carries the C runtime linked into native coral
// executables.
package runtimeembed

import (
	"embed"
	"io/fs"
)

//go:embed native/*.c native/*.h
var nativeRuntimeFS embed.FS

// NativeRuntimeFS exposes the runtime sources; files sit under native/.
func NativeRuntimeFS() fs.FS {
	return nativeRuntimeFS
}
