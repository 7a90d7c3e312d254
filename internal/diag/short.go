package diag

import (
	"fmt"
	"sort"
	"strings"

	"coral/internal/source"
)

type shortDiagnostic struct {
	Severity string
	Code     string
	Path     string
	Line     uint32
	Column   uint32
	Message  string
}

// FormatShort renders diagnostics one per line as
// "path:line:col: SEVERITY CODE: message", sorted deterministically.
func FormatShort(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if fs == nil || len(diags) == 0 {
		return ""
	}
	rendered := make([]shortDiagnostic, 0, len(diags))
	for i := range diags {
		d := &diags[i]
		rendered = append(rendered, toShort(fs, d.Primary, d.Severity.String(), d.Code.ID(), d.Message))
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			rendered = append(rendered, toShort(fs, n.Span, "NOTE", d.Code.ID(), n.Msg))
		}
	}
	sort.SliceStable(rendered, func(i, j int) bool {
		a, b := rendered[i], rendered[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})

	var sb strings.Builder
	for _, r := range rendered {
		fmt.Fprintf(&sb, "%s:%d:%d: %s %s: %s\n", r.Path, r.Line, r.Column, r.Severity, r.Code, r.Message)
	}
	return sb.String()
}

func toShort(fs *source.FileSet, sp source.Span, sev, code, msg string) shortDiagnostic {
	path := "<unknown>"
	if f := fs.Get(sp.File); f != nil {
		path = f.Path
	}
	start, _ := fs.Resolve(sp)
	return shortDiagnostic{Severity: sev, Code: code, Path: path, Line: start.Line, Column: start.Col, Message: msg}
}
