package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"coral/internal/diag"
	"coral/internal/source"
)

// Pretty renders diagnostics for humans. Items are printed in bag order
// (call bag.Sort() first):
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source line with a caret underline and, optionally, the
// notes in the same shape.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := &printer{w: w, fs: fs, opts: opts}
	p.palette()
	for _, d := range bag.Items() {
		p.diagnostic(d)
	}
}

type printer struct {
	w    io.Writer
	fs   *source.FileSet
	opts PrettyOpts

	sevColor map[diag.Severity]*color.Color
	loc      *color.Color
	caret    *color.Color
	note     *color.Color
}

func (p *printer) palette() {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if p.opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	p.sevColor = map[diag.Severity]*color.Color{
		diag.SevError:   mk(color.FgRed, color.Bold),
		diag.SevWarning: mk(color.FgYellow, color.Bold),
		diag.SevInfo:    mk(color.FgCyan, color.Bold),
	}
	p.loc = mk(color.Bold)
	p.caret = mk(color.FgGreen, color.Bold)
	p.note = mk(color.FgBlue)
}

func (p *printer) diagnostic(d diag.Diagnostic) {
	sev := p.sevColor[d.Severity]
	if sev == nil {
		sev = p.loc
	}
	fmt.Fprintf(p.w, "%s: %s %s: %s\n",
		p.loc.Sprint(p.position(d.Primary)),
		sev.Sprint(d.Severity.String()),
		sev.Sprint(d.Code.ID()),
		d.Message)
	p.snippet(d.Primary, sev)
	if !p.opts.ShowNotes {
		return
	}
	for _, n := range d.Notes {
		fmt.Fprintf(p.w, "  %s %s: %s\n", p.note.Sprint("note"), p.position(n.Span), n.Msg)
		p.snippet(n.Span, p.note)
	}
}

func (p *printer) position(sp source.Span) string {
	f := p.fs.Get(sp.File)
	if f == nil {
		return "<unknown>"
	}
	start, _ := p.fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", formatPath(f, p.opts.PathMode, p.fs.BaseDir()), start.Line, start.Col)
}

// snippet prints the primary line with Context lines around it and an
// underline whose width follows the display width of the covered runes.
func (p *printer) snippet(sp source.Span, c *color.Color) {
	f := p.fs.Get(sp.File)
	if f == nil {
		return
	}
	start, end := p.fs.Resolve(sp)
	if start.Line == 0 {
		return
	}
	ctx := uint32(max(p.opts.Context, 0))
	first := start.Line - min(ctx, start.Line-1)
	gutter := len(fmt.Sprint(start.Line + ctx))
	for ln := first; ln <= start.Line+ctx; ln++ {
		text := f.GetLine(ln)
		if ln > start.Line && text == "" {
			break
		}
		fmt.Fprintf(p.w, " %*d | %s\n", gutter, ln, expandTabs(text))
		if ln != start.Line {
			continue
		}
		// columns are byte offsets; widths are measured in display cells
		col := min(int(start.Col)-1, len(text))
		stop := len(text)
		if end.Line == start.Line {
			stop = min(int(end.Col)-1, len(text))
		}
		pad := runewidth.StringWidth(expandTabs(text[:col]))
		width := max(runewidth.StringWidth(expandTabs(text[col:max(stop, col)])), 1)
		marker := "^" + strings.Repeat("~", width-1)
		fmt.Fprintf(p.w, " %*s | %s%s\n", gutter, "", strings.Repeat(" ", pad), c.Sprint(marker))
	}
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}
