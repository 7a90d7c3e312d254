// Package driver runs the coral front end and lowering over one program
// file or a directory of them.
package driver

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"fortio.org/safecast"

	"coral/internal/ast"
	"coral/internal/ast/rinhajson"
	"coral/internal/diag"
	"coral/internal/lexer"
	"coral/internal/mir"
	"coral/internal/observ"
	"coral/internal/parser"
	"coral/internal/sema"
	"coral/internal/source"
	"coral/internal/symbols"
	"coral/internal/trace"
)

// Stage is how far Compile goes.
type Stage uint8

const (
	// StageLower runs everything up to validated MIR.
	StageLower Stage = iota
	StageSyntax
	StageSema
)

// InputFormat selects how the program file is read.
type InputFormat uint8

const (
	// FormatAuto picks JSON for .json files and source otherwise.
	FormatAuto InputFormat = iota
	FormatSource
	FormatJSON
)

type Options struct {
	Stage          Stage
	Format         InputFormat
	MaxDiagnostics int
	// MaxRounds bounds type inference; zero uses the sema default.
	MaxRounds     int
	EnableTimings bool
	PhaseObserver PhaseObserver
	// Cache holds lowered modules across runs; nil disables it.
	Cache *DiskCache
}

type Result struct {
	FileSet *source.FileSet
	File    *source.File
	Bag     *diag.Bag
	Builder *ast.Builder
	ASTFile ast.FileID
	Symbols *symbols.Result
	Sema    *sema.Result
	MIR     *mir.Module

	TimingReport observ.Report
	CacheHit     bool
}

// OK reports whether compilation produced no errors.
func (r *Result) OK() bool {
	return r != nil && r.Bag != nil && !r.Bag.HasErrors()
}

// Compile loads path into a fresh FileSet and compiles it. Diagnostics
// land in the result bag; the error is reserved for I/O and internal
// failures.
func Compile(ctx context.Context, path string, opts *Options) (*Result, error) {
	fs := source.NewFileSetWithBase(filepath.Dir(path))
	fileID, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return CompileFile(ctx, fs, fileID, opts)
}

// CompileSource compiles an in-memory program.
func CompileSource(ctx context.Context, name string, content []byte, opts *Options) (*Result, error) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual(name, content)
	return CompileFile(ctx, fs, fileID, opts)
}

// CompileFile compiles a file already loaded into fs.
func CompileFile(ctx context.Context, fs *source.FileSet, fileID source.FileID, opts *Options) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts == nil {
		opts = &Options{}
	}
	file := fs.Get(fileID)
	if file == nil {
		return nil, fmt.Errorf("file %d not found in FileSet", fileID)
	}

	p := newPipeline(ctx, opts, file.Path)
	defer p.finish()

	res := &Result{
		FileSet: fs,
		File:    file,
		Bag:     diag.NewBag(opts.MaxDiagnostics),
	}
	defer func() {
		res.TimingReport = p.report()
		if opts.EnableTimings {
			appendTimingDiagnostic(res.Bag, timingPayload{Kind: "compile", Path: file.Path, TotalMS: res.TimingReport.TotalMS, Phases: res.TimingReport.Phases})
		}
	}()

	var key cacheKey
	if opts.Cache != nil && opts.Stage == StageLower {
		key = newCacheKey(file.Content, isJSONInput(file.Path, opts.Format))
		idx := p.begin("cache")
		hit, err := opts.Cache.load(key, fileID, res)
		p.end(idx, fmt.Sprintf("hit=%t", hit))
		if err != nil {
			res.Bag.Add(diag.New(diag.SevWarning, diag.IOCacheError, source.Span{File: fileID}, fmt.Sprintf("ignoring compilation cache entry: %v", err)))
		}
		if hit {
			res.CacheHit = true
			return res, nil
		}
	}

	rep := &diag.BagReporter{Bag: res.Bag}
	res.Builder = ast.NewBuilder(ast.Hints{})
	if isJSONInput(file.Path, opts.Format) {
		idx := p.begin("load_json")
		id, ok := rinhajson.Load(file.Content, res.Builder, rinhajson.Options{
			Reporter: rep,
			Source:   fileID,
			Name:     strings.TrimSuffix(filepath.Base(file.Path), filepath.Ext(file.Path)),
		})
		p.end(idx, "")
		if !ok {
			return res, nil
		}
		res.ASTFile = id
	} else {
		maxErrors, err := safecast.Conv[uint](max(opts.MaxDiagnostics, 0))
		if err != nil {
			return res, err
		}
		idx := p.begin("parse")
		lx := lexer.New(file, lexer.Options{Reporter: rep})
		pr := parser.ParseFile(fs, lx, res.Builder, parser.Options{Reporter: rep, MaxErrors: maxErrors})
		p.end(idx, fmt.Sprintf("exprs=%d", res.Builder.Exprs.Len()))
		res.ASTFile = pr.File
		if !pr.OK {
			return res, nil
		}
	}
	if opts.Stage == StageSyntax {
		return res, nil
	}

	idx := p.begin("symbols")
	syms := symbols.ResolveFile(res.Builder, res.ASTFile, symbols.ResolveOptions{Reporter: rep})
	p.end(idx, "")
	res.Symbols = &syms
	if !syms.OK {
		return res, nil
	}

	idx = p.begin("sema")
	sem := sema.Check(res.Builder, res.ASTFile, sema.Options{Reporter: rep, Symbols: &syms, MaxRounds: opts.MaxRounds})
	p.end(idx, fmt.Sprintf("rounds=%d", sem.Rounds))
	res.Sema = &sem
	if opts.Stage == StageSema || res.Bag.HasErrors() {
		return res, nil
	}

	idx = p.begin("lower")
	mod, err := mir.Lower(res.Builder, res.ASTFile, &sem, mir.LowerOptions{
		Tracer:     p.tracer,
		ParentSpan: p.span.ID(),
	})
	if err != nil {
		p.end(idx, "failed")
		return res, fmt.Errorf("MIR lowering failed: %w", err)
	}
	mod.Source = file.Path
	mir.SimplifyModule(mod)
	if err := mir.Validate(mod); err != nil {
		p.end(idx, "invalid")
		return res, fmt.Errorf("MIR validation failed: %w", err)
	}
	p.end(idx, fmt.Sprintf("funcs=%d", len(mod.Funcs)))
	res.MIR = mod

	if opts.Cache != nil && opts.Stage == StageLower {
		if err := opts.Cache.store(key, res); err != nil {
			res.Bag.Add(diag.New(diag.SevWarning, diag.IOCacheError, source.Span{File: fileID}, fmt.Sprintf("failed to write compilation cache: %v", err)))
		}
	}
	return res, nil
}

func isJSONInput(path string, format InputFormat) bool {
	switch format {
	case FormatJSON:
		return true
	case FormatSource:
		return false
	}
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// pipeline times the phases of one compilation and mirrors them as trace
// spans and observer events.
type pipeline struct {
	timer    *observ.Timer
	observer PhaseObserver
	tracer   trace.Tracer
	span     *trace.Span
	phases   []*trace.Span
}

func newPipeline(ctx context.Context, opts *Options, path string) *pipeline {
	t := trace.FromContext(ctx)
	p := &pipeline{
		timer:    observ.NewTimer(),
		observer: opts.PhaseObserver,
		tracer:   t,
		span:     trace.Begin(t, trace.ScopeDriver, "compile", trace.CurrentSpan(ctx).SpanID).WithExtra("path", path),
	}
	return p
}

func (p *pipeline) begin(name string) int {
	if p.observer != nil {
		p.observer(PhaseEvent{Name: name, Status: PhaseStart})
	}
	p.phases = append(p.phases, trace.Begin(p.tracer, trace.ScopePass, name, p.span.ID()))
	return p.timer.Begin(name)
}

func (p *pipeline) end(idx int, note string) {
	p.timer.End(idx, note)
	if idx >= 0 && idx < len(p.phases) {
		p.phases[idx].End(note)
	}
	if p.observer != nil {
		ph := p.timer.Phase(idx)
		p.observer(PhaseEvent{Name: ph.Name, Status: PhaseEnd, Elapsed: ph.Dur})
	}
}

func (p *pipeline) report() observ.Report {
	return p.timer.Report()
}

func (p *pipeline) finish() {
	p.span.End("")
}
