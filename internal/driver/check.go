package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"coral/internal/diag"
	"coral/internal/project"
	"coral/internal/source"
)

// CheckDirResult is the outcome of one file of a directory check.
type CheckDirResult struct {
	Path   string
	Result *Result
	Bag    *diag.Bag
}

// listProgramFiles returns the sorted program files under dir.
func listProgramFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, project.SourceExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// CheckDir compiles every program file under dir in parallel, up to jobs
// at a time. All files share one FileSet so diagnostics can be rendered
// together. Results follow the sorted file order.
func CheckDir(ctx context.Context, dir string, opts *Options, jobs int) (*source.FileSet, []CheckDirResult, error) {
	files, err := listProgramFiles(dir)
	if err != nil {
		return nil, nil, err
	}
	fileSet := source.NewFileSetWithBase(dir)
	if len(files) == 0 {
		return fileSet, nil, nil
	}
	if opts == nil {
		opts = &Options{}
	}

	// load up front: FileSet is not safe for concurrent Load
	fileIDs := make([]source.FileID, len(files))
	loadErrors := make([]error, len(files))
	for i, path := range files {
		fileIDs[i], loadErrors[i] = fileSet.Load(path)
	}

	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]CheckDirResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if loadErrors[i] != nil {
				bag := diag.NewBag(opts.MaxDiagnostics)
				bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{}, "failed to load file: "+loadErrors[i].Error()))
				results[i] = CheckDirResult{Path: path, Bag: bag}
				return nil
			}
			fileOpts := *opts
			// observer callbacks are not synchronized
			fileOpts.PhaseObserver = nil
			res, err := CompileFile(gctx, fileSet, fileIDs[i], &fileOpts)
			if err != nil {
				return err
			}
			results[i] = CheckDirResult{Path: path, Result: res, Bag: res.Bag}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fileSet, nil, err
	}
	return fileSet, results, nil
}

// MergeBags collects the diagnostics of all results into one sorted bag.
func MergeBags(results []CheckDirResult, maxDiagnostics int) *diag.Bag {
	out := diag.NewBag(maxDiagnostics)
	for _, r := range results {
		out.Merge(r.Bag)
	}
	out.Sort()
	return out
}
