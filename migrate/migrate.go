// Package migrate converts JSP files and directory trees with a rewrite
// engine and writes the results to files, in place, or to stdout.
package migrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gnolang/tagmig/internal/cache"
	"github.com/gnolang/tagmig/rewrite"
)

var (
	// ErrNotExist is returned when an input path is missing.
	ErrNotExist = errors.New("input does not exist")
	// ErrIsDir is returned when ConvertFile is given a directory.
	ErrIsDir = errors.New("input is a directory")
)

// DefaultExtensions are the file types picked up when walking a directory.
var DefaultExtensions = []string{".jsp", ".jspf", ".tag"}

// Converter turns one document into its converted form.
type Converter interface {
	Convert(input string) *rewrite.Result
}

// Options controls where converted text goes and which files a
// directory walk picks up.
type Options struct {
	// Output is the destination of a single-file conversion.
	Output string
	// OutDir mirrors a converted directory tree. Without OutDir or
	// InPlace a directory walk only reports.
	OutDir  string
	InPlace bool
	DryRun  bool
	// Stdout receives converted text when no destination is set.
	Stdout     io.Writer
	Extensions []string
	// Exclude holds doublestar globs matched against slash paths
	// relative to the walked directory.
	Exclude  []string
	Workers  int
	Progress bool
	Cache    *cache.Cache
}

// FileResult is the outcome of converting one file.
type FileResult struct {
	Path    string
	OutPath string
	Result  *rewrite.Result
	Changed bool
	Written bool
	Cached  bool
	Err     error
}

// Failed reports whether the file could not be converted or a rule errored on it.
func (r FileResult) Failed() bool {
	return r.Err != nil || (r.Result != nil && len(r.Result.Errored()) > 0)
}

// MarshalJSON renders Err as its message.
func (r FileResult) MarshalJSON() ([]byte, error) {
	type alias struct {
		Path    string          `json:"path"`
		OutPath string          `json:"out_path,omitempty"`
		Result  *rewrite.Result `json:"result,omitempty"`
		Changed bool            `json:"changed"`
		Written bool            `json:"written"`
		Cached  bool            `json:"cached,omitempty"`
		Err     string          `json:"error,omitempty"`
	}
	a := alias{
		Path:    r.Path,
		OutPath: r.OutPath,
		Result:  r.Result,
		Changed: r.Changed,
		Written: r.Written,
		Cached:  r.Cached,
	}
	if r.Err != nil {
		a.Err = r.Err.Error()
	}
	return json.Marshal(a)
}

func nopIfNil(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// ConvertFile converts a single file and writes the result to opts.Output,
// into opts.OutDir, back to path when opts.InPlace is set, or to
// opts.Stdout otherwise.
func ConvertFile(
	ctx context.Context,
	logger *zap.Logger,
	conv Converter,
	path string,
	opts Options,
) (*FileResult, error) {
	logger = nopIfNil(logger)

	dest := opts.Output
	switch {
	case dest != "":
	case opts.OutDir != "":
		dest = filepath.Join(opts.OutDir, filepath.Base(path))
	case opts.InPlace:
		dest = path
	}
	return convert(ctx, logger, conv, path, dest, false, opts)
}

// convert converts path into dest. An empty dest sends the text to
// opts.Stdout, unless reportOnly is set, in which case nothing is written.
func convert(
	ctx context.Context,
	logger *zap.Logger,
	conv Converter,
	path, dest string,
	reportOnly bool,
	opts Options,
) (*FileResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, path)
		}
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrIsDir, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}

	fr := &FileResult{Path: path, OutPath: dest}

	useCache := opts.Cache != nil && dest != "" && !opts.DryRun
	if useCache && opts.Cache.Fresh(path, dest, content) {
		logger.Debug("Skipping unchanged file", zap.String("file", path))
		fr.Cached = true
		return fr, nil
	}

	input := string(content)
	res := conv.Convert(input)
	fr.Result = res
	fr.Changed = res.Changed(input)

	for _, o := range res.Errored() {
		logger.Warn("Rule failed", zap.String("file", path), zap.String("rule", o.Rule), zap.Error(o.Err))
	}

	if dest == "" && reportOnly {
		logger.Debug("Converted for report only", zap.String("file", path), zap.Bool("changed", fr.Changed))
		return fr, nil
	}

	if opts.DryRun {
		logger.Info("Dry run, not writing output", zap.String("file", path), zap.Bool("changed", fr.Changed))
		return fr, nil
	}

	if dest == "" {
		logger.Info("Converted content (no output file specified)", zap.String("file", path))
		out := opts.Stdout
		if out == nil {
			out = os.Stdout
		}
		if _, err := io.WriteString(out, res.Output); err != nil {
			return nil, fmt.Errorf("error writing output: %w", err)
		}
		return fr, nil
	}

	inPlace := sameFile(dest, path)
	if inPlace && !fr.Changed {
		// nothing to rewrite; also keeps watch mode from looping on its own writes
		logger.Debug("File already converted", zap.String("file", path))
	} else {
		if err := writeFile(dest, res.Output, info.Mode().Perm()); err != nil {
			return nil, err
		}
		fr.Written = true
		logger.Info("Converted file saved", zap.String("file", path), zap.String("output", dest))
	}

	if useCache && len(res.Errored()) == 0 {
		// the cache describes what now sits at path
		stored := content
		if inPlace {
			stored = []byte(res.Output)
		}
		opts.Cache.Set(path, dest, stored, []byte(res.Output))
	}

	return fr, nil
}

func writeFile(dest, content string, perm fs.FileMode) error {
	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(dest, []byte(content), perm); err != nil {
		return fmt.Errorf("error writing %s: %w", dest, err)
	}
	return nil
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// ProcessFiles runs ProcessPath over every path and stops at the first
// path that cannot be processed.
func ProcessFiles(
	ctx context.Context,
	logger *zap.Logger,
	conv Converter,
	paths []string,
	opts Options,
) ([]FileResult, error) {
	logger = nopIfNil(logger)

	var all []FileResult
	for _, path := range paths {
		results, err := ProcessPath(ctx, logger, conv, path, opts)
		if err != nil {
			logger.Error("Error processing path", zap.String("path", path), zap.Error(err))
			return all, err
		}
		all = append(all, results...)
	}
	return all, nil
}

// ProcessPath converts a file, or every matching file below a directory.
// Per-file failures are recorded in FileResult.Err.
func ProcessPath(
	ctx context.Context,
	logger *zap.Logger,
	conv Converter,
	path string,
	opts Options,
) ([]FileResult, error) {
	logger = nopIfNil(logger)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, path)
		}
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}

	if !info.IsDir() {
		fr, err := ConvertFile(ctx, logger, conv, path, opts)
		if err != nil {
			return nil, err
		}
		saveCache(logger, opts.Cache)
		return []FileResult{*fr}, nil
	}

	files, err := collectFiles(path, opts)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var bar *progressbar.ProgressBar
	if opts.Progress {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription(path),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}))
	}

	results := make([]FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, file := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			dest := destination(path, file, opts)
			fr, err := convert(gctx, logger, conv, file, dest, dest == "", opts)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				logger.Error("Error processing file", zap.String("file", file), zap.Error(err))
				results[i] = FileResult{Path: file, Err: err}
			} else {
				results[i] = *fr
			}

			if bar != nil {
				_ = bar.Add(1)
			}
			return nil
		})
	}

	waitErr := g.Wait()
	if bar != nil {
		_ = bar.Finish()
	}

	saveCache(logger, opts.Cache)

	if waitErr == nil {
		waitErr = ctx.Err()
	}
	if waitErr != nil {
		return compact(results), waitErr
	}
	return results, nil
}

func saveCache(logger *zap.Logger, c *cache.Cache) {
	if c == nil {
		return
	}
	if err := c.Save(); err != nil {
		logger.Warn("Failed to save cache", zap.Error(err))
	}
}

// compact drops the slots of files that never ran.
func compact(results []FileResult) []FileResult {
	out := results[:0]
	for _, r := range results {
		if r.Path != "" {
			out = append(out, r)
		}
	}
	return out
}

// destination picks where a file found under root is written. An empty
// string means the file is only reported.
func destination(root, file string, opts Options) string {
	switch {
	case opts.OutDir != "":
		rel, err := filepath.Rel(root, file)
		if err != nil {
			return ""
		}
		return filepath.Join(opts.OutDir, rel)
	case opts.InPlace:
		return file
	default:
		return ""
	}
}

func collectFiles(root string, opts Options) ([]string, error) {
	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	outDir := ""
	if opts.OutDir != "" {
		if abs, err := filepath.Abs(opts.OutDir); err == nil {
			outDir = abs
		}
	}

	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			// never descend into our own output tree
			if outDir != "" {
				if abs, err := filepath.Abs(p); err == nil && abs == outDir {
					return filepath.SkipDir
				}
			}
			if rel != "." && excluded(rel, opts.Exclude) {
				return filepath.SkipDir
			}
			return nil
		}

		if hasExtension(p, exts) && !excluded(rel, opts.Exclude) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking %s: %w", root, err)
	}

	return files, nil
}

func excluded(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func hasExtension(path string, exts []string) bool {
	ext := filepath.Ext(path)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
