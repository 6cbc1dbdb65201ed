// Package digest turns a crate into a single text blob: it discovers files,
// extracts callables, asks which to keep and rewrites each unit.
package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mvp-joe/crate-digest/internal/clipboard"
	"github.com/mvp-joe/crate-digest/internal/discovery"
	"github.com/mvp-joe/crate-digest/internal/extraction"
	"github.com/mvp-joe/crate-digest/internal/parsers"
	"github.com/mvp-joe/crate-digest/internal/rewrite"
	"github.com/mvp-joe/crate-digest/internal/selection"
)

// Notices reported in Result.Notice. None of them is an error.
const (
	NoticeOnlyWithoutFunctions = "--only flag requires --functions flag"
	NoticeNoRustFiles          = "No Rust files found"
	NoticeNoFunctions          = "No functions found"
	NoticeNoSelection          = "No functions selected."
	NoticeNoContent            = "No content generated with the current selection."
)

// RustExt is the extension of parsed source units.
const RustExt = ".rs"

// FileSource lists the files of a crate as absolute paths, already filtered.
// Entries it could not read are reported by Skipped after Discover.
type FileSource interface {
	Discover() ([]string, error)
	Skipped() []discovery.Skip
}

// Selector chooses qualified names among the callables of a crate.
type Selector interface {
	Select(ctx context.Context, root string, names []extraction.QualifiedName) ([]string, error)
}

// Options controls a single run.
type Options struct {
	// Root is the crate root the FileSource walks.
	Root string
	// Functions enables selection and rewriting of Rust units.
	Functions bool
	// Only switches from elision to extraction and drops non-Rust files.
	Only bool
	// All selects every callable without asking and without persisting.
	All bool
	// Names, when non-nil, is used as the selection instead of asking.
	// It is never persisted.
	Names []string
	// Match decides how chosen names are matched within a unit.
	Match rewrite.MatchMode
}

// Result describes what a run produced.
type Result struct {
	Output    string
	Files     int
	Callables int
	Selected  int
	// Notice explains an empty or skipped run.
	Notice string
	// Warnings lists files that were skipped.
	Warnings []string
}

// Unit is one discovered file. Extraction is nil for non-Rust files and for
// Rust files that have not been parsed.
type Unit struct {
	Path       string // relative to the root, slash-separated
	Text       []byte
	Extraction *extraction.FileExtraction
}

// IsSource reports whether the unit is a Rust source file.
func (u Unit) IsSource() bool {
	return strings.HasSuffix(u.Path, RustExt)
}

// Runner runs the digest pipeline.
type Runner struct {
	source    FileSource
	extractor parsers.Extractor
	selector  Selector
	sink      clipboard.Sink
	progress  ProgressReporter
	readFile  func(string) ([]byte, error)
	onWarning func(string)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithSelector sets the selector used in functions mode.
func WithSelector(s Selector) RunnerOption {
	return func(r *Runner) { r.selector = s }
}

// WithSink sets where non-empty output is written. Without a sink the
// output is only returned in Result.
func WithSink(s clipboard.Sink) RunnerOption {
	return func(r *Runner) { r.sink = s }
}

// WithProgress sets the progress reporter.
func WithProgress(p ProgressReporter) RunnerOption {
	return func(r *Runner) { r.progress = p }
}

// WithReadFile replaces os.ReadFile.
func WithReadFile(fn func(string) ([]byte, error)) RunnerOption {
	return func(r *Runner) { r.readFile = fn }
}

// WithWarningHandler sets a callback that receives each warning once the
// files are loaded, before any selection prompt is shown. Warnings are still
// collected in Result.Warnings.
func WithWarningHandler(fn func(msg string)) RunnerOption {
	return func(r *Runner) { r.onWarning = fn }
}

// NewRunner creates a runner over source using extractor for Rust units.
func NewRunner(source FileSource, extractor parsers.Extractor, opts ...RunnerOption) *Runner {
	r := &Runner{
		source:    source,
		extractor: extractor,
		progress:  &NoOpProgressReporter{},
		readFile:  os.ReadFile,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.progress == nil {
		r.progress = &NoOpProgressReporter{}
	}
	if r.onWarning == nil {
		r.onWarning = func(string) {}
	}
	return r
}

// Run executes one digest. Informational outcomes are reported through
// Result.Notice with a nil error.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Only && !opts.Functions {
		return &Result{Notice: NoticeOnlyWithoutFunctions}, nil
	}

	units, warnings, err := r.load(ctx, opts.Root, opts.Functions)
	if err != nil {
		return nil, err
	}

	result := &Result{Files: len(units), Warnings: warnings}

	var blocks []block
	if opts.Functions {
		blocks, err = r.rewriteUnits(ctx, opts, units, result)
		if err != nil {
			return nil, err
		}
		if result.Notice != "" {
			return result, nil
		}
	} else {
		for _, u := range units {
			blocks = append(blocks, block{path: u.Path, text: string(u.Text)})
		}
	}

	result.Output = compose(blocks)
	if result.Output == "" {
		result.Notice = NoticeNoContent
		return result, nil
	}

	if r.sink != nil {
		if err := r.sink.Write(result.Output); err != nil {
			return nil, err
		}
	}

	slog.Info("Digest complete", "files", result.Files, "callables", result.Callables, "selected", result.Selected, "bytes", len(result.Output))
	return result, nil
}

// rewriteUnits selects callables and rewrites every parsed unit. It sets
// result.Notice when there is nothing to emit.
func (r *Runner) rewriteUnits(ctx context.Context, opts Options, units []Unit, result *Result) ([]block, error) {
	var names []extraction.QualifiedName
	sources := 0
	for _, u := range units {
		if u.Extraction == nil {
			continue
		}
		sources++
		names = append(names, u.Extraction.Names()...)
	}
	result.Callables = len(names)

	if sources == 0 {
		result.Notice = NoticeNoRustFiles
		return nil, nil
	}
	if len(names) == 0 {
		result.Notice = NoticeNoFunctions
		return nil, nil
	}

	chosen, err := r.choose(ctx, opts, names)
	if err != nil {
		if errors.Is(err, selection.ErrCancelled) {
			result.Notice = NoticeNoSelection
			return nil, nil
		}
		return nil, err
	}
	result.Selected = len(chosen)
	if len(chosen) == 0 {
		result.Notice = NoticeNoSelection
		return nil, nil
	}

	match := opts.Match
	if match == "" {
		match = rewrite.MatchQualified
	}

	var blocks []block
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !u.IsSource() {
			if !opts.Only {
				blocks = append(blocks, block{path: u.Path, text: string(u.Text)})
			}
			continue
		}
		if u.Extraction == nil {
			continue
		}

		// Parsed again through the extractor so a cache can serve it.
		fx, err := r.extractor.Extract(ctx, extraction.SourceUnit{Path: u.Path, Text: u.Text})
		if err != nil {
			return nil, fmt.Errorf("failed to re-extract %s: %w", u.Path, err)
		}

		keep := rewrite.NewKeepSet(match, u.Path, chosen)

		var text string
		if opts.Only {
			text = rewrite.Extract(string(u.Text), fx, keep)
		} else {
			text, err = rewrite.Elide(string(u.Text), fx, keep)
			if err != nil {
				return nil, fmt.Errorf("failed to elide %s: %w", u.Path, err)
			}
		}

		if blank(text) {
			continue
		}
		blocks = append(blocks, block{path: u.Path, text: text})
	}

	return blocks, nil
}

// choose resolves the selection: preset names, everything, or the selector.
func (r *Runner) choose(ctx context.Context, opts Options, names []extraction.QualifiedName) ([]extraction.QualifiedName, error) {
	var picked []string
	switch {
	case opts.Names != nil:
		picked = opts.Names
	case opts.All:
		picked = selection.DisplayNames(names)
	default:
		if r.selector == nil {
			return nil, errors.New("no selector configured")
		}
		var err error
		picked, err = r.selector.Select(ctx, opts.Root, names)
		if err != nil {
			return nil, err
		}
	}

	chosen := make([]extraction.QualifiedName, 0, len(picked))
	for _, p := range picked {
		qn, err := extraction.ParseQualifiedName(p)
		if err != nil {
			slog.Debug("Ignoring malformed selection entry", "name", p, "error", err)
			continue
		}
		chosen = append(chosen, qn)
	}
	return chosen, nil
}

// load runs loadUnits and hands its warnings to the warning handler.
func (r *Runner) load(ctx context.Context, root string, parse bool) ([]Unit, []string, error) {
	units, warnings, err := r.loadUnits(ctx, root, parse)
	if err != nil {
		return nil, nil, err
	}
	for _, w := range warnings {
		r.onWarning(w)
	}
	return units, warnings, nil
}

// loadUnits discovers and reads every file under root. With parse set, Rust
// units are extracted as well; entries that fail to read or parse are
// skipped and reported as warnings.
func (r *Runner) loadUnits(ctx context.Context, root string, parse bool) ([]Unit, []string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve root: %w", err)
	}

	paths, err := r.source.Discover()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to discover files: %w", err)
	}
	r.progress.OnDiscoveryComplete(len(paths))
	slog.Debug("Discovered files", "root", absRoot, "count", len(paths))

	var (
		units    []Unit
		warnings []string
	)
	warn := func(msg string, args ...any) {
		w := fmt.Sprintf(msg, args...)
		warnings = append(warnings, w)
		slog.Warn(w)
	}

	for _, skip := range r.source.Skipped() {
		warn("Warning: Could not read %s: %v", skip.Path, skip.Err)
	}

	sources := 0
	for _, p := range paths {
		if strings.HasSuffix(p, RustExt) {
			sources++
		}
	}
	if parse {
		r.progress.OnParseStart(sources)
		defer r.progress.OnParseComplete()
	}

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		rel, err := filepath.Rel(absRoot, p)
		if err != nil {
			rel = p
		}
		u := Unit{Path: filepath.ToSlash(rel)}

		text, err := r.readFile(p)
		if err != nil {
			warn("Warning: Could not read file %s: %v", u.Path, err)
			if parse && u.IsSource() {
				r.progress.OnUnitParsed(u.Path)
			}
			continue
		}
		u.Text = text

		if parse && u.IsSource() {
			fx, err := r.extractor.Extract(ctx, extraction.SourceUnit{Path: u.Path, Text: text})
			r.progress.OnUnitParsed(u.Path)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, nil, ctxErr
				}
				warn("Warning: Could not parse file %s: %v", u.Path, err)
				continue
			}
			if fx.Recovered {
				slog.Debug("Parsed with syntax errors", "path", u.Path)
			}
			u.Extraction = fx
		}

		units = append(units, u)
	}

	return units, warnings, nil
}

// Callables returns every callable under root with its unit path, sorted by
// qualified name.
func (r *Runner) Callables(ctx context.Context, root string) ([]extraction.Callable, []string, error) {
	units, warnings, err := r.load(ctx, root, true)
	if err != nil {
		return nil, nil, err
	}

	var out []extraction.Callable
	for _, u := range units {
		if u.Extraction != nil {
			out = append(out, u.Extraction.Callables...)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Name.String() < out[j].Name.String()
	})
	return out, warnings, nil
}
