package digest

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/crate-digest/internal/discovery"
	"github.com/mvp-joe/crate-digest/internal/extraction"
	"github.com/mvp-joe/crate-digest/internal/parsers"
	"github.com/mvp-joe/crate-digest/internal/rewrite"
	"github.com/mvp-joe/crate-digest/internal/selection"
)

// Test Plan for Runner:
// - Plain mode emits every discovered file verbatim as "// path" blocks
// - --only without --functions is a notice and writes nothing
// - Empty project: "No Rust files found", no sink write
// - Rust files without callables: "No functions found"
// - Elision keeps chosen bodies and persists the choice
// - A file with no chosen names is still emitted with every body elided
// - Extraction keeps only chosen callables and drops non-Rust files
// - A cancelled picker yields "No functions selected." and leaves the record alone
// - Stale names in the record drop out of the defaults
// - --all and preset names bypass the picker and persist nothing
// - Unreadable and unparseable units are warned about and skipped
// - Entries discovery could not read become warnings and the run continues
// - Warnings reach the warning handler before the picker is shown
// - Whitespace-only output is "No content generated"
// - A sink failure is returned
// - Callables lists every callable sorted by name

const libRS = `pub fn add(a: i32, b: i32) -> i32 {
    a + b
}

pub fn sub(a: i32, b: i32) -> i32 {
    a - b
}
`

type fakePicker struct {
	result   []string
	err      error
	items    []string
	defaults []int
	calls    int
	onPick   func()
}

func (f *fakePicker) Pick(_ context.Context, items []string, defaults []int) ([]string, error) {
	f.calls++
	if f.onPick != nil {
		f.onPick()
	}
	f.items = items
	f.defaults = defaults
	return f.result, f.err
}

type recordingSink struct {
	writes []string
	err    error
}

func (s *recordingSink) Write(text string) error {
	if s.err != nil {
		return s.err
	}
	s.writes = append(s.writes, text)
	return nil
}

type failingExtractor struct {
	next parsers.Extractor
	fail string
}

func (f *failingExtractor) Extract(ctx context.Context, unit extraction.SourceUnit) (*extraction.FileExtraction, error) {
	if unit.Path == f.fail {
		return nil, parsers.ErrParse
	}
	return f.next.Extract(ctx, unit)
}

type fixture struct {
	root   string
	store  *selection.MemoryStore
	picker *fakePicker
	sink   *recordingSink
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	return &fixture{
		root:   root,
		store:  selection.NewMemoryStore(),
		picker: &fakePicker{},
		sink:   &recordingSink{},
	}
}

type skippingSource struct {
	*discovery.FileDiscovery
	skipped []discovery.Skip
}

func (s skippingSource) Skipped() []discovery.Skip {
	return s.skipped
}

func (f *fixture) discovery(t *testing.T) *discovery.FileDiscovery {
	t.Helper()

	fd, err := discovery.NewFileDiscovery(f.root, discovery.AllowList{
		Extensions: []string{"rs"},
		Names:      []string{"README.md", "Cargo.toml"},
	}, nil)
	require.NoError(t, err)
	return fd
}

func (f *fixture) runner(t *testing.T, extractor parsers.Extractor, opts ...RunnerOption) *Runner {
	return f.runnerOver(t, f.discovery(t), extractor, opts...)
}

func (f *fixture) runnerOver(t *testing.T, source FileSource, extractor parsers.Extractor, opts ...RunnerOption) *Runner {
	t.Helper()

	if extractor == nil {
		extractor = parsers.NewRustParser()
	}

	base := []RunnerOption{
		WithSelector(selection.NewSelector(f.store, f.picker)),
		WithSink(f.sink),
	}
	return NewRunner(source, extractor, append(base, opts...)...)
}

func (f *fixture) record() selection.Record {
	return f.store.Load(selection.CanonicalRoot(f.root))
}

func TestRun_PlainMode(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{
		"Cargo.toml":  "[package]\nname = \"demo\"\n",
		"src/main.rs": "fn main() {}",
		"notes.txt":   "ignored",
	})

	res, err := f.runner(t, nil).Run(context.Background(), Options{Root: f.root})
	require.NoError(t, err)

	want := "// Cargo.toml\n[package]\nname = \"demo\"\n\n// src/main.rs\nfn main() {}"
	assert.Equal(t, want, res.Output)
	assert.Equal(t, 2, res.Files)
	assert.Empty(t, res.Notice)
	assert.Equal(t, []string{want}, f.sink.writes)
	assert.Zero(t, f.picker.calls)
}

func TestRun_OnlyWithoutFunctions(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{"src/lib.rs": libRS})

	res, err := f.runner(t, nil).Run(context.Background(), Options{Root: f.root, Only: true})
	require.NoError(t, err)
	assert.Equal(t, NoticeOnlyWithoutFunctions, res.Notice)
	assert.Empty(t, f.sink.writes)
}

func TestRun_EmptyProject(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	res, err := f.runner(t, nil).Run(context.Background(), Options{Root: f.root, Functions: true})
	require.NoError(t, err)
	assert.Equal(t, NoticeNoRustFiles, res.Notice)
	assert.Empty(t, f.sink.writes)
	assert.Zero(t, f.picker.calls)
	assert.False(t, f.record().Found)
}

func TestRun_NoFunctions(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{"src/lib.rs": "pub struct Unit;\n"})

	res, err := f.runner(t, nil).Run(context.Background(), Options{Root: f.root, Functions: true})
	require.NoError(t, err)
	assert.Equal(t, NoticeNoFunctions, res.Notice)
	assert.Empty(t, f.sink.writes)
}

func TestRun_ElisionPersistsChoice(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{
		"src/lib.rs": libRS,
		"README.md":  "# demo\n",
	})
	f.picker.result = []string{"src/lib.rs::add"}

	res, err := f.runner(t, nil).Run(context.Background(), Options{Root: f.root, Functions: true})
	require.NoError(t, err)

	want := "// README.md\n# demo\n\n" +
		"// src/lib.rs\npub fn add(a: i32, b: i32) -> i32 {\n    a + b\n}\n\npub fn sub(a: i32, b: i32) -> i32 { /* ... */ }"
	assert.Equal(t, want, res.Output)
	assert.Equal(t, 2, res.Callables)
	assert.Equal(t, 1, res.Selected)
	assert.Equal(t, []string{"src/lib.rs::add", "src/lib.rs::sub"}, f.picker.items)
	assert.Equal(t, []int{0, 1}, f.picker.defaults, "no record pre-checks everything")

	rec := f.record()
	assert.True(t, rec.Found)
	assert.Equal(t, []string{"src/lib.rs::add"}, rec.Names)
}

func TestRun_ElisionUnchosenFile(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{
		"src/lib.rs":  libRS,
		"src/util.rs": "fn helper() {\n    println!(\"hi\");\n}\n",
	})
	f.picker.result = []string{"src/lib.rs::add", "src/lib.rs::sub"}

	res, err := f.runner(t, nil).Run(context.Background(), Options{Root: f.root, Functions: true})
	require.NoError(t, err)

	want := "// src/lib.rs\n" + libRS + "\n" +
		"// src/util.rs\nfn helper() { /* ... */ }"
	assert.Equal(t, want, res.Output)
	assert.NotContains(t, res.Output, "println!")
	assert.Equal(t, 3, res.Callables)
	assert.Equal(t, 2, res.Selected)
}

func TestRun_ExtractionDropsOtherFiles(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{
		"src/lib.rs":  libRS,
		"src/util.rs": "fn helper() {}\n",
		"README.md":   "# demo\n",
	})
	f.picker.result = []string{"src/lib.rs::sub"}

	res, err := f.runner(t, nil).Run(context.Background(), Options{Root: f.root, Functions: true, Only: true})
	require.NoError(t, err)
	assert.Equal(t, "// src/lib.rs\npub fn sub(a: i32, b: i32) -> i32 {\n    a - b\n}", res.Output)
}

func TestRun_CancelLeavesRecord(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{"src/lib.rs": libRS})
	require.NoError(t, f.store.Save(selection.CanonicalRoot(f.root), []string{"src/lib.rs::sub"}))
	f.picker.err = selection.ErrCancelled

	res, err := f.runner(t, nil).Run(context.Background(), Options{Root: f.root, Functions: true})
	require.NoError(t, err)
	assert.Equal(t, NoticeNoSelection, res.Notice)
	assert.Empty(t, f.sink.writes)
	assert.Equal(t, []string{"src/lib.rs::sub"}, f.record().Names)
}

func TestRun_EmptyChoice(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{"src/lib.rs": libRS})
	f.picker.result = []string{}

	res, err := f.runner(t, nil).Run(context.Background(), Options{Root: f.root, Functions: true})
	require.NoError(t, err)
	assert.Equal(t, NoticeNoSelection, res.Notice)
	assert.Empty(t, f.sink.writes)
}

func TestRun_StaleRecord(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{"src/lib.rs": libRS})
	require.NoError(t, f.store.Save(selection.CanonicalRoot(f.root), []string{"src/lib.rs::gone", "src/lib.rs::sub"}))
	f.picker.result = []string{"src/lib.rs::sub"}

	_, err := f.runner(t, nil).Run(context.Background(), Options{Root: f.root, Functions: true})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, f.picker.defaults)
	assert.Equal(t, []string{"src/lib.rs::sub"}, f.record().Names)
}

func TestRun_AllBypassesPicker(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{"src/lib.rs": libRS})

	res, err := f.runner(t, nil).Run(context.Background(), Options{Root: f.root, Functions: true, All: true})
	require.NoError(t, err)
	assert.Equal(t, "// src/lib.rs\n"+libRS[:len(libRS)-1], res.Output)
	assert.Equal(t, 2, res.Selected)
	assert.Zero(t, f.picker.calls)
	assert.False(t, f.record().Found)
}

func TestRun_PresetNames(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{"src/lib.rs": libRS})

	res, err := f.runner(t, nil).Run(context.Background(), Options{
		Root:      f.root,
		Functions: true,
		Only:      true,
		Names:     []string{"src/lib.rs::add", "not a name"},
		Match:     rewrite.MatchBare,
	})
	require.NoError(t, err)
	assert.Equal(t, "// src/lib.rs\npub fn add(a: i32, b: i32) -> i32 {\n    a + b\n}", res.Output)
	assert.Zero(t, f.picker.calls)
	assert.False(t, f.record().Found)
}

func TestRun_SkipsUnreadableAndUnparseable(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{
		"src/bad.rs":    "fn broken() {}\n",
		"src/locked.rs": "fn locked() {}\n",
		"src/lib.rs":    libRS,
	})
	f.picker.result = []string{"src/lib.rs::add", "src/lib.rs::sub"}

	readFile := func(path string) ([]byte, error) {
		if filepath.Base(path) == "locked.rs" {
			return nil, os.ErrPermission
		}
		return os.ReadFile(path)
	}
	extractor := &failingExtractor{next: parsers.NewRustParser(), fail: "src/bad.rs"}

	res, err := f.runner(t, extractor, WithReadFile(readFile)).Run(context.Background(), Options{Root: f.root, Functions: true})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 2)
	assert.Contains(t, res.Warnings[0], "src/bad.rs")
	assert.Contains(t, res.Warnings[1], "src/locked.rs")
	assert.Equal(t, []string{"src/lib.rs::add", "src/lib.rs::sub"}, f.picker.items)
	assert.NotContains(t, res.Output, "broken")
}

func TestRun_DiscoverySkipsBecomeWarnings(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{"src/lib.rs": libRS})
	f.picker.result = []string{"src/lib.rs::add"}

	source := skippingSource{
		FileDiscovery: f.discovery(t),
		skipped:       []discovery.Skip{{Path: "locked", Err: fs.ErrPermission}},
	}

	res, err := f.runnerOver(t, source, nil).Run(context.Background(), Options{Root: f.root, Functions: true})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "Warning: Could not read locked: permission denied", res.Warnings[0])
	assert.Contains(t, res.Output, "a + b")
	assert.Equal(t, []string{"src/lib.rs::add", "src/lib.rs::sub"}, f.picker.items)
}

func TestRun_WarningsBeforePicker(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{
		"src/bad.rs": "fn broken() {}\n",
		"src/lib.rs": libRS,
	})
	f.picker.result = []string{"src/lib.rs::add"}

	var handled []string
	seenAtPick := -1
	f.picker.onPick = func() { seenAtPick = len(handled) }

	extractor := &failingExtractor{next: parsers.NewRustParser(), fail: "src/bad.rs"}
	runner := f.runner(t, extractor, WithWarningHandler(func(msg string) {
		handled = append(handled, msg)
	}))

	res, err := runner.Run(context.Background(), Options{Root: f.root, Functions: true})
	require.NoError(t, err)
	assert.Equal(t, 1, seenAtPick)
	assert.Equal(t, res.Warnings, handled)
	assert.Contains(t, handled[0], "src/bad.rs")
}

func TestRun_BlankOutput(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{"src/lib.rs": ""})
	res, err := f.runner(t, nil).Run(context.Background(), Options{Root: f.root})
	require.NoError(t, err)
	assert.Equal(t, "// src/lib.rs", res.Output, "the header alone is still content")

	f = newFixture(t, map[string]string{"src/lib.rs": libRS})
	res, err = f.runner(t, nil).Run(context.Background(), Options{
		Root:      f.root,
		Functions: true,
		Only:      true,
		Names:     []string{"src/lib.rs::nothing_here"},
	})
	require.NoError(t, err)
	assert.Equal(t, NoticeNoContent, res.Notice)
	assert.Empty(t, f.sink.writes)
}

func TestRun_SinkFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{"src/main.rs": "fn main() {}\n"})
	f.sink.err = errors.New("no clipboard")

	_, err := f.runner(t, nil).Run(context.Background(), Options{Root: f.root})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no clipboard")
}

func TestRun_CancelledContext(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{"src/lib.rs": libRS})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.runner(t, nil).Run(ctx, Options{Root: f.root, Functions: true})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCallables_Sorted(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{
		"src/lib.rs": libRS,
		"src/a.rs":   "struct S;\nimpl S {\n    fn m(&self) {}\n}\n",
	})

	callables, warnings, err := f.runner(t, nil).Callables(context.Background(), f.root)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	var names []string
	for _, c := range callables {
		names = append(names, c.Name.String())
	}
	assert.Equal(t, []string{"src/a.rs::S::m", "src/lib.rs::add", "src/lib.rs::sub"}, names)
	assert.Equal(t, extraction.KindMethod, callables[0].Kind)
}

func TestCompose(t *testing.T) {
	t.Parallel()

	out := compose([]block{{path: "a.rs", text: "x"}, {path: "b.rs", text: "y\n\n\n"}})
	assert.Equal(t, "// a.rs\nx\n\n// b.rs\ny", out)
	assert.Empty(t, compose(nil))
}
