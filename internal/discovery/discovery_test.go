package discovery

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for FileDiscovery:
// - Finds files by extension and by exact name, in lexical order
// - Skips dotfiles, dot directories, target/ and node_modules/
// - Applies glob ignore patterns to files and directories
// - Honors simple .gitignore entries
// - An empty tree yields no files and no error
// - An unreadable directory is recorded in Skipped and the rest of the tree is still found
// - A missing root is an error

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()

	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("// "+f+"\n"), 0644))
	}
}

func relAll(t *testing.T, root string, paths []string) []string {
	t.Helper()

	absRoot, err := filepath.Abs(root)
	require.NoError(t, err)

	out := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(absRoot, p)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestDiscover_AllowListAndSkips(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root,
		"Cargo.toml",
		"README.md",
		"notes.md",
		"src/main.rs",
		"src/lib/mod.rs",
		".hidden.rs",
		".git/config.rs",
		"target/debug/build.rs",
		"node_modules/x/index.rs",
		"src/.cache/tmp.rs",
	)

	fd, err := NewFileDiscovery(root, AllowList{Extensions: []string{"rs"}, Names: []string{"README.md"}}, nil)
	require.NoError(t, err)

	files, err := fd.Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{"README.md", "src/lib/mod.rs", "src/main.rs"}, relAll(t, root, files))
}

func TestDiscover_IgnorePatterns(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root,
		"src/main.rs",
		"src/generated/proto.rs",
		"benches/bench.rs",
		"src/old.rs",
	)

	fd, err := NewFileDiscovery(root, AllowList{Extensions: []string{".rs"}}, []string{"src/generated/**", "benches", "**/old.rs"})
	require.NoError(t, err)

	files, err := fd.Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{"src/main.rs"}, relAll(t, root, files))
}

func TestDiscover_Gitignore(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root,
		"src/main.rs",
		"src/scratch.rs",
		"out/gen.rs",
		"examples/demo/scratch.rs",
	)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("# build output\n/out/\nscratch.rs\n!keep.rs\n"), 0644))

	fd, err := NewFileDiscovery(root, AllowList{Extensions: []string{"rs"}}, nil)
	require.NoError(t, err)

	files, err := fd.Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{"src/main.rs"}, relAll(t, root, files))
}

func TestDiscover_Empty(t *testing.T) {
	t.Parallel()

	fd, err := NewFileDiscovery(t.TempDir(), AllowList{Extensions: []string{"rs"}}, nil)
	require.NoError(t, err)

	files, err := fd.Discover()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscover_UnreadableDirectory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, "src/lib.rs", "locked/inner.rs", "zz/last.rs")

	fd, err := NewFileDiscovery(root, AllowList{Extensions: []string{"rs"}}, nil)
	require.NoError(t, err)

	denied := &fs.PathError{Op: "open", Path: "locked", Err: fs.ErrPermission}
	fd.walkDir = func(root string, fn fs.WalkDirFunc) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err == nil && d.IsDir() && d.Name() == "locked" {
				return fn(path, d, denied)
			}
			return fn(path, d, err)
		})
	}

	files, err := fd.Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{"src/lib.rs", "zz/last.rs"}, relAll(t, root, files))

	skipped := fd.Skipped()
	require.Len(t, skipped, 1)
	assert.Equal(t, "locked", skipped[0].Path)
	assert.True(t, errors.Is(skipped[0].Err, fs.ErrPermission))

	// A second walk starts from a clean slate.
	fd.walkDir = nil
	_, err = fd.Discover()
	require.NoError(t, err)
	assert.Empty(t, fd.Skipped())
}

func TestDiscover_PermissionDenied(t *testing.T) {
	t.Parallel()

	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}

	root := t.TempDir()
	writeTree(t, root, "src/lib.rs", "locked/inner.rs")

	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0))
	t.Cleanup(func() { _ = os.Chmod(locked, 0755) })

	fd, err := NewFileDiscovery(root, AllowList{Extensions: []string{"rs"}}, nil)
	require.NoError(t, err)

	files, err := fd.Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{"src/lib.rs"}, relAll(t, root, files))
	require.Len(t, fd.Skipped(), 1)
	assert.Equal(t, "locked", fd.Skipped()[0].Path)
}

func TestDiscover_MissingRoot(t *testing.T) {
	t.Parallel()

	fd, err := NewFileDiscovery(filepath.Join(t.TempDir(), "nope"), AllowList{Extensions: []string{"rs"}}, nil)
	require.NoError(t, err)

	_, err = fd.Discover()
	assert.Error(t, err)
}

func TestNewFileDiscovery_BadPattern(t *testing.T) {
	t.Parallel()

	_, err := NewFileDiscovery(t.TempDir(), AllowList{}, []string{"src/[unclosed"})
	assert.Error(t, err)
}

func TestGitignoreToGlobs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"out", "out/**"}, gitignoreToGlobs("/out/"))
	assert.Equal(t, []string{"docs/gen", "docs/gen/**"}, gitignoreToGlobs("docs/gen"))
	assert.Equal(t, []string{"*.bak", "*.bak/**", "**/*.bak", "**/*.bak/**"}, gitignoreToGlobs("*.bak"))
	assert.Nil(t, gitignoreToGlobs("/"))
}
