// Package discovery finds the files of a crate that belong in a digest.
package discovery

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// alwaysSkipped directories are never descended into.
var alwaysSkipped = map[string]bool{
	"target":       true,
	"node_modules": true,
}

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// AllowList selects files by extension (without the dot) or by exact base name.
type AllowList struct {
	Extensions []string
	Names      []string
}

// Skip is an entry below the root that the walk could not read.
type Skip struct {
	// Path is relative to the root, slash-separated.
	Path string
	Err  error
}

// FileDiscovery walks a project root, skipping dot entries, build output
// directories and ignore-pattern matches, and keeps files on the allow list.
type FileDiscovery struct {
	rootDir        string
	extensions     map[string]bool
	names          map[string]bool
	ignorePatterns []compiledPattern
	skipped        []Skip

	walkDir func(root string, fn fs.WalkDirFunc) error
}

// NewFileDiscovery creates a new file discovery instance. Patterns from a
// .gitignore at rootDir are added to ignorePatterns.
func NewFileDiscovery(rootDir string, allow AllowList, ignorePatterns []string) (*FileDiscovery, error) {
	fd := &FileDiscovery{
		rootDir:    rootDir,
		extensions: make(map[string]bool),
		names:      make(map[string]bool),
	}

	for _, ext := range allow.Extensions {
		fd.extensions[strings.TrimPrefix(ext, ".")] = true
	}
	for _, name := range allow.Names {
		fd.names[name] = true
	}

	patterns := append([]string{}, ignorePatterns...)
	patterns = append(patterns, readGitignore(filepath.Join(rootDir, ".gitignore"))...)

	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		fd.ignorePatterns = append(fd.ignorePatterns, compiledPattern{pattern: pattern, glob: g})
	}

	return fd, nil
}

// Root returns the directory being walked.
func (fd *FileDiscovery) Root() string {
	return fd.rootDir
}

// Skipped returns the entries the last Discover call could not read.
func (fd *FileDiscovery) Skipped() []Skip {
	return append([]Skip(nil), fd.skipped...)
}

// Discover walks the directory tree and returns matching files as absolute
// paths in lexical order. Unreadable entries below the root are recorded in
// Skipped and the walk continues; only a failure on the root itself is
// returned.
func (fd *FileDiscovery) Discover() ([]string, error) {
	files := []string{}
	fd.skipped = nil

	root, err := filepath.Abs(fd.rootDir)
	if err != nil {
		return nil, err
	}

	walk := fd.walkDir
	if walk == nil {
		walk = filepath.WalkDir
	}

	err = walk(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			fd.skip(root, path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		name := d.Name()
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if strings.HasPrefix(name, ".") || alwaysSkipped[name] || fd.shouldIgnore(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") || !d.Type().IsRegular() || fd.shouldIgnore(relPath) {
			return nil
		}

		if fd.allowed(name) {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

func (fd *FileDiscovery) skip(root, path string, err error) {
	rel, relErr := filepath.Rel(root, path)
	if relErr != nil {
		rel = path
	}
	fd.skipped = append(fd.skipped, Skip{Path: filepath.ToSlash(rel), Err: err})
}

// allowed reports whether a file name is on the allow list.
func (fd *FileDiscovery) allowed(name string) bool {
	if fd.names[name] {
		return true
	}
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	return ext != "" && fd.extensions[ext]
}

// shouldIgnore checks if a path matches any ignore pattern.
func (fd *FileDiscovery) shouldIgnore(relPath string) bool {
	if fd.matchesAnyPattern(relPath, fd.ignorePatterns) {
		return true
	}

	// Also check if this is a directory that would match with /** suffix
	// For example, "vendor" should match pattern "vendor/**"
	pathWithSuffix := relPath + "/**"
	return fd.matchesAnyPattern(pathWithSuffix, fd.ignorePatterns)
}

// matchesAnyPattern checks if a path matches any of the given patterns.
func (fd *FileDiscovery) matchesAnyPattern(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}

	// Special handling: if path is in root (no slash), also try matching against
	// patterns with **/ prefix removed. This makes "**/*.bak" match both "a.bak"
	// and "src/a.bak" as users would expect.
	if !strings.Contains(path, "/") {
		for _, cp := range patterns {
			if strings.HasPrefix(cp.pattern, "**/") {
				simplified := strings.TrimPrefix(cp.pattern, "**/")
				if simplifiedGlob, err := glob.Compile(simplified, '/'); err == nil {
					if simplifiedGlob.Match(path) {
						return true
					}
				}
			}
		}
	}

	return false
}

// readGitignore turns the simple entries of a .gitignore file into glob
// patterns. Negations are not supported and are skipped.
func readGitignore(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		patterns = append(patterns, gitignoreToGlobs(line)...)
	}
	return patterns
}

// gitignoreToGlobs converts one .gitignore entry into equivalent glob patterns.
func gitignoreToGlobs(entry string) []string {
	entry = strings.TrimSuffix(entry, "/")
	if entry == "" {
		return nil
	}

	// Anchored entries ("/build", "docs/out") match relative to the root only.
	if strings.HasPrefix(entry, "/") || strings.Contains(entry, "/") {
		entry = strings.TrimPrefix(entry, "/")
		return []string{entry, entry + "/**"}
	}

	return []string{entry, entry + "/**", "**/" + entry, "**/" + entry + "/**"}
}
