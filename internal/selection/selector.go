package selection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/mvp-joe/crate-digest/internal/extraction"
)

// ErrCancelled indicates the user aborted the selection. It is a user
// decision, not a failure, and nothing is persisted.
var ErrCancelled = errors.New("selection cancelled")

// Picker presents items with the defaults pre-checked and returns the checked
// items. It returns an error wrapping ErrCancelled if the user aborts.
type Picker interface {
	Pick(ctx context.Context, items []string, defaults []int) ([]string, error)
}

// Selector turns the callables of a project into the user's chosen names,
// defaulting from and persisting to a Store.
type Selector struct {
	store  Store
	picker Picker
}

// NewSelector creates a selector.
func NewSelector(store Store, picker Picker) *Selector {
	return &Selector{store: store, picker: picker}
}

// Select asks the picker for a subset of names and saves it under root.
// The returned names are sorted and unique.
func (s *Selector) Select(ctx context.Context, root string, names []extraction.QualifiedName) ([]string, error) {
	items := DisplayNames(names)
	key := CanonicalRoot(root)

	record := s.store.Load(key)
	defaults := Defaults(items, record)
	slog.Debug("Prepared selection", "root", key, "items", len(items), "prechecked", len(defaults), "prior", record.Found)

	picked, err := s.picker.Pick(ctx, items, defaults)
	if err != nil {
		if errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) {
			return nil, ErrCancelled
		}
		return nil, fmt.Errorf("failed to get user selection: %w", err)
	}

	chosen := restrict(picked, items)
	if err := s.store.Save(key, chosen); err != nil {
		return nil, fmt.Errorf("failed to save selection: %w", err)
	}

	return chosen, nil
}

// DisplayNames renders names as sorted, unique strings; each qualified name
// appears once even if several callables share it.
func DisplayNames(names []extraction.QualifiedName) []string {
	seen := make(map[string]struct{}, len(names))
	items := make([]string, 0, len(names))
	for _, n := range names {
		s := n.String()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		items = append(items, s)
	}
	sort.Strings(items)
	return items
}

// Defaults returns the indexes of items to pre-check. Without a prior record
// everything is checked; with one, only items still present in it are.
func Defaults(items []string, record Record) []int {
	defaults := make([]int, 0, len(items))
	if !record.Found {
		for i := range items {
			defaults = append(defaults, i)
		}
		return defaults
	}

	prior := make(map[string]struct{}, len(record.Names))
	for _, n := range record.Names {
		prior[n] = struct{}{}
	}
	for i, item := range items {
		if _, ok := prior[item]; ok {
			defaults = append(defaults, i)
		}
	}
	return defaults
}

// CanonicalRoot returns the absolute, symlink-resolved form of root used as
// the store key.
func CanonicalRoot(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		return root
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// restrict drops picked names that were never offered and duplicates, and sorts.
func restrict(picked, items []string) []string {
	offered := make(map[string]struct{}, len(items))
	for _, item := range items {
		offered[item] = struct{}{}
	}

	out := make([]string, 0, len(picked))
	for _, p := range dedupe(picked) {
		if _, ok := offered[p]; ok {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}
