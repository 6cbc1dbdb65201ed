package rewrite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mvp-joe/crate-digest/internal/extraction"
)

// MatchMode selects how chosen names are matched against a unit's callables.
type MatchMode string

const (
	// MatchQualified keeps a callable only if its full qualified name was chosen.
	MatchQualified MatchMode = "qualified"

	// MatchBare keeps every callable in the unit whose bare identifier matches
	// a chosen name. Two types in one file that both define `new` are kept or
	// elided together.
	MatchBare MatchMode = "bare"
)

// ErrUnknownMatchMode is returned for a mode other than MatchQualified or MatchBare.
var ErrUnknownMatchMode = errors.New("unknown match mode")

// ParseMatchMode converts a config value into a MatchMode. Case and
// surrounding space are ignored; empty means qualified.
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", MatchQualified:
		return MatchQualified, nil
	case MatchBare:
		return MatchBare, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMatchMode, s)
	}
}

// KeepSet decides which callables of one unit keep their text.
type KeepSet interface {
	Keeps(c extraction.Callable) bool
	Empty() bool
}

type qualifiedKeep map[extraction.QualifiedName]struct{}

func (k qualifiedKeep) Keeps(c extraction.Callable) bool {
	_, ok := k[c.Name]
	return ok
}

func (k qualifiedKeep) Empty() bool { return len(k) == 0 }

type bareKeep map[string]struct{}

func (k bareKeep) Keeps(c extraction.Callable) bool {
	_, ok := k[c.Name.Bare()]
	return ok
}

func (k bareKeep) Empty() bool { return len(k) == 0 }

// NewKeepSet builds the keep set for the unit at unitPath from the chosen names.
// Names that belong to other units are ignored.
func NewKeepSet(mode MatchMode, unitPath string, chosen []extraction.QualifiedName) KeepSet {
	if mode == MatchBare {
		k := bareKeep{}
		for _, n := range chosen {
			if n.File == unitPath {
				k[n.Bare()] = struct{}{}
			}
		}
		return k
	}

	k := qualifiedKeep{}
	for _, n := range chosen {
		if n.File == unitPath {
			k[n] = struct{}{}
		}
	}
	return k
}

// KeepAll keeps every callable in fx.
func KeepAll(fx *extraction.FileExtraction) KeepSet {
	k := qualifiedKeep{}
	for _, c := range fx.Callables {
		k[c.Name] = struct{}{}
	}
	return k
}
