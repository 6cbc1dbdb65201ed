package extraction

import (
	"fmt"
	"strings"
)

// Separator joins the segments of a qualified name.
const Separator = "::"

// Label is a best-effort name lifted from the first or last token of a type
// or trait expression. It is not a resolved symbol: generic and path-qualified
// types produce whatever token happens to sit at the edge of the expression.
type Label string

// QualifiedName identifies a callable within a project.
//
// It is comparable and safe to use as a map key. Type and Trait are empty for
// free functions; Trait is empty for inherent methods.
type QualifiedName struct {
	File   string
	Type   Label
	Trait  Label
	Method string
}

// String renders the display and persistence form, e.g.
// "src/lib.rs::Parser::Iterator::next".
func (q QualifiedName) String() string {
	parts := []string{q.File}
	if q.Type != "" {
		parts = append(parts, string(q.Type))
	}
	if q.Trait != "" {
		parts = append(parts, string(q.Trait))
	}
	parts = append(parts, q.Method)
	return strings.Join(parts, Separator)
}

// Bare returns the innermost segment (the function or method identifier).
func (q QualifiedName) Bare() string {
	return q.Method
}

// IsMethod reports whether the name belongs to an impl block.
func (q QualifiedName) IsMethod() bool {
	return q.Type != ""
}

// ParseQualifiedName parses the string form produced by String.
func ParseQualifiedName(s string) (QualifiedName, error) {
	parts := strings.Split(s, Separator)
	for _, p := range parts {
		if p == "" {
			return QualifiedName{}, fmt.Errorf("invalid qualified name %q: empty segment", s)
		}
	}

	switch len(parts) {
	case 2:
		return QualifiedName{File: parts[0], Method: parts[1]}, nil
	case 3:
		return QualifiedName{File: parts[0], Type: Label(parts[1]), Method: parts[2]}, nil
	case 4:
		return QualifiedName{File: parts[0], Type: Label(parts[1]), Trait: Label(parts[2]), Method: parts[3]}, nil
	default:
		return QualifiedName{}, fmt.Errorf("invalid qualified name %q: expected 2-4 segments, got %d", s, len(parts))
	}
}
