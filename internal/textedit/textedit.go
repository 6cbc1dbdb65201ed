// Package textedit applies sets of non-overlapping range replacements to text.
//
// All ranges refer to the original text. Edits are validated up front and
// applied from the highest start offset down, so applying one edit never
// shifts the offsets of another.
package textedit

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrOverlap indicates two edits cover intersecting ranges.
	ErrOverlap = errors.New("overlapping edits")

	// ErrOutOfRange indicates an edit outside the bounds of the source.
	ErrOutOfRange = errors.New("edit out of range")
)

// Edit replaces the half-open byte range [Start, End) with Text.
type Edit struct {
	Start int
	End   int
	Text  string
}

// Apply returns src with every edit applied.
func Apply(src string, edits []Edit) (string, error) {
	if len(edits) == 0 {
		return src, nil
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	for i, e := range sorted {
		if e.Start < 0 || e.End < e.Start || e.End > len(src) {
			return "", fmt.Errorf("%w: [%d,%d) in %d bytes", ErrOutOfRange, e.Start, e.End, len(src))
		}
		if i > 0 && e.Start < sorted[i-1].End {
			prev := sorted[i-1]
			return "", fmt.Errorf("%w: [%d,%d) and [%d,%d)", ErrOverlap, prev.Start, prev.End, e.Start, e.End)
		}
	}

	// Walk the edits in descending start order, prepending each untouched
	// tail segment followed by its replacement.
	segments := make([]string, 0, 2*len(sorted)+1)
	tail := len(src)
	for i := len(sorted) - 1; i >= 0; i-- {
		e := sorted[i]
		segments = append(segments, src[e.End:tail], e.Text)
		tail = e.Start
	}
	segments = append(segments, src[:tail])

	var b strings.Builder
	b.Grow(len(src))
	for i := len(segments) - 1; i >= 0; i-- {
		b.WriteString(segments[i])
	}
	return b.String(), nil
}
