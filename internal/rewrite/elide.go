package rewrite

import (
	"fmt"
	"sort"

	"github.com/mvp-joe/crate-digest/internal/extraction"
	"github.com/mvp-joe/crate-digest/internal/textedit"
)

// Placeholder replaces the body block of an elided callable.
const Placeholder = "{ /* ... */ }"

// Elide replaces the body of every callable in fx that keep does not keep with
// Placeholder. Everything else in text is left byte-for-byte intact. A body
// nested inside another elided body disappears with it.
func Elide(text string, fx *extraction.FileExtraction, keep KeepSet) (string, error) {
	bodies := make([]extraction.Range, 0, len(fx.Callables))
	for _, c := range fx.Callables {
		if !keep.Keeps(c) {
			bodies = append(bodies, c.Body)
		}
	}

	sort.Slice(bodies, func(i, j int) bool {
		if bodies[i].Start != bodies[j].Start {
			return bodies[i].Start < bodies[j].Start
		}
		return bodies[i].End > bodies[j].End
	})

	edits := make([]textedit.Edit, 0, len(bodies))
	var outer extraction.Range
	for _, body := range bodies {
		if len(edits) > 0 && outer.Contains(body) {
			continue
		}
		edits = append(edits, textedit.Edit{Start: body.Start, End: body.End, Text: Placeholder})
		outer = body
	}

	out, err := textedit.Apply(text, edits)
	if err != nil {
		return "", fmt.Errorf("failed to elide %s: %w", fx.Path, err)
	}
	return out, nil
}
