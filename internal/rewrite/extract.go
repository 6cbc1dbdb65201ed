package rewrite

import (
	"sort"
	"strings"

	"github.com/mvp-joe/crate-digest/internal/extraction"
)

// indentUnit is the one level of indentation added to methods inside a
// reconstructed impl block.
const indentUnit = "    "

// piece is one top-level element of extraction output.
type piece struct {
	start   int
	impl    int                   // -1 for a free function
	members []extraction.Callable // the free function, or the kept methods
}

// Extract emits only the callables that keep keeps, in source order. Kept
// methods are wrapped in a minimal impl block rebuilt from the original
// header; impl blocks with nothing kept are dropped. A callable nested inside
// another emitted callable is not emitted a second time.
func Extract(text string, fx *extraction.FileExtraction, keep KeepSet) string {
	if keep.Empty() {
		return ""
	}

	var pieces []piece
	implPiece := make(map[int]int)

	for _, c := range fx.Callables {
		if !keep.Keeps(c) {
			continue
		}
		if c.Impl < 0 {
			pieces = append(pieces, piece{start: c.Item.Start, impl: -1, members: []extraction.Callable{c}})
			continue
		}
		idx, ok := implPiece[c.Impl]
		if !ok {
			pieces = append(pieces, piece{start: fx.Impls[c.Impl].Item.Start, impl: c.Impl})
			idx = len(pieces) - 1
			implPiece[c.Impl] = idx
		}
		pieces[idx].members = append(pieces[idx].members, c)
	}

	sort.SliceStable(pieces, func(i, j int) bool {
		return pieces[i].start < pieces[j].start
	})

	var emitted []extraction.Range
	covered := func(r extraction.Range) bool {
		for _, e := range emitted {
			if e.Contains(r) {
				return true
			}
		}
		return false
	}

	var b strings.Builder
	for _, p := range pieces {
		if p.impl < 0 {
			c := p.members[0]
			if covered(c.Item) {
				continue
			}
			b.WriteString(reindent(text, c.Item, ""))
			b.WriteString("\n\n")
			emitted = append(emitted, c.Item)
			continue
		}

		var methods []extraction.Callable
		for _, m := range p.members {
			if !covered(m.Item) {
				methods = append(methods, m)
			}
		}
		if len(methods) == 0 {
			continue
		}

		b.WriteString(implHeader(fx.Impls[p.impl].Header))
		for i, m := range methods {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(reindent(text, m.Item, indentUnit))
			b.WriteString("\n")
			emitted = append(emitted, m.Item)
		}
		b.WriteString("}\n\n")
	}

	return b.String()
}

// implHeader renders "[unsafe ]impl<G> [Trait for ]Type[ where ...] {\n".
func implHeader(h extraction.ImplHeader) string {
	var b strings.Builder
	if h.Unsafe {
		b.WriteString("unsafe ")
	}
	b.WriteString("impl")
	b.WriteString(h.Generics)
	b.WriteString(" ")
	if h.Trait != "" {
		b.WriteString(h.Trait)
		b.WriteString(" for ")
	}
	b.WriteString(h.Type)
	if h.Where != "" {
		b.WriteString(" ")
		b.WriteString(h.Where)
	}
	b.WriteString(" {\n")
	return b.String()
}

// reindent returns the text of r with the indentation of its first line
// removed from every line and prefix added in its place. Blank lines stay
// empty.
func reindent(text string, r extraction.Range, prefix string) string {
	start := r.Start
	for start > 0 && text[start-1] != '\n' {
		start--
	}
	indent := text[start:r.Start]
	if strings.TrimLeft(indent, " \t") != "" {
		// Something other than whitespace precedes the item on its line.
		indent = ""
		start = r.Start
	}

	lines := strings.Split(text[start:r.End], "\n")
	for i, line := range lines {
		line = strings.TrimPrefix(line, indent)
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
