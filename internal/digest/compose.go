package digest

import (
	"strings"
	"unicode"
)

// block is one file's contribution to the output.
type block struct {
	path string
	text string
}

// compose joins blocks as "// <path>\n<text>\n\n" and trims trailing
// whitespace from the result.
func compose(blocks []block) string {
	var b strings.Builder
	for _, blk := range blocks {
		b.WriteString("// ")
		b.WriteString(blk.path)
		b.WriteString("\n")
		b.WriteString(blk.text)
		if !strings.HasSuffix(blk.text, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return strings.TrimRightFunc(b.String(), unicode.IsSpace)
}

// blank reports whether text has no visible content.
func blank(text string) bool {
	return strings.TrimSpace(text) == ""
}
