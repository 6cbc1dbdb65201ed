package parsers

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// treeSitterParser provides common tree-sitter parsing functionality.
type treeSitterParser struct {
	language *sitter.Language
	lang     string
}

// newTreeSitterParser creates a new tree-sitter parser for the given language.
func newTreeSitterParser(language *sitter.Language, lang string) *treeSitterParser {
	return &treeSitterParser{
		language: language,
		lang:     lang,
	}
}

// parse returns a syntax tree for source, or nil if no tree could be produced.
// The caller owns the returned tree and must Close it.
func (p *treeSitterParser) parse(source []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(p.language); err != nil {
		return nil, err
	}

	return parser.Parse(source, nil), nil
}

// extractNodeText extracts the text content of a tree-sitter node.
func extractNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// walkTree recursively walks a tree-sitter tree and calls the visitor for each node.
func walkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}

	if !visitor(node) {
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		walkTree(child, visitor)
	}
}

// findChildByType finds the first child node with the given type.
func findChildByType(node *sitter.Node, nodeType string) *sitter.Node {
	if node == nil {
		return nil
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == nodeType {
			return child
		}
	}
	return nil
}

// firstToken descends to the leftmost leaf of node.
func firstToken(node *sitter.Node) *sitter.Node {
	for node != nil && node.ChildCount() > 0 {
		node = node.Child(0)
	}
	return node
}

// lastToken descends to the rightmost leaf of node.
func lastToken(node *sitter.Node) *sitter.Node {
	for node != nil && node.ChildCount() > 0 {
		node = node.Child(node.ChildCount() - 1)
	}
	return node
}

// isDocComment reports whether a comment node is an outer doc comment.
func isDocComment(node *sitter.Node, source []byte) bool {
	text := extractNodeText(node, source)
	return strings.HasPrefix(text, "///") || strings.HasPrefix(text, "/**")
}
