package parsers

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"

	"github.com/mvp-joe/crate-digest/internal/extraction"
)

// ErrParse indicates that no syntax tree at all could be produced for a unit.
// Trees recovered from syntax errors are not a failure.
var ErrParse = errors.New("failed to parse")

// Extractor enumerates the callables of a source unit.
type Extractor interface {
	Extract(ctx context.Context, unit extraction.SourceUnit) (*extraction.FileExtraction, error)
}

// RustParser extracts functions and impl methods from Rust source.
type RustParser struct {
	*treeSitterParser
}

// NewRustParser creates a new Rust parser.
func NewRustParser() *RustParser {
	lang := sitter.NewLanguage(rust.Language())
	return &RustParser{
		treeSitterParser: newTreeSitterParser(lang, "rust"),
	}
}

// Extract parses unit and returns every function_item that has a body.
// Callables are returned in source order.
func (p *RustParser) Extract(ctx context.Context, unit extraction.SourceUnit) (*extraction.FileExtraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tree, err := p.parse(unit.Text)
	if err != nil {
		return nil, fmt.Errorf("%w %s file %s: %v", ErrParse, p.lang, unit.Path, err)
	}
	if tree == nil {
		return nil, fmt.Errorf("%w %s file %s", ErrParse, p.lang, unit.Path)
	}
	defer tree.Close()

	rootNode := tree.RootNode()

	fx := &extraction.FileExtraction{
		Path:      unit.Path,
		Callables: []extraction.Callable{},
		Impls:     []extraction.ImplBlock{},
		Recovered: rootNode.HasError(),
	}

	w := &rustWalker{
		source:    unit.Text,
		path:      unit.Path,
		fx:        fx,
		implIndex: make(map[uintptr]int),
	}

	walkTree(rootNode, func(n *sitter.Node) bool {
		if n.Kind() == "function_item" {
			w.extractFunction(n)
		}
		return true
	})

	return fx, nil
}

// rustWalker holds per-unit state while visiting the tree.
type rustWalker struct {
	source    []byte
	path      string
	fx        *extraction.FileExtraction
	implIndex map[uintptr]int
}

// extractFunction records a function_item as a callable if it has a body.
func (w *rustWalker) extractFunction(node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	bodyNode := node.ChildByFieldName("body")
	if nameNode == nil || bodyNode == nil {
		return
	}

	implNode, depth := enclosingImpl(node)

	callable := extraction.Callable{
		Name: extraction.QualifiedName{
			File:   w.path,
			Method: extractNodeText(nameNode, w.source),
		},
		Kind:      extraction.KindFunction,
		Body:      extraction.Range{Start: int(bodyNode.StartByte()), End: int(bodyNode.EndByte())},
		Item:      extraction.Range{Start: w.itemStart(node), End: int(node.EndByte())},
		Impl:      -1,
		Depth:     depth,
		StartLine: int(node.StartPosition().Row) + 1,
		EndLine:   int(node.EndPosition().Row) + 1,
	}

	if implNode != nil {
		idx := w.impl(implNode)
		impl := w.fx.Impls[idx]
		callable.Impl = idx
		callable.Name.Type = impl.TypeLabel
		callable.Name.Trait = impl.TraitLabel
		callable.Kind = extraction.KindMethod
		if impl.TraitLabel != "" {
			callable.Kind = extraction.KindTraitMethod
		}
	}

	w.fx.Callables = append(w.fx.Callables, callable)
}

// enclosingImpl returns the impl_item a function belongs to, or nil when the
// function is free or nested inside another function's body. depth counts the
// function_items enclosing node.
func enclosingImpl(node *sitter.Node) (*sitter.Node, int) {
	var impl *sitter.Node
	depth := 0
	stopped := false

	for cur := node.Parent(); cur != nil; cur = cur.Parent() {
		switch cur.Kind() {
		case "function_item":
			depth++
			stopped = true
		case "impl_item":
			if !stopped && impl == nil {
				impl = cur
			}
			stopped = true
		}
	}

	return impl, depth
}

// impl returns the index of the ImplBlock for node, recording it on first use.
func (w *rustWalker) impl(node *sitter.Node) int {
	if idx, ok := w.implIndex[node.Id()]; ok {
		return idx
	}

	block := extraction.ImplBlock{
		Item: extraction.Range{Start: int(node.StartByte()), End: int(node.EndByte())},
	}

	if typeParams := node.ChildByFieldName("type_parameters"); typeParams != nil {
		block.Header.Generics = extractNodeText(typeParams, w.source)
	}

	typeLabel := extraction.Label("Unknown")
	if typeNode := node.ChildByFieldName("type"); typeNode != nil {
		block.Header.Type = extractNodeText(typeNode, w.source)
		if tok := firstToken(typeNode); tok != nil {
			typeLabel = extraction.Label(extractNodeText(tok, w.source))
		}
	}
	block.TypeLabel = typeLabel

	if traitNode := node.ChildByFieldName("trait"); traitNode != nil {
		block.Header.Trait = extractNodeText(traitNode, w.source)
		block.TraitLabel = "Unknown"
		if tok := lastToken(traitNode); tok != nil {
			block.TraitLabel = extraction.Label(extractNodeText(tok, w.source))
		}
		// Negative impls ("impl !Send for T") keep the bang in the header.
		if prev := traitNode.PrevSibling(); prev != nil && prev.Kind() == "!" {
			block.Header.Trait = "!" + block.Header.Trait
		}
	}

	if where := findChildByType(node, "where_clause"); where != nil {
		block.Header.Where = extractNodeText(where, w.source)
	}

	block.Header.Unsafe = findChildByType(node, "unsafe") != nil

	w.fx.Impls = append(w.fx.Impls, block)
	idx := len(w.fx.Impls) - 1
	w.implIndex[node.Id()] = idx
	return idx
}

// itemStart extends a declaration backwards over directly preceding outer
// attributes and doc comments.
func (w *rustWalker) itemStart(node *sitter.Node) int {
	start := int(node.StartByte())
	for prev := node.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
		switch prev.Kind() {
		case "attribute_item":
		case "line_comment", "block_comment":
			if !isDocComment(prev, w.source) {
				return start
			}
		default:
			return start
		}
		start = int(prev.StartByte())
	}
	return start
}
