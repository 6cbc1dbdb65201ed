package extraction

// Kind classifies a callable by its enclosing container.
type Kind string

const (
	KindFunction    Kind = "function"
	KindMethod      Kind = "method"
	KindTraitMethod Kind = "trait_method"
)

// Range is a half-open byte range [Start, End) into a unit's original text.
type Range struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Contains reports whether other lies entirely within r.
func (r Range) Contains(other Range) bool {
	return r.Start <= other.Start && other.End <= r.End
}

// SourceUnit is one file's text plus its slash-separated path relative to the
// project root. Units are never mutated; rewriting produces new text.
type SourceUnit struct {
	Path string
	Text []byte
}

// Callable is a function or method with a body, found in a source unit.
// It is only valid for the exact text it was extracted from.
type Callable struct {
	Name QualifiedName
	Kind Kind

	// Body covers the body block including its braces.
	Body Range

	// Item covers the whole declaration, starting at any directly preceding
	// outer attributes and doc comments.
	Item Range

	// Impl indexes FileExtraction.Impls, or is -1 for free functions.
	Impl int

	// Depth counts enclosing callables (0 for items not nested in a body).
	Depth int

	StartLine int
	EndLine   int
}

// ImplHeader holds the verbatim pieces of an impl block's header.
type ImplHeader struct {
	Unsafe   bool
	Generics string // e.g. "<T: Clone>", empty if absent
	Trait    string // e.g. "fmt::Display", empty for inherent impls
	Type     string // e.g. "Wrapper<T>"
	Where    string // e.g. "where T: Send", empty if absent
}

// ImplBlock is an impl item that contains at least one callable.
type ImplBlock struct {
	Header     ImplHeader
	TypeLabel  Label
	TraitLabel Label
	Item       Range
}

// FileExtraction is the result of extracting one source unit.
type FileExtraction struct {
	Path      string
	Callables []Callable
	Impls     []ImplBlock

	// Recovered is set when the parser had to recover from syntax errors.
	Recovered bool
}

// Names returns the qualified names of all callables in source order.
func (fx *FileExtraction) Names() []QualifiedName {
	names := make([]QualifiedName, 0, len(fx.Callables))
	for _, c := range fx.Callables {
		names = append(names, c.Name)
	}
	return names
}
