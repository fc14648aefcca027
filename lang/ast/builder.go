package ast

import "github.com/loomlang/loom/lang/span"

// Builder assembles an Ast one node at a time. It stands in for the parser
// this module does not ship (see DESIGN.md): tests and the CLI's fixture
// loader (fixture.go) build trees by calling Builder methods directly
// rather than by parsing source text.
type Builder struct {
	nodes  []Node
	spans  []span.Span
	consts *ConstantPool
}

// NewBuilder returns an empty Builder backed by a fresh constant pool.
func NewBuilder() *Builder {
	return &Builder{consts: NewConstantPool()}
}

// Constants returns the constant pool the builder is filling.
func (b *Builder) Constants() *ConstantPool { return b.consts }

// Span records a source span and returns its index for use as a node's
// Span field.
func (b *Builder) Span(s span.Span) AstIndex {
	idx := AstIndex(len(b.spans))
	b.spans = append(b.spans, s)
	return idx
}

// Add appends a node and returns its index.
func (b *Builder) Add(variant Variant, spanIdx AstIndex, data any) AstIndex {
	idx := AstIndex(len(b.nodes))
	b.nodes = append(b.nodes, Node{Variant: variant, Span: spanIdx, Data: data})
	return idx
}

// Build finalizes the tree with entry as the top-level MainBlock index.
func (b *Builder) Build(entry AstIndex) *Ast {
	return &Ast{
		nodes:   b.nodes,
		spans:   b.spans,
		consts:  b.consts,
		entry:   entry,
		hasEntr: entry.Valid(),
	}
}

// BuildWithoutEntry finalizes a tree with no entry point set, used by
// tests that compile a single node directly rather than a MainBlock.
func (b *Builder) BuildWithoutEntry() *Ast {
	return &Ast{nodes: b.nodes, spans: b.spans, consts: b.consts, entry: NoIndex}
}

// --- convenience constructors for common leaf nodes, used heavily by
// tests; these are thin wrappers, not parser logic. ---

// Zero is a span placeholder for synthetic/test nodes that don't care
// about source position.
var Zero = span.Zero

func (b *Builder) NullNode() AstIndex       { return b.Add(Null, b.Span(Zero), nil) }
func (b *Builder) TrueNode() AstIndex       { return b.Add(BoolTrue, b.Span(Zero), nil) }
func (b *Builder) FalseNode() AstIndex      { return b.Add(BoolFalse, b.Span(Zero), nil) }
func (b *Builder) SelfRef() AstIndex        { return b.Add(SelfNode, b.Span(Zero), nil) }

// SmallIntNode builds a SmallInt node; callers are responsible for keeping
// v within the compact instruction range (roughly -128..127) as the
// compiler does not re-route an out-of-range SmallInt to the constant pool.
func (b *Builder) SmallIntNode(v int8) AstIndex {
	return b.Add(SmallInt, b.Span(Zero), &SmallIntData{Value: v})
}

func (b *Builder) IntNode(v int64) AstIndex {
	cidx := b.consts.AddInt(v)
	return b.Add(Int, b.Span(Zero), &IntData{Cidx: cidx})
}

func (b *Builder) FloatNode(v float64) AstIndex {
	cidx := b.consts.AddFloat(v)
	return b.Add(Float, b.Span(Zero), &FloatData{Cidx: cidx})
}

func (b *Builder) StrLiteralNode(s string) AstIndex {
	cidx := b.consts.InternString(s)
	return b.Add(Str, b.Span(Zero), &StrData{Kind: StrLiteral, Cidx: cidx})
}

func (b *Builder) IdNode(name string) AstIndex {
	cidx := b.consts.InternString(name)
	return b.Add(Id, b.Span(Zero), &IdData{Cidx: cidx, Type: NoIndex})
}

func (b *Builder) WildcardNode(name string) AstIndex {
	cidx := NoConstant
	if name != "" {
		cidx = b.consts.InternString(name)
	}
	return b.Add(Wildcard, b.Span(Zero), &WildcardData{Name: cidx, Type: NoIndex})
}

func (b *Builder) BlockNode(body ...AstIndex) AstIndex {
	return b.Add(Block, b.Span(Zero), &BlockData{Body: body})
}

func (b *Builder) MainBlockNode(body AstIndex, localCount int) AstIndex {
	return b.Add(MainBlock, b.Span(Zero), &MainBlockData{Body: body, LocalCount: localCount})
}

func (b *Builder) AssignNode(target, expr AstIndex) AstIndex {
	return b.Add(Assign, b.Span(Zero), &AssignData{Target: target, Expression: expr})
}

func (b *Builder) BinaryOpNode(op BinaryOpKind, lhs, rhs AstIndex) AstIndex {
	return b.Add(BinaryOp, b.Span(Zero), &BinaryOpData{Op: op, Lhs: lhs, Rhs: rhs})
}

func (b *Builder) UnaryOpNode(op UnaryOpKind, v AstIndex) AstIndex {
	return b.Add(UnaryOp, b.Span(Zero), &UnaryOpData{Op: op, Value: v})
}
