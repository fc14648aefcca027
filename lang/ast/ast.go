// Package ast defines the flat, index-addressed abstract syntax tree that
// the compiler consumes. The tree is an append-only pool of nodes: there is
// no pointer-linked tree, no visitor interface to implement per node kind
// and no separate resolution pass. A real parser is expected to build an
// Ast with a Builder; this package also exposes the Builder to tests and
// fixtures, since no concrete parser ships in this module (see DESIGN.md).
package ast

import "github.com/loomlang/loom/lang/span"

// AstIndex addresses a node in the pool. NoIndex marks an absent optional
// child.
type AstIndex uint32

// NoIndex is the sentinel for an absent AstIndex field.
const NoIndex AstIndex = 1<<32 - 1

// Valid reports whether i refers to a real node.
func (i AstIndex) Valid() bool { return i != NoIndex }

// Variant identifies the shape of a Node's Data payload.
type Variant uint8

const (
	Null Variant = iota
	BoolTrue
	BoolFalse
	SmallInt
	Int
	Float
	Str
	Id
	List
	Tuple
	TempTuple
	Map
	RangeNode
	RangeFrom
	RangeTo
	RangeFull
	Nested
	SelfNode
	MainBlock
	Block
	Function
	Chain
	NamedCall
	Assign
	MultiAssign
	UnaryOp
	BinaryOp
	If
	Match
	Switch
	For
	While
	Until
	Loop
	Break
	Continue
	Return
	Yield
	Throw
	Try
	Debug
	Import
	Export
	Meta
	Wildcard
	Ellipsis
	Type
)

func (v Variant) String() string {
	if int(v) < len(variantNames) {
		return variantNames[v]
	}
	return "Unknown"
}

var variantNames = [...]string{
	"Null", "BoolTrue", "BoolFalse", "SmallInt", "Int", "Float", "Str",
	"Id", "List", "Tuple", "TempTuple", "Map", "Range", "RangeFrom",
	"RangeTo", "RangeFull", "Nested", "Self", "MainBlock", "Block",
	"Function", "Chain", "NamedCall", "Assign", "MultiAssign", "UnaryOp",
	"BinaryOp", "If", "Match", "Switch", "For", "While", "Until", "Loop",
	"Break", "Continue", "Return", "Yield", "Throw", "Try", "Debug",
	"Import", "Export", "Meta", "Wildcard", "Ellipsis", "Type",
}

// Node is one entry in the AST pool: a variant tag, the index of its span
// in the owning Ast's span table, and a variant-specific payload.
//
// Data holds one of the payload types declared in nodes.go, matched to
// Variant by convention (e.g. Variant == Id implies Data.(*IdData)). The
// dispatcher in lang/compiler relies on this pairing and never sees a
// mismatched payload for a well-formed tree built through Builder.
type Node struct {
	Variant Variant
	Span    AstIndex
	Data    any
}

// Ast is the read-only tree the compiler consumes, plus the span table and
// constant pool it was built against.
type Ast struct {
	nodes   []Node
	spans   []span.Span
	consts  *ConstantPool
	entry   AstIndex
	hasEntr bool
}

// EntryPoint returns the index of the top-level MainBlock node, if set.
func (a *Ast) EntryPoint() (AstIndex, bool) { return a.entry, a.hasEntr }

// Node returns the node at i. It panics if i is out of range, matching the
// "read-only, trusted input" contract: a malformed index is an internal
// invariant violation, not a user-facing compile error.
func (a *Ast) Node(i AstIndex) *Node { return &a.nodes[i] }

// Span returns the source span recorded at span index i.
func (a *Ast) Span(i AstIndex) span.Span {
	if !i.Valid() {
		return span.Zero
	}
	return a.spans[i]
}

// Constants returns the constant pool backing this tree.
func (a *Ast) Constants() *ConstantPool { return a.consts }

// Len returns the number of nodes in the pool.
func (a *Ast) Len() int { return len(a.nodes) }
