package ast

// ConstantIndex addresses an entry in a ConstantPool. NoConstant marks an
// absent optional field.
type ConstantIndex uint32

// NoConstant is the sentinel for an absent ConstantIndex field.
const NoConstant ConstantIndex = 1<<32 - 1

// Valid reports whether c refers to a real constant pool entry.
func (c ConstantIndex) Valid() bool { return c != NoConstant }

// SmallIntData backs Variant SmallInt: an integer that fits the compact
// instruction forms (roughly -128..127).
type SmallIntData struct{ Value int8 }

// IntData backs Variant Int: an out-of-range integer, stored in the
// constant pool.
type IntData struct{ Cidx ConstantIndex }

// FloatData backs Variant Float.
type FloatData struct{ Cidx ConstantIndex }

// StrKind distinguishes the three string literal flavours.
type StrKind uint8

const (
	StrLiteral StrKind = iota
	StrRaw
	StrInterpolated
)

// StrSegment is one piece of an interpolated string: either a literal
// chunk (Cidx valid, Expr invalid) or an expression chunk (Expr valid).
type StrSegment struct {
	Cidx  ConstantIndex
	Expr  AstIndex
	Flags StrFormatFlags
}

// StrFormatFlags is the decoded form of the format-spec that may follow an
// interpolated expression segment, e.g. "{x:>8.2}".
type StrFormatFlags struct {
	HasAlignment bool
	Alignment    Alignment
	HasMinWidth  bool
	MinWidth     int
	HasPrecision bool
	Precision    int
	HasFill      bool
	FillCidx     ConstantIndex
}

// Alignment is the 2-bit alignment selector packed into the format flags
// byte alongside the presence bits.
type Alignment uint8

const (
	AlignDefault Alignment = iota
	AlignLeft
	AlignRight
	AlignCenter
)

// StrData backs Variant Str.
type StrData struct {
	Kind     StrKind
	Cidx     ConstantIndex // valid for Literal/Raw
	Segments []StrSegment  // valid for Interpolated
}

// IdData backs Variant Id: an identifier reference or binding target, with
// an optional type annotation.
type IdData struct {
	Cidx ConstantIndex
	Type AstIndex // NoIndex if untyped
}

// ListData/TupleData/TempTupleData back the three sequence literal
// variants; they share a shape but are kept as distinct types so a
// misdirected switch case fails to compile rather than silently
// misinterpreting one container kind as another.
type ListData struct{ Elements []AstIndex }
type TupleData struct{ Elements []AstIndex }
type TempTupleData struct{ Elements []AstIndex }

// MapEntry is one key/value pair of a Map literal. Value is NoIndex for
// the Id-key shorthand ("{x}" meaning "{x: x}"); Meta/MetaName are set for
// meta-key entries ("{@+: fn}", "{@test foo: fn}").
type MapEntry struct {
	Key      AstIndex
	Value    AstIndex
	Meta     bool
	MetaKind MetaKind
	MetaName ConstantIndex // NoConstant unless the meta kind takes a name
}

// MapData backs Variant Map.
type MapData struct{ Entries []MapEntry }

// RangeData backs Variant RangeNode (a bounded a..b / a..=b range).
type RangeData struct {
	Start     AstIndex
	End       AstIndex
	Inclusive bool
}

// RangeFromData backs Variant RangeFrom (a..).
type RangeFromData struct{ Start AstIndex }

// RangeToData backs Variant RangeTo (..b / ..=b).
type RangeToData struct {
	End       AstIndex
	Inclusive bool
}

// NestedData backs Variant Nested: a parenthesised expression, kept as its
// own node so chain roots can distinguish "(f)()" from "f()".
type NestedData struct{ Inner AstIndex }

// MainBlockData backs Variant MainBlock, the single entry point of a
// compilation unit.
type MainBlockData struct {
	Body       AstIndex
	LocalCount int
}

// BlockData backs Variant Block: a sequence of statement/expression nodes
// compiled in order, with the last one's value (if any) as the block's
// value.
type BlockData struct{ Body []AstIndex }

// FunctionData backs Variant Function.
type FunctionData struct {
	Args              []AstIndex // each is an Id, Wildcard, or Tuple pattern node
	LocalCount        int
	AccessedNonLocals []ConstantIndex
	Body              AstIndex
	IsVariadic        bool
	IsGenerator       bool
	OutputType        AstIndex // NoIndex if unannotated
}

// ChainKind identifies the link kind of one step in a Chain.
type ChainKind uint8

const (
	ChainRoot ChainKind = iota
	ChainId
	ChainStr
	ChainIndex
	ChainCall
)

// ChainData backs Variant Chain: one link in the unified access/call chain
// "a.b.c[i]()."key"". Next points at the following Chain node, or NoIndex
// at the end of the chain.
type ChainData struct {
	Kind ChainKind

	Root AstIndex // ChainRoot: the root expression

	Id ConstantIndex // ChainId

	Str AstIndex // ChainStr: expression evaluating to the key string

	Index AstIndex // ChainIndex: expression evaluating to the index

	CallArgs       []AstIndex // ChainCall
	CallWithParens bool       // ChainCall: false for a parenthesis-free call

	Next AstIndex // NoIndex if this is the last link
}

// NamedCallData backs Variant NamedCall: "f x, y" sugar for a call whose
// callee is a bare identifier, kept distinct from Chain for the common
// case that never needs the full chain machinery.
type NamedCallData struct {
	Id   ConstantIndex
	Args []AstIndex
}

// AssignData backs Variant Assign.
type AssignData struct {
	Target     AstIndex // Id, Chain, Meta, or Wildcard
	Expression AstIndex
}

// MultiAssignData backs Variant MultiAssign.
type MultiAssignData struct {
	Targets    []AstIndex
	Expression AstIndex
}

// UnaryOpKind enumerates the unary operators.
type UnaryOpKind uint8

const (
	UnaryNegate UnaryOpKind = iota
	UnaryNot
)

// UnaryOpData backs Variant UnaryOp.
type UnaryOpData struct {
	Op    UnaryOpKind
	Value AstIndex
}

// BinaryOpKind enumerates the binary operators, including the
// compound-assignment and logic/pipe/comparison forms that need
// specialised codegen.
type BinaryOpKind uint8

const (
	BinAdd BinaryOpKind = iota
	BinSubtract
	BinMultiply
	BinDivide
	BinRemainder

	BinAddAssign
	BinSubtractAssign
	BinMultiplyAssign
	BinDivideAssign
	BinRemainderAssign

	BinLess
	BinLessOrEqual
	BinGreater
	BinGreaterOrEqual
	BinEqual
	BinNotEqual

	BinAnd
	BinOr

	BinPipe
)

// IsCompoundAssign reports whether k is one of the "+=" family.
func (k BinaryOpKind) IsCompoundAssign() bool {
	return k >= BinAddAssign && k <= BinRemainderAssign
}

// IsComparison reports whether k is one of the chainable comparison ops.
func (k BinaryOpKind) IsComparison() bool {
	return k >= BinLess && k <= BinNotEqual
}

// BinaryOpData backs Variant BinaryOp.
type BinaryOpData struct {
	Op  BinaryOpKind
	Lhs AstIndex
	Rhs AstIndex
}

// IfArm is one "if"/"else if" arm.
type IfArm struct {
	Cond AstIndex
	Body AstIndex
}

// IfData backs Variant If.
type IfData struct {
	Arms []IfArm
	Else AstIndex // NoIndex if there is no else branch
}

// MatchArm is one arm of a match expression: a list of alternative pattern
// groups ("p1 or p2"), each itself a slice of one sub-pattern per matched
// value (length > 1 only for "match x, y").
type MatchArm struct {
	Alternatives [][]AstIndex
	Guard        AstIndex // NoIndex if no "if" guard
	Body         AstIndex
	IsElse       bool
}

// MatchData backs Variant Match.
type MatchData struct {
	Exprs []AstIndex // length > 1 for "match x, y"
	Arms  []MatchArm
}

// SwitchArm is one arm of a switch expression.
type SwitchArm struct {
	Cond   AstIndex // NoIndex for the else arm
	Body   AstIndex
	IsElse bool
}

// SwitchData backs Variant Switch.
type SwitchData struct{ Arms []SwitchArm }

// ForData backs Variant For. Args are Id or Wildcard nodes.
type ForData struct {
	Args     []AstIndex
	Iterable AstIndex
	Body     AstIndex
}

// WhileData/UntilData back Variant While/Until.
type WhileData struct {
	Cond AstIndex
	Body AstIndex
}
type UntilData struct {
	Cond AstIndex
	Body AstIndex
}

// LoopData backs Variant Loop (unconditional loop, exited only via break).
type LoopData struct{ Body AstIndex }

// BreakData backs Variant Break.
type BreakData struct{ Expr AstIndex } // NoIndex if bare "break"

// ReturnData backs Variant Return.
type ReturnData struct{ Expr AstIndex }

// YieldData backs Variant Yield.
type YieldData struct{ Expr AstIndex }

// ThrowData backs Variant Throw.
type ThrowData struct{ Expr AstIndex }

// TryData backs Variant Try.
type TryData struct {
	TryBody   AstIndex
	CatchArg  AstIndex // Id or Wildcard node
	CatchBody AstIndex
	Finally   AstIndex // NoIndex if there is no finally clause
}

// DebugData backs Variant Debug ("debug expr" diagnostic trace).
type DebugData struct {
	ExprString ConstantIndex
	Expr       AstIndex
}

// ImportItemKind distinguishes bare-identifier import items from
// string-key import items.
type ImportItemKind uint8

const (
	ImportItemId ImportItemKind = iota
	ImportItemStr
)

// ImportItem is one imported name, with an optional "as" rename.
type ImportItem struct {
	Kind ImportItemKind
	Cidx ConstantIndex
	As   ConstantIndex // NoConstant if not renamed
}

// ImportData backs Variant Import. From holds the chain steps of a
// "from x.y import ..." path; it is empty for a bare "import a, b".
type ImportData struct {
	From  []AstIndex // Id or Str nodes
	Items []ImportItem
}

// ExportData backs Variant Export.
type ExportData struct{ Expr AstIndex } // must resolve to Assign, MultiAssign, or Map

// MetaKind enumerates the distinguished map/export meta keys.
type MetaKind uint8

const (
	MetaAdd MetaKind = iota
	MetaSubtract
	MetaMultiply
	MetaDivide
	MetaRemainder
	MetaLess
	MetaLessOrEqual
	MetaGreater
	MetaGreaterOrEqual
	MetaEqual
	MetaNotEqual
	MetaIndex
	MetaNamedTest   // "@test name"
	MetaNamedMeta   // "@meta name"
	MetaDisplay
	MetaType
	MetaNamedPlain // any other "@name" form
)

// MetaData backs Variant Meta. Name is valid only for the "Named" kinds.
type MetaData struct {
	Kind MetaKind
	Name ConstantIndex
}

// WildcardData backs Variant Wildcard: "_" or "_name", with an optional
// type annotation, used as a pattern and as a throwaway binding target.
type WildcardData struct {
	Name ConstantIndex // NoConstant for a bare "_"
	Type AstIndex      // NoIndex if unannotated
}

// EllipsisData backs Variant Ellipsis: the rest-binder in a pattern group.
type EllipsisData struct{ Name ConstantIndex } // NoConstant for a bare "..."

// TypeData backs Variant Type: a type name reference used in annotations
// and AssertType/CheckType emission.
type TypeData struct{ Cidx ConstantIndex }
