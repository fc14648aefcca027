package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loomlang/loom/lang/ast"
	"github.com/loomlang/loom/lang/compiler"
)

func TestCompileListLiteral(t *testing.T) {
	b := ast.NewBuilder()
	elems := []ast.AstIndex{b.SmallIntNode(1), b.SmallIntNode(2), b.SmallIntNode(3)}
	list := b.Add(ast.List, b.Span(ast.Zero), &ast.ListData{Elements: elems})
	block := b.BlockNode(list)
	main := b.MainBlockNode(block, 0)
	tree := b.Build(main)

	bytecode, debug, err := compiler.Compile(tree, compiler.DefaultSettings())
	require.NoError(t, err)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.Contains(t, text, "SequenceStart")
	require.Contains(t, text, "SequencePush")
	require.Contains(t, text, "SequenceToList")
}

func TestCompileTupleLiteralUnderNoResultStillEvaluatesElements(t *testing.T) {
	b := ast.NewBuilder()
	elems := []ast.AstIndex{b.SmallIntNode(1), b.SmallIntNode(2)}
	tuple := b.Add(ast.Tuple, b.Span(ast.Zero), &ast.TupleData{Elements: elems})
	other := b.SmallIntNode(0)
	block := b.BlockNode(tuple, other)
	main := b.MainBlockNode(block, 0)
	tree := b.Build(main)

	bytecode, debug, err := compiler.Compile(tree, compiler.DefaultSettings())
	require.NoError(t, err)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.NotContains(t, text, "SequenceToTuple")
}

func TestCompileMapShorthandEntryLoadsIdAsKey(t *testing.T) {
	b := ast.NewBuilder()
	x := b.IdNode("x")
	entries := []ast.MapEntry{{Key: x, Value: ast.NoIndex}}
	m := b.Add(ast.Map, b.Span(ast.Zero), &ast.MapData{Entries: entries})
	block := b.BlockNode(
		b.AssignNode(b.IdNode("x"), b.SmallIntNode(1)),
		m,
	)
	main := b.MainBlockNode(block, 1)
	tree := b.Build(main)

	bytecode, debug, err := compiler.Compile(tree, compiler.DefaultSettings())
	require.NoError(t, err)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.Contains(t, text, "MakeMap")
	require.Contains(t, text, "LoadString")
	require.Contains(t, text, "MapInsert")
}

func TestCompileMapExplicitEntry(t *testing.T) {
	b := ast.NewBuilder()
	key := b.IdNode("name")
	val := b.SmallIntNode(5)
	entries := []ast.MapEntry{{Key: key, Value: val}}
	m := b.Add(ast.Map, b.Span(ast.Zero), &ast.MapData{Entries: entries})
	block := b.BlockNode(m)
	main := b.MainBlockNode(block, 0)
	tree := b.Build(main)

	bytecode, debug, err := compiler.Compile(tree, compiler.DefaultSettings())
	require.NoError(t, err)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.Contains(t, text, "MakeMap")
	require.Contains(t, text, "MapInsert")
}

func TestCompileMapMetaEntry(t *testing.T) {
	b := ast.NewBuilder()
	val := b.SmallIntNode(1)
	entries := []ast.MapEntry{{Value: val, Meta: true, MetaKind: ast.MetaAdd}}
	m := b.Add(ast.Map, b.Span(ast.Zero), &ast.MapData{Entries: entries})
	block := b.BlockNode(m)
	main := b.MainBlockNode(block, 0)
	tree := b.Build(main)

	bytecode, debug, err := compiler.Compile(tree, compiler.DefaultSettings())
	require.NoError(t, err)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.Contains(t, text, "MetaInsert")
}

func TestCompileBoundedRange(t *testing.T) {
	b := ast.NewBuilder()
	r := b.Add(ast.RangeNode, b.Span(ast.Zero), &ast.RangeData{
		Start: b.SmallIntNode(0), End: b.SmallIntNode(10), Inclusive: false,
	})
	block := b.BlockNode(r)
	main := b.MainBlockNode(block, 0)
	tree := b.Build(main)

	bytecode, debug, err := compiler.Compile(tree, compiler.DefaultSettings())
	require.NoError(t, err)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.Contains(t, text, "Range ")
	require.NotContains(t, text, "RangeInclusive")
}

func TestCompileInclusiveRange(t *testing.T) {
	b := ast.NewBuilder()
	r := b.Add(ast.RangeNode, b.Span(ast.Zero), &ast.RangeData{
		Start: b.SmallIntNode(0), End: b.SmallIntNode(10), Inclusive: true,
	})
	block := b.BlockNode(r)
	main := b.MainBlockNode(block, 0)
	tree := b.Build(main)

	bytecode, debug, err := compiler.Compile(tree, compiler.DefaultSettings())
	require.NoError(t, err)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.Contains(t, text, "RangeInclusive")
}

func TestCompileRangeFromAndTo(t *testing.T) {
	b := ast.NewBuilder()
	from := b.Add(ast.RangeFrom, b.Span(ast.Zero), &ast.RangeFromData{Start: b.SmallIntNode(0)})
	to := b.Add(ast.RangeTo, b.Span(ast.Zero), &ast.RangeToData{End: b.SmallIntNode(10), Inclusive: true})
	block := b.BlockNode(from, to)
	main := b.MainBlockNode(block, 0)
	tree := b.Build(main)

	bytecode, debug, err := compiler.Compile(tree, compiler.DefaultSettings())
	require.NoError(t, err)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.Contains(t, text, "RangeFrom")
	require.Contains(t, text, "RangeToInclusive")
}

func TestCompileRangeFull(t *testing.T) {
	b := ast.NewBuilder()
	full := b.Add(ast.RangeFull, b.Span(ast.Zero), nil)
	block := b.BlockNode(full)
	main := b.MainBlockNode(block, 0)
	tree := b.Build(main)

	bytecode, debug, err := compiler.Compile(tree, compiler.DefaultSettings())
	require.NoError(t, err)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.Contains(t, text, "RangeFull")
}

func TestCompileTempTupleRejectsEmpty(t *testing.T) {
	b := ast.NewBuilder()
	tt := b.Add(ast.TempTuple, b.Span(ast.Zero), &ast.TempTupleData{Elements: nil})
	block := b.BlockNode(tt)
	main := b.MainBlockNode(block, 0)
	tree := b.Build(main)

	_, _, err := compiler.Compile(tree, compiler.DefaultSettings())
	require.Error(t, err)
}
