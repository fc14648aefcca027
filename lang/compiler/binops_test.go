package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loomlang/loom/lang/ast"
	"github.com/loomlang/loom/lang/compiler"
)

func TestCompilePlainArithmetic(t *testing.T) {
	b := ast.NewBuilder()
	mul := b.BinaryOpNode(ast.BinMultiply, b.SmallIntNode(3), b.SmallIntNode(4))
	block := b.BlockNode(mul)
	main := b.MainBlockNode(block, 0)
	tree := b.Build(main)

	bytecode, debug, err := compiler.Compile(tree, compiler.DefaultSettings())
	require.NoError(t, err)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.Contains(t, text, "Multiply")
}

func TestCompileChainedComparisonSharesOperands(t *testing.T) {
	b := ast.NewBuilder()
	// 1 < 2 < 3, a chained comparison reusing the middle operand once.
	inner := b.BinaryOpNode(ast.BinLess, b.SmallIntNode(2), b.SmallIntNode(3))
	outer := b.BinaryOpNode(ast.BinLess, b.SmallIntNode(1), inner)
	block := b.BlockNode(outer)
	main := b.MainBlockNode(block, 0)
	tree := b.Build(main)

	bytecode, debug, err := compiler.Compile(tree, compiler.DefaultSettings())
	require.NoError(t, err)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.Contains(t, text, "Less")
	require.Contains(t, text, "JumpIfFalse")
}

func TestCompileComparisonUnderNoResultEvaluatesOperandsOnly(t *testing.T) {
	b := ast.NewBuilder()
	cmp := b.BinaryOpNode(ast.BinLess, b.SmallIntNode(1), b.SmallIntNode(2))
	other := b.SmallIntNode(0)
	block := b.BlockNode(cmp, other)
	main := b.MainBlockNode(block, 0)
	tree := b.Build(main)

	bytecode, debug, err := compiler.Compile(tree, compiler.DefaultSettings())
	require.NoError(t, err)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.NotContains(t, text, "Less")
}

func TestCompileLogicAndShortCircuits(t *testing.T) {
	b := ast.NewBuilder()
	and := b.BinaryOpNode(ast.BinAnd, b.TrueNode(), b.FalseNode())
	block := b.BlockNode(and)
	main := b.MainBlockNode(block, 0)
	tree := b.Build(main)

	bytecode, debug, err := compiler.Compile(tree, compiler.DefaultSettings())
	require.NoError(t, err)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.Contains(t, text, "JumpIfFalse")
}

func TestCompileLogicOrShortCircuits(t *testing.T) {
	b := ast.NewBuilder()
	or := b.BinaryOpNode(ast.BinOr, b.TrueNode(), b.FalseNode())
	block := b.BlockNode(or)
	main := b.MainBlockNode(block, 0)
	tree := b.Build(main)

	bytecode, debug, err := compiler.Compile(tree, compiler.DefaultSettings())
	require.NoError(t, err)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.Contains(t, text, "JumpIfTrue")
}

func TestCompilePipeToId(t *testing.T) {
	b := ast.NewBuilder()
	fn := b.IdNode("f")
	pipe := b.BinaryOpNode(ast.BinPipe, b.SmallIntNode(1), fn)
	block := b.BlockNode(
		b.AssignNode(b.IdNode("f"), b.SmallIntNode(0)),
		pipe,
	)
	main := b.MainBlockNode(block, 1)
	tree := b.Build(main)

	bytecode, debug, err := compiler.Compile(tree, compiler.DefaultSettings())
	require.NoError(t, err)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.Contains(t, text, "Call ")
}
