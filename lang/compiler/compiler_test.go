package compiler_test

import (
	"testing"

	"github.com/loomlang/loom/lang/ast"
	"github.com/loomlang/loom/lang/compiler"
	"github.com/stretchr/testify/require"
)

func mustCompile(t *testing.T, entry ast.AstIndex, b *ast.Builder) ([]byte, compiler.DebugInfo) {
	t.Helper()
	tree := b.Build(entry)
	bytes, debug, err := compiler.Compile(tree, compiler.DefaultSettings())
	require.NoError(t, err)
	require.NotEmpty(t, bytes)
	return bytes, debug
}

func TestCompileArithmeticAssignReturn(t *testing.T) {
	b := ast.NewBuilder()
	x := b.IdNode("x")
	sum := b.BinaryOpNode(ast.BinAdd, b.SmallIntNode(1), b.SmallIntNode(2))
	assign := b.AssignNode(x, sum)
	body := b.BlockNode(assign)
	main := b.MainBlockNode(body, 1)

	bytecode, debug := mustCompile(t, main, b)
	require.NotEmpty(t, debug)

	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.Contains(t, text, "Add")
	require.Contains(t, text, "Return")
}

func TestCompileIfElseValue(t *testing.T) {
	b := ast.NewBuilder()
	ifNode := b.Add(ast.If, b.Span(ast.Zero), &ast.IfData{
		Arms: []ast.IfArm{{Cond: b.TrueNode(), Body: b.SmallIntNode(1)}},
		Else: b.SmallIntNode(2),
	})
	body := b.BlockNode(ifNode)
	main := b.MainBlockNode(body, 0)

	bytecode, debug := mustCompile(t, main, b)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.Contains(t, text, "JumpIfFalse")
	require.Contains(t, text, "Jump ")
}

func TestCompileWhileLoopWithBreakValue(t *testing.T) {
	b := ast.NewBuilder()
	cond := b.FalseNode()
	brk := b.Add(ast.Break, b.Span(ast.Zero), &ast.BreakData{Expr: b.SmallIntNode(9)})
	loopBody := b.BlockNode(brk)
	whileNode := b.Add(ast.While, b.Span(ast.Zero), &ast.WhileData{Cond: cond, Body: loopBody})
	body := b.BlockNode(whileNode)
	main := b.MainBlockNode(body, 0)

	bytecode, debug := mustCompile(t, main, b)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.Contains(t, text, "JumpBack")
}

func TestCompileEmptyMainBlockReturnsNull(t *testing.T) {
	b := ast.NewBuilder()
	body := b.BlockNode()
	main := b.MainBlockNode(body, 0)

	bytecode, debug := mustCompile(t, main, b)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.Contains(t, text, "SetNull")
	require.Contains(t, text, "Return")
}

func TestCompileMissingEntryPointErrors(t *testing.T) {
	b := ast.NewBuilder()
	b.SmallIntNode(1)
	tree := b.BuildWithoutEntry()
	_, _, err := compiler.Compile(tree, compiler.DefaultSettings())
	require.Error(t, err)
}

func TestCompileBreakOutsideLoopErrors(t *testing.T) {
	b := ast.NewBuilder()
	brk := b.Add(ast.Break, b.Span(ast.Zero), &ast.BreakData{Expr: ast.NoIndex})
	body := b.BlockNode(brk)
	main := b.MainBlockNode(body, 0)
	tree := b.Build(main)
	_, _, err := compiler.Compile(tree, compiler.DefaultSettings())
	require.Error(t, err)
}

func TestCompileDeterministic(t *testing.T) {
	build := func() (ast.AstIndex, *ast.Builder) {
		b := ast.NewBuilder()
		x := b.IdNode("x")
		y := b.IdNode("y")
		assignX := b.AssignNode(x, b.StrLiteralNode("hello"))
		assignY := b.AssignNode(y, b.StrLiteralNode("world"))
		body := b.BlockNode(assignX, assignY)
		main := b.MainBlockNode(body, 2)
		return main, b
	}

	entry1, b1 := build()
	bytes1, _ := mustCompile(t, entry1, b1)
	entry2, b2 := build()
	bytes2, _ := mustCompile(t, entry2, b2)
	require.Equal(t, bytes1, bytes2, "compiling the same tree twice must be byte-identical")
}
