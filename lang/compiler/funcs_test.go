package compiler_test

import (
	"testing"

	"github.com/loomlang/loom/lang/ast"
	"github.com/loomlang/loom/lang/compiler"
	"github.com/stretchr/testify/require"
)

func TestCompileSimpleFunction(t *testing.T) {
	b := ast.NewBuilder()
	fnBody := b.BlockNode(b.SmallIntNode(3))
	fn := b.Add(ast.Function, b.Span(ast.Zero), &ast.FunctionData{
		Args:       []ast.AstIndex{b.IdNode("x")},
		LocalCount: 2,
		Body:       fnBody,
		OutputType: ast.NoIndex,
	})
	x := b.IdNode("f")
	assign := b.AssignNode(x, fn)
	body := b.BlockNode(assign)
	main := b.MainBlockNode(body, 1)

	bytecode, debug := mustCompile(t, main, b)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.Contains(t, text, "Function")
	require.Contains(t, text, "skip->")
}

func TestCompileTypedArgEmitsAssertType(t *testing.T) {
	b := ast.NewBuilder()
	numCidx := b.Constants().InternString("Number")
	typeNode := b.Add(ast.Type, b.Span(ast.Zero), &ast.TypeData{Cidx: numCidx})
	arg := b.Add(ast.Id, b.Span(ast.Zero), &ast.IdData{Cidx: b.Constants().InternString("x"), Type: typeNode})
	fnBody := b.BlockNode(b.SmallIntNode(3))
	fn := b.Add(ast.Function, b.Span(ast.Zero), &ast.FunctionData{
		Args:       []ast.AstIndex{arg},
		LocalCount: 2,
		Body:       fnBody,
		OutputType: ast.NoIndex,
	})
	assign := b.AssignNode(b.IdNode("f"), fn)
	body := b.BlockNode(assign)
	main := b.MainBlockNode(body, 1)

	bytecode, debug := mustCompile(t, main, b)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.Contains(t, text, "AssertType")
}

func TestCompileFunctionWithCapture(t *testing.T) {
	b := ast.NewBuilder()
	outerAssign := b.AssignNode(b.IdNode("n"), b.SmallIntNode(1))

	fnBody := b.BlockNode(b.IdNode("n"))
	fn := b.Add(ast.Function, b.Span(ast.Zero), &ast.FunctionData{
		LocalCount:        1,
		AccessedNonLocals: []ast.ConstantIndex{b.Constants().InternString("n")},
		Body:              fnBody,
		OutputType:        ast.NoIndex,
	})
	fnAssign := b.AssignNode(b.IdNode("f"), fn)
	body := b.BlockNode(outerAssign, fnAssign)
	main := b.MainBlockNode(body, 2)

	bytecode, debug := mustCompile(t, main, b)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.Contains(t, text, "Capture")
}

func TestCompileGeneratorFunctionAllowsYield(t *testing.T) {
	b := ast.NewBuilder()
	yield := b.Add(ast.Yield, b.Span(ast.Zero), &ast.YieldData{Expr: b.SmallIntNode(1)})
	fnBody := b.BlockNode(yield)
	fn := b.Add(ast.Function, b.Span(ast.Zero), &ast.FunctionData{
		LocalCount:  0,
		Body:        fnBody,
		IsGenerator: true,
		OutputType:  ast.NoIndex,
	})
	assign := b.AssignNode(b.IdNode("g"), fn)
	body := b.BlockNode(assign)
	main := b.MainBlockNode(body, 1)

	bytecode, debug := mustCompile(t, main, b)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.Contains(t, text, "Yield")
}

func TestCompileYieldOutsideGeneratorErrors(t *testing.T) {
	b := ast.NewBuilder()
	yield := b.Add(ast.Yield, b.Span(ast.Zero), &ast.YieldData{Expr: b.SmallIntNode(1)})
	body := b.BlockNode(yield)
	main := b.MainBlockNode(body, 0)
	tree := b.Build(main)

	_, _, err := compiler.Compile(tree, compiler.DefaultSettings())
	require.Error(t, err)
}

func TestCompileTooManyCapturesRejected(t *testing.T) {
	b := ast.NewBuilder()
	var names []ast.ConstantIndex
	var entries []ast.MapEntry
	for i := 0; i < 256; i++ {
		name := "v" + string(rune('A'+i%26)) + string(rune(i))
		names = append(names, b.Constants().InternString(name))
		// Exported map entries bind names without taking local registers,
		// so the capture limit is hit before the register limit.
		entries = append(entries, ast.MapEntry{Key: b.IdNode(name), Value: b.SmallIntNode(0)})
	}
	exportMap := b.Add(ast.Map, b.Span(ast.Zero), &ast.MapData{Entries: entries})
	decls := []ast.AstIndex{b.Add(ast.Export, b.Span(ast.Zero), &ast.ExportData{Expr: exportMap})}
	fnBody := b.BlockNode(b.NullNode())
	fn := b.Add(ast.Function, b.Span(ast.Zero), &ast.FunctionData{
		LocalCount:        0,
		AccessedNonLocals: names,
		Body:              fnBody,
		OutputType:        ast.NoIndex,
	})
	decls = append(decls, b.AssignNode(b.IdNode("f"), fn))
	body := b.BlockNode(decls...)
	main := b.MainBlockNode(body, 1)
	tree := b.Build(main)

	_, _, err := compiler.Compile(tree, compiler.DefaultSettings())
	require.Error(t, err)
}
