package compiler_test

import (
	"testing"

	"github.com/loomlang/loom/lang/ast"
	"github.com/loomlang/loom/lang/compiler"
	"github.com/stretchr/testify/require"
)

func TestCompileSelfCapturingAssignDefersCapture(t *testing.T) {
	b := ast.NewBuilder()
	fCidx := b.Constants().InternString("f")
	fnBody := b.BlockNode(b.IdNode("f"))
	fn := b.Add(ast.Function, b.Span(ast.Zero), &ast.FunctionData{
		LocalCount:        1,
		AccessedNonLocals: []ast.ConstantIndex{fCidx},
		Body:              fnBody,
		OutputType:        ast.NoIndex,
	})
	assign := b.AssignNode(b.IdNode("f"), fn)
	body := b.BlockNode(assign)
	main := b.MainBlockNode(body, 1)

	bytecode, debug := mustCompile(t, main, b)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.Contains(t, text, "Capture")
}

func TestCompileMultiAssignUnpacksByPosition(t *testing.T) {
	b := ast.NewBuilder()
	expr := b.IdNode("pair")
	ma := b.Add(ast.MultiAssign, b.Span(ast.Zero), &ast.MultiAssignData{
		Targets:    []ast.AstIndex{b.IdNode("a"), b.IdNode("b")},
		Expression: expr,
	})
	body := b.BlockNode(ma)
	main := b.MainBlockNode(body, 3)

	bytecode, debug := mustCompile(t, main, b)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.Contains(t, text, "TempIndex")
}

func TestCompileMultiAssignTooManyTargetsRejected(t *testing.T) {
	b := ast.NewBuilder()
	var targets []ast.AstIndex
	for i := 0; i < 256; i++ {
		targets = append(targets, b.IdNode(string(rune('a'+i%26))+string(rune(i))))
	}
	ma := b.Add(ast.MultiAssign, b.Span(ast.Zero), &ast.MultiAssignData{
		Targets:    targets,
		Expression: b.IdNode("xs"),
	})
	body := b.BlockNode(ma)
	main := b.MainBlockNode(body, len(targets)+1)
	tree := b.Build(main)

	_, _, err := compiler.Compile(tree, compiler.DefaultSettings())
	require.Error(t, err)
}

func TestCompileAssignToWildcardDiscardsValue(t *testing.T) {
	b := ast.NewBuilder()
	assign := b.AssignNode(b.WildcardNode(""), b.SmallIntNode(1))
	body := b.BlockNode(assign)
	main := b.MainBlockNode(body, 0)

	bytecode, debug := mustCompile(t, main, b)
	_, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
}

func TestCompileTypedIdAssignEmitsAssertType(t *testing.T) {
	b := ast.NewBuilder()
	numCidx := b.Constants().InternString("Number")
	typeNode := b.Add(ast.Type, b.Span(ast.Zero), &ast.TypeData{Cidx: numCidx})
	target := b.Add(ast.Id, b.Span(ast.Zero), &ast.IdData{Cidx: b.Constants().InternString("x"), Type: typeNode})
	assign := b.AssignNode(target, b.SmallIntNode(1))
	body := b.BlockNode(assign)
	main := b.MainBlockNode(body, 1)

	bytecode, debug := mustCompile(t, main, b)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.Contains(t, text, "AssertType")
}

func TestCompileTypedWildcardAssignEmitsAssertType(t *testing.T) {
	b := ast.NewBuilder()
	numCidx := b.Constants().InternString("Number")
	typeNode := b.Add(ast.Type, b.Span(ast.Zero), &ast.TypeData{Cidx: numCidx})
	target := b.Add(ast.Wildcard, b.Span(ast.Zero), &ast.WildcardData{Name: ast.NoConstant, Type: typeNode})
	assign := b.AssignNode(target, b.SmallIntNode(1))
	body := b.BlockNode(assign)
	main := b.MainBlockNode(body, 0)

	bytecode, debug := mustCompile(t, main, b)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.Contains(t, text, "AssertType")
}

func TestCompileTypedWildcardAssignSkipsCheckWhenDisabled(t *testing.T) {
	b := ast.NewBuilder()
	numCidx := b.Constants().InternString("Number")
	typeNode := b.Add(ast.Type, b.Span(ast.Zero), &ast.TypeData{Cidx: numCidx})
	target := b.Add(ast.Wildcard, b.Span(ast.Zero), &ast.WildcardData{Name: ast.NoConstant, Type: typeNode})
	assign := b.AssignNode(target, b.SmallIntNode(1))
	body := b.BlockNode(assign)
	main := b.MainBlockNode(body, 0)
	tree := b.Build(main)

	bytecode, debug, err := compiler.Compile(tree, compiler.Settings{EnableTypeChecks: false})
	require.NoError(t, err)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.NotContains(t, text, "AssertType")
}
