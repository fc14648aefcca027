package compiler_test

import (
	"testing"

	"github.com/loomlang/loom/lang/ast"
	"github.com/loomlang/loom/lang/compiler"
	"github.com/stretchr/testify/require"
)

func TestCompileSwitchReshapesToIf(t *testing.T) {
	b := ast.NewBuilder()
	sw := b.Add(ast.Switch, b.Span(ast.Zero), &ast.SwitchData{
		Arms: []ast.SwitchArm{
			{Cond: b.TrueNode(), Body: b.SmallIntNode(1)},
			{Body: b.SmallIntNode(2), IsElse: true},
		},
	})
	body := b.BlockNode(sw)
	main := b.MainBlockNode(body, 0)

	bytecode, debug := mustCompile(t, main, b)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.Contains(t, text, "JumpIfFalse")
}

func TestCompileMatchWildcardElse(t *testing.T) {
	b := ast.NewBuilder()
	val := b.SmallIntNode(5)
	md := &ast.MatchData{
		Exprs: []ast.AstIndex{val},
		Arms: []ast.MatchArm{
			{
				Alternatives: [][]ast.AstIndex{{b.WildcardNode("")}},
				Guard:        ast.NoIndex,
				Body:         b.SmallIntNode(1),
			},
		},
	}
	match := b.Add(ast.Match, b.Span(ast.Zero), md)
	body := b.BlockNode(match)
	main := b.MainBlockNode(body, 0)

	bytecode, debug := mustCompile(t, main, b)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.Contains(t, text, "SetNull")
}

func TestCompileMatchIdBindingCopiesValue(t *testing.T) {
	b := ast.NewBuilder()
	val := b.SmallIntNode(5)
	bound := b.IdNode("n")
	md := &ast.MatchData{
		Exprs: []ast.AstIndex{val},
		Arms: []ast.MatchArm{
			{
				Alternatives: [][]ast.AstIndex{{bound}},
				Guard:        ast.NoIndex,
				Body:         b.IdNode("n"),
			},
		},
	}
	match := b.Add(ast.Match, b.Span(ast.Zero), md)
	body := b.BlockNode(match)
	main := b.MainBlockNode(body, 1)

	bytecode, debug := mustCompile(t, main, b)
	_, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
}

func TestCompileMatchTypedWildcardEmitsCheckType(t *testing.T) {
	b := ast.NewBuilder()
	val := b.SmallIntNode(5)
	numCidx := b.Constants().InternString("Number")
	typeNode := b.Add(ast.Type, b.Span(ast.Zero), &ast.TypeData{Cidx: numCidx})
	pat := b.Add(ast.Wildcard, b.Span(ast.Zero), &ast.WildcardData{Name: ast.NoConstant, Type: typeNode})
	md := &ast.MatchData{
		Exprs: []ast.AstIndex{val},
		Arms: []ast.MatchArm{
			{Alternatives: [][]ast.AstIndex{{pat}}, Guard: ast.NoIndex, Body: b.NullNode()},
		},
	}
	match := b.Add(ast.Match, b.Span(ast.Zero), md)
	body := b.BlockNode(match)
	main := b.MainBlockNode(body, 0)

	bytecode, debug := mustCompile(t, main, b)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.Contains(t, text, "CheckType")
}

func TestCompileMatchDuplicateEllipsisRejected(t *testing.T) {
	b := ast.NewBuilder()
	val := b.SmallIntNode(5)
	tuple := b.Add(ast.Tuple, b.Span(ast.Zero), &ast.TupleData{Elements: []ast.AstIndex{
		b.Add(ast.Ellipsis, b.Span(ast.Zero), &ast.EllipsisData{Name: ast.NoConstant}),
		b.Add(ast.Ellipsis, b.Span(ast.Zero), &ast.EllipsisData{Name: ast.NoConstant}),
	}})
	md := &ast.MatchData{
		Exprs: []ast.AstIndex{val},
		Arms: []ast.MatchArm{
			{Alternatives: [][]ast.AstIndex{{tuple}}, Guard: ast.NoIndex, Body: b.NullNode()},
		},
	}
	match := b.Add(ast.Match, b.Span(ast.Zero), md)
	body := b.BlockNode(match)
	main := b.MainBlockNode(body, 0)
	tree := b.Build(main)

	_, _, err := compiler.Compile(tree, compiler.DefaultSettings())
	require.Error(t, err)
}

func TestCompileMatchMiddleEllipsisRejected(t *testing.T) {
	b := ast.NewBuilder()
	val := b.SmallIntNode(5)
	tuple := b.Add(ast.Tuple, b.Span(ast.Zero), &ast.TupleData{Elements: []ast.AstIndex{
		b.WildcardNode(""),
		b.Add(ast.Ellipsis, b.Span(ast.Zero), &ast.EllipsisData{Name: ast.NoConstant}),
		b.WildcardNode(""),
	}})
	md := &ast.MatchData{
		Exprs: []ast.AstIndex{val},
		Arms: []ast.MatchArm{
			{Alternatives: [][]ast.AstIndex{{tuple}}, Guard: ast.NoIndex, Body: b.NullNode()},
		},
	}
	match := b.Add(ast.Match, b.Span(ast.Zero), md)
	body := b.BlockNode(match)
	main := b.MainBlockNode(body, 0)
	tree := b.Build(main)

	_, _, err := compiler.Compile(tree, compiler.DefaultSettings())
	require.Error(t, err)
}

func TestCompileMatchLeadingEllipsisUsesSliceTo(t *testing.T) {
	b := ast.NewBuilder()
	val := b.SmallIntNode(5)
	rest := b.Constants().InternString("rest")
	tuple := b.Add(ast.Tuple, b.Span(ast.Zero), &ast.TupleData{Elements: []ast.AstIndex{
		b.Add(ast.Ellipsis, b.Span(ast.Zero), &ast.EllipsisData{Name: rest}),
		b.WildcardNode(""),
	}})
	md := &ast.MatchData{
		Exprs: []ast.AstIndex{val},
		Arms: []ast.MatchArm{
			{Alternatives: [][]ast.AstIndex{{tuple}}, Guard: ast.NoIndex, Body: b.NullNode()},
		},
	}
	match := b.Add(ast.Match, b.Span(ast.Zero), md)
	body := b.BlockNode(match)
	main := b.MainBlockNode(body, 1)

	bytecode, debug := mustCompile(t, main, b)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.Contains(t, text, "SliceTo")
	require.Contains(t, text, "CheckSizeMin")
}

func TestCompileMatchTrailingEllipsisUsesSliceFrom(t *testing.T) {
	b := ast.NewBuilder()
	val := b.SmallIntNode(5)
	rest := b.Constants().InternString("rest")
	tuple := b.Add(ast.Tuple, b.Span(ast.Zero), &ast.TupleData{Elements: []ast.AstIndex{
		b.WildcardNode(""),
		b.Add(ast.Ellipsis, b.Span(ast.Zero), &ast.EllipsisData{Name: rest}),
	}})
	md := &ast.MatchData{
		Exprs: []ast.AstIndex{val},
		Arms: []ast.MatchArm{
			{Alternatives: [][]ast.AstIndex{{tuple}}, Guard: ast.NoIndex, Body: b.NullNode()},
		},
	}
	match := b.Add(ast.Match, b.Span(ast.Zero), md)
	body := b.BlockNode(match)
	main := b.MainBlockNode(body, 1)

	bytecode, debug := mustCompile(t, main, b)
	text, err := compiler.Disassemble(bytecode, debug)
	require.NoError(t, err)
	require.Contains(t, text, "SliceFrom")
}
