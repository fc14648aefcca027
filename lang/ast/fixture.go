package ast

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// FixtureNode is the YAML-decodable shape of one AST node, used by
// data-driven compiler tests (see lang/compiler/testdata/*.yaml). It
// covers the subset of node variants exercised by table-driven tests;
// anything more exotic is built directly with Builder in Go test code.
//
// Example:
//
//	kind: assign
//	target: {kind: id, name: x}
//	expr:   {kind: binop, op: add, lhs: {kind: int, value: 1}, rhs: {kind: int, value: 2}}
type FixtureNode struct {
	Kind string `yaml:"kind"`

	Name  string `yaml:"name,omitempty"`
	Value int64  `yaml:"value,omitempty"`
	FVal  float64 `yaml:"fvalue,omitempty"`
	Text  string `yaml:"text,omitempty"`
	Op    string `yaml:"op,omitempty"`

	Target *FixtureNode   `yaml:"target,omitempty"`
	Expr   *FixtureNode   `yaml:"expr,omitempty"`
	Lhs    *FixtureNode   `yaml:"lhs,omitempty"`
	Rhs    *FixtureNode   `yaml:"rhs,omitempty"`
	Cond   *FixtureNode   `yaml:"cond,omitempty"`
	Then   *FixtureNode   `yaml:"then,omitempty"`
	Else   *FixtureNode   `yaml:"else,omitempty"`
	Body   []*FixtureNode `yaml:"body,omitempty"`
	Items  []*FixtureNode `yaml:"items,omitempty"`

	LocalCount int `yaml:"localCount,omitempty"`
}

var fixtureBinOps = map[string]BinaryOpKind{
	"add": BinAdd, "sub": BinSubtract, "mul": BinMultiply, "div": BinDivide,
	"rem": BinRemainder, "lt": BinLess, "le": BinLessOrEqual, "gt": BinGreater,
	"ge": BinGreaterOrEqual, "eq": BinEqual, "ne": BinNotEqual,
	"and": BinAnd, "or": BinOr, "pipe": BinPipe,
}

// ParseFixtureYAML decodes a single top-level FixtureNode describing a
// MainBlock body and builds it into an Ast via a fresh Builder.
func ParseFixtureYAML(data []byte) (*Ast, error) {
	var root FixtureNode
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("ast: decode fixture: %w", err)
	}
	b := NewBuilder()
	bodyIdx, err := buildFixtureNode(b, &root)
	if err != nil {
		return nil, err
	}
	block := b.BlockNode(bodyIdx)
	main := b.MainBlockNode(block, root.LocalCount)
	return b.Build(main), nil
}

func buildFixtureNode(b *Builder, n *FixtureNode) (AstIndex, error) {
	switch n.Kind {
	case "null":
		return b.NullNode(), nil
	case "true":
		return b.TrueNode(), nil
	case "false":
		return b.FalseNode(), nil
	case "int":
		if n.Value >= -128 && n.Value <= 127 {
			return b.SmallIntNode(int8(n.Value)), nil
		}
		return b.IntNode(n.Value), nil
	case "float":
		return b.FloatNode(n.FVal), nil
	case "str":
		return b.StrLiteralNode(n.Text), nil
	case "id":
		return b.IdNode(n.Name), nil
	case "wildcard":
		return b.WildcardNode(n.Name), nil
	case "assign":
		target, err := buildFixtureNode(b, n.Target)
		if err != nil {
			return 0, err
		}
		expr, err := buildFixtureNode(b, n.Expr)
		if err != nil {
			return 0, err
		}
		return b.AssignNode(target, expr), nil
	case "binop":
		op, ok := fixtureBinOps[n.Op]
		if !ok {
			return 0, fmt.Errorf("ast: unknown fixture binop %q", n.Op)
		}
		lhs, err := buildFixtureNode(b, n.Lhs)
		if err != nil {
			return 0, err
		}
		rhs, err := buildFixtureNode(b, n.Rhs)
		if err != nil {
			return 0, err
		}
		return b.BinaryOpNode(op, lhs, rhs), nil
	case "block":
		items := make([]AstIndex, 0, len(n.Items))
		for _, it := range n.Items {
			idx, err := buildFixtureNode(b, it)
			if err != nil {
				return 0, err
			}
			items = append(items, idx)
		}
		return b.BlockNode(items...), nil
	case "if":
		cond, err := buildFixtureNode(b, n.Cond)
		if err != nil {
			return 0, err
		}
		then, err := buildFixtureNode(b, n.Then)
		if err != nil {
			return 0, err
		}
		elseIdx := NoIndex
		if n.Else != nil {
			elseIdx, err = buildFixtureNode(b, n.Else)
			if err != nil {
				return 0, err
			}
		}
		arms := []IfArm{{Cond: cond, Body: then}}
		return b.Add(If, b.Span(Zero), &IfData{Arms: arms, Else: elseIdx}), nil
	default:
		return 0, fmt.Errorf("ast: unknown fixture node kind %q", n.Kind)
	}
}
