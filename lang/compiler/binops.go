package compiler

import "github.com/loomlang/loom/lang/ast"

func (c *Compiler) compileUnary(data *ast.UnaryOpData, rr ResultRegister) (CompileNodeOutput, error) {
	if rr.Kind == RRNone {
		out, err := c.compileNode(data.Value, NoResult())
		if err != nil {
			return CompileNodeOutput{}, err
		}
		if err := c.popIfTemp(out); err != nil {
			return CompileNodeOutput{}, err
		}
		return noOutput(), nil
	}
	valReg, err := c.compileToTemp(data.Value)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	dst, temp, err := c.deliverComputed(rr)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	op := Negate
	if data.Op == ast.UnaryNot {
		op = Not
	}
	c.emitOp(op)
	c.emitReg(dst)
	c.emitReg(valReg)
	if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
		return CompileNodeOutput{}, err
	}
	return regOutput(dst, temp), nil
}

var arithOpcodes = map[ast.BinaryOpKind]Opcode{
	ast.BinAdd:       Add,
	ast.BinSubtract:  Subtract,
	ast.BinMultiply:  Multiply,
	ast.BinDivide:    Divide,
	ast.BinRemainder: Remainder,
}

var compareOpcodes = map[ast.BinaryOpKind]Opcode{
	ast.BinLess:           Less,
	ast.BinLessOrEqual:    LessOrEqual,
	ast.BinGreater:        Greater,
	ast.BinGreaterOrEqual: GreaterOrEqual,
	ast.BinEqual:          Equal,
	ast.BinNotEqual:       NotEqual,
}

var compoundOpcodes = map[ast.BinaryOpKind]Opcode{
	ast.BinAddAssign:       AddAssign,
	ast.BinSubtractAssign:  SubtractAssign,
	ast.BinMultiplyAssign:  MultiplyAssign,
	ast.BinDivideAssign:    DivideAssign,
	ast.BinRemainderAssign: RemainderAssign,
}

func (c *Compiler) compileArithmetic(data *ast.BinaryOpData, rr ResultRegister) (CompileNodeOutput, error) {
	op, ok := arithOpcodes[data.Op]
	if !ok {
		return CompileNodeOutput{}, newErr(ErrInvalidBinaryOp, c.currentSpan(), "not an arithmetic op: %d", data.Op)
	}
	lhsReg, err := c.compileToTemp(data.Lhs)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	rhsReg, err := c.compileToTemp(data.Rhs)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	dst, temp, err := c.deliverComputed(rr)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	c.emitOp(op)
	c.emitReg(dst)
	c.emitReg(lhsReg)
	c.emitReg(rhsReg)
	if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
		return CompileNodeOutput{}, err
	}
	if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
		return CompileNodeOutput{}, err
	}
	return regOutput(dst, temp), nil
}

// compileCompoundAssign implements "+=" and friends: the lhs is either a
// plain local Id (rewritten in place) or a Chain (delegated to the chain
// walker's compound-assign mode), per §4.4/§4.5.
func (c *Compiler) compileCompoundAssign(data *ast.BinaryOpData, rr ResultRegister) (CompileNodeOutput, error) {
	rhsReg, err := c.compileToTemp(data.Rhs)
	if err != nil {
		return CompileNodeOutput{}, err
	}

	lhsNode := c.ast.Node(data.Lhs)
	if lhsNode.Variant == ast.Chain {
		out, err := c.compileChainCompoundAssign(data.Lhs, rhsReg, data.Op, rr)
		if err != nil {
			return CompileNodeOutput{}, err
		}
		if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
			return CompileNodeOutput{}, err
		}
		return out, nil
	}

	idData, ok := lhsNode.Data.(*ast.IdData)
	if !ok {
		return CompileNodeOutput{}, newErr(ErrInvalidBinaryOp, c.currentSpan(), "compound assignment target must be an id or chain, got %s", lhsNode.Variant)
	}
	lhsReg, ok := c.frame().GetLocalAssigned(idData.Cidx)
	if !ok {
		return CompileNodeOutput{}, newErr(ErrInvalidBinaryOp, c.currentSpan(), "compound assignment to an unassigned non-local id")
	}
	op, ok := compoundOpcodes[data.Op]
	if !ok {
		return CompileNodeOutput{}, newErr(ErrInvalidBinaryOp, c.currentSpan(), "not a compound-assign op: %d", data.Op)
	}

	c.emitOp(op)
	c.emitReg(lhsReg)
	c.emitReg(rhsReg)
	if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
		return CompileNodeOutput{}, err
	}

	if len(c.frames) == 1 && c.settings.ExportTopLevelIds {
		c.emitOp(ValueExport)
		c.emitReg(lhsReg)
		c.emitVarU32(uint32(idData.Cidx))
	}

	if rr.Kind == RRNone {
		return noOutput(), nil
	}
	dst, temp, err := c.deliverComputed(rr)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	c.copyIfNeeded(dst, lhsReg)
	return regOutput(dst, temp), nil
}

// compileComparisonChain implements the right-associated chained
// comparison algorithm of §4.4: "a < b <= c" shares the evaluation of b
// between the two comparisons and short-circuits like a conjunction.
func (c *Compiler) compileComparisonChain(root *ast.BinaryOpData, rr ResultRegister) (CompileNodeOutput, error) {
	operands := []ast.AstIndex{root.Lhs}
	var ops []Opcode

	cur := root
	for {
		op, ok := compareOpcodes[cur.Op]
		if !ok {
			return CompileNodeOutput{}, newErr(ErrInvalidBinaryOp, c.currentSpan(), "not a comparison op: %d", cur.Op)
		}
		ops = append(ops, op)

		rhsNode := c.ast.Node(cur.Rhs)
		if rhsData, ok := rhsNode.Data.(*ast.BinaryOpData); ok && rhsData.Op.IsComparison() {
			operands = append(operands, rhsData.Lhs)
			cur = rhsData
			continue
		}
		operands = append(operands, cur.Rhs)
		break
	}

	if rr.Kind == RRNone {
		for _, o := range operands {
			out, err := c.compileNode(o, NoResult())
			if err != nil {
				return CompileNodeOutput{}, err
			}
			if err := c.popIfTemp(out); err != nil {
				return CompileNodeOutput{}, err
			}
		}
		return noOutput(), nil
	}

	cmpReg, err := c.frame().PushRegister(c.currentSpan())
	if err != nil {
		return CompileNodeOutput{}, err
	}
	lhsReg, err := c.compileToTemp(operands[0])
	if err != nil {
		return CompileNodeOutput{}, err
	}

	var placeholders []uint32
	for i, op := range ops {
		rhsReg, err := c.compileToTemp(operands[i+1])
		if err != nil {
			return CompileNodeOutput{}, err
		}
		c.emitOp(op)
		c.emitReg(cmpReg)
		c.emitReg(lhsReg)
		c.emitReg(rhsReg)
		if i < len(ops)-1 {
			c.emitOp(JumpIfFalse)
			c.emitReg(cmpReg)
			ph := c.emitOff16Placeholder()
			placeholders = append(placeholders, ph)
			c.copyIfNeeded(lhsReg, rhsReg)
		}
		if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
			return CompileNodeOutput{}, err
		}
	}
	if _, err := c.frame().PopRegister(c.currentSpan()); err != nil { // lhsReg
		return CompileNodeOutput{}, err
	}

	target := uint32(len(c.bytes))
	for _, ph := range placeholders {
		if err := c.patchForwardJump(ph, target); err != nil {
			return CompileNodeOutput{}, err
		}
	}

	if rr.Kind == RRFixed {
		c.copyIfNeeded(rr.Fixed, cmpReg)
		if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
			return CompileNodeOutput{}, err
		}
		return regOutput(rr.Fixed, false), nil
	}
	return regOutput(cmpReg, true), nil
}

// compileLogic implements short-circuit "and"/"or".
func (c *Compiler) compileLogic(data *ast.BinaryOpData, rr ResultRegister) (CompileNodeOutput, error) {
	dst, temp, err := c.deliverComputed(rr)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	if _, err := c.compileNode(data.Lhs, FixedResult(dst)); err != nil {
		return CompileNodeOutput{}, err
	}
	jumpOp := JumpIfFalse
	if data.Op == ast.BinOr {
		jumpOp = JumpIfTrue
	}
	c.emitOp(jumpOp)
	c.emitReg(dst)
	ph := c.emitOff16Placeholder()
	if _, err := c.compileNode(data.Rhs, FixedResult(dst)); err != nil {
		return CompileNodeOutput{}, err
	}
	if err := c.patchForwardJump(ph, uint32(len(c.bytes))); err != nil {
		return CompileNodeOutput{}, err
	}
	return regOutput(dst, temp), nil
}

// compilePipe implements "lhs >> rhs": rhs is invoked with lhs's value as
// its sole (or final, for a paren-free trailing call) argument.
func (c *Compiler) compilePipe(data *ast.BinaryOpData, rr ResultRegister) (CompileNodeOutput, error) {
	pReg, err := c.compileToTemp(data.Lhs)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	rhsNode := c.ast.Node(data.Rhs)
	switch rhsNode.Variant {
	case ast.Id:
		idData := rhsNode.Data.(*ast.IdData)
		fnReg, err := c.compileToTemp(data.Rhs)
		if err != nil {
			return CompileNodeOutput{}, err
		}
		_ = idData
		out, err := c.emitCallWithArgs(fnReg, SentinelRegister, []Register{pReg}, rr)
		if err != nil {
			return CompileNodeOutput{}, err
		}
		if _, err := c.frame().PopRegister(c.currentSpan()); err != nil { // fnReg
			return CompileNodeOutput{}, err
		}
		if _, err := c.frame().PopRegister(c.currentSpan()); err != nil { // pReg
			return CompileNodeOutput{}, err
		}
		return out, nil
	case ast.Chain:
		out, err := c.compileChainRead(data.Rhs, rr, &pReg)
		if err != nil {
			return CompileNodeOutput{}, err
		}
		if _, err := c.frame().PopRegister(c.currentSpan()); err != nil { // pReg
			return CompileNodeOutput{}, err
		}
		return out, nil
	default:
		fnReg, err := c.compileToTemp(data.Rhs)
		if err != nil {
			return CompileNodeOutput{}, err
		}
		out, err := c.emitCallWithArgs(fnReg, SentinelRegister, []Register{pReg}, rr)
		if err != nil {
			return CompileNodeOutput{}, err
		}
		if _, err := c.frame().PopRegister(c.currentSpan()); err != nil { // fnReg
			return CompileNodeOutput{}, err
		}
		if _, err := c.frame().PopRegister(c.currentSpan()); err != nil { // pReg
			return CompileNodeOutput{}, err
		}
		return out, nil
	}
}
