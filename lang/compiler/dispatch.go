package compiler

import "github.com/loomlang/loom/lang/ast"

// compileNode is the single recursive entry point every emitter in this
// package is driven through. It pushes the node's span for the duration
// of compiling it (so every instruction emitted while compiling a node,
// however deep, is attributed to that node's source location unless a
// nested node pushes its own narrower span) and dispatches on Variant.
func (c *Compiler) compileNode(idx ast.AstIndex, rr ResultRegister) (CompileNodeOutput, error) {
	if !idx.Valid() {
		return CompileNodeOutput{}, newErr(ErrUnexpectedVariant, c.currentSpan(), "compileNode called with an invalid index")
	}
	node := c.ast.Node(idx)
	c.pushSpan(c.ast.Span(node.Span))
	out, err := c.dispatch(idx, node, rr)
	c.popSpan()
	return out, err
}

func (c *Compiler) dispatch(idx ast.AstIndex, node *ast.Node, rr ResultRegister) (CompileNodeOutput, error) {
	switch node.Variant {
	case ast.Null:
		return c.compileSimpleLiteral(SetNull, rr)
	case ast.BoolTrue:
		return c.compileSimpleLiteral(SetTrue, rr)
	case ast.BoolFalse:
		return c.compileSimpleLiteral(SetFalse, rr)
	case ast.SmallInt:
		return c.compileSmallInt(node.Data.(*ast.SmallIntData), rr)
	case ast.Int:
		return c.compileIntLit(node.Data.(*ast.IntData), rr)
	case ast.Float:
		return c.compileFloatLit(node.Data.(*ast.FloatData), rr)
	case ast.Str:
		return c.compileStr(node.Data.(*ast.StrData), rr)
	case ast.Id:
		return c.compileId(node.Data.(*ast.IdData), rr)
	case ast.SelfNode:
		return c.compileSelf(rr)
	case ast.Nested:
		return c.compileNested(node.Data.(*ast.NestedData), rr)

	case ast.List:
		return c.compileList(node.Data.(*ast.ListData), rr)
	case ast.Tuple:
		return c.compileTuple(node.Data.(*ast.TupleData), rr)
	case ast.TempTuple:
		return c.compileTempTuple(node.Data.(*ast.TempTupleData), rr)
	case ast.Map:
		return c.compileMap(node.Data.(*ast.MapData), rr)
	case ast.RangeNode:
		return c.compileRange(node.Data.(*ast.RangeData), rr)
	case ast.RangeFrom:
		return c.compileRangeFrom(node.Data.(*ast.RangeFromData), rr)
	case ast.RangeTo:
		return c.compileRangeTo(node.Data.(*ast.RangeToData), rr)
	case ast.RangeFull:
		return c.compileRangeFull(rr)

	case ast.Block:
		return c.compileBlock(node.Data.(*ast.BlockData), rr)
	case ast.Function:
		return c.compileFunction(node.Data.(*ast.FunctionData), rr)
	case ast.Chain:
		return c.compileChainRead(idx, rr, nil)
	case ast.NamedCall:
		return c.compileNamedCall(node.Data.(*ast.NamedCallData), rr)

	case ast.Assign:
		return c.compileAssign(node.Data.(*ast.AssignData), rr)
	case ast.MultiAssign:
		return c.compileMultiAssign(node.Data.(*ast.MultiAssignData), rr)

	case ast.UnaryOp:
		return c.compileUnary(node.Data.(*ast.UnaryOpData), rr)
	case ast.BinaryOp:
		return c.compileBinaryOp(node.Data.(*ast.BinaryOpData), rr)

	case ast.If:
		return c.compileIf(node.Data.(*ast.IfData), rr)
	case ast.Match:
		return c.compileMatch(node.Data.(*ast.MatchData), rr)
	case ast.Switch:
		return c.compileSwitch(node.Data.(*ast.SwitchData), rr)

	case ast.For:
		return c.compileFor(node.Data.(*ast.ForData), rr)
	case ast.While:
		return c.compileWhile(node.Data.(*ast.WhileData), rr)
	case ast.Until:
		return c.compileUntil(node.Data.(*ast.UntilData), rr)
	case ast.Loop:
		return c.compileLoop(node.Data.(*ast.LoopData), rr)
	case ast.Break:
		return c.compileBreak(node.Data.(*ast.BreakData))
	case ast.Continue:
		return c.compileContinue()

	case ast.Return:
		return c.compileReturn(node.Data.(*ast.ReturnData))
	case ast.Yield:
		return c.compileYield(node.Data.(*ast.YieldData), rr)
	case ast.Throw:
		return c.compileThrow(node.Data.(*ast.ThrowData))
	case ast.Try:
		return c.compileTry(node.Data.(*ast.TryData), rr)
	case ast.Debug:
		return c.compileDebug(node.Data.(*ast.DebugData), rr)

	case ast.Import:
		return c.compileImport(node.Data.(*ast.ImportData), rr)
	case ast.Export:
		return c.compileExport(node.Data.(*ast.ExportData), rr)

	case ast.Wildcard:
		return c.compileSimpleLiteral(SetNull, rr)

	default:
		return CompileNodeOutput{}, newErr(ErrUnexpectedVariant, c.currentSpan(), "unexpected node variant %s in expression position", node.Variant)
	}
}

func (c *Compiler) compileBlock(data *ast.BlockData, rr ResultRegister) (CompileNodeOutput, error) {
	if len(data.Body) == 0 {
		c.frame().LastNodeWasReturn = false
		if rr.Kind == RRNone {
			return noOutput(), nil
		}
		return c.compileSimpleLiteral(SetNull, rr)
	}
	for _, stmt := range data.Body[:len(data.Body)-1] {
		out, err := c.compileNode(stmt, NoResult())
		if err != nil {
			return CompileNodeOutput{}, err
		}
		if err := c.popIfTemp(out); err != nil {
			return CompileNodeOutput{}, err
		}
	}
	last := data.Body[len(data.Body)-1]
	out, err := c.compileNode(last, rr)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	c.frame().LastNodeWasReturn = c.ast.Node(last).Variant == ast.Return
	return out, nil
}

func (c *Compiler) compileNamedCall(data *ast.NamedCallData, rr ResultRegister) (CompileNodeOutput, error) {
	fnReg, err := c.frame().PushRegister(c.currentSpan())
	if err != nil {
		return CompileNodeOutput{}, err
	}
	if local, ok := c.frame().GetLocalAssigned(data.Id); ok {
		c.copyIfNeeded(fnReg, local)
	} else {
		c.emitOp(LoadNonLocal)
		c.emitReg(fnReg)
		c.emitVarU32(uint32(data.Id))
	}
	args := make([]Register, 0, len(data.Args))
	for _, a := range data.Args {
		r, err := c.compileToTemp(a)
		if err != nil {
			return CompileNodeOutput{}, err
		}
		args = append(args, r)
	}
	out, err := c.emitCallWithArgs(fnReg, SentinelRegister, args, rr)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	for i := len(args) - 1; i >= 0; i-- {
		if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
			return CompileNodeOutput{}, err
		}
	}
	if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
		return CompileNodeOutput{}, err
	}
	return out, nil
}

func (c *Compiler) compileBinaryOp(data *ast.BinaryOpData, rr ResultRegister) (CompileNodeOutput, error) {
	switch {
	case data.Op.IsCompoundAssign():
		return c.compileCompoundAssign(data, rr)
	case data.Op.IsComparison():
		return c.compileComparisonChain(data, rr)
	case data.Op == ast.BinAnd || data.Op == ast.BinOr:
		return c.compileLogic(data, rr)
	case data.Op == ast.BinPipe:
		return c.compilePipe(data, rr)
	default:
		return c.compileArithmetic(data, rr)
	}
}

func (c *Compiler) compileReturn(data *ast.ReturnData) (CompileNodeOutput, error) {
	var reg Register
	if data.Expr.Valid() {
		r, err := c.compileToTemp(data.Expr)
		if err != nil {
			return CompileNodeOutput{}, err
		}
		reg = r
	} else {
		r, err := c.frame().PushRegister(c.currentSpan())
		if err != nil {
			return CompileNodeOutput{}, err
		}
		c.emitOp(SetNull)
		c.emitReg(r)
		reg = r
	}

	if ot := c.frame().OutputType; ot.Valid() && !c.frame().IsGenerator && c.settings.EnableTypeChecks {
		if typeData, ok := c.ast.Node(ot).Data.(*ast.TypeData); ok {
			c.emitOp(AssertType)
			c.emitReg(reg)
			c.emitVarU32(uint32(typeData.Cidx))
		}
	}

	c.emitOp(Return)
	c.emitReg(reg)
	if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
		return CompileNodeOutput{}, err
	}
	return noOutput(), nil
}

func (c *Compiler) compileYield(data *ast.YieldData, rr ResultRegister) (CompileNodeOutput, error) {
	if !c.frame().IsGenerator {
		return CompileNodeOutput{}, newErr(ErrYieldOutsideGenerator, c.currentSpan(), "yield outside a generator function")
	}
	reg, err := c.compileToTemp(data.Expr)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	c.emitOp(Yield)
	c.emitReg(reg)
	return c.finishValueTarget(reg, rr)
}

func (c *Compiler) compileThrow(data *ast.ThrowData) (CompileNodeOutput, error) {
	reg, err := c.compileToTemp(data.Expr)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	c.emitOp(Throw)
	c.emitReg(reg)
	if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
		return CompileNodeOutput{}, err
	}
	return noOutput(), nil
}

func (c *Compiler) compileDebug(data *ast.DebugData, rr ResultRegister) (CompileNodeOutput, error) {
	reg, err := c.compileToTemp(data.Expr)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	c.emitOp(Debug)
	c.emitReg(reg)
	c.emitVarU32(uint32(data.ExprString))
	return c.finishValueTarget(reg, rr)
}

func (c *Compiler) compileTry(data *ast.TryData, rr ResultRegister) (CompileNodeOutput, error) {
	wantValue := rr.Kind != RRNone
	var dst Register
	var temp bool
	if wantValue {
		d, t, err := c.deliverComputed(rr)
		if err != nil {
			return CompileNodeOutput{}, err
		}
		dst, temp = d, t
	}

	catchReg, err := c.frame().PushRegister(c.currentSpan())
	if err != nil {
		return CompileNodeOutput{}, err
	}
	c.emitOp(TryStart)
	c.emitReg(catchReg)
	catchPh := c.emitOff16Placeholder()

	bodyRR := NoResult()
	if wantValue {
		bodyRR = FixedResult(dst)
	}
	if _, err := c.compileNode(data.TryBody, bodyRR); err != nil {
		return CompileNodeOutput{}, err
	}
	c.emitOp(TryEnd)
	c.emitOp(Jump)
	endPh := c.emitOff16Placeholder()

	if err := c.patchForwardJump(catchPh, uint32(len(c.bytes))); err != nil {
		return CompileNodeOutput{}, err
	}
	c.emitOp(TryEnd)
	if data.CatchArg.Valid() {
		if err := c.assignSingleTarget(data.CatchArg, catchReg); err != nil {
			return CompileNodeOutput{}, err
		}
	}
	catchRR := NoResult()
	if wantValue {
		catchRR = FixedResult(dst)
	}
	if _, err := c.compileNode(data.CatchBody, catchRR); err != nil {
		return CompileNodeOutput{}, err
	}
	if err := c.patchForwardJump(endPh, uint32(len(c.bytes))); err != nil {
		return CompileNodeOutput{}, err
	}
	if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
		return CompileNodeOutput{}, err
	}

	if data.Finally.Valid() {
		out, err := c.compileNode(data.Finally, NoResult())
		if err != nil {
			return CompileNodeOutput{}, err
		}
		if err := c.popIfTemp(out); err != nil {
			return CompileNodeOutput{}, err
		}
	}

	if wantValue {
		return regOutput(dst, temp), nil
	}
	return noOutput(), nil
}
