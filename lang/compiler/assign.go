package compiler

import "github.com/loomlang/loom/lang/ast"

// flushDeferred appends a Reserved local's staged instructions to the byte
// stream, attributing each to the span it was originally compiled under.
// This is how a self-capturing closure's Capture op ends up emitted after
// the binding it captures is committed (§4.7), while keeping debug spans
// accurate to where the capture was written in source.
func (c *Compiler) flushDeferred(ops []DeferredOp) {
	for _, op := range ops {
		start := uint32(len(c.bytes))
		c.bytes = append(c.bytes, op.Bytes...)
		c.debug = append(c.debug, DebugEntry{Offset: start, Span: op.Span})
	}
}

func (c *Compiler) isTopLevelExport() bool {
	return c.forceExport || (len(c.frames) == 1 && c.settings.ExportTopLevelIds)
}

// compileAssign implements Variant Assign (§4.8): the target's register is
// reserved before the expression is compiled, so a self-referential or
// self-capturing RHS ("f = || f()") sees a placeholder it can defer
// against, and committed only once the expression has fully landed.
func (c *Compiler) compileAssign(data *ast.AssignData, rr ResultRegister) (CompileNodeOutput, error) {
	target := c.ast.Node(data.Target)

	switch target.Variant {
	case ast.Id:
		idData := target.Data.(*ast.IdData)
		reg, err := c.frame().ReserveLocal(idData.Cidx, c.currentSpan())
		if err != nil {
			return CompileNodeOutput{}, err
		}
		if _, err := c.compileNode(data.Expression, FixedResult(reg)); err != nil {
			return CompileNodeOutput{}, err
		}
		deferred, err := c.frame().CommitLocal(reg, c.currentSpan())
		if err != nil {
			return CompileNodeOutput{}, err
		}
		c.flushDeferred(deferred)
		c.emitAssertType(reg, idData.Type)
		if c.isTopLevelExport() {
			c.emitOp(ValueExport)
			c.emitReg(reg)
			c.emitVarU32(uint32(idData.Cidx))
			c.frame().ExportedIds[idData.Cidx] = true
		}
		if rr.Kind == RRNone {
			return noOutput(), nil
		}
		dst, temp, err := c.deliverComputed(rr)
		if err != nil {
			return CompileNodeOutput{}, err
		}
		c.copyIfNeeded(dst, reg)
		return regOutput(dst, temp), nil

	case ast.Wildcard:
		wildData := target.Data.(*ast.WildcardData)
		if !wildData.Type.Valid() || !c.settings.EnableTypeChecks {
			return c.compileNode(data.Expression, rr)
		}
		tmp, err := c.compileToTemp(data.Expression)
		if err != nil {
			return CompileNodeOutput{}, err
		}
		c.emitAssertType(tmp, wildData.Type)
		return c.finishValueTarget(tmp, rr)

	case ast.Chain:
		rhsReg, err := c.compileToTemp(data.Expression)
		if err != nil {
			return CompileNodeOutput{}, err
		}
		if err := c.compileChainAssign(data.Target, rhsReg); err != nil {
			return CompileNodeOutput{}, err
		}
		return c.finishValueTarget(rhsReg, rr)

	case ast.Meta:
		md := target.Data.(*ast.MetaData)
		rhsReg, err := c.compileToTemp(data.Expression)
		if err != nil {
			return CompileNodeOutput{}, err
		}
		if md.Name.Valid() {
			c.emitOp(MetaExportNamed)
			c.emitReg(rhsReg)
			c.emitVarU32(uint32(md.Name))
		} else {
			c.emitOp(MetaExport)
			c.emitReg(rhsReg)
			c.emitByte(byte(md.Kind))
		}
		return c.finishValueTarget(rhsReg, rr)

	default:
		return CompileNodeOutput{}, newErr(ErrInvalidExportTarget, c.ast.Span(target.Span), "invalid assignment target %s", target.Variant)
	}
}

// finishValueTarget delivers rhsReg (already a live temporary) to rr and
// pops it if unwanted.
func (c *Compiler) finishValueTarget(rhsReg Register, rr ResultRegister) (CompileNodeOutput, error) {
	if rr.Kind == RRNone {
		if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
			return CompileNodeOutput{}, err
		}
		return noOutput(), nil
	}
	dst, temp, err := c.deliverComputed(rr)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	c.copyIfNeeded(dst, rhsReg)
	if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
		return CompileNodeOutput{}, err
	}
	return regOutput(dst, temp), nil
}

// assignSingleTarget binds one MultiAssign target to a value already held
// in valueReg, reusing the same per-variant rules as compileAssign's
// targets but via Copy instead of compiling an expression in place.
func (c *Compiler) assignSingleTarget(target ast.AstIndex, valueReg Register) error {
	node := c.ast.Node(target)
	switch node.Variant {
	case ast.Id:
		idData := node.Data.(*ast.IdData)
		reg, err := c.frame().AssignLocal(idData.Cidx, c.currentSpan())
		if err != nil {
			return err
		}
		c.copyIfNeeded(reg, valueReg)
		c.emitAssertType(reg, idData.Type)
		if c.isTopLevelExport() {
			c.emitOp(ValueExport)
			c.emitReg(reg)
			c.emitVarU32(uint32(idData.Cidx))
			c.frame().ExportedIds[idData.Cidx] = true
		}
		return nil
	case ast.Wildcard:
		wildData := node.Data.(*ast.WildcardData)
		c.emitAssertType(valueReg, wildData.Type)
		return nil
	case ast.Chain:
		return c.compileChainAssign(target, valueReg)
	default:
		return newErr(ErrInvalidExportTarget, c.ast.Span(node.Span), "invalid multi-assign target %s", node.Variant)
	}
}

// compileMultiAssign implements Variant MultiAssign: the expression (an
// iterable, typically a TempTuple) is compiled once, then TempIndex pulls
// each target's value out by position.
func (c *Compiler) compileMultiAssign(data *ast.MultiAssignData, rr ResultRegister) (CompileNodeOutput, error) {
	if len(data.Targets) > 255 {
		return CompileNodeOutput{}, newErr(ErrTooManyTargets, c.currentSpan(), "%d targets exceeds 255", len(data.Targets))
	}
	rhsReg, err := c.compileToTemp(data.Expression)
	if err != nil {
		return CompileNodeOutput{}, err
	}

	for i, target := range data.Targets {
		elemReg, err := c.frame().PushRegister(c.currentSpan())
		if err != nil {
			return CompileNodeOutput{}, err
		}
		c.emitOp(TempIndex)
		c.emitReg(elemReg)
		c.emitReg(rhsReg)
		c.emitByte(byte(i))
		if err := c.assignSingleTarget(target, elemReg); err != nil {
			return CompileNodeOutput{}, err
		}
		if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
			return CompileNodeOutput{}, err
		}
	}

	return c.finishValueTarget(rhsReg, rr)
}
