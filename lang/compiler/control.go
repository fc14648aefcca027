package compiler

import "github.com/loomlang/loom/lang/ast"

// compileIf implements Variant If (§4.6): arms are tried in order, each
// guarded by a JumpIfFalse to the next arm; a taken arm (or the else
// branch, or a synthesized null) lands in the shared result register
// before jumping to the merge point.
func (c *Compiler) compileIf(data *ast.IfData, rr ResultRegister) (CompileNodeOutput, error) {
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

	var mergePlaceholders []uint32
	for _, arm := range data.Arms {
		condReg, err := c.compileToTemp(arm.Cond)
		if err != nil {
			return CompileNodeOutput{}, err
		}
		c.emitOp(JumpIfFalse)
		c.emitReg(condReg)
		nextPh := c.emitOff16Placeholder()
		if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
			return CompileNodeOutput{}, err
		}

		bodyRR := NoResult()
		if wantValue {
			bodyRR = FixedResult(dst)
		}
		if _, err := c.compileNode(arm.Body, bodyRR); err != nil {
			return CompileNodeOutput{}, err
		}
		c.emitOp(Jump)
		mergePlaceholders = append(mergePlaceholders, c.emitOff16Placeholder())

		if err := c.patchForwardJump(nextPh, uint32(len(c.bytes))); err != nil {
			return CompileNodeOutput{}, err
		}
	}

	if data.Else.Valid() {
		elseRR := NoResult()
		if wantValue {
			elseRR = FixedResult(dst)
		}
		if _, err := c.compileNode(data.Else, elseRR); err != nil {
			return CompileNodeOutput{}, err
		}
	} else if wantValue {
		c.emitOp(SetNull)
		c.emitReg(dst)
	}

	merge := uint32(len(c.bytes))
	for _, ph := range mergePlaceholders {
		if err := c.patchForwardJump(ph, merge); err != nil {
			return CompileNodeOutput{}, err
		}
	}

	if wantValue {
		return regOutput(dst, temp), nil
	}
	return noOutput(), nil
}

// compileSwitch implements Variant Switch by reshaping it into an If:
// every non-else arm becomes an If arm, and an else arm (if present)
// becomes the If's else branch. The two constructs share identical
// fall-through-to-merge semantics.
func (c *Compiler) compileSwitch(data *ast.SwitchData, rr ResultRegister) (CompileNodeOutput, error) {
	ifData := &ast.IfData{Else: ast.NoIndex}
	for _, arm := range data.Arms {
		if arm.IsElse {
			ifData.Else = arm.Body
			continue
		}
		ifData.Arms = append(ifData.Arms, ast.IfArm{Cond: arm.Cond, Body: arm.Body})
	}
	return c.compileIf(ifData, rr)
}

// compileMatch implements Variant Match (§4.6). Each arm tries its
// alternatives ("p1 or p2 -> body") left to right; within an alternative
// every sub-pattern must match its corresponding expression. The last
// alternative's failures fall through to the next arm; earlier
// alternatives' failures fall through to the next alternative. A matched
// alternative's bindings are live by the time the (optional) guard and the
// body compile.
func (c *Compiler) compileMatch(data *ast.MatchData, rr ResultRegister) (CompileNodeOutput, error) {
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

	exprRegs := make([]Register, len(data.Exprs))
	for i, e := range data.Exprs {
		r, err := c.compileToTemp(e)
		if err != nil {
			return CompileNodeOutput{}, err
		}
		exprRegs[i] = r
	}

	var matchEndPlaceholders []uint32
	matched := false

	for _, arm := range data.Arms {
		if arm.IsElse {
			bodyRR := NoResult()
			if wantValue {
				bodyRR = FixedResult(dst)
			}
			if _, err := c.compileNode(arm.Body, bodyRR); err != nil {
				return CompileNodeOutput{}, err
			}
			c.emitOp(Jump)
			matchEndPlaceholders = append(matchEndPlaceholders, c.emitOff16Placeholder())
			matched = true
			continue
		}

		var armFail []uint32
		var altSuccess []uint32
		for ai, alt := range arm.Alternatives {
			isLastAlt := ai == len(arm.Alternatives)-1
			var localFail []uint32
			if len(alt) != len(exprRegs) {
				return CompileNodeOutput{}, newErr(ErrPatternArityMismatch, c.currentSpan(), "match arm has %d sub-patterns for %d values", len(alt), len(exprRegs))
			}
			for i, pat := range alt {
				if err := c.compileMatchTest(exprRegs[i], pat, &localFail); err != nil {
					return CompileNodeOutput{}, err
				}
			}
			if !isLastAlt {
				c.emitOp(Jump)
				altSuccess = append(altSuccess, c.emitOff16Placeholder())
				target := uint32(len(c.bytes))
				for _, ph := range localFail {
					if err := c.patchForwardJump(ph, target); err != nil {
						return CompileNodeOutput{}, err
					}
				}
			} else {
				armFail = append(armFail, localFail...)
			}
		}

		bodyStart := uint32(len(c.bytes))
		for _, ph := range altSuccess {
			if err := c.patchForwardJump(ph, bodyStart); err != nil {
				return CompileNodeOutput{}, err
			}
		}

		if arm.Guard.Valid() {
			guardReg, err := c.compileToTemp(arm.Guard)
			if err != nil {
				return CompileNodeOutput{}, err
			}
			c.emitOp(JumpIfFalse)
			c.emitReg(guardReg)
			armFail = append(armFail, c.emitOff16Placeholder())
			if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
				return CompileNodeOutput{}, err
			}
		}

		bodyRR := NoResult()
		if wantValue {
			bodyRR = FixedResult(dst)
		}
		if _, err := c.compileNode(arm.Body, bodyRR); err != nil {
			return CompileNodeOutput{}, err
		}
		c.emitOp(Jump)
		matchEndPlaceholders = append(matchEndPlaceholders, c.emitOff16Placeholder())

		nextArm := uint32(len(c.bytes))
		for _, ph := range armFail {
			if err := c.patchForwardJump(ph, nextArm); err != nil {
				return CompileNodeOutput{}, err
			}
		}
	}

	if !matched && wantValue {
		c.emitOp(SetNull)
		c.emitReg(dst)
	}

	merge := uint32(len(c.bytes))
	for _, ph := range matchEndPlaceholders {
		if err := c.patchForwardJump(ph, merge); err != nil {
			return CompileNodeOutput{}, err
		}
	}

	for range exprRegs {
		if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
			return CompileNodeOutput{}, err
		}
	}

	if wantValue {
		return regOutput(dst, temp), nil
	}
	return noOutput(), nil
}

// compileMatchTest emits code testing whether exprReg matches pat,
// appending a forward-jump placeholder to *fail for every point at which a
// mismatch should abandon this alternative. Successful Id sub-patterns
// bind immediately; a later mismatch elsewhere in the same alternative
// simply leaves that binding unused on the abandoned path.
func (c *Compiler) compileMatchTest(exprReg Register, patIdx ast.AstIndex, fail *[]uint32) error {
	node := c.ast.Node(patIdx)
	switch node.Variant {
	case ast.Wildcard:
		wildData := node.Data.(*ast.WildcardData)
		if !wildData.Type.Valid() || !c.settings.EnableTypeChecks {
			return nil
		}
		typeData, ok := c.ast.Node(wildData.Type).Data.(*ast.TypeData)
		if !ok {
			return nil
		}
		c.emitOp(CheckType)
		c.emitReg(exprReg)
		*fail = append(*fail, c.emitOff16Placeholder())
		c.emitVarU32(uint32(typeData.Cidx))
		return nil

	case ast.Id:
		idData := node.Data.(*ast.IdData)
		reg, err := c.frame().AssignLocal(idData.Cidx, c.currentSpan())
		if err != nil {
			return err
		}
		c.copyIfNeeded(reg, exprReg)
		return nil

	case ast.Nested:
		return c.compileMatchTest(exprReg, node.Data.(*ast.NestedData).Inner, fail)

	case ast.Tuple:
		return c.compileMatchTuplePattern(exprReg, node.Data.(*ast.TupleData).Elements, fail)

	default:
		patReg, err := c.compileToTemp(patIdx)
		if err != nil {
			return err
		}
		cmpReg, err := c.frame().PushRegister(c.currentSpan())
		if err != nil {
			return err
		}
		c.emitOp(Equal)
		c.emitReg(cmpReg)
		c.emitReg(exprReg)
		c.emitReg(patReg)
		c.emitOp(JumpIfFalse)
		c.emitReg(cmpReg)
		*fail = append(*fail, c.emitOff16Placeholder())
		if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
			return err
		}
		if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
			return err
		}
		return nil
	}
}

// compileMatchTuplePattern matches a tuple-destructuring pattern. A rest
// binder (Ellipsis) is allowed only at the first or last position: last
// position indexes its fixed prefix from the start and slices the rest with
// SliceFrom; first position indexes its fixed suffix from the end (negative
// TempIndex offsets) and slices the rest with SliceTo. A rest-binder
// anywhere in between is rejected, since neither instruction can address a
// fixed element on both sides of a variable-length gap.
func (c *Compiler) compileMatchTuplePattern(exprReg Register, elems []ast.AstIndex, fail *[]uint32) error {
	ellipsisAt := -1
	for i, e := range elems {
		if c.ast.Node(e).Variant == ast.Ellipsis {
			if ellipsisAt != -1 {
				return newErr(ErrMultipleEllipses, c.currentSpan(), "tuple pattern has more than one rest-binder")
			}
			ellipsisAt = i
		}
	}
	if ellipsisAt > 0 && ellipsisAt < len(elems)-1 {
		return newErr(ErrInvalidPattern, c.currentSpan(), "rest-binder must be the first or last element of a tuple pattern")
	}
	ellipsisFirst := ellipsisAt == 0

	fixedCount := len(elems)
	if ellipsisAt != -1 {
		fixedCount--
	}

	boolReg, err := c.frame().PushRegister(c.currentSpan())
	if err != nil {
		return err
	}
	c.copyIfNeeded(boolReg, exprReg)
	if ellipsisAt == -1 {
		c.emitOp(CheckSizeEqual)
	} else {
		c.emitOp(CheckSizeMin)
	}
	c.emitReg(boolReg)
	c.emitByte(byte(fixedCount))
	c.emitOp(JumpIfFalse)
	c.emitReg(boolReg)
	*fail = append(*fail, c.emitOff16Placeholder())
	if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
		return err
	}

	fixedElems := elems
	if ellipsisFirst {
		fixedElems = elems[1:]
	} else if ellipsisAt == len(elems)-1 {
		fixedElems = elems[:fixedCount]
	}

	for j, elem := range fixedElems {
		idx := j
		if ellipsisFirst {
			idx = j - fixedCount // negative, from-end
		}
		elemReg, err := c.frame().PushRegister(c.currentSpan())
		if err != nil {
			return err
		}
		c.emitOp(TempIndex)
		c.emitReg(elemReg)
		c.emitReg(exprReg)
		c.emitByte(byte(int8(idx)))
		if err := c.compileMatchTest(elemReg, elem, fail); err != nil {
			return err
		}
		if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
			return err
		}
	}

	if ellipsisAt != -1 {
		ed := c.ast.Node(elems[ellipsisAt]).Data.(*ast.EllipsisData)
		if ed.Name.Valid() {
			boundReg, err := c.frame().PushRegister(c.currentSpan())
			if err != nil {
				return err
			}
			restReg, err := c.frame().AssignLocal(ed.Name, c.currentSpan())
			if err != nil {
				return err
			}
			if ellipsisFirst {
				c.emitSmallInt(boundReg, -int8(fixedCount))
				c.emitOp(SliceTo)
			} else {
				c.emitSmallInt(boundReg, int8(fixedCount))
				c.emitOp(SliceFrom)
			}
			c.emitReg(restReg)
			c.emitReg(exprReg)
			c.emitReg(boundReg)
			if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
				return err
			}
		}
	}

	return nil
}
