package compiler

import "github.com/loomlang/loom/lang/ast"

// compileElementsForSideEffects is used under RRNone for any container-like
// node: the elements are still compiled (for side effects) but nothing is
// assembled or returned.
func (c *Compiler) compileElementsForSideEffects(elems []ast.AstIndex) error {
	for _, e := range elems {
		out, err := c.compileNode(e, NoResult())
		if err != nil {
			return err
		}
		if err := c.popIfTemp(out); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileSequence(elems []ast.AstIndex, rr ResultRegister, finish Opcode) (CompileNodeOutput, error) {
	if rr.Kind == RRNone {
		if err := c.compileElementsForSideEffects(elems); err != nil {
			return CompileNodeOutput{}, err
		}
		return noOutput(), nil
	}
	if uint64(len(elems)) > 0xFFFFFFFF {
		return CompileNodeOutput{}, newErr(ErrTooManyEntries, c.currentSpan(), "%d entries exceeds 2^32-1", len(elems))
	}

	dst, temp, err := c.deliverComputed(rr)
	if err != nil {
		return CompileNodeOutput{}, err
	}

	c.emitOp(SequenceStart)
	c.emitVarU32(uint32(len(elems)))
	for _, e := range elems {
		reg, err := c.compileToTemp(e)
		if err != nil {
			return CompileNodeOutput{}, err
		}
		c.emitOp(SequencePush)
		c.emitReg(reg)
		if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
			return CompileNodeOutput{}, err
		}
	}
	c.emitOp(finish)
	c.emitReg(dst)
	return regOutput(dst, temp), nil
}

func (c *Compiler) compileList(data *ast.ListData, rr ResultRegister) (CompileNodeOutput, error) {
	return c.compileSequence(data.Elements, rr, SequenceToList)
}

func (c *Compiler) compileTuple(data *ast.TupleData, rr ResultRegister) (CompileNodeOutput, error) {
	return c.compileSequence(data.Elements, rr, SequenceToTuple)
}

// compileTempTuple pushes each element into fresh sequential temporaries
// and emits MakeTempTuple; a TempTuple only ever exists as the RHS carrier
// for MultiAssign (see assign.go), but it is still a regular expression
// node from the dispatcher's point of view.
func (c *Compiler) compileTempTuple(data *ast.TempTupleData, rr ResultRegister) (CompileNodeOutput, error) {
	if rr.Kind == RRNone {
		if err := c.compileElementsForSideEffects(data.Elements); err != nil {
			return CompileNodeOutput{}, err
		}
		return noOutput(), nil
	}
	if len(data.Elements) == 0 {
		return CompileNodeOutput{}, newErr(ErrInvalidBinaryOp, c.currentSpan(), "empty TempTuple")
	}

	first, err := c.frame().PushRegister(c.currentSpan())
	if err != nil {
		return CompileNodeOutput{}, err
	}
	if _, err := c.compileNode(data.Elements[0], FixedResult(first)); err != nil {
		return CompileNodeOutput{}, err
	}
	for _, e := range data.Elements[1:] {
		reg, err := c.frame().PushRegister(c.currentSpan())
		if err != nil {
			return CompileNodeOutput{}, err
		}
		if _, err := c.compileNode(e, FixedResult(reg)); err != nil {
			return CompileNodeOutput{}, err
		}
	}

	dst, temp, err := c.deliverComputed(rr)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	c.emitOp(MakeTempTuple)
	c.emitReg(dst)
	c.emitReg(first)
	c.emitByte(byte(len(data.Elements)))

	for range data.Elements {
		if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
			return CompileNodeOutput{}, err
		}
	}
	return regOutput(dst, temp), nil
}

func (c *Compiler) compileMap(data *ast.MapData, rr ResultRegister) (CompileNodeOutput, error) {
	if rr.Kind == RRNone {
		for _, e := range data.Entries {
			if e.Value.Valid() {
				out, err := c.compileNode(e.Value, NoResult())
				if err != nil {
					return CompileNodeOutput{}, err
				}
				if err := c.popIfTemp(out); err != nil {
					return CompileNodeOutput{}, err
				}
			}
		}
		return noOutput(), nil
	}
	if uint64(len(data.Entries)) > 0xFFFFFFFF {
		return CompileNodeOutput{}, newErr(ErrTooManyEntries, c.currentSpan(), "%d entries exceeds 2^32-1", len(data.Entries))
	}

	dst, temp, err := c.deliverComputed(rr)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	c.emitOp(MakeMap)
	c.emitReg(dst)
	c.emitVarU32(uint32(len(data.Entries)))

	for _, e := range data.Entries {
		if err := c.compileMapEntry(dst, e); err != nil {
			return CompileNodeOutput{}, err
		}
	}
	return regOutput(dst, temp), nil
}

func (c *Compiler) compileMapEntry(mapReg Register, e ast.MapEntry) error {
	if e.Meta {
		return c.compileMetaMapEntry(mapReg, e)
	}

	keyNode := c.ast.Node(e.Key)
	valueIdx := e.Value
	if !valueIdx.Valid() {
		// Shorthand "{x}" means "{x: x}"; only an Id key may omit a value.
		idData, ok := keyNode.Data.(*ast.IdData)
		if !ok {
			return newErr(ErrMissingMapValue, c.currentSpan(), "map entry has no value and key is not an identifier")
		}
		valReg, err := c.frame().PushRegister(c.currentSpan())
		if err != nil {
			return err
		}
		if _, err := c.compileId(idData, FixedResult(valReg)); err != nil {
			return err
		}
		keyReg, err := c.frame().PushRegister(c.currentSpan())
		if err != nil {
			return err
		}
		c.emitOp(LoadString)
		c.emitReg(keyReg)
		c.emitVarU32(uint32(idData.Cidx))
		c.emitOp(MapInsert)
		c.emitReg(mapReg)
		c.emitReg(keyReg)
		c.emitReg(valReg)
		if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
			return err
		}
		if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
			return err
		}
		return nil
	}

	valReg, err := c.compileToTemp(valueIdx)
	if err != nil {
		return err
	}

	var keyReg Register
	switch keyNode.Variant {
	case ast.Id:
		idData := keyNode.Data.(*ast.IdData)
		keyReg, err = c.frame().PushRegister(c.currentSpan())
		if err != nil {
			return err
		}
		c.emitOp(LoadString)
		c.emitReg(keyReg)
		c.emitVarU32(uint32(idData.Cidx))
	case ast.Str:
		keyReg, err = c.compileToTemp(e.Key)
		if err != nil {
			return err
		}
	default:
		return newErr(ErrInvalidPattern, c.currentSpan(), "invalid map key node %s", keyNode.Variant)
	}

	c.emitOp(MapInsert)
	c.emitReg(mapReg)
	c.emitReg(keyReg)
	c.emitReg(valReg)

	if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
		return err
	}
	if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
		return err
	}
	return nil
}

func (c *Compiler) compileMetaMapEntry(mapReg Register, e ast.MapEntry) error {
	if !e.Value.Valid() {
		return newErr(ErrMissingMapValue, c.currentSpan(), "meta key has no value")
	}
	valReg, err := c.compileToTemp(e.Value)
	if err != nil {
		return err
	}
	if e.MetaName.Valid() {
		c.emitOp(MetaInsertNamed)
		c.emitReg(mapReg)
		c.emitReg(valReg)
		c.emitVarU32(uint32(e.MetaName))
	} else {
		c.emitOp(MetaInsert)
		c.emitReg(mapReg)
		c.emitReg(valReg)
		c.emitByte(byte(e.MetaKind))
	}
	_, err = c.frame().PopRegister(c.currentSpan())
	return err
}

func (c *Compiler) compileRange(data *ast.RangeData, rr ResultRegister) (CompileNodeOutput, error) {
	if rr.Kind == RRNone {
		return CompileNodeOutput{}, c.rangeBoundsSideEffects(data.Start, data.End)
	}
	startReg, err := c.compileToTemp(data.Start)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	endReg, err := c.compileToTemp(data.End)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	dst, temp, err := c.deliverComputed(rr)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	op := Range
	if data.Inclusive {
		op = RangeInclusive
	}
	c.emitOp(op)
	c.emitReg(dst)
	c.emitReg(startReg)
	c.emitReg(endReg)
	if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
		return CompileNodeOutput{}, err
	}
	if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
		return CompileNodeOutput{}, err
	}
	return regOutput(dst, temp), nil
}

func (c *Compiler) rangeBoundsSideEffects(idxs ...ast.AstIndex) error {
	for _, idx := range idxs {
		if !idx.Valid() {
			continue
		}
		out, err := c.compileNode(idx, NoResult())
		if err != nil {
			return err
		}
		if err := c.popIfTemp(out); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileRangeFrom(data *ast.RangeFromData, rr ResultRegister) (CompileNodeOutput, error) {
	if rr.Kind == RRNone {
		return CompileNodeOutput{}, c.rangeBoundsSideEffects(data.Start)
	}
	startReg, err := c.compileToTemp(data.Start)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	dst, temp, err := c.deliverComputed(rr)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	c.emitOp(RangeFrom)
	c.emitReg(dst)
	c.emitReg(startReg)
	if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
		return CompileNodeOutput{}, err
	}
	return regOutput(dst, temp), nil
}

func (c *Compiler) compileRangeTo(data *ast.RangeToData, rr ResultRegister) (CompileNodeOutput, error) {
	if rr.Kind == RRNone {
		return CompileNodeOutput{}, c.rangeBoundsSideEffects(data.End)
	}
	endReg, err := c.compileToTemp(data.End)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	dst, temp, err := c.deliverComputed(rr)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	op := RangeTo
	if data.Inclusive {
		op = RangeToInclusive
	}
	c.emitOp(op)
	c.emitReg(dst)
	c.emitReg(endReg)
	if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
		return CompileNodeOutput{}, err
	}
	return regOutput(dst, temp), nil
}

func (c *Compiler) compileRangeFull(rr ResultRegister) (CompileNodeOutput, error) {
	if rr.Kind == RRNone {
		return noOutput(), nil
	}
	dst, temp, err := c.deliverComputed(rr)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	c.emitOp(RangeFull)
	c.emitReg(dst)
	return regOutput(dst, temp), nil
}
