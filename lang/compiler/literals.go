package compiler

import "github.com/loomlang/loom/lang/ast"

// compileSimpleLiteral is the shared epilogue for zero-argument literal
// instructions (Null/True/False): under RRNone nothing is emitted, since a
// bare literal as a statement has no side effect to preserve.
func (c *Compiler) compileSimpleLiteral(op Opcode, rr ResultRegister) (CompileNodeOutput, error) {
	if rr.Kind == RRNone {
		return noOutput(), nil
	}
	dst, temp, err := c.deliverComputed(rr)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	c.emitOp(op)
	c.emitReg(dst)
	return regOutput(dst, temp), nil
}

func (c *Compiler) compileSmallInt(data *ast.SmallIntData, rr ResultRegister) (CompileNodeOutput, error) {
	if rr.Kind == RRNone {
		return noOutput(), nil
	}
	dst, temp, err := c.deliverComputed(rr)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	c.emitSmallInt(dst, data.Value)
	return regOutput(dst, temp), nil
}

func (c *Compiler) emitSmallInt(dst Register, v int8) {
	switch {
	case v == 0:
		c.emitOp(Set0)
		c.emitReg(dst)
	case v == 1:
		c.emitOp(Set1)
		c.emitReg(dst)
	case v > 0:
		c.emitOp(SetNumberU8)
		c.emitReg(dst)
		c.emitByte(byte(v))
	default:
		c.emitOp(SetNumberNegU8)
		c.emitReg(dst)
		c.emitByte(byte(-int16(v)))
	}
}

func (c *Compiler) compileIntLit(data *ast.IntData, rr ResultRegister) (CompileNodeOutput, error) {
	if rr.Kind == RRNone {
		return noOutput(), nil
	}
	dst, temp, err := c.deliverComputed(rr)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	c.emitOp(LoadInt)
	c.emitReg(dst)
	c.emitVarU32(uint32(data.Cidx))
	return regOutput(dst, temp), nil
}

func (c *Compiler) compileFloatLit(data *ast.FloatData, rr ResultRegister) (CompileNodeOutput, error) {
	if rr.Kind == RRNone {
		return noOutput(), nil
	}
	dst, temp, err := c.deliverComputed(rr)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	c.emitOp(LoadFloat)
	c.emitReg(dst)
	c.emitVarU32(uint32(data.Cidx))
	return regOutput(dst, temp), nil
}

func (c *Compiler) compileId(data *ast.IdData, rr ResultRegister) (CompileNodeOutput, error) {
	if reg, ok := c.frame().GetLocalAssigned(data.Cidx); ok {
		switch rr.Kind {
		case RRNone:
			return noOutput(), nil
		case RRFixed:
			c.copyIfNeeded(rr.Fixed, reg)
			return regOutput(rr.Fixed, false), nil
		default: // RRAny: prefer the existing binding, no copy
			return regOutput(reg, false), nil
		}
	}
	if rr.Kind == RRNone {
		return noOutput(), nil
	}
	dst, temp, err := c.deliverComputed(rr)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	c.emitOp(LoadNonLocal)
	c.emitReg(dst)
	c.emitVarU32(uint32(data.Cidx))
	return regOutput(dst, temp), nil
}

func (c *Compiler) compileSelf(rr ResultRegister) (CompileNodeOutput, error) {
	const self Register = 0
	switch rr.Kind {
	case RRNone:
		return noOutput(), nil
	case RRFixed:
		c.copyIfNeeded(rr.Fixed, self)
		return regOutput(rr.Fixed, false), nil
	default:
		return regOutput(self, false), nil
	}
}

func (c *Compiler) compileStr(data *ast.StrData, rr ResultRegister) (CompileNodeOutput, error) {
	switch data.Kind {
	case ast.StrLiteral, ast.StrRaw:
		if rr.Kind == RRNone {
			return noOutput(), nil
		}
		dst, temp, err := c.deliverComputed(rr)
		if err != nil {
			return CompileNodeOutput{}, err
		}
		c.emitOp(LoadString)
		c.emitReg(dst)
		c.emitVarU32(uint32(data.Cidx))
		return regOutput(dst, temp), nil
	case ast.StrInterpolated:
		return c.compileInterpolatedStr(data, rr)
	default:
		return CompileNodeOutput{}, newErr(ErrUnexpectedVariant, c.currentSpan(), "unknown string kind %d", data.Kind)
	}
}

func (c *Compiler) compileInterpolatedStr(data *ast.StrData, rr ResultRegister) (CompileNodeOutput, error) {
	if len(data.Segments) == 0 {
		return CompileNodeOutput{}, newErr(ErrMissingStringSegment, c.currentSpan(), "interpolated string has no segments")
	}

	if rr.Kind == RRNone {
		// No value is needed, but embedded expressions may still have
		// side effects, so they are still compiled, just discarded.
		for _, seg := range data.Segments {
			if seg.Expr.Valid() {
				out, err := c.compileNode(seg.Expr, NoResult())
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

	dst, temp, err := c.deliverComputed(rr)
	if err != nil {
		return CompileNodeOutput{}, err
	}

	var sizeHint uint32
	for _, seg := range data.Segments {
		switch {
		case !seg.Expr.Valid():
			if s, ok := c.ast.Constants().String(seg.Cidx); ok {
				sizeHint += uint32(len(s))
			}
		case seg.Flags.HasMinWidth:
			sizeHint += uint32(seg.Flags.MinWidth)
		default:
			sizeHint++
		}
	}

	c.emitOp(StringStart)
	c.emitVarU32(sizeHint)

	for _, seg := range data.Segments {
		if !seg.Expr.Valid() {
			lit, err := c.frame().PushRegister(c.currentSpan())
			if err != nil {
				return CompileNodeOutput{}, err
			}
			c.emitOp(LoadString)
			c.emitReg(lit)
			c.emitVarU32(uint32(seg.Cidx))
			c.emitOp(StringPush)
			c.emitReg(lit)
			c.emitByte(0)
			if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
				return CompileNodeOutput{}, err
			}
			continue
		}

		reg, err := c.compileToTemp(seg.Expr)
		if err != nil {
			return CompileNodeOutput{}, err
		}
		flags := encodeStrFormatFlags(seg.Flags)
		c.emitOp(StringPush)
		c.emitReg(reg)
		c.emitByte(flags)
		if seg.Flags.HasMinWidth {
			c.emitVarU32(uint32(seg.Flags.MinWidth))
		}
		if seg.Flags.HasPrecision {
			c.emitVarU32(uint32(seg.Flags.Precision))
		}
		if seg.Flags.HasFill {
			c.emitVarU32(uint32(seg.Flags.FillCidx))
		}
		if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
			return CompileNodeOutput{}, err
		}
	}

	c.emitOp(StringFinish)
	c.emitReg(dst)
	return regOutput(dst, temp), nil
}

// encodeStrFormatFlags packs a format spec into the flags byte: bit 0 is
// "alignment present", bits 1-2 carry the 2-bit alignment value, bit 3 is
// "min-width present", bit 4 is "precision present", bit 5 is "fill-char
// present". Used consistently by both the encoder above and the
// disassembler.
func encodeStrFormatFlags(f ast.StrFormatFlags) byte {
	var b byte
	if f.HasAlignment {
		b |= 1
		b |= byte(f.Alignment&0x3) << 1
	}
	if f.HasMinWidth {
		b |= 1 << 3
	}
	if f.HasPrecision {
		b |= 1 << 4
	}
	if f.HasFill {
		b |= 1 << 5
	}
	return b
}

func (c *Compiler) compileNested(data *ast.NestedData, rr ResultRegister) (CompileNodeOutput, error) {
	return c.compileNode(data.Inner, rr)
}
