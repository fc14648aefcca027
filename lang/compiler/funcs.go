package compiler

import "github.com/loomlang/loom/lang/ast"

const (
	fnFlagVariadic          = 1 << 0
	fnFlagGenerator         = 1 << 1
	fnFlagArgIsUnpackedTuple = 1 << 2
)

// compileFunction implements Variant Function (§4.7). The body is emitted
// inline in the byte stream; Function itself only records a forward
// off16 to skip over it when the closure value is merely created, not
// called. Captures are resolved against the enclosing frame and appended
// after the body: a capture of a name that is still Reserved (a
// self-capturing closure, "f = || f()") is staged via DeferOp so it lands
// only once the outer binding commits.
func (c *Compiler) compileFunction(data *ast.FunctionData, rr ResultRegister) (CompileNodeOutput, error) {
	outer := c.frame()
	captures := outer.CapturesForNestedFrame(data.AccessedNonLocals)
	if len(captures) > 255 {
		return CompileNodeOutput{}, newErr(ErrTooManyCaptures, c.currentSpan(), "%d captures exceeds 255", len(captures))
	}
	if len(data.Args) > 255 {
		return CompileNodeOutput{}, newErr(ErrTooManyArgs, c.currentSpan(), "%d args exceeds 255", len(data.Args))
	}

	fnDst, temp, err := c.deliverComputed(rr)
	if err != nil {
		return CompileNodeOutput{}, err
	}

	flags := byte(0)
	if data.IsVariadic {
		flags |= fnFlagVariadic
	}
	if data.IsGenerator {
		flags |= fnFlagGenerator
	}
	singleTupleArg := len(data.Args) == 1 && c.ast.Node(data.Args[0]).Variant == ast.Tuple
	if singleTupleArg {
		flags |= fnFlagArgIsUnpackedTuple
	}

	c.emitOp(Function)
	c.emitReg(fnDst)
	c.emitByte(byte(len(data.Args)))
	c.emitByte(flags)
	c.emitByte(byte(len(captures)))
	skipPh := c.emitOff16Placeholder()

	if err := c.compileFunctionBody(data, captures, singleTupleArg); err != nil {
		return CompileNodeOutput{}, err
	}
	if err := c.patchForwardJump(skipPh, uint32(len(c.bytes))); err != nil {
		return CompileNodeOutput{}, err
	}

	for i, cidx := range captures {
		if reg, ok := outer.GetLocalAssigned(cidx); ok {
			c.emitOp(Capture)
			c.emitReg(fnDst)
			c.emitReg(reg)
			c.emitByte(byte(i))
			continue
		}
		reg, err := outer.ReserveLocal(cidx, c.currentSpan())
		if err != nil {
			return CompileNodeOutput{}, err
		}
		if err := outer.DeferOp(reg, []byte{byte(Capture), fnDst, reg, byte(i)}, c.currentSpan()); err != nil {
			return CompileNodeOutput{}, err
		}
	}

	return regOutput(fnDst, temp), nil
}

func (c *Compiler) compileFunctionBody(data *ast.FunctionData, captures []ast.ConstantIndex, singleTupleArg bool) error {
	// Below the temporaries sit register 0 (self), one anonymous slot per
	// Wildcard or unpacked-tuple arg, the captures, and LocalCount named locals.
	localCount := data.LocalCount + 1 + len(captures)
	if singleTupleArg {
		localCount++
	} else {
		for _, argNode := range data.Args {
			if c.ast.Node(argNode).Variant == ast.Wildcard {
				localCount++
			}
		}
	}
	f := NewFrame(localCount, nil)
	f.OutputType = data.OutputType
	f.IsGenerator = data.IsGenerator
	c.pushFrame(f)

	if _, err := f.AllocateAnonymous(c.currentSpan()); err != nil { // register 0: self/receiver
		c.popFrame()
		return err
	}

	if singleTupleArg {
		argReg, err := f.AllocateAnonymous(c.currentSpan())
		if err != nil {
			c.popFrame()
			return err
		}
		elems := c.ast.Node(data.Args[0]).Data.(*ast.TupleData).Elements
		for i, e := range elems {
			elemReg, err := f.PushRegister(c.currentSpan())
			if err != nil {
				c.popFrame()
				return err
			}
			c.emitOp(TempIndex)
			c.emitReg(elemReg)
			c.emitReg(argReg)
			c.emitByte(byte(i))
			if err := c.assignSingleTarget(e, elemReg); err != nil {
				c.popFrame()
				return err
			}
			if _, err := f.PopRegister(c.currentSpan()); err != nil {
				c.popFrame()
				return err
			}
		}
	} else {
		for _, argNode := range data.Args {
			node := c.ast.Node(argNode)
			switch node.Variant {
			case ast.Id:
				idData := node.Data.(*ast.IdData)
				reg, err := f.AssignLocal(idData.Cidx, c.currentSpan())
				if err != nil {
					c.popFrame()
					return err
				}
				c.emitAssertType(reg, idData.Type)
			case ast.Wildcard:
				wildData := node.Data.(*ast.WildcardData)
				reg, err := f.AllocateAnonymous(c.currentSpan())
				if err != nil {
					c.popFrame()
					return err
				}
				c.emitAssertType(reg, wildData.Type)
			default:
				c.popFrame()
				return newErr(ErrUnexpectedVariant, c.ast.Span(node.Span), "invalid function argument pattern %s", node.Variant)
			}
		}
	}

	for _, cidx := range captures {
		if _, err := f.AssignLocal(cidx, c.currentSpan()); err != nil {
			c.popFrame()
			return err
		}
	}

	c.pushSpan(c.ast.Span(c.ast.Node(data.Body).Span))
	out, err := c.compileNode(data.Body, AnyResult())
	c.popSpan()
	if err != nil {
		c.popFrame()
		return err
	}
	if err := c.finishBody(f, out, data.OutputType, data.IsGenerator); err != nil {
		c.popFrame()
		return err
	}
	c.popFrame()
	return nil
}
