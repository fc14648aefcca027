package compiler

import "github.com/loomlang/loom/lang/ast"

// enterLoop allocates the loop's result register (defaulted to null,
// overwritten only by a "break value") only when rr actually wants a value,
// and registers it (possibly nil) on the frame's loop stack before the
// caller emits the loop body.
func (c *Compiler) enterLoop(rr ResultRegister) (*Register, uint32, error) {
	var resultReg *Register
	if rr.Kind != RRNone {
		r, err := c.frame().PushRegister(c.currentSpan())
		if err != nil {
			return nil, 0, err
		}
		c.emitOp(SetNull)
		c.emitReg(r)
		resultReg = &r
	}
	startIP := uint32(len(c.bytes))
	c.frame().PushLoop(startIP, resultReg)
	return resultReg, startIP, nil
}

// exitLoop patches every break placeholder registered against the current
// loop to land here, pops the loop's tracking state, and delivers its
// result register to rr, if one was allocated.
func (c *Compiler) exitLoop(resultReg *Register, rr ResultRegister) (CompileNodeOutput, error) {
	loop := c.frame().CurrentLoop()
	end := uint32(len(c.bytes))
	for _, ph := range loop.JumpPlaceholders {
		if err := c.patchForwardJump(ph, end); err != nil {
			return CompileNodeOutput{}, err
		}
	}
	c.frame().PopLoop()
	if resultReg == nil {
		return noOutput(), nil
	}
	return c.finishValueTarget(*resultReg, rr)
}

func (c *Compiler) compileLoopBody(body ast.AstIndex) error {
	out, err := c.compileNode(body, NoResult())
	if err != nil {
		return err
	}
	return c.popIfTemp(out)
}

// compileLoop implements Variant Loop: an unconditional loop exited only
// via "break".
func (c *Compiler) compileLoop(data *ast.LoopData, rr ResultRegister) (CompileNodeOutput, error) {
	resultReg, startIP, err := c.enterLoop(rr)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	if err := c.compileLoopBody(data.Body); err != nil {
		return CompileNodeOutput{}, err
	}
	if err := c.emitJumpBack(startIP); err != nil {
		return CompileNodeOutput{}, err
	}
	return c.exitLoop(resultReg, rr)
}

// compileWhile implements Variant While: test, then body, repeated while
// cond is true.
func (c *Compiler) compileWhile(data *ast.WhileData, rr ResultRegister) (CompileNodeOutput, error) {
	resultReg, startIP, err := c.enterLoop(rr)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	condReg, err := c.compileToTemp(data.Cond)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	c.emitOp(JumpIfFalse)
	c.emitReg(condReg)
	exitPh := c.emitOff16Placeholder()
	c.frame().CurrentLoop().JumpPlaceholders = append(c.frame().CurrentLoop().JumpPlaceholders, exitPh)
	if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
		return CompileNodeOutput{}, err
	}
	if err := c.compileLoopBody(data.Body); err != nil {
		return CompileNodeOutput{}, err
	}
	if err := c.emitJumpBack(startIP); err != nil {
		return CompileNodeOutput{}, err
	}
	return c.exitLoop(resultReg, rr)
}

// compileUntil implements Variant Until: the mirror image of While, the
// body runs while cond is false.
func (c *Compiler) compileUntil(data *ast.UntilData, rr ResultRegister) (CompileNodeOutput, error) {
	resultReg, startIP, err := c.enterLoop(rr)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	condReg, err := c.compileToTemp(data.Cond)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	c.emitOp(JumpIfTrue)
	c.emitReg(condReg)
	exitPh := c.emitOff16Placeholder()
	c.frame().CurrentLoop().JumpPlaceholders = append(c.frame().CurrentLoop().JumpPlaceholders, exitPh)
	if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
		return CompileNodeOutput{}, err
	}
	if err := c.compileLoopBody(data.Body); err != nil {
		return CompileNodeOutput{}, err
	}
	if err := c.emitJumpBack(startIP); err != nil {
		return CompileNodeOutput{}, err
	}
	return c.exitLoop(resultReg, rr)
}

// compileFor implements Variant For: the iterable is converted in place to
// an iterator, then IterNext/IterNextTemp+IterUnpack drives each
// iteration, binding the unpacked value(s) before the body runs.
func (c *Compiler) compileFor(data *ast.ForData, rr ResultRegister) (CompileNodeOutput, error) {
	iterReg, err := c.compileToTemp(data.Iterable)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	c.emitOp(MakeIterator)
	c.emitReg(iterReg)
	c.emitReg(iterReg)

	resultReg, startIP, err := c.enterLoop(rr)
	if err != nil {
		return CompileNodeOutput{}, err
	}

	valReg, err := c.frame().PushRegister(c.currentSpan())
	if err != nil {
		return CompileNodeOutput{}, err
	}

	if len(data.Args) == 1 {
		c.emitOp(IterNext)
		c.emitReg(valReg)
		c.emitReg(iterReg)
		exitPh := c.emitOff16Placeholder()
		c.frame().CurrentLoop().JumpPlaceholders = append(c.frame().CurrentLoop().JumpPlaceholders, exitPh)
		if err := c.assignSingleTarget(data.Args[0], valReg); err != nil {
			return CompileNodeOutput{}, err
		}
	} else {
		c.emitOp(IterNextTemp)
		c.emitReg(valReg)
		c.emitReg(iterReg)
		exitPh := c.emitOff16Placeholder()
		c.frame().CurrentLoop().JumpPlaceholders = append(c.frame().CurrentLoop().JumpPlaceholders, exitPh)

		elemRegs := make([]Register, len(data.Args))
		for i := range data.Args {
			r, err := c.frame().PushRegister(c.currentSpan())
			if err != nil {
				return CompileNodeOutput{}, err
			}
			elemRegs[i] = r
		}
		c.emitOp(IterUnpack)
		c.emitReg(valReg)
		c.emitByte(byte(len(data.Args)))
		for i, a := range data.Args {
			if err := c.assignSingleTarget(a, elemRegs[i]); err != nil {
				return CompileNodeOutput{}, err
			}
		}
		for range data.Args {
			if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
				return CompileNodeOutput{}, err
			}
		}
	}

	if _, err := c.frame().PopRegister(c.currentSpan()); err != nil { // valReg
		return CompileNodeOutput{}, err
	}

	if err := c.compileLoopBody(data.Body); err != nil {
		return CompileNodeOutput{}, err
	}
	if err := c.emitJumpBack(startIP); err != nil {
		return CompileNodeOutput{}, err
	}

	out, err := c.exitLoop(resultReg, rr)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	if _, err := c.frame().PopRegister(c.currentSpan()); err != nil { // iterReg
		return CompileNodeOutput{}, err
	}
	return out, nil
}

// compileBreak implements Variant Break: an optional value is copied into
// the enclosing loop's result register before jumping past it.
func (c *Compiler) compileBreak(data *ast.BreakData) (CompileNodeOutput, error) {
	loop := c.frame().CurrentLoop()
	if loop == nil {
		return CompileNodeOutput{}, newErr(ErrBreakOutsideLoop, c.currentSpan(), "break outside a loop")
	}
	if data.Expr.Valid() {
		if loop.ResultRegister == nil {
			return CompileNodeOutput{}, newErr(ErrBreakValueWithoutResult, c.currentSpan(), "break with value in a loop with no result register")
		}
		if _, err := c.compileNode(data.Expr, FixedResult(*loop.ResultRegister)); err != nil {
			return CompileNodeOutput{}, err
		}
	}
	c.emitOp(Jump)
	ph := c.emitOff16Placeholder()
	loop.JumpPlaceholders = append(loop.JumpPlaceholders, ph)
	return noOutput(), nil
}

// compileContinue implements Variant Continue.
func (c *Compiler) compileContinue() (CompileNodeOutput, error) {
	loop := c.frame().CurrentLoop()
	if loop == nil {
		return CompileNodeOutput{}, newErr(ErrContinueOutsideLoop, c.currentSpan(), "continue outside a loop")
	}
	if err := c.emitJumpBack(loop.StartIP); err != nil {
		return CompileNodeOutput{}, err
	}
	return noOutput(), nil
}
