package compiler

import "github.com/loomlang/loom/lang/ast"

// deliverComputed is the common result-register epilogue for an emitter
// that has no register to reuse and must always execute some side effect
// to produce its value (e.g. "1 + 2", a container literal, a call). It
// allocates a register according to rr (Fixed wins, Any gets a temporary,
// None still needs *some* register to receive the computed value, so it
// also gets a temporary). The returned register is marked temporary in
// both non-Fixed cases; emitters such as compileLogic, compileFunction and
// compileNamedCall reach here with RRNone when used as a statement, and the
// caller pops the temporary (compileBlock's popIfTemp). Emitters whose
// value needs no side effect check RRNone themselves and emit nothing.
func (c *Compiler) deliverComputed(rr ResultRegister) (Register, bool, error) {
	if rr.Kind == RRFixed {
		return rr.Fixed, false, nil
	}
	r, err := c.frame().PushRegister(c.currentSpan())
	if err != nil {
		return 0, false, err
	}
	return r, true, nil
}

// copyIfNeeded emits Copy dst, src when dst != src, used when a value
// already lives in some register but the caller demanded a specific one.
func (c *Compiler) copyIfNeeded(dst, src Register) {
	if dst == src {
		return
	}
	c.emitOp(Copy)
	c.emitReg(dst)
	c.emitReg(src)
}

// popIfTemp pops out's register from the frame's register stack if it was
// marked temporary, the standard "caller consumed it" cleanup.
func (c *Compiler) popIfTemp(out CompileNodeOutput) error {
	if out.IsTemporary && out.Register != nil {
		if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
			return err
		}
	}
	return nil
}

// compileToTemp compiles idx with AnyResult and guarantees the result is
// in a temporary register that the caller owns and must pop, copying into
// a fresh temp if the node resolved to an existing non-temporary register
// (e.g. a bare identifier read). Used by emitters that need a scratch copy
// regardless of where the source value naturally lives, such as the chain
// walker's intermediate steps.
func (c *Compiler) compileToTemp(idx ast.AstIndex) (Register, error) {
	out, err := c.compileNode(idx, AnyResult())
	if err != nil {
		return 0, err
	}
	if out.Register == nil {
		return 0, newErr(ErrMissingResultRegister, c.currentSpan(), "expected a value")
	}
	if out.IsTemporary {
		return *out.Register, nil
	}
	t, err := c.frame().PushRegister(c.currentSpan())
	if err != nil {
		return 0, err
	}
	c.copyIfNeeded(t, *out.Register)
	return t, nil
}
