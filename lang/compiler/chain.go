package compiler

import "github.com/loomlang/loom/lang/ast"

// chainMode selects which chain-emission mode (§4.5) a walk over a Chain
// node's links is performing. The piped-call form is a chainRead walk with
// a non-nil pipe argument.
type chainMode uint8

const (
	chainRead chainMode = iota
	chainSimpleAssign
	chainCompoundAssign
)

// collectChainLinks flattens the singly-linked Chain node list starting at
// first into a slice, in source order.
func (c *Compiler) collectChainLinks(first ast.AstIndex) ([]*ast.ChainData, error) {
	var links []*ast.ChainData
	cur := first
	for cur.Valid() {
		node := c.ast.Node(cur)
		data, ok := node.Data.(*ast.ChainData)
		if !ok {
			return nil, newErr(ErrMissingChainNode, c.ast.Span(node.Span), "expected Chain, got %s", node.Variant)
		}
		links = append(links, data)
		cur = data.Next
	}
	return links, nil
}

// compileChainRead walks a full Chain for its value. If pipeArg is non-nil
// and the chain's final link is a parenthesis-free call, *pipeArg is
// appended after the call's explicit arguments (the "x >> f y" piping
// convention); otherwise the chain's value is called with *pipeArg as its
// only argument.
func (c *Compiler) compileChainRead(first ast.AstIndex, rr ResultRegister, pipeArg *Register) (CompileNodeOutput, error) {
	return c.walkChain(first, rr, chainRead, 0, pipeArg)
}

// compileChainAssign walks a Chain whose final link is the assignment
// target and stores valueReg there. Assigning through a call link
// ("f().x = 1" stopping at a call) is rejected: a call's result is a
// temporary value, not a storage location.
func (c *Compiler) compileChainAssign(first ast.AstIndex, valueReg Register) error {
	_, err := c.walkChain(first, NoResult(), chainSimpleAssign, valueReg, nil)
	return err
}

// compileChainCompoundAssign reads the chain's final link, combines it with
// rhsReg via op, stores the result back, and (if rr wants it) delivers the
// combined value.
func (c *Compiler) compileChainCompoundAssign(first ast.AstIndex, rhsReg Register, op ast.BinaryOpKind, rr ResultRegister) (CompileNodeOutput, error) {
	return c.walkChainCompound(first, rhsReg, op, rr)
}

// walkChain implements chainRead and chainSimpleAssign. Every link but the
// last is a plain read producing the next "object" register; the last link
// is either read normally (chainRead) or treated as a storage location
// (chainSimpleAssign, using valueReg).
func (c *Compiler) walkChain(first ast.AstIndex, rr ResultRegister, mode chainMode, valueReg Register, pipeArg *Register) (CompileNodeOutput, error) {
	links, err := c.collectChainLinks(first)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	if len(links) == 0 {
		return CompileNodeOutput{}, newErr(ErrMissingChainNode, c.currentSpan(), "empty chain")
	}

	var objReg Register = SentinelRegister
	var selfReg Register = SentinelRegister
	var pending []Register // temps pushed along the way, popped once consumed

	pop := func(r Register) error {
		_, err := c.frame().PopRegister(c.currentSpan())
		return err
	}

	for i, link := range links {
		isLast := i == len(links)-1

		switch link.Kind {
		case ast.ChainRoot:
			r, err := c.compileToTemp(link.Root)
			if err != nil {
				return CompileNodeOutput{}, err
			}
			objReg = r
			pending = append(pending, r)

		case ast.ChainId:
			if objReg == SentinelRegister {
				return CompileNodeOutput{}, newErr(ErrMissingChainParent, c.currentSpan(), "chain id link has no parent object")
			}
			if isLast && mode == chainSimpleAssign {
				keyReg, err := c.frame().PushRegister(c.currentSpan())
				if err != nil {
					return CompileNodeOutput{}, err
				}
				c.emitOp(LoadString)
				c.emitReg(keyReg)
				c.emitVarU32(uint32(link.Id))
				c.emitOp(MapInsert)
				c.emitReg(objReg)
				c.emitReg(keyReg)
				c.emitReg(valueReg)
				if err := pop(keyReg); err != nil {
					return CompileNodeOutput{}, err
				}
				if err := c.popPending(pending); err != nil {
					return CompileNodeOutput{}, err
				}
				return noOutput(), nil
			}
			dst, err := c.frame().PushRegister(c.currentSpan())
			if err != nil {
				return CompileNodeOutput{}, err
			}
			c.emitOp(Access)
			c.emitReg(dst)
			c.emitReg(objReg)
			c.emitVarU32(uint32(link.Id))
			selfReg = objReg
			objReg = dst
			pending = append(pending, dst)

		case ast.ChainStr:
			if objReg == SentinelRegister {
				return CompileNodeOutput{}, newErr(ErrMissingChainParent, c.currentSpan(), "chain str link has no parent object")
			}
			keyReg, err := c.compileToTemp(link.Str)
			if err != nil {
				return CompileNodeOutput{}, err
			}
			if isLast && mode == chainSimpleAssign {
				c.emitOp(MapInsert)
				c.emitReg(objReg)
				c.emitReg(keyReg)
				c.emitReg(valueReg)
				if err := pop(keyReg); err != nil {
					return CompileNodeOutput{}, err
				}
				if err := c.popPending(pending); err != nil {
					return CompileNodeOutput{}, err
				}
				return noOutput(), nil
			}
			dst, err := c.frame().PushRegister(c.currentSpan())
			if err != nil {
				return CompileNodeOutput{}, err
			}
			c.emitOp(AccessString)
			c.emitReg(dst)
			c.emitReg(objReg)
			c.emitReg(keyReg)
			if err := pop(keyReg); err != nil {
				return CompileNodeOutput{}, err
			}
			selfReg = objReg
			objReg = dst
			pending = append(pending, dst)

		case ast.ChainIndex:
			if objReg == SentinelRegister {
				return CompileNodeOutput{}, newErr(ErrMissingChainParent, c.currentSpan(), "chain index link has no parent object")
			}
			idxReg, err := c.compileToTemp(link.Index)
			if err != nil {
				return CompileNodeOutput{}, err
			}
			if isLast && mode == chainSimpleAssign {
				c.emitOp(SetIndex)
				c.emitReg(objReg)
				c.emitReg(idxReg)
				c.emitReg(valueReg)
				if err := pop(idxReg); err != nil {
					return CompileNodeOutput{}, err
				}
				if err := c.popPending(pending); err != nil {
					return CompileNodeOutput{}, err
				}
				return noOutput(), nil
			}
			dst, err := c.frame().PushRegister(c.currentSpan())
			if err != nil {
				return CompileNodeOutput{}, err
			}
			c.emitOp(Index)
			c.emitReg(dst)
			c.emitReg(objReg)
			c.emitReg(idxReg)
			if err := pop(idxReg); err != nil {
				return CompileNodeOutput{}, err
			}
			selfReg = SentinelRegister
			objReg = dst
			pending = append(pending, dst)

		case ast.ChainCall:
			if isLast && mode == chainSimpleAssign {
				return CompileNodeOutput{}, newErr(ErrAssignToTemporary, c.currentSpan(), "cannot assign to the result of a call")
			}
			var args []Register
			for _, a := range link.CallArgs {
				r, err := c.compileToTemp(a)
				if err != nil {
					return CompileNodeOutput{}, err
				}
				args = append(args, r)
			}
			piped := pipeArg != nil && isLast && !link.CallWithParens
			if piped {
				args = append(args, *pipeArg)
			}
			self := SentinelRegister
			if selfReg != SentinelRegister {
				self = selfReg
			}
			out, err := c.emitCallWithArgs(objReg, self, args, AnyResult())
			if err != nil {
				return CompileNodeOutput{}, err
			}
			for i := len(link.CallArgs) - 1; i >= 0; i-- {
				if err := pop(args[i]); err != nil {
					return CompileNodeOutput{}, err
				}
			}
			selfReg = SentinelRegister
			if out.Register != nil {
				objReg = *out.Register
				pending = append(pending, objReg)
			}
			if isLast && (pipeArg == nil || piped) {
				if err := c.popPending(pending[:len(pending)-1]); err != nil {
					return CompileNodeOutput{}, err
				}
				return c.deliverChainResult(out, rr)
			}
		}
	}

	if pipeArg != nil {
		out, err := c.emitCallWithArgs(objReg, selfReg, []Register{*pipeArg}, AnyResult())
		if err != nil {
			return CompileNodeOutput{}, err
		}
		objReg = *out.Register
		pending = append(pending, objReg)
	}
	if len(pending) > 1 {
		if err := c.popPending(pending[:len(pending)-1]); err != nil {
			return CompileNodeOutput{}, err
		}
	}
	return c.deliverChainResult(regOutput(objReg, true), rr)
}

// popPending pops every register in regs in reverse order; used to unwind
// intermediate chain-link temporaries once the terminal link has consumed
// the ones it still needs.
func (c *Compiler) popPending(regs []Register) error {
	for i := len(regs) - 1; i >= 0; i-- {
		if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
			return err
		}
	}
	return nil
}

// deliverChainResult moves a chain's final value (already in a live
// temporary register, out.Register) into whatever rr demands.
func (c *Compiler) deliverChainResult(out CompileNodeOutput, rr ResultRegister) (CompileNodeOutput, error) {
	switch rr.Kind {
	case RRNone:
		if err := c.popIfTemp(out); err != nil {
			return CompileNodeOutput{}, err
		}
		return noOutput(), nil
	case RRFixed:
		if out.Register == nil {
			return CompileNodeOutput{}, newErr(ErrMissingResultRegister, c.currentSpan(), "chain produced no value")
		}
		c.copyIfNeeded(rr.Fixed, *out.Register)
		if err := c.popIfTemp(out); err != nil {
			return CompileNodeOutput{}, err
		}
		return regOutput(rr.Fixed, false), nil
	default:
		return out, nil
	}
}

// walkChainCompound reads a Chain's final link, combines the loaded value
// with rhsReg via op's *Assign opcode, and writes it back to the same
// location. The combination happens in a scratch register holding the
// current value, which doubles as the delivered result.
func (c *Compiler) walkChainCompound(first ast.AstIndex, rhsReg Register, op ast.BinaryOpKind, rr ResultRegister) (CompileNodeOutput, error) {
	links, err := c.collectChainLinks(first)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	if len(links) == 0 {
		return CompileNodeOutput{}, newErr(ErrMissingChainNode, c.currentSpan(), "empty chain")
	}
	last := links[len(links)-1]
	opcode, ok := compoundOpcodes[op]
	if !ok {
		return CompileNodeOutput{}, newErr(ErrInvalidBinaryOp, c.currentSpan(), "not a compound-assign op: %d", op)
	}

	// Read the current value with a full read walk; the parent path is
	// walked again below to write the combined value back.
	readOut, err := c.walkChain(first, AnyResult(), chainRead, 0, nil)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	if readOut.Register == nil {
		return CompileNodeOutput{}, newErr(ErrMissingResultRegister, c.currentSpan(), "chain produced no value")
	}
	curReg := *readOut.Register

	c.emitOp(opcode)
	c.emitReg(curReg)
	c.emitReg(rhsReg)

	// Re-walk the chain as a simple assignment of the combined value back
	// to the same location. Recomputing the parent path is the price of
	// keeping the walker single-purpose; parent sub-expressions with side
	// effects are evaluated twice as a result, a known limitation.
	if err := c.compileChainAssign(first, curReg); err != nil {
		return CompileNodeOutput{}, err
	}
	_ = last

	if rr.Kind == RRNone {
		if err := c.popIfTemp(readOut); err != nil {
			return CompileNodeOutput{}, err
		}
		return noOutput(), nil
	}
	if rr.Kind == RRFixed {
		c.copyIfNeeded(rr.Fixed, curReg)
		if err := c.popIfTemp(readOut); err != nil {
			return CompileNodeOutput{}, err
		}
		return regOutput(rr.Fixed, false), nil
	}
	return regOutput(curReg, true), nil
}

// emitCallWithArgs emits a Call instruction. selfReg, when not
// SentinelRegister, is prepended to args as the receiver (the chain
// walker's method-call convention). All registers in args (and selfReg)
// must already be adjacent on the register stack, in order: the caller is
// responsible for having pushed them that way.
func (c *Compiler) emitCallWithArgs(fnReg, selfReg Register, args []Register, rr ResultRegister) (CompileNodeOutput, error) {
	all := args
	if selfReg != SentinelRegister {
		all = append([]Register{selfReg}, args...)
	}
	if len(all) > 255 {
		return CompileNodeOutput{}, newErr(ErrTooManyArgs, c.currentSpan(), "%d args exceeds 255", len(all))
	}
	dst, temp, err := c.deliverComputed(rr)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	first := SentinelRegister
	if len(all) > 0 {
		first = all[0]
	}
	c.emitOp(Call)
	c.emitReg(dst)
	c.emitReg(fnReg)
	c.emitReg(first)
	c.emitByte(byte(len(all)))
	return regOutput(dst, temp), nil
}
