// Package compiler lowers a lang/ast tree to bytecode for a register-based
// virtual machine, together with a debug table mapping bytecode offsets
// back to source spans. See SPEC_FULL.md for the full component design;
// this file holds the top-level Compiler type and its entry point.
package compiler

import (
	"math"

	"github.com/loomlang/loom/lang/ast"
	"github.com/loomlang/loom/lang/span"
)

// Settings controls optional compiler behaviour.
type Settings struct {
	// ExportTopLevelIds makes every top-level assignment in frame 0 emit a
	// ValueExport in addition to its normal binding, for interactive/REPL
	// reuse where each statement's bindings must be visible to the next.
	ExportTopLevelIds bool
	// EnableTypeChecks governs emission of AssertType; CheckType (used for
	// pattern guards) is unaffected.
	EnableTypeChecks bool
}

// DefaultSettings returns the zero-value-safe defaults: type checks on,
// top-level export off.
func DefaultSettings() Settings {
	return Settings{EnableTypeChecks: true}
}

// ResultKind selects how a node's caller wants its value delivered.
type ResultKind uint8

const (
	// RRNone: compile for side effects only; no value is needed.
	RRNone ResultKind = iota
	// RRAny: the callee may pick any register (an existing local or a
	// fresh temporary) and report which one it used.
	RRAny
	// RRFixed: the value must end up in a specific register.
	RRFixed
)

// ResultRegister is the caller-to-callee contract for where a compiled
// node's value should end up.
type ResultRegister struct {
	Kind  ResultKind
	Fixed Register
}

// NoResult requests compilation for side effects only.
func NoResult() ResultRegister { return ResultRegister{Kind: RRNone} }

// AnyResult lets the callee choose the register.
func AnyResult() ResultRegister { return ResultRegister{Kind: RRAny} }

// FixedResult requires the value to land in r.
func FixedResult(r Register) ResultRegister { return ResultRegister{Kind: RRFixed, Fixed: r} }

// CompileNodeOutput is what compileNode returns: the register the value
// ended up in (nil if none was produced, i.e. RRNone was honoured), and
// whether that register is a temporary the caller must pop once consumed.
type CompileNodeOutput struct {
	Register    *Register
	IsTemporary bool
}

func noOutput() CompileNodeOutput { return CompileNodeOutput{} }

func regOutput(r Register, temp bool) CompileNodeOutput {
	return CompileNodeOutput{Register: &r, IsTemporary: temp}
}

// Compiler is the mutable, single-use object that drives one compilation.
// It owns the byte buffer, debug table, frame stack and span stack; none
// of that state is safe to share across goroutines or across calls to
// Compile.
type Compiler struct {
	ast      *ast.Ast
	settings Settings

	bytes []byte
	debug []DebugEntry

	frames    []*Frame
	spanStack []span.Span

	// forceExport is set for the duration of compiling an "export"
	// statement's payload, overriding settings.ExportTopLevelIds so the
	// binding exports regardless of nesting depth or CLI settings.
	forceExport bool
}

// Compile lowers a to bytecode. It is a pure function of (a, settings): the
// same tree compiled twice yields byte-identical output, since nothing
// about emission order depends on map iteration (the only maps involved,
// the frame's exported-id set and the constant pool's string interning
// table, are only used for membership tests and lookups, never iterated
// during emission). The one write into a's constant pool is compileImport
// interning an import's joined dotted path; interning is idempotent, so a
// second compile finds the same index.
func Compile(a *ast.Ast, settings Settings) ([]byte, DebugInfo, error) {
	entryIdx, ok := a.EntryPoint()
	if !ok {
		return nil, nil, newErr(ErrUnexpectedVariant, span.Zero, "ast has no entry point")
	}
	c := &Compiler{ast: a, settings: settings}
	if err := c.compileMainBlock(entryIdx); err != nil {
		return nil, nil, err
	}
	if uint64(len(c.bytes)) > math.MaxUint32 {
		return nil, nil, newErr(ErrBytecodeTooLarge, span.Zero, "%d bytes exceeds 2^32-1", len(c.bytes))
	}
	return c.bytes, c.debug, nil
}

func (c *Compiler) frame() *Frame { return c.frames[len(c.frames)-1] }

func (c *Compiler) pushFrame(f *Frame) { c.frames = append(c.frames, f) }

func (c *Compiler) popFrame() *Frame {
	f := c.frame()
	c.frames = c.frames[:len(c.frames)-1]
	return f
}

// compileMainBlock handles the MainBlock node, §4.10: the outermost frame,
// no args or captures, implicit return appended if the body didn't already
// end in one.
func (c *Compiler) compileMainBlock(idx ast.AstIndex) error {
	node := c.ast.Node(idx)
	data, ok := node.Data.(*ast.MainBlockData)
	if !ok {
		return newErr(ErrUnexpectedVariant, c.ast.Span(node.Span), "expected MainBlock, got %s", node.Variant)
	}
	f := NewFrame(data.LocalCount, nil)
	c.pushFrame(f)

	c.pushSpan(c.ast.Span(node.Span))
	out, err := c.compileNode(data.Body, AnyResult())
	if err != nil {
		c.popSpan()
		c.popFrame()
		return err
	}

	if err := c.finishBody(f, out, ast.NoIndex, false); err != nil {
		c.popSpan()
		c.popFrame()
		return err
	}
	c.popSpan()
	c.popFrame()
	return nil
}

// finishBody appends the closing Return of a function or main block body,
// per §4.10/§4.7.6: skip it if the last compiled node was already a
// Return, otherwise synthesize one (optionally type-checked) from out, or
// from a fresh SetNull register if the body produced no value at all.
func (c *Compiler) finishBody(f *Frame, out CompileNodeOutput, outputType ast.AstIndex, isGenerator bool) error {
	if f.LastNodeWasReturn {
		if out.IsTemporary && out.Register != nil {
			if _, err := f.PopRegister(c.currentSpan()); err != nil {
				return err
			}
		}
		return nil
	}

	var reg Register
	if out.Register != nil {
		reg = *out.Register
	} else {
		r, err := f.PushRegister(c.currentSpan())
		if err != nil {
			return err
		}
		c.emitOp(SetNull)
		c.emitReg(r)
		reg = r
		out.IsTemporary = true
	}

	if outputType.Valid() && !isGenerator && c.settings.EnableTypeChecks {
		typeData, ok := c.ast.Node(outputType).Data.(*ast.TypeData)
		if ok {
			c.emitOp(AssertType)
			c.emitReg(reg)
			c.emitVarU32(uint32(typeData.Cidx))
		}
	}

	c.emitOp(Return)
	c.emitReg(reg)

	if out.IsTemporary {
		if _, err := f.PopRegister(c.currentSpan()); err != nil {
			return err
		}
	}
	return nil
}

// emitAssertType emits AssertType reg, cidx when typeIdx names a Type node
// and type checks are enabled, the hard binding-site check used for typed
// Id/Wildcard targets, function args, and for-loop variables (§4.6/§4.7).
// A no-op when typeIdx is NoIndex or Settings.EnableTypeChecks is false.
func (c *Compiler) emitAssertType(reg Register, typeIdx ast.AstIndex) {
	if !typeIdx.Valid() || !c.settings.EnableTypeChecks {
		return
	}
	typeData, ok := c.ast.Node(typeIdx).Data.(*ast.TypeData)
	if !ok {
		return
	}
	c.emitOp(AssertType)
	c.emitReg(reg)
	c.emitVarU32(uint32(typeData.Cidx))
}

// Disassemble renders compiled bytecode and its debug table as a readable
// pseudo-assembly listing. See dasm.go.
func Disassemble(bytes []byte, debug DebugInfo) (string, error) {
	return dasm(bytes, debug)
}
