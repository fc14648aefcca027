package compiler

import (
	"github.com/loomlang/loom/lang/ast"
	"github.com/loomlang/loom/lang/span"
	"golang.org/x/exp/slices"
)

// Register is an 8-bit VM register identifier. 0..254 are addressable;
// SentinelRegister (255) never denotes a real register.
type Register = uint8

// SentinelRegister is the reserved "no register" value.
const SentinelRegister Register = 255

// LocalState is the lifecycle state of one entry in a Frame's local
// register table.
type LocalState uint8

const (
	LocalAssigned LocalState = iota
	LocalReserved
	LocalAllocated
)

// DeferredOp is a fully-encoded instruction staged against a Reserved
// local, to be appended to the byte stream at commit time rather than at
// the point it was logically emitted. This is how a self-capturing
// closure's Capture op ends up after the outer binding it captures is
// committed, while still being attributed to the span where it was
// conceptually written.
type DeferredOp struct {
	Bytes []byte
	Span  span.Span
}

// LocalRegister is one entry of a Frame's local register table; its index
// in Frame.Locals is the register number itself, since local registers
// occupy 0..TemporaryBase contiguously in allocation order.
type LocalRegister struct {
	State    LocalState
	Cidx     ast.ConstantIndex // meaningful for Assigned/Reserved
	Deferred []DeferredOp
}

// LoopInfo tracks one currently-compiling loop's backward-jump target, its
// optional result register, and the break placeholders awaiting patch at
// loop end.
type LoopInfo struct {
	StartIP          uint32
	ResultRegister   *Register
	JumpPlaceholders []uint32
}

// Frame is the per-function (or per-top-level-block) compilation context:
// its register allocator, loop stack, export set, and generator/output
// type metadata. Frames are never shared between compiler instances or
// goroutines.
type Frame struct {
	Locals         []LocalRegister
	RegisterStack  []Register
	TemporaryBase  Register
	TemporaryCount Register

	Loops []LoopInfo

	ExportedIds map[ast.ConstantIndex]bool

	OutputType        ast.AstIndex
	IsGenerator       bool
	LastNodeWasReturn bool
}

// NewFrame creates a frame whose local register band spans
// 0..localCount, pre-populated with the given already-bound locals
// (receiver, parameters, captures, in register order) at the front.
func NewFrame(localCount int, preassigned []ast.ConstantIndex) *Frame {
	f := &Frame{
		TemporaryBase: Register(localCount),
		ExportedIds:   make(map[ast.ConstantIndex]bool),
		OutputType:    ast.NoIndex,
	}
	f.Locals = make([]LocalRegister, 0, localCount)
	for _, cidx := range preassigned {
		f.Locals = append(f.Locals, LocalRegister{State: LocalAssigned, Cidx: cidx})
	}
	return f
}

// PushRegister allocates the next temporary register.
func (f *Frame) PushRegister(sp span.Span) (Register, error) {
	next := int(f.TemporaryBase) + int(f.TemporaryCount)
	if next >= int(SentinelRegister) {
		return 0, newErr(ErrRegisterOverflow, sp, "exceeded 255 registers")
	}
	r := Register(next)
	f.RegisterStack = append(f.RegisterStack, r)
	f.TemporaryCount++
	return r, nil
}

// PopRegister removes and returns the top of the temporary register stack.
func (f *Frame) PopRegister(sp span.Span) (Register, error) {
	if len(f.RegisterStack) == 0 {
		return 0, newErr(ErrAllocatorInternal, sp, "pop on empty register stack")
	}
	n := len(f.RegisterStack) - 1
	r := f.RegisterStack[n]
	f.RegisterStack = f.RegisterStack[:n]
	if r >= f.TemporaryBase {
		if f.TemporaryCount == 0 {
			return 0, newErr(ErrAllocatorInternal, sp, "temporary count underflow")
		}
		f.TemporaryCount--
	}
	return r, nil
}

// PeekRegister returns the nth register from the top of the stack (0 =
// top) without popping it.
func (f *Frame) PeekRegister(n int, sp span.Span) (Register, error) {
	idx := len(f.RegisterStack) - 1 - n
	if idx < 0 {
		return 0, newErr(ErrAllocatorInternal, sp, "peek beyond register stack")
	}
	return f.RegisterStack[idx], nil
}

// Truncate pops registers until the stack's length equals count.
func (f *Frame) Truncate(count int, sp span.Span) error {
	for len(f.RegisterStack) > count {
		if _, err := f.PopRegister(sp); err != nil {
			return err
		}
	}
	if len(f.RegisterStack) != count {
		// Using x/exp/slices here keeps the truncation path bounds-checked
		// and explicit about direction, matching how the allocator is
		// expected to only ever shrink, never grow, via this call.
		f.RegisterStack = slices.Delete(f.RegisterStack, count, len(f.RegisterStack))
	}
	return nil
}

// StackCount returns the current depth of the temporary register stack,
// for later use with Truncate to discard everything pushed since.
func (f *Frame) StackCount() int { return len(f.RegisterStack) }

// ReserveLocal returns the register for cidx, allocating a new Reserved
// slot if this is the first reference.
func (f *Frame) ReserveLocal(cidx ast.ConstantIndex, sp span.Span) (Register, error) {
	for i := range f.Locals {
		if f.Locals[i].Cidx == cidx && (f.Locals[i].State == LocalAssigned || f.Locals[i].State == LocalReserved) {
			return Register(i), nil
		}
	}
	idx := len(f.Locals)
	if idx >= int(f.TemporaryBase) {
		return 0, newErr(ErrTooManyLocals, sp, "local register would collide with temporary base")
	}
	f.Locals = append(f.Locals, LocalRegister{State: LocalReserved, Cidx: cidx})
	return Register(idx), nil
}

// CommitLocal transitions a Reserved slot to Assigned and returns any ops
// staged against it, in insertion order. Committing an already-Assigned
// slot is a no-op.
func (f *Frame) CommitLocal(reg Register, sp span.Span) ([]DeferredOp, error) {
	if int(reg) >= len(f.Locals) {
		return nil, newErr(ErrAllocatorInternal, sp, "commit of out-of-range local %d", reg)
	}
	entry := &f.Locals[reg]
	switch entry.State {
	case LocalAssigned:
		return nil, nil
	case LocalReserved:
		ops := entry.Deferred
		entry.Deferred = nil
		entry.State = LocalAssigned
		return ops, nil
	default:
		return nil, newErr(ErrAllocatorInternal, sp, "commit of non-reserved local %d", reg)
	}
}

// AssignLocal is the idempotent combination of reserve+commit used by
// callers that have no RHS to compile before the binding takes effect.
func (f *Frame) AssignLocal(cidx ast.ConstantIndex, sp span.Span) (Register, error) {
	for i := range f.Locals {
		if f.Locals[i].Cidx == cidx {
			switch f.Locals[i].State {
			case LocalAssigned:
				return Register(i), nil
			case LocalReserved:
				if len(f.Locals[i].Deferred) != 0 {
					return 0, newErr(ErrAllocatorInternal, sp, "assign_local on reserved slot with deferred ops")
				}
				f.Locals[i].State = LocalAssigned
				return Register(i), nil
			}
		}
	}
	idx := len(f.Locals)
	if idx >= int(f.TemporaryBase) {
		return 0, newErr(ErrTooManyLocals, sp, "local register would collide with temporary base")
	}
	f.Locals = append(f.Locals, LocalRegister{State: LocalAssigned, Cidx: cidx})
	return Register(idx), nil
}

// DeferOp appends a fully-encoded instruction to reg's deferred list; reg
// must currently be Reserved.
func (f *Frame) DeferOp(reg Register, bytes []byte, sp span.Span) error {
	if int(reg) >= len(f.Locals) || f.Locals[reg].State != LocalReserved {
		return newErr(ErrAllocatorInternal, sp, "defer_op on non-reserved local %d", reg)
	}
	cp := make([]byte, len(bytes))
	copy(cp, bytes)
	f.Locals[reg].Deferred = append(f.Locals[reg].Deferred, DeferredOp{Bytes: cp, Span: sp})
	return nil
}

// AllocateAnonymous appends an Allocated (anonymous, never read by name)
// local register, used for wildcard bindings and captured-container
// placeholders.
func (f *Frame) AllocateAnonymous(sp span.Span) (Register, error) {
	idx := len(f.Locals)
	if idx >= int(f.TemporaryBase) {
		return 0, newErr(ErrTooManyLocals, sp, "local register would collide with temporary base")
	}
	f.Locals = append(f.Locals, LocalRegister{State: LocalAllocated})
	return Register(idx), nil
}

// GetLocalAssigned returns the register of the first Assigned local
// binding cidx, if any. Reserved slots are invisible to reads, matching
// the source semantics that an in-flight assignment's RHS sees the outer
// binding rather than its own not-yet-committed slot.
func (f *Frame) GetLocalAssigned(cidx ast.ConstantIndex) (Register, bool) {
	for i := range f.Locals {
		if f.Locals[i].State == LocalAssigned && f.Locals[i].Cidx == cidx {
			return Register(i), true
		}
	}
	return 0, false
}

// CapturesForNestedFrame returns the subset of accessed names that this
// frame can supply directly (either bound here already, reserved here
// in-flight, or exported), in the same order as accessed.
func (f *Frame) CapturesForNestedFrame(accessed []ast.ConstantIndex) []ast.ConstantIndex {
	var out []ast.ConstantIndex
	for _, cidx := range accessed {
		local := false
		for i := range f.Locals {
			if f.Locals[i].Cidx == cidx && (f.Locals[i].State == LocalAssigned || f.Locals[i].State == LocalReserved) {
				local = true
				break
			}
		}
		if local || f.ExportedIds[cidx] {
			out = append(out, cidx)
		}
	}
	return out
}

// PushLoop starts tracking a new innermost loop.
func (f *Frame) PushLoop(startIP uint32, resultReg *Register) {
	f.Loops = append(f.Loops, LoopInfo{StartIP: startIP, ResultRegister: resultReg})
}

// CurrentLoop returns the innermost active loop, if any.
func (f *Frame) CurrentLoop() *LoopInfo {
	if len(f.Loops) == 0 {
		return nil
	}
	return &f.Loops[len(f.Loops)-1]
}

// PopLoop discards the innermost loop's tracking state (its placeholders
// must already have been patched by the caller).
func (f *Frame) PopLoop() {
	f.Loops = f.Loops[:len(f.Loops)-1]
}
