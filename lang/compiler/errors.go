package compiler

import (
	"fmt"

	"github.com/loomlang/loom/lang/span"
)

// ErrorKind categorizes a compile failure, matching the taxonomy of shape,
// capacity, semantic, and propagated errors.
type ErrorKind int

const (
	// Shape errors: the AST does not have the structure this node's
	// position requires.
	ErrUnexpectedVariant ErrorKind = iota
	ErrOutOfPositionPattern
	ErrChainMisuse
	ErrMissingImportItem

	// Capacity errors: a compile-time limit was exceeded.
	ErrTooManyTargets
	ErrTooManyEntries
	ErrTooManyArgs
	ErrTooManyCaptures
	ErrTooManyLocals
	ErrRegisterOverflow
	ErrJumpTooFar
	ErrBytecodeTooLarge

	// Semantic errors: the AST is well-shaped but means something the
	// compiler must reject.
	ErrAssignToTemporary
	ErrBreakOutsideLoop
	ErrContinueOutsideLoop
	ErrBreakValueWithoutResult
	ErrInvalidBinaryOp
	ErrPatternArityMismatch
	ErrMultipleEllipses
	ErrInvalidPattern
	ErrMissingChainNode
	ErrMissingChainParent
	ErrMissingResultRegister
	ErrMissingStringSegment
	ErrMissingMapValue
	ErrInvalidExportTarget
	ErrYieldOutsideGenerator

	// Propagated errors: surfaced from the register allocator.
	ErrAllocatorInternal
)

var errorKindNames = map[ErrorKind]string{
	ErrUnexpectedVariant:       "unexpected node variant",
	ErrOutOfPositionPattern:    "pattern out of position",
	ErrChainMisuse:             "invalid chain",
	ErrMissingImportItem:       "missing import item",
	ErrTooManyTargets:          "too many assignment targets",
	ErrTooManyEntries:          "too many container entries",
	ErrTooManyArgs:             "too many function arguments",
	ErrTooManyCaptures:         "too many captures",
	ErrTooManyLocals:           "too many locals",
	ErrRegisterOverflow:        "register overflow",
	ErrJumpTooFar:              "jump offset too far",
	ErrBytecodeTooLarge:        "bytecode too large",
	ErrAssignToTemporary:       "cannot assign to a temporary value",
	ErrBreakOutsideLoop:        "break outside a loop",
	ErrContinueOutsideLoop:     "continue outside a loop",
	ErrBreakValueWithoutResult: "break with value in a loop with no result register",
	ErrInvalidBinaryOp:         "invalid binary operator",
	ErrPatternArityMismatch:    "match pattern arity mismatch",
	ErrMultipleEllipses:        "multiple ellipses in a match pattern group",
	ErrInvalidPattern:          "invalid match pattern",
	ErrMissingChainNode:        "missing next chain node",
	ErrMissingChainParent:      "missing chain parent register",
	ErrMissingResultRegister:   "missing result register",
	ErrMissingStringSegment:    "missing string node in interpolation",
	ErrMissingMapValue:         "missing value for non-id map entry",
	ErrInvalidExportTarget:     "invalid export target",
	ErrYieldOutsideGenerator:   "yield outside a generator",
	ErrAllocatorInternal:       "internal allocator error",
}

// Error is the single error type returned by Compile. It always carries the
// span active when the failure was detected.
type Error struct {
	Kind ErrorKind
	Msg  string
	Span span.Span
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (%s)", errorKindNames[e.Kind], e.Msg, e.Span)
}

func newErr(kind ErrorKind, sp span.Span, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Span: sp}
}
