package compiler

import "github.com/loomlang/loom/lang/span"

// DebugEntry maps one bytecode offset to the source span active when the
// instruction at that offset was emitted.
type DebugEntry struct {
	Offset uint32
	Span   span.Span
}

// DebugInfo is the ordered, binary-searchable table Compile returns
// alongside the bytecode.
type DebugInfo []DebugEntry

// Find returns the span for the largest entry whose offset is <= b, the
// same lookup the VM performs.
func (d DebugInfo) Find(b uint32) (span.Span, bool) {
	lo, hi := 0, len(d)-1
	best := -1
	for lo <= hi {
		mid := (lo + hi) / 2
		if d[mid].Offset <= b {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	if best < 0 {
		return span.Zero, false
	}
	return d[best].Span, true
}

func (c *Compiler) currentSpan() span.Span {
	if len(c.spanStack) == 0 {
		return span.Zero
	}
	return c.spanStack[len(c.spanStack)-1]
}

func (c *Compiler) pushSpan(s span.Span) { c.spanStack = append(c.spanStack, s) }

func (c *Compiler) popSpan() { c.spanStack = c.spanStack[:len(c.spanStack)-1] }

// recordDebug appends a debug entry for the instruction about to be
// written at the current byte offset, coalescing consecutive entries with
// an identical span.
func (c *Compiler) recordDebug() {
	sp := c.currentSpan()
	offset := uint32(len(c.bytes))
	if n := len(c.debug); n > 0 && c.debug[n-1].Span == sp {
		return
	}
	c.debug = append(c.debug, DebugEntry{Offset: offset, Span: sp})
}
