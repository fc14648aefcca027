package ast

import "github.com/dolthub/swiss"

// ConstantPool is the compile-time constant table: interned strings, and
// the int64/float64 values that don't fit the bytecode's compact
// small-integer instruction forms. A Builder fills it; the compiler reads
// it, except that compileImport interns each import item's joined dotted
// path ("a.b.c") as a new string constant during compilation.
//
// String interning uses a swiss-table hash map so that repeated literals
// (the same identifier spelled many times, the same string constant used
// in several chain links) collapse to one ConstantIndex, keeping both the
// constant pool and the varuint-encoded operand stream small.
type ConstantPool struct {
	strings    []string
	internStr  *swiss.Map[string, ConstantIndex]
	ints       []int64
	floats     []float64
}

// NewConstantPool returns an empty constant pool.
func NewConstantPool() *ConstantPool {
	return &ConstantPool{
		internStr: swiss.NewMap[string, ConstantIndex](16),
	}
}

// InternString returns the ConstantIndex for s, adding it to the pool if
// this is the first occurrence. Interning is idempotent: calling it twice
// with the same string returns the same index, which is what keeps
// Compile deterministic across repeated compilations of the same tree (no
// iteration order ever leaks into which index a string gets — it is
// assigned once, at first insertion, in the order the builder inserts).
func (p *ConstantPool) InternString(s string) ConstantIndex {
	if idx, ok := p.internStr.Get(s); ok {
		return idx
	}
	idx := ConstantIndex(len(p.strings))
	p.strings = append(p.strings, s)
	p.internStr.Put(s, idx)
	return idx
}

// AddInt appends a new int64 constant and returns its index. Unlike
// strings, integer and float constants are not deduplicated: the AST
// builder (or parser) is expected to do that if it cares to, since two
// occurrences of the same literal integer are rarely the same occurrence
// textually and deduplicating them would not reduce constant-pool size in
// the common case.
func (p *ConstantPool) AddInt(v int64) ConstantIndex {
	idx := ConstantIndex(len(p.ints))
	p.ints = append(p.ints, v)
	return idx
}

// AddFloat appends a new float64 constant and returns its index.
func (p *ConstantPool) AddFloat(v float64) ConstantIndex {
	idx := ConstantIndex(len(p.floats))
	p.floats = append(p.floats, v)
	return idx
}

// String returns the interned string at idx.
func (p *ConstantPool) String(idx ConstantIndex) (string, bool) {
	if int(idx) >= len(p.strings) {
		return "", false
	}
	return p.strings[idx], true
}

// Int returns the int64 constant at idx.
func (p *ConstantPool) Int(idx ConstantIndex) (int64, bool) {
	if int(idx) >= len(p.ints) {
		return 0, false
	}
	return p.ints[idx], true
}

// Float returns the float64 constant at idx.
func (p *ConstantPool) Float(idx ConstantIndex) (float64, bool) {
	if int(idx) >= len(p.floats) {
		return 0, false
	}
	return p.floats[idx], true
}

// NumStrings, NumInts and NumFloats report pool sizes, mostly useful for
// tests and the disassembler's constant dump.
func (p *ConstantPool) NumStrings() int { return len(p.strings) }
func (p *ConstantPool) NumInts() int    { return len(p.ints) }
func (p *ConstantPool) NumFloats() int  { return len(p.floats) }
