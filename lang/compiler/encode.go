package compiler

import "encoding/binary"

// putVarU32 appends x to dst using 7-bit little-endian varint encoding:
// each byte carries 7 payload bits plus a high "more bytes follow" bit.
// A 32-bit value needs at most 5 bytes.
func putVarU32(dst []byte, x uint32) []byte {
	for x >= 0x80 {
		dst = append(dst, byte(x)|0x80)
		x >>= 7
	}
	return append(dst, byte(x))
}

// getVarU32 decodes a varuint starting at b[0], returning the value and the
// number of bytes consumed.
func getVarU32(b []byte) (uint32, int) {
	var x uint32
	var shift uint
	for i, c := range b {
		x |= uint32(c&0x7f) << shift
		if c&0x80 == 0 {
			return x, i + 1
		}
		shift += 7
	}
	return x, len(b)
}

// emitOp appends the opcode byte and records a debug entry at its offset,
// as required of every op that corresponds to user-visible program effect.
func (c *Compiler) emitOp(op Opcode) {
	c.recordDebug()
	c.bytes = append(c.bytes, byte(op))
}

// emitOpWithoutSpan appends the opcode byte without a debug entry, for
// instructions that belong logically to the enclosing statement (cleanup
// ops emitted after the statement's own debug entry already exists).
func (c *Compiler) emitOpWithoutSpan(op Opcode) {
	c.bytes = append(c.bytes, byte(op))
}

func (c *Compiler) emitByte(b byte) { c.bytes = append(c.bytes, b) }

func (c *Compiler) emitReg(r Register) { c.bytes = append(c.bytes, byte(r)) }

func (c *Compiler) emitVarU32(x uint32) {
	c.bytes = putVarU32(c.bytes, x)
}

// emitOff16Placeholder appends a zeroed 2-byte slot and returns its byte
// offset, to be patched later by patchForwardJump/patchBackwardJump.
func (c *Compiler) emitOff16Placeholder() uint32 {
	off := uint32(len(c.bytes))
	c.bytes = append(c.bytes, 0, 0)
	return off
}

// patchForwardJump writes, at placeholderOffset, the forward distance from
// the byte after the 2-byte field to target.
func (c *Compiler) patchForwardJump(placeholderOffset, target uint32) error {
	from := placeholderOffset + 2
	if target < from {
		return newErr(ErrJumpTooFar, c.currentSpan(), "backward target for forward jump")
	}
	dist := target - from
	if dist > 0xFFFF {
		return newErr(ErrJumpTooFar, c.currentSpan(), "jump distance %d exceeds 65535", dist)
	}
	binary.LittleEndian.PutUint16(c.bytes[placeholderOffset:], uint16(dist))
	return nil
}

// emitJumpBack appends a JumpBack opcode whose off16 operand is the
// "forward-style" distance computed back to target, per the wire format:
// (here + 3) - target, where 3 = 1 opcode byte + 2 operand bytes.
func (c *Compiler) emitJumpBack(target uint32) error {
	c.emitOp(JumpBack)
	here := uint32(len(c.bytes))
	end := here + 2
	if end < target {
		return newErr(ErrJumpTooFar, c.currentSpan(), "JumpBack target ahead of instruction")
	}
	dist := end - target
	if dist > 0xFFFF {
		return newErr(ErrJumpTooFar, c.currentSpan(), "backward jump distance %d exceeds 65535", dist)
	}
	c.bytes = append(c.bytes, 0, 0)
	binary.LittleEndian.PutUint16(c.bytes[end-2:], uint16(dist))
	return nil
}
