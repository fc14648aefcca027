package compiler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVarU32RoundTrip(t *testing.T) {
	values := []uint32{0, 1, 63, 64, 127, 128, 129, 16383, 16384, 1 << 20, math.MaxUint32}
	for _, v := range values {
		buf := putVarU32(nil, v)
		got, n := getVarU32(buf)
		require.Equal(t, len(buf), n, "value %d consumed unexpected byte count", v)
		require.Equal(t, v, got, "round trip mismatch for %d", v)
	}
}

func TestVarU32AppendsAfterExistingBytes(t *testing.T) {
	buf := []byte{0xAA, 0xBB}
	buf = putVarU32(buf, 300)
	require.Equal(t, byte(0xAA), buf[0])
	require.Equal(t, byte(0xBB), buf[1])
	got, n := getVarU32(buf[2:])
	require.Equal(t, uint32(300), got)
	require.Equal(t, len(buf)-2, n)
}

func TestPatchForwardJumpRejectsBackwardTarget(t *testing.T) {
	c := &Compiler{}
	c.emitOp(Jump)
	ph := c.emitOff16Placeholder()
	err := c.patchForwardJump(ph, 0)
	require.Error(t, err)
}

func TestPatchForwardJumpRejectsTooFar(t *testing.T) {
	c := &Compiler{}
	c.emitOp(Jump)
	ph := c.emitOff16Placeholder()
	err := c.patchForwardJump(ph, uint32(ph)+2+0x10000)
	require.Error(t, err)
}

func TestEmitJumpBack(t *testing.T) {
	c := &Compiler{}
	target := uint32(len(c.bytes))
	c.emitOp(SetNull)
	c.emitReg(0)
	require.NoError(t, c.emitJumpBack(target))
	// Decode it back: the JumpBack opcode byte, then a 2-byte distance.
	require.Equal(t, byte(JumpBack), c.bytes[2])
	dist := int(c.bytes[3]) | int(c.bytes[4])<<8
	end := len(c.bytes)
	require.Equal(t, int(target), end-dist)
}
