package compiler

import (
	"testing"

	"github.com/loomlang/loom/lang/ast"
	"github.com/loomlang/loom/lang/span"
	"github.com/stretchr/testify/require"
)

func TestFramePushPopRegister(t *testing.T) {
	f := NewFrame(2, nil)
	r0, err := f.PushRegister(span.Zero)
	require.NoError(t, err)
	require.Equal(t, Register(2), r0)

	r1, err := f.PushRegister(span.Zero)
	require.NoError(t, err)
	require.Equal(t, Register(3), r1)

	got, err := f.PopRegister(span.Zero)
	require.NoError(t, err)
	require.Equal(t, r1, got)

	_, err = f.PopRegister(span.Zero)
	require.NoError(t, err)

	_, err = f.PopRegister(span.Zero)
	require.Error(t, err, "popping an empty stack must fail")
}

func TestFrameReserveCommitLocal(t *testing.T) {
	f := NewFrame(4, nil)
	cidx := ast.ConstantIndex(7)

	reg, err := f.ReserveLocal(cidx, span.Zero)
	require.NoError(t, err)

	_, ok := f.GetLocalAssigned(cidx)
	require.False(t, ok, "a reserved-not-yet-committed local must not be visible to reads")

	require.NoError(t, f.DeferOp(reg, []byte{1, 2, 3}, span.Zero))

	ops, err := f.CommitLocal(reg, span.Zero)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	require.Equal(t, []byte{1, 2, 3}, ops[0].Bytes)

	got, ok := f.GetLocalAssigned(cidx)
	require.True(t, ok)
	require.Equal(t, reg, got)

	// Committing an already-assigned local is a no-op that returns no ops.
	ops, err = f.CommitLocal(reg, span.Zero)
	require.NoError(t, err)
	require.Empty(t, ops)
}

func TestFrameAssignLocalIdempotent(t *testing.T) {
	f := NewFrame(4, nil)
	cidx := ast.ConstantIndex(1)

	r1, err := f.AssignLocal(cidx, span.Zero)
	require.NoError(t, err)
	r2, err := f.AssignLocal(cidx, span.Zero)
	require.NoError(t, err)
	require.Equal(t, r1, r2, "re-assigning the same name must return the same register")
}

func TestFrameDeferOpRejectsNonReserved(t *testing.T) {
	f := NewFrame(4, nil)
	cidx := ast.ConstantIndex(2)
	reg, err := f.AssignLocal(cidx, span.Zero)
	require.NoError(t, err)
	err = f.DeferOp(reg, []byte{0}, span.Zero)
	require.Error(t, err, "deferring against an already-assigned local must fail")
}

func TestFrameTooManyLocals(t *testing.T) {
	f := NewFrame(1, nil)
	_, err := f.AssignLocal(ast.ConstantIndex(1), span.Zero)
	require.NoError(t, err)
	_, err = f.AssignLocal(ast.ConstantIndex(2), span.Zero)
	require.Error(t, err, "a second local must collide with the single-slot temporary base")
}

func TestCapturesForNestedFrameFiltersToLocal(t *testing.T) {
	f := NewFrame(4, nil)
	local := ast.ConstantIndex(10)
	exported := ast.ConstantIndex(11)
	outer := ast.ConstantIndex(12)

	_, err := f.AssignLocal(local, span.Zero)
	require.NoError(t, err)
	f.ExportedIds[exported] = true

	got := f.CapturesForNestedFrame([]ast.ConstantIndex{local, exported, outer})
	require.Equal(t, []ast.ConstantIndex{local, exported}, got)
}

func TestLoopStack(t *testing.T) {
	f := NewFrame(1, nil)
	require.Nil(t, f.CurrentLoop())

	r := Register(0)
	f.PushLoop(5, &r)
	loop := f.CurrentLoop()
	require.NotNil(t, loop)
	require.Equal(t, uint32(5), loop.StartIP)

	f.PopLoop()
	require.Nil(t, f.CurrentLoop())
}
