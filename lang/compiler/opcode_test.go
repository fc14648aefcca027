package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpcodeString(t *testing.T) {
	for op := Opcode(0); op < opcodeCount; op++ {
		s := op.String()
		assert.NotEmpty(t, s, "opcode %d has no string form", op)
		assert.False(t, strings.HasPrefix(s, "Opcode("), "opcode %d missing a name entry", op)
	}
	unknown := opcodeCount
	assert.Equal(t, "Opcode(", unknown.String()[:len("Opcode(")])
}

func TestOpcodeShapesComplete(t *testing.T) {
	for op := Opcode(0); op < opcodeCount; op++ {
		_, ok := opcodeShapes[op]
		assert.True(t, ok, "opcode %s has no entry in opcodeShapes", op)
	}
}
