package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func nop(st *State, ct Control) error { return nil }

func TestProgramLookup(t *testing.T) {
	prog := NewProgram(map[int]Line{
		30: LineFunc(nop),
		10: LineFunc(nop),
		50: LineFunc(nop),
	})
	require.Equal(t, 3, prog.Len())
	require.Equal(t, []int{10, 30, 50}, prog.Numbers())

	_, ok := prog.Line(10)
	require.True(t, ok)
	_, ok = prog.Line(20)
	require.False(t, ok)

	first, ok := prog.First()
	require.True(t, ok)
	require.Equal(t, 10, first)
}

func TestProgramNext(t *testing.T) {
	prog := NewProgram(map[int]Line{
		10: LineFunc(nop),
		30: LineFunc(nop),
		50: LineFunc(nop),
	})
	next, ok := prog.Next(10)
	require.True(t, ok)
	require.Equal(t, 30, next)

	// Successor lookup works from numbers not in the program too.
	next, ok = prog.Next(15)
	require.True(t, ok)
	require.Equal(t, 30, next)

	_, ok = prog.Next(50)
	require.False(t, ok)
}

func TestEmptyProgram(t *testing.T) {
	prog := NewProgram(nil)
	require.Equal(t, 0, prog.Len())
	_, ok := prog.First()
	require.False(t, ok)
	_, ok = prog.Next(0)
	require.False(t, ok)
}
