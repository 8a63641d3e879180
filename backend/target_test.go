//go:build unit
// +build unit

package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDt = 2.0 / 9.0 * 1e-9

func testTarget(t *testing.T) *Target {
	t.Helper()
	tg := NewTarget(3, testDt)
	x := map[string]*InstructionProperties{}
	for q := 0; q < 3; q++ {
		x[QargsKey([]int{q})] = &InstructionProperties{Duration: 160 * testDt, Error: 1e-4 * float64(q+1)}
	}
	require.NoError(t, tg.AddInstruction("x", x))
	require.NoError(t, tg.AddInstruction("cx", map[string]*InstructionProperties{
		AnyQargs: {Duration: 1408 * testDt, Error: 8e-3},
	}))
	require.NoError(t, tg.AddInstruction("measure", map[string]*InstructionProperties{
		AnyQargs: {Duration: 22400 * testDt, Error: 1.5e-2},
	}))
	return tg
}

func TestQargsKey(t *testing.T) {
	assert.Equal(t, "*", QargsKey(nil))
	assert.Equal(t, "", QargsKey([]int{}))
	assert.Equal(t, "3,4", QargsKey([]int{3, 4}))

	q, err := ParseQargsKey("3,4")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, q)
	_, err = ParseQargsKey("a")
	assert.Error(t, err)
}

func TestTargetLookup(t *testing.T) {
	tg := testTarget(t)
	assert.Equal(t, []string{"cx", "measure", "x"}, tg.InstructionNames())
	assert.Equal(t, []string{"cx", "x"}, tg.BasisGates())

	d, ok := tg.DurationDt("x", []int{2})
	assert.True(t, ok)
	assert.Equal(t, int64(160), d)

	d, ok = tg.DurationDt("cx", []int{2, 0})
	assert.True(t, ok)
	assert.Equal(t, int64(1408), d)

	_, ok = tg.DurationDt("x", []int{5})
	assert.False(t, ok)
	_, ok = tg.Properties("y", []int{0})
	assert.False(t, ok)
}

func TestAddInstructionErrors(t *testing.T) {
	tg := testTarget(t)
	assert.EqualError(t, tg.AddInstruction("x", nil), "instruction x is already in the target")
	assert.EqualError(t,
		tg.AddInstruction("sx", map[string]*InstructionProperties{"7": {}}),
		"instruction sx: qubit 7 is not on the device")
}

func TestEnsureOperationAvailable(t *testing.T) {
	tg := testTarget(t)

	added, err := EnsureOperationAvailable(tg, "y", "x")
	require.NoError(t, err)
	assert.True(t, added)
	for q := 0; q < 3; q++ {
		y, ok := tg.Properties("y", []int{q})
		require.True(t, ok)
		x, _ := tg.Properties("x", []int{q})
		assert.Equal(t, *x, *y)
		assert.NotSame(t, x, y)
	}

	added, err = EnsureOperationAvailable(tg, "y", "x")
	require.NoError(t, err)
	assert.False(t, added)

	_, err = EnsureOperationAvailable(tg, "z", "sx")
	assert.EqualError(t, err, "cannot add z: template instruction sx is not in the target")
}

func TestTargetClone(t *testing.T) {
	tg := testTarget(t)
	clone := tg.Clone()
	clone.Instructions["x"]["0"].Duration = 0
	p, _ := tg.Properties("x", []int{0})
	assert.Equal(t, 160*testDt, p.Duration)
}
