//go:build unit
// +build unit

package circuit

import (
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bellPair(t *testing.T) *Circuit {
	t.Helper()
	c := New("bell", 2, 2)
	require.NoError(t, c.H(0))
	require.NoError(t, c.CX(0, 1))
	require.NoError(t, c.Measure(0, 0))
	require.NoError(t, c.Measure(1, 1))
	return c
}

func TestAppendValidation(t *testing.T) {
	tests := []struct {
		name    string
		in      Instruction
		wantErr string
	}{
		{
			name:    "qubit out of range",
			in:      Instruction{Name: "x", Qubits: []int{3}},
			wantErr: "x: qubit 3 out of range [0,3)",
		},
		{
			name:    "negative qubit",
			in:      Instruction{Name: "x", Qubits: []int{-1}},
			wantErr: "x: qubit -1 out of range [0,3)",
		},
		{
			name:    "duplicate qubit",
			in:      Instruction{Name: "cx", Qubits: []int{1, 1}},
			wantErr: "cx: duplicate qubit 1",
		},
		{
			name:    "clbit out of range",
			in:      Instruction{Name: MeasureName, Qubits: []int{0}, Clbits: []int{1}},
			wantErr: "measure: clbit 1 out of range [0,1)",
		},
		{
			name:    "definition arity",
			in:      Instruction{Name: "sub", Qubits: []int{0}, Definition: New("sub", 2, 0)},
			wantErr: "sub: definition acts on 2 qubits, got 1 operands",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New("c", 3, 1)
			err := c.Append(tt.in)
			assert.EqualError(t, err, tt.wantErr)
			assert.Empty(t, c.Instructions)
		})
	}
}

func TestDelayRejectsNegativeDuration(t *testing.T) {
	c := New("c", 1, 0)
	assert.Error(t, c.Delay(0, -1, UnitUs))
	assert.NoError(t, c.Delay(0, 0.5, UnitUs))
}

func TestCloneIsDeep(t *testing.T) {
	sub := New("sub", 1, 0)
	require.NoError(t, sub.X(0))
	c := bellPair(t)
	require.NoError(t, c.AppendCircuit(sub, 1))

	clone := c.Clone()
	clone.Instructions[0].Qubits[0] = 1
	clone.Instructions[4].Definition.Instructions[0].Name = "y"

	assert.Equal(t, 0, c.Instructions[0].Qubits[0])
	assert.Equal(t, "x", sub.Instructions[0].Name)
	assert.Nil(t, (*Circuit)(nil).Clone())
}

func TestCountOpsAndActiveQubits(t *testing.T) {
	c := New("c", 5, 0)
	require.NoError(t, c.H(0))
	require.NoError(t, c.CX(0, 3))
	require.NoError(t, c.H(3))

	assert.Equal(t, map[string]int{"h": 2, "cx": 1}, c.CountOps())
	assert.Equal(t, []int{0, 3}, c.ActiveQubits())
}

func TestDuration(t *testing.T) {
	c := New("c", 2, 0)
	c.Instructions = []Instruction{
		{Name: "x", Qubits: []int{0}, Duration: 160, Unit: UnitDt},
		{Name: DelayName, Qubits: []int{1}, Duration: 40, Unit: UnitDt},
		{Name: "cx", Qubits: []int{0, 1}, Duration: 1408, Unit: UnitDt},
		{Name: DelayName, Qubits: []int{1}, Duration: 200, Unit: UnitDt},
	}
	assert.Equal(t, int64(160+1408+200), c.Duration())
}

func TestToQASM3(t *testing.T) {
	sub := New("mark", 3, 0)
	require.NoError(t, sub.X(0))
	require.NoError(t, sub.CCZ(0, 1, 2))

	c := New("demo", 3, 3)
	require.NoError(t, c.H(0))
	require.NoError(t, c.RZ(0.5, 1))
	require.NoError(t, c.AppendCircuit(sub, 2, 0, 1))
	require.NoError(t, c.Delay(1, 0.25, UnitUs))
	require.NoError(t, c.Barrier(0, 1))
	require.NoError(t, c.Measure(2, 2))

	want := heredoc.Doc(`
		OPENQASM 3.0;
		include "stdgates.inc";
		gate ccz a, b, c { h c; ccx a, b, c; h c; }
		gate mark q0, q1, q2 { x q0; ccz q0, q1, q2; }
		qubit[3] q;
		bit[3] c;
		h q[0];
		rz(0.5) q[1];
		mark q[2], q[0], q[1];
		delay[0.25us] q[1];
		barrier q[0], q[1];
		c[2] = measure q[2];
	`)
	assert.Equal(t, want, c.ToQASM3())
}
