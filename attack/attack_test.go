//go:build unit
// +build unit

package attack

import (
	"testing"

	"github.com/oqtopus-team/ddbench/builder"
	"github.com/oqtopus-team/ddbench/circuit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlots(t *testing.T) {
	tests := []struct {
		from, to int
		want     float64
	}{
		{from: 0, to: 5, want: 4},
		{from: 5, to: 10, want: 2},
		{from: 10, to: 15, want: 1},
		{from: 15, to: 20, want: 0.5},
		{from: 20, to: 25, want: 0.75},
		{from: 25, to: 30, want: 0.5},
		{from: 30, to: 35, want: 0.05},
		{from: 35, to: 40, want: 0.025},
		{from: 40, to: SweepLength, want: 0.025},
	}
	for _, tt := range tests {
		for i := tt.from; i < tt.to; i++ {
			assert.Equal(t, tt.want, Slots(i), "i=%d", i)
		}
	}
}

func TestPairs(t *testing.T) {
	assert.Equal(t, []Pair{{3, 4}, {5, 6}, {7, 8}}, Pairs(9, false))
	assert.Equal(t, []Pair{{4, 5}, {7, 8}}, Pairs(9, true))
	assert.Empty(t, Pairs(3, false))
	assert.Empty(t, Pairs(3, true))
}

func TestInject(t *testing.T) {
	tests := []struct {
		name      string
		numQubits int
		i         int
		spacing   bool
		wantCX    int
		wantDelay float64
	}{
		{name: "no rounds at index zero", numQubits: 9, i: 0, wantCX: 0},
		{name: "quadratic growth", numQubits: 9, i: 7, wantCX: 21, wantDelay: 2},
		{name: "spacing pairs", numQubits: 9, i: 12, spacing: true, wantCX: 24, wantDelay: 1},
		{name: "last index", numQubits: 5, i: 44, wantCX: 44, wantDelay: 0.025},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := circuit.New("c", builder.RegisterWidth(tt.numQubits, tt.spacing), 0)
			require.NoError(t, Inject(c, tt.numQubits, tt.i, tt.spacing))
			ops := c.CountOps()
			assert.Equal(t, tt.wantCX, ops["cx"])
			assert.Equal(t, tt.wantCX, ops[circuit.DelayName])
			for k, in := range c.Instructions {
				if k%2 == 0 {
					assert.Equal(t, "cx", in.Name)
					continue
				}
				prev := c.Instructions[k-1]
				assert.Equal(t, []int{prev.Qubits[0]}, in.Qubits)
				assert.Equal(t, tt.wantDelay, in.Duration)
				assert.Equal(t, circuit.UnitUs, in.Unit)
			}
		})
	}
}

func TestInjectRejectsPairsOutsideTheRegister(t *testing.T) {
	tests := []struct {
		name      string
		numQubits int
		spacing   bool
		wantErr   string
	}{
		{
			name:      "even qubit count",
			numQubits: 8,
			wantErr:   "attack pair (7,8) does not fit the 8-qubit register",
		},
		{
			name:      "spacing with a single redundancy qubit",
			numQubits: 4,
			spacing:   true,
			wantErr:   "attack pair (4,5) does not fit the 4-qubit register",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := circuit.New("c", builder.RegisterWidth(tt.numQubits, tt.spacing), 0)
			assert.EqualError(t, Inject(c, tt.numQubits, 3, tt.spacing), tt.wantErr)
			assert.Empty(t, c.Instructions)
		})
	}
	c := circuit.New("c", 9, 0)
	assert.EqualError(t, Inject(c, 9, SweepLength, false), "attack index 45 outside [0,45)")
}
