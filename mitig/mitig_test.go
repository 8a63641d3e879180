package mitig

import (
	"math/rand/v2"
	"testing"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/ddbench/backend"
	"github.com/oqtopus-team/ddbench/circuit"
	"github.com/oqtopus-team/ddbench/transpiler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDt = 2.0 / 9.0 * 1e-9

func testTarget(t *testing.T, numQubits int) *backend.Target {
	t.Helper()
	tg := backend.NewTarget(numQubits, testDt)
	perQubit := func(dt float64) map[string]*backend.InstructionProperties {
		props := map[string]*backend.InstructionProperties{}
		for q := 0; q < numQubits; q++ {
			props[backend.QargsKey([]int{q})] = &backend.InstructionProperties{Duration: dt * testDt}
		}
		return props
	}
	require.NoError(t, tg.AddInstruction("x", perQubit(160)))
	require.NoError(t, tg.AddInstruction("sx", perQubit(160)))
	require.NoError(t, tg.AddInstruction("rz", perQubit(0)))
	require.NoError(t, tg.AddInstruction("cx", map[string]*backend.InstructionProperties{
		backend.AnyQargs: {Duration: 1408 * testDt},
	}))
	require.NoError(t, tg.AddInstruction("measure", map[string]*backend.InstructionProperties{
		backend.AnyQargs: {Duration: 22400 * testDt},
	}))
	return tg
}

func TestRoundDuration(t *testing.T) {
	tests := []struct {
		name string
		in   int64
		want int64
	}{
		{name: "zero", in: 0, want: 0},
		{name: "aligned", in: 160, want: 160},
		{name: "one over", in: 161, want: 168},
		{name: "one under", in: 167, want: 168},
		{name: "short delay", in: 113, want: 120},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RoundDuration(tt.in, 8))
		})
	}
}

func TestRoundDurationProperty(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 10000; i++ {
		d := r.Int64N(1 << 20)
		got := RoundDuration(d, 8)
		assert.Zero(t, got%8, "d=%d", d)
		assert.GreaterOrEqual(t, got, d)
		assert.Less(t, got-d, int64(8))
	}
}

func TestRoundDurationsIsPure(t *testing.T) {
	c := circuit.New("c", 1, 0)
	c.Timed = true
	c.Instructions = []circuit.Instruction{
		{Name: "x", Qubits: []int{0}, Duration: 160, Unit: circuit.UnitDt},
		{Name: circuit.DelayName, Qubits: []int{0}, Duration: 225, Unit: circuit.UnitDt},
	}
	out := RoundDurations(c, 8)
	assert.Equal(t, float64(232), out.Instructions[1].Duration)
	assert.Equal(t, float64(225), c.Instructions[1].Duration)
	assert.Equal(t, float64(160), out.Instructions[0].Duration)
}

func TestToDDSequence(t *testing.T) {
	s, err := ToDDSequence(0)
	require.NoError(t, err)
	assert.Equal(t, XX, s)
	assert.Equal(t, []string{"x", "x"}, s.Gates())

	s, err = ToDDSequence(1)
	require.NoError(t, err)
	assert.Equal(t, "XYXY", s.String())
	assert.Equal(t, []string{"x", "y", "x", "y"}, s.Gates())

	_, err = ToDDSequence(2)
	assert.EqualError(t, err, "unknown dynamical decoupling sequence type 2")
}

func idleCircuit(t *testing.T, tg *backend.Target) *circuit.Circuit {
	t.Helper()
	c := circuit.New("idle", 2, 2)
	require.NoError(t, c.X(0))
	require.NoError(t, c.X(1))
	require.NoError(t, c.Delay(1, 0.95, circuit.UnitUs))
	require.NoError(t, c.CX(0, 1))
	require.NoError(t, c.Measure(0, 0))
	require.NoError(t, c.Measure(1, 1))
	timed, err := transpiler.NewTranspiler(tg, nil).Transpile(c, nil)
	require.NoError(t, err)
	return timed
}

func TestApplyDD(t *testing.T) {
	tests := []struct {
		name    string
		seq     DDSequence
		wantOps map[string]int
	}{
		{
			name:    "xx",
			seq:     XX,
			wantOps: map[string]int{"x": 4},
		},
		{
			name:    "xyxy keeps y when the target declares it",
			seq:     XYXY,
			wantOps: map[string]int{"x": 4, "y": 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tg := testTarget(t, 2)
			_, err := backend.EnsureOperationAvailable(tg, "y", "x")
			require.NoError(t, err)
			timed := idleCircuit(t, tg)

			out, err := NewPipeline(tg, nil, WithSkipResetQubits(false)).ApplyDD(timed, tt.seq, []int{0})
			require.NoError(t, err)
			ops := out.CountOps()
			for name, n := range tt.wantOps {
				assert.Equal(t, n, ops[name], name)
			}
			for _, in := range out.Instructions {
				assert.Zero(t, in.DurationDt()%8, in.String())
			}
			assert.Equal(t, timed.Layout, out.Layout)
		})
	}
}

func TestApplyDDSkipResetQubits(t *testing.T) {
	tg := testTarget(t, 2)
	timed := idleCircuit(t, tg)

	out, err := NewPipeline(tg, nil).ApplyDD(timed, XX, []int{0})
	require.NoError(t, err)
	assert.Equal(t, 2, out.CountOps()["x"], "leading window is skipped by default")

	out, err = NewPipeline(tg, nil, WithSkipResetQubits(false)).ApplyDD(timed, XX, []int{0})
	require.NoError(t, err)
	assert.Equal(t, 4, out.CountOps()["x"])
}

func TestApplyDDWithoutY(t *testing.T) {
	tg := testTarget(t, 2)
	_, err := NewPipeline(tg, nil).ApplyDD(idleCircuit(t, tg), XYXY, []int{0})
	var gap *transpiler.CapabilityGapError
	require.True(t, errors.As(err, &gap))
	assert.Equal(t, "y", gap.Gate)
}
