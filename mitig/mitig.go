// Package mitig applies dynamical decoupling to scheduled circuits and makes the
// result executable: durations aligned to the device granularity and gates rewritten
// into the device basis.
package mitig

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/ddbench/backend"
	"github.com/oqtopus-team/ddbench/circuit"
	"github.com/oqtopus-team/ddbench/transpiler"
	"go.uber.org/zap"
)

type DDSequence int

const (
	XX DDSequence = iota
	XYXY
)

func (s DDSequence) String() string {
	switch s {
	case XX:
		return "XX"
	case XYXY:
		return "XYXY"
	default:
		return fmt.Sprintf("DDSequence(%d)", int(s))
	}
}

func (s DDSequence) Gates() []string {
	switch s {
	case XYXY:
		return []string{"x", "y", "x", "y"}
	default:
		return []string{"x", "x"}
	}
}

func ToDDSequence(i int) (DDSequence, error) {
	switch DDSequence(i) {
	case XX, XYXY:
		return DDSequence(i), nil
	default:
		return 0, errors.Errorf("unknown dynamical decoupling sequence type %d", i)
	}
}

type Pipeline struct {
	target          *backend.Target
	lib             *transpiler.EquivalenceLibrary
	skipResetQubits bool
}

type PipelineOption func(*Pipeline)

// WithSkipResetQubits controls the idle time before a qubit's first operation. It is
// left undecoupled unless skip is false.
func WithSkipResetQubits(skip bool) PipelineOption {
	return func(p *Pipeline) {
		p.skipResetQubits = skip
	}
}

func NewPipeline(target *backend.Target, lib *transpiler.EquivalenceLibrary, opts ...PipelineOption) *Pipeline {
	if lib == nil {
		lib = transpiler.StandardEquivalenceLibrary()
	}
	p := &Pipeline{target: target, lib: lib, skipResetQubits: true}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ApplyDD runs ALAP analysis, pads the idle windows of qubits with seq, rounds every
// duration up to the device granularity and translates the result to the basis.
func (p *Pipeline) ApplyDD(c *circuit.Circuit, seq DDSequence, qubits []int) (*circuit.Circuit, error) {
	s, err := transpiler.ScheduleALAP(c, p.target)
	if err != nil {
		return nil, errors.Wrap(err, "schedule analysis")
	}
	padded, err := transpiler.PadDynamicalDecoupling(transpiler.PadDelay(s), p.target, transpiler.DDOptions{
		Sequence:        seq.Gates(),
		Qubits:          qubits,
		SkipResetQubits: p.skipResetQubits,
	})
	if err != nil {
		return nil, errors.Wrap(err, "dynamical decoupling")
	}
	rounded := RoundDurations(padded, p.target.Granularity)
	out, err := transpiler.TranslateToBasis(rounded, p.target, p.lib)
	if err != nil {
		return nil, err
	}
	zap.L().Debug(fmt.Sprintf("applied %s decoupling to %s on qubits %v", seq, c.Name, qubits))
	return out, nil
}

// RoundDuration rounds d up to the next multiple of granularity.
func RoundDuration(d int64, granularity int) int64 {
	g := int64(granularity)
	if g <= 1 || d%g == 0 {
		return d
	}
	return (d/g + 1) * g
}

// RoundDurations returns a copy of c whose instruction durations are multiples of
// granularity. c is not modified.
func RoundDurations(c *circuit.Circuit, granularity int) *circuit.Circuit {
	out := c.Clone()
	changed := 0
	for i, in := range out.Instructions {
		d := in.DurationDt()
		r := RoundDuration(d, granularity)
		if r != d {
			changed++
		}
		out.Instructions[i].Duration = float64(r)
	}
	if changed > 0 {
		zap.L().Debug(fmt.Sprintf("rounded %d durations of %s to multiples of %d", changed, c.Name, granularity))
	}
	return out
}
