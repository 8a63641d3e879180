package transpiler

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/ddbench/backend"
	"github.com/oqtopus-team/ddbench/circuit"
	"go.uber.org/zap"
)

// DDOptions configures PadDynamicalDecoupling.
type DDOptions struct {
	// Sequence is the pulse train inserted in each idle window, e.g. [x, x].
	Sequence []string
	// Qubits are the physical qubits to decouple.
	Qubits []int
	// SkipResetQubits leaves the idle window before the first operation of a qubit alone.
	SkipResetQubits bool
}

// PadDynamicalDecoupling replaces idle windows (runs of delays) on the selected qubits of
// a timed circuit with the pulse sequence. The free time is spread as
// tau/2n, tau/n, ..., tau/n, tau/2n around the n pulses; windows shorter than the pulses
// are left as delays.
func PadDynamicalDecoupling(c *circuit.Circuit, target *backend.Target, opts DDOptions) (*circuit.Circuit, error) {
	if !c.Timed {
		return nil, errors.Errorf("%s is not scheduled", c.Name)
	}
	if len(opts.Sequence) == 0 {
		return nil, errors.New("empty dynamical decoupling sequence")
	}
	selected := make(map[int]bool, len(opts.Qubits))
	for _, q := range opts.Qubits {
		if q < 0 || q >= c.NumQubits {
			return nil, errors.Errorf("decoupling qubit %d is outside the %d-qubit circuit", q, c.NumQubits)
		}
		selected[q] = true
	}

	// instruction indices per selected qubit, in timeline order
	perQubit := map[int][]int{}
	for i, in := range c.Instructions {
		for _, q := range in.Qubits {
			if selected[q] {
				perQubit[q] = append(perQubit[q], i)
			}
		}
	}

	replace := map[int][]circuit.Instruction{}
	drop := map[int]bool{}
	padded := 0
	for q, idxs := range perQubit {
		for pos := 0; pos < len(idxs); {
			if !isDelayOn(c.Instructions[idxs[pos]], q) {
				pos++
				continue
			}
			end := pos
			var window int64
			for end < len(idxs) && isDelayOn(c.Instructions[idxs[end]], q) {
				window += c.Instructions[idxs[end]].DurationDt()
				end++
			}
			leading := pos == 0
			runStart := pos
			pos = end
			if leading && opts.SkipResetQubits {
				continue
			}
			seq, err := ddSequence(target, opts.Sequence, q, window)
			if err != nil {
				return nil, err
			}
			if seq == nil {
				continue
			}
			replace[idxs[runStart]] = seq
			for k := runStart + 1; k < end; k++ {
				drop[idxs[k]] = true
			}
			padded++
		}
	}

	out := circuit.New(c.Name, c.NumQubits, c.NumClbits)
	out.Layout = append([]int(nil), c.Layout...)
	out.Timed = true
	for i, in := range c.Instructions {
		if drop[i] {
			continue
		}
		if seq, ok := replace[i]; ok {
			out.Instructions = append(out.Instructions, seq...)
			continue
		}
		out.Instructions = append(out.Instructions, in)
	}
	zap.L().Debug(fmt.Sprintf("padded %d idle windows of %s with %v", padded, c.Name, opts.Sequence))
	return out, nil
}

func isDelayOn(in circuit.Instruction, q int) bool {
	return in.Name == circuit.DelayName && len(in.Qubits) == 1 && in.Qubits[0] == q
}

// ddSequence builds the pulses for one window, or nil when they do not fit.
func ddSequence(target *backend.Target, gates []string, q int, window int64) ([]circuit.Instruction, error) {
	n := int64(len(gates))
	pulses := make([]int64, n)
	var busy int64
	for i, g := range gates {
		d, ok := target.DurationDt(g, []int{q})
		if !ok {
			return nil, &CapabilityGapError{Gate: g, Qubits: []int{q}, Reason: "decoupling pulse has no duration on the device"}
		}
		pulses[i] = d
		busy += d
	}
	slack := window - busy
	if slack < 0 {
		return nil, nil
	}

	taus := make([]int64, n+1)
	taus[0] = slack / (2 * n)
	taus[n] = slack / (2 * n)
	for i := int64(1); i < n; i++ {
		taus[i] = slack / n
	}
	var sum int64
	for _, tau := range taus {
		sum += tau
	}
	taus[n/2] += slack - sum

	seq := []circuit.Instruction{}
	if taus[0] > 0 {
		seq = append(seq, delayDt(q, taus[0]))
	}
	for i, g := range gates {
		seq = append(seq, circuit.Instruction{
			Name:     g,
			Qubits:   []int{q},
			Duration: float64(pulses[i]),
			Unit:     circuit.UnitDt,
		})
		if taus[i+1] > 0 {
			seq = append(seq, delayDt(q, taus[i+1]))
		}
	}
	return seq, nil
}
