package transpiler

import (
	"fmt"

	"github.com/oqtopus-team/ddbench/backend"
	"github.com/oqtopus-team/ddbench/circuit"
	"go.uber.org/zap"
)

const maxExpansionDepth = 16

// TranslateToBasis rewrites every gate outside the target's basis through composite
// definitions and the equivalence library. On a timed circuit the generated gates take
// their durations from the target.
func TranslateToBasis(c *circuit.Circuit, target *backend.Target, lib *EquivalenceLibrary) (*circuit.Circuit, error) {
	basis := target.BasisGates()
	inBasis := make(map[string]bool, len(basis))
	for _, b := range basis {
		inBasis[b] = true
	}
	tr := &translator{target: target, lib: lib, basis: basis, inBasis: inBasis, timed: c.Timed}

	out := circuit.New(c.Name, c.NumQubits, c.NumClbits)
	out.Layout = append([]int(nil), c.Layout...)
	out.Timed = c.Timed
	for _, in := range c.Instructions {
		expanded, err := tr.expand(in, 0)
		if err != nil {
			return nil, err
		}
		out.Instructions = append(out.Instructions, expanded...)
	}
	zap.L().Debug(fmt.Sprintf("translated %s: %d -> %d instructions",
		c.Name, len(c.Instructions), len(out.Instructions)))
	return out, nil
}

type translator struct {
	target  *backend.Target
	lib     *EquivalenceLibrary
	basis   []string
	inBasis map[string]bool
	timed   bool
}

func (tr *translator) gap(in circuit.Instruction, reason string) error {
	return &CapabilityGapError{Gate: in.Name, Qubits: in.Qubits, Basis: tr.basis, Reason: reason}
}

func (tr *translator) expand(in circuit.Instruction, depth int) ([]circuit.Instruction, error) {
	if in.IsNonUnitary() || tr.inBasis[in.Name] {
		return []circuit.Instruction{in}, nil
	}
	if depth >= maxExpansionDepth {
		return nil, tr.gap(in, "expansion does not terminate")
	}

	var replacement []circuit.Instruction
	if in.Definition != nil {
		replacement = make([]circuit.Instruction, 0, len(in.Definition.Instructions))
		for _, sub := range in.Definition.Instructions {
			mapped := sub
			mapped.Qubits = make([]int, len(sub.Qubits))
			for i, q := range sub.Qubits {
				mapped.Qubits[i] = in.Qubits[q]
			}
			replacement = append(replacement, mapped)
		}
	} else if rule, ok := tr.lib.Lookup(in.Name); ok {
		replacement = rule(in)
	} else {
		return nil, tr.gap(in, "no equivalent in the basis")
	}

	out := []circuit.Instruction{}
	for _, r := range replacement {
		expanded, err := tr.expand(r, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	if tr.timed {
		for i := range out {
			d, ok := tr.target.DurationDt(out[i].Name, out[i].Qubits)
			if !ok {
				return nil, tr.gap(out[i], "no duration on the device")
			}
			out[i].Duration = float64(d)
			out[i].Unit = circuit.UnitDt
		}
	}
	return out, nil
}
