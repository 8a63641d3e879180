package transpiler

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/ddbench/circuit"
	"go.uber.org/zap"
)

// CompleteLayout checks layout against the device and fills the virtual qubits it does
// not cover with the lowest unused physical qubits.
func CompleteLayout(layout []int, numVirtual, numPhysical int) ([]int, error) {
	if len(layout) > numVirtual {
		return nil, errors.Errorf("layout has %d entries for a %d-qubit circuit", len(layout), numVirtual)
	}
	if numVirtual > numPhysical {
		return nil, errors.Errorf("circuit needs %d qubits but the device has %d", numVirtual, numPhysical)
	}
	used := make([]bool, numPhysical)
	completed := make([]int, 0, numVirtual)
	for v, p := range layout {
		if p < 0 || p >= numPhysical {
			return nil, errors.Errorf("layout maps virtual qubit %d to %d, outside the device [0,%d)", v, p, numPhysical)
		}
		if used[p] {
			return nil, errors.Errorf("layout maps more than one virtual qubit to %d", p)
		}
		used[p] = true
		completed = append(completed, p)
	}
	for p := 0; len(completed) < numVirtual; p++ {
		if !used[p] {
			used[p] = true
			completed = append(completed, p)
		}
	}
	if len(layout) < numVirtual {
		zap.L().Debug(fmt.Sprintf("completed layout %v to %v", layout, completed))
	}
	return completed, nil
}

// ApplyLayout rewrites c onto numPhysical device qubits. Composite definitions are
// local and are left untouched.
func ApplyLayout(c *circuit.Circuit, layout []int, numPhysical int) (*circuit.Circuit, error) {
	completed, err := CompleteLayout(layout, c.NumQubits, numPhysical)
	if err != nil {
		return nil, err
	}
	out := circuit.New(c.Name, numPhysical, c.NumClbits)
	for _, in := range c.Instructions {
		mapped := in
		mapped.Qubits = make([]int, len(in.Qubits))
		for i, q := range in.Qubits {
			mapped.Qubits[i] = completed[q]
		}
		if err := out.Append(mapped); err != nil {
			return nil, err
		}
	}
	out.Layout = completed
	return out, nil
}

// Flatten inlines every composite instruction recursively.
func Flatten(c *circuit.Circuit) *circuit.Circuit {
	out := circuit.New(c.Name, c.NumQubits, c.NumClbits)
	out.Layout = append([]int(nil), c.Layout...)
	out.Instructions = flattenInto(nil, c.Instructions, nil)
	return out
}

func flattenInto(dst []circuit.Instruction, src []circuit.Instruction, qmap []int) []circuit.Instruction {
	for _, in := range src {
		qubits := make([]int, len(in.Qubits))
		for i, q := range in.Qubits {
			if qmap == nil {
				qubits[i] = q
			} else {
				qubits[i] = qmap[q]
			}
		}
		if in.Definition != nil {
			dst = flattenInto(dst, in.Definition.Instructions, qubits)
			continue
		}
		in.Qubits = qubits
		dst = append(dst, in)
	}
	return dst
}
