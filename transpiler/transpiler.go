// Package transpiler maps logical circuits onto a device: layout, basis translation,
// as-late-as-possible scheduling and idle-time padding.
package transpiler

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/ddbench/backend"
	"github.com/oqtopus-team/ddbench/circuit"
	"go.uber.org/zap"
)

type Transpiler struct {
	target *backend.Target
	lib    *EquivalenceLibrary
}

func NewTranspiler(target *backend.Target, lib *EquivalenceLibrary) *Transpiler {
	if lib == nil {
		lib = StandardEquivalenceLibrary()
	}
	return &Transpiler{target: target, lib: lib}
}

func (t *Transpiler) Target() *backend.Target {
	return t.target
}

func (t *Transpiler) Library() *EquivalenceLibrary {
	return t.lib
}

// Transpile returns a timed circuit on the device's physical qubits.
func (t *Transpiler) Transpile(c *circuit.Circuit, layout []int) (*circuit.Circuit, error) {
	placed, err := ApplyLayout(Flatten(c), layout, t.target.NumQubits)
	if err != nil {
		return nil, errors.Wrapf(err, "layout %s", c.Name)
	}
	translated, err := TranslateToBasis(placed, t.target, t.lib)
	if err != nil {
		return nil, errors.Wrapf(err, "translate %s", c.Name)
	}
	s, err := ScheduleALAP(translated, t.target)
	if err != nil {
		return nil, errors.Wrapf(err, "schedule %s", c.Name)
	}
	timed := PadDelay(s)
	zap.L().Debug(fmt.Sprintf("transpiled %s onto %v: %d instructions, %d dt",
		c.Name, placed.Layout, len(timed.Instructions), s.Length))
	return timed, nil
}
