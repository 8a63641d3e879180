// Package attack injects the timing side-channel: repeated entangling operations between
// redundancy qubit pairs, each followed by an idle delay.
package attack

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/ddbench/builder"
	"github.com/oqtopus-team/ddbench/circuit"
	"go.uber.org/zap"
)

// SweepLength is the number of attack intensities in a sweep.
const SweepLength = 45

// Slots returns the delay in microseconds used at sweep index i. The value halves every
// five indices from 4us down to 0.5us, then steps through 0.75, 0.5, 0.05 and 0.025us.
func Slots(i int) float64 {
	switch {
	case i < 20:
		return 8 / float64(int(1)<<(i/5+1))
	case i < 25:
		return 0.75
	case i < 30:
		return 0.5
	case i < 35:
		return 0.05
	default:
		return 0.025
	}
}

type Pair struct {
	Control int
	Target  int
}

// Pairs lists the redundancy pairs attacked in a numQubits circuit. Without spacing
// they are (3,4), (5,6), ...; with spacing (4,5), (7,8), ... so that a buffer qubit
// separates neighbouring pairs.
func Pairs(numQubits int, spacing bool) []Pair {
	pairs := []Pair{}
	if spacing {
		for k := builder.NumDataQubits; k < numQubits; k += 3 {
			pairs = append(pairs, Pair{Control: k + 1, Target: k + 2})
		}
		return pairs
	}
	for k := builder.NumDataQubits; k < numQubits; k += 2 {
		pairs = append(pairs, Pair{Control: k, Target: k + 1})
	}
	return pairs
}

// Inject appends i attack rounds to c. Each round entangles every pair and idles its
// control qubit for Slots(i) microseconds.
func Inject(c *circuit.Circuit, numQubits, i int, spacing bool) error {
	if i < 0 || i >= SweepLength {
		return errors.Errorf("attack index %d outside [0,%d)", i, SweepLength)
	}
	pairs := Pairs(numQubits, spacing)
	for _, p := range pairs {
		if p.Target >= c.NumQubits {
			return errors.Errorf("attack pair (%d,%d) does not fit the %d-qubit register",
				p.Control, p.Target, c.NumQubits)
		}
	}
	slots := Slots(i)
	for j := 0; j < i; j++ {
		for _, p := range pairs {
			if err := c.CX(p.Control, p.Target); err != nil {
				return err
			}
			if err := c.Delay(p.Control, slots, circuit.UnitUs); err != nil {
				return err
			}
		}
	}
	zap.L().Debug(fmt.Sprintf("injected %d rounds over %d pairs with %gus delays into %s",
		i, len(pairs), slots, c.Name))
	return nil
}
