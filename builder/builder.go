// Package builder constructs the logical experiment circuits: three data qubits
// running two Grover iterations, surrounded by redundancy qubits.
package builder

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/ddbench/circuit"
)

// NumDataQubits is the width of the Grover search register.
const NumDataQubits = 3

// GroverIterations is the number of Grover operators applied to the data qubits.
const GroverIterations = 2

const GroverOperatorName = "grover"

type InitialState int

const (
	StateZero InitialState = iota
	StateOne
	StatePlus
)

func (s InitialState) String() string {
	switch s {
	case StateZero:
		return "|0>"
	case StateOne:
		return "|1>"
	case StatePlus:
		return "|+>"
	default:
		return fmt.Sprintf("InitialState(%d)", int(s))
	}
}

func ToInitialState(i int) (InitialState, error) {
	switch InitialState(i) {
	case StateZero, StateOne, StatePlus:
		return InitialState(i), nil
	default:
		return 0, errors.Errorf("unknown initial state %d", i)
	}
}

// GroverOperator returns the three-qubit oracle and diffusion step marking |111>.
func GroverOperator() *circuit.Circuit {
	g := circuit.New(GroverOperatorName, NumDataQubits, 0)
	all := func(gate func(int) error) {
		for q := 0; q < NumDataQubits; q++ {
			_ = gate(q)
		}
	}
	_ = g.CCZ(0, 1, 2)
	all(g.H)
	all(g.X)
	_ = g.CCZ(0, 1, 2)
	all(g.X)
	all(g.H)
	return g
}

// RegisterWidth is the number of qubits allocated for numQubits logical qubits. The
// spacing variant interleaves one buffer qubit per redundancy pair.
func RegisterWidth(numQubits int, spacing bool) int {
	if !spacing {
		return numQubits
	}
	return numQubits + (numQubits-NumDataQubits)/2
}

// BaseCircuit prepares the redundancy qubits 3, 5, 7, ... in state, puts the data
// qubits in uniform superposition and applies grover twice. Measurement is added by
// Measure once all other operations are in place.
func BaseCircuit(name string, numQubits int, state InitialState, spacing bool, grover *circuit.Circuit) (*circuit.Circuit, error) {
	if numQubits < NumDataQubits {
		return nil, errors.Errorf("need at least %d qubits, got %d", NumDataQubits, numQubits)
	}
	width := RegisterWidth(numQubits, spacing)
	c := circuit.New(name, width, width)

	for q := NumDataQubits; q < numQubits; q += 2 {
		var err error
		switch state {
		case StateOne:
			err = c.X(q)
		case StatePlus:
			err = c.H(q)
		}
		if err != nil {
			return nil, err
		}
	}
	for q := 0; q < NumDataQubits; q++ {
		if err := c.H(q); err != nil {
			return nil, err
		}
	}
	for i := 0; i < GroverIterations; i++ {
		if err := c.AppendCircuit(grover, 0, 1, 2); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Measure maps every qubit to the classical bit of the same index.
func Measure(c *circuit.Circuit) error {
	for q := 0; q < c.NumQubits; q++ {
		if err := c.Measure(q, q); err != nil {
			return err
		}
	}
	return nil
}
