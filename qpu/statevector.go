package qpu

import (
	"math"
	"math/cmplx"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/ddbench/circuit"
)

// maxSimulatedQubits bounds the statevector at 2^24 amplitudes.
const maxSimulatedQubits = 24

type matrix2 [2][2]complex128

var (
	gateH  = matrix2{{complex(1/math.Sqrt2, 0), complex(1/math.Sqrt2, 0)}, {complex(1/math.Sqrt2, 0), complex(-1/math.Sqrt2, 0)}}
	gateX  = matrix2{{0, 1}, {1, 0}}
	gateY  = matrix2{{0, -1i}, {1i, 0}}
	gateZ  = matrix2{{1, 0}, {0, -1}}
	gateS  = matrix2{{1, 0}, {0, 1i}}
	gateSd = matrix2{{1, 0}, {0, -1i}}
	gateT  = matrix2{{1, 0}, {0, cmplx.Exp(1i * math.Pi / 4)}}
	gateTd = matrix2{{1, 0}, {0, cmplx.Exp(-1i * math.Pi / 4)}}
	gateSX = matrix2{{0.5 + 0.5i, 0.5 - 0.5i}, {0.5 - 0.5i, 0.5 + 0.5i}}
	gateI  = matrix2{{1, 0}, {0, 1}}
)

var singleQubitGates = map[string]matrix2{
	"h": gateH, "x": gateX, "y": gateY, "z": gateZ, "s": gateS, "sdg": gateSd,
	"t": gateT, "tdg": gateTd, "sx": gateSX, "id": gateI,
}

func gateRZ(theta float64) matrix2 {
	return matrix2{{cmplx.Exp(complex(0, -theta/2)), 0}, {0, cmplx.Exp(complex(0, theta/2))}}
}

// statevector holds 2^n amplitudes; local qubit k is bit k of the index.
type statevector struct {
	n   int
	amp []complex128
}

func newStatevector(n int) (*statevector, error) {
	if n > maxSimulatedQubits {
		return nil, errors.Errorf("%d active qubits exceed the simulator limit of %d", n, maxSimulatedQubits)
	}
	amp := make([]complex128, 1<<n)
	amp[0] = 1
	return &statevector{n: n, amp: amp}, nil
}

// apply acts with m on qubit q for the basis states where every bit of ctrl is set.
func (s *statevector) apply(q int, m matrix2, ctrl int) {
	bit := 1 << q
	for i := range s.amp {
		if i&bit != 0 || i&ctrl != ctrl {
			continue
		}
		j := i | bit
		a0, a1 := s.amp[i], s.amp[j]
		s.amp[i] = m[0][0]*a0 + m[0][1]*a1
		s.amp[j] = m[1][0]*a0 + m[1][1]*a1
	}
}

// applyGate applies a named gate on local qubits.
func (s *statevector) applyGate(in circuit.Instruction, qs []int) error {
	if m, ok := singleQubitGates[in.Name]; ok && len(qs) == 1 {
		s.apply(qs[0], m, 0)
		return nil
	}
	switch {
	case in.Name == "rz" && len(qs) == 1 && len(in.Params) == 1:
		s.apply(qs[0], gateRZ(in.Params[0]), 0)
	case in.Name == "cx" && len(qs) == 2:
		s.apply(qs[1], gateX, 1<<qs[0])
	case in.Name == "cz" && len(qs) == 2:
		s.apply(qs[1], gateZ, 1<<qs[0])
	case in.Name == "ccx" && len(qs) == 3:
		s.apply(qs[2], gateX, 1<<qs[0]|1<<qs[1])
	case in.Name == "ccz" && len(qs) == 3:
		s.apply(qs[2], gateZ, 1<<qs[0]|1<<qs[1])
	default:
		return errors.Errorf("simulator does not support %s", in)
	}
	return nil
}

func (s *statevector) probabilities() []float64 {
	p := make([]float64, len(s.amp))
	for i, a := range s.amp {
		p[i] = real(a)*real(a) + imag(a)*imag(a)
	}
	return p
}
