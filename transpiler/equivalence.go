package transpiler

import (
	"math"
	"sort"

	"github.com/oqtopus-team/ddbench/circuit"
)

// Rule rewrites one instruction into an equivalent sequence up to global phase.
// The returned instructions act on the same qubits as in.
type Rule func(in circuit.Instruction) []circuit.Instruction

type EquivalenceLibrary struct {
	rules map[string]Rule
}

func NewEquivalenceLibrary() *EquivalenceLibrary {
	return &EquivalenceLibrary{rules: map[string]Rule{}}
}

func (l *EquivalenceLibrary) Add(name string, r Rule) {
	l.rules[name] = r
}

func (l *EquivalenceLibrary) Lookup(name string) (Rule, bool) {
	r, ok := l.rules[name]
	return r, ok
}

func (l *EquivalenceLibrary) Names() []string {
	names := make([]string, 0, len(l.rules))
	for n := range l.rules {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func op(name string, qubits ...int) circuit.Instruction {
	return circuit.Instruction{Name: name, Qubits: qubits}
}

func rz(theta float64, q int) circuit.Instruction {
	return circuit.Instruction{Name: "rz", Qubits: []int{q}, Params: []float64{theta}}
}

func rzRule(theta float64) Rule {
	return func(in circuit.Instruction) []circuit.Instruction {
		return []circuit.Instruction{rz(theta, in.Qubits[0])}
	}
}

// StandardEquivalenceLibrary rewrites the gates used by the experiment circuits into
// the IBM basis {rz, sx, x, cx}.
func StandardEquivalenceLibrary() *EquivalenceLibrary {
	l := NewEquivalenceLibrary()
	l.Add("h", func(in circuit.Instruction) []circuit.Instruction {
		q := in.Qubits[0]
		return []circuit.Instruction{rz(math.Pi/2, q), op("sx", q), rz(math.Pi/2, q)}
	})
	l.Add("x", func(in circuit.Instruction) []circuit.Instruction {
		q := in.Qubits[0]
		return []circuit.Instruction{op("sx", q), op("sx", q)}
	})
	l.Add("y", func(in circuit.Instruction) []circuit.Instruction {
		q := in.Qubits[0]
		return []circuit.Instruction{rz(math.Pi, q), op("x", q)}
	})
	l.Add("z", rzRule(math.Pi))
	l.Add("s", rzRule(math.Pi/2))
	l.Add("sdg", rzRule(-math.Pi/2))
	l.Add("t", rzRule(math.Pi/4))
	l.Add("tdg", rzRule(-math.Pi/4))
	l.Add("id", func(in circuit.Instruction) []circuit.Instruction {
		return []circuit.Instruction{}
	})
	l.Add("cz", func(in circuit.Instruction) []circuit.Instruction {
		a, b := in.Qubits[0], in.Qubits[1]
		return []circuit.Instruction{op("h", b), op("cx", a, b), op("h", b)}
	})
	l.Add("ccx", func(in circuit.Instruction) []circuit.Instruction {
		a, b, c := in.Qubits[0], in.Qubits[1], in.Qubits[2]
		return []circuit.Instruction{op("h", c), op("ccz", a, b, c), op("h", c)}
	})
	l.Add("ccz", func(in circuit.Instruction) []circuit.Instruction {
		a, b, c := in.Qubits[0], in.Qubits[1], in.Qubits[2]
		return []circuit.Instruction{
			op("cx", b, c), op("tdg", c),
			op("cx", a, c), op("t", c),
			op("cx", b, c), op("tdg", c),
			op("cx", a, c), op("t", b), op("t", c),
			op("cx", a, b), op("t", a), op("tdg", b),
			op("cx", a, b),
		}
	})
	return l
}
