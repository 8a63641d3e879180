// Package circuit holds the gate-level circuit description shared by the builders,
// the transpiler passes and the backends.
package circuit

import (
	"fmt"
	"math"

	"github.com/go-faster/errors"
	"github.com/mohae/deepcopy"
)

type Unit string

const (
	UnitNone Unit = ""
	UnitDt   Unit = "dt"
	UnitUs   Unit = "us"
)

const (
	DelayName   = "delay"
	BarrierName = "barrier"
	MeasureName = "measure"
)

// Instruction is one operation on the circuit's qubits. Composite instructions carry
// their body in Definition, expressed on local qubits 0..len(Qubits)-1.
type Instruction struct {
	Name       string    `json:"name"`
	Qubits     []int     `json:"qubits"`
	Clbits     []int     `json:"clbits,omitempty"`
	Params     []float64 `json:"params,omitempty"`
	Duration   float64   `json:"duration,omitempty"`
	Unit       Unit      `json:"unit,omitempty"`
	Definition *Circuit  `json:"definition,omitempty"`
}

func (in Instruction) IsDirective() bool {
	return in.Name == BarrierName
}

// IsNonUnitary reports operations the basis translation passes through untouched.
func (in Instruction) IsNonUnitary() bool {
	switch in.Name {
	case DelayName, BarrierName, MeasureName:
		return true
	}
	return false
}

// DurationDt returns the duration in device cycles. It is only meaningful once
// the instruction has been scheduled.
func (in Instruction) DurationDt() int64 {
	return int64(math.Round(in.Duration))
}

func (in Instruction) String() string {
	s := in.Name
	if len(in.Params) > 0 {
		s += fmt.Sprintf("%v", in.Params)
	}
	s += fmt.Sprintf(" q%v", in.Qubits)
	if len(in.Clbits) > 0 {
		s += fmt.Sprintf(" c%v", in.Clbits)
	}
	if in.Unit != UnitNone {
		s += fmt.Sprintf(" [%g%s]", in.Duration, in.Unit)
	}
	return s
}

type Circuit struct {
	Name         string        `json:"name"`
	NumQubits    int           `json:"num_qubits"`
	NumClbits    int           `json:"num_clbits"`
	Instructions []Instruction `json:"instructions"`
	// Layout maps virtual qubit i to physical qubit Layout[i] once a layout is applied.
	Layout []int `json:"layout,omitempty"`
	// Timed is set when every instruction carries a duration in dt and every active
	// qubit's timeline is contiguous from zero.
	Timed bool `json:"timed,omitempty"`
}

func New(name string, numQubits, numClbits int) *Circuit {
	return &Circuit{
		Name:         name,
		NumQubits:    numQubits,
		NumClbits:    numClbits,
		Instructions: []Instruction{},
	}
}

func (c *Circuit) Clone() *Circuit {
	if c == nil {
		return nil
	}
	return deepcopy.Copy(c).(*Circuit)
}

// Append validates the operands and appends the instruction.
func (c *Circuit) Append(in Instruction) error {
	seen := make(map[int]struct{}, len(in.Qubits))
	for _, q := range in.Qubits {
		if q < 0 || q >= c.NumQubits {
			return errors.Errorf("%s: qubit %d out of range [0,%d)", in.Name, q, c.NumQubits)
		}
		if _, ok := seen[q]; ok {
			return errors.Errorf("%s: duplicate qubit %d", in.Name, q)
		}
		seen[q] = struct{}{}
	}
	for _, b := range in.Clbits {
		if b < 0 || b >= c.NumClbits {
			return errors.Errorf("%s: clbit %d out of range [0,%d)", in.Name, b, c.NumClbits)
		}
	}
	if in.Definition != nil && in.Definition.NumQubits != len(in.Qubits) {
		return errors.Errorf("%s: definition acts on %d qubits, got %d operands",
			in.Name, in.Definition.NumQubits, len(in.Qubits))
	}
	c.Instructions = append(c.Instructions, in)
	return nil
}

func (c *Circuit) gate(name string, params []float64, qubits ...int) error {
	return c.Append(Instruction{Name: name, Qubits: qubits, Params: params})
}

func (c *Circuit) H(q int) error { return c.gate("h", nil, q) }
func (c *Circuit) X(q int) error { return c.gate("x", nil, q) }
func (c *Circuit) Y(q int) error { return c.gate("y", nil, q) }
func (c *Circuit) Z(q int) error { return c.gate("z", nil, q) }
func (c *Circuit) SX(q int) error { return c.gate("sx", nil, q) }
func (c *Circuit) RZ(theta float64, q int) error {
	return c.gate("rz", []float64{theta}, q)
}
func (c *Circuit) CX(ctrl, tgt int) error { return c.gate("cx", nil, ctrl, tgt) }
func (c *Circuit) CZ(a, b int) error { return c.gate("cz", nil, a, b) }
func (c *Circuit) CCZ(a, b, tgt int) error { return c.gate("ccz", nil, a, b, tgt) }

// Delay idles qubit q. The duration is interpreted in unit.
func (c *Circuit) Delay(q int, duration float64, unit Unit) error {
	if duration < 0 {
		return errors.Errorf("delay: negative duration %g", duration)
	}
	return c.Append(Instruction{Name: DelayName, Qubits: []int{q}, Duration: duration, Unit: unit})
}

func (c *Circuit) Barrier(qubits ...int) error {
	return c.Append(Instruction{Name: BarrierName, Qubits: qubits})
}

func (c *Circuit) Measure(q, b int) error {
	return c.Append(Instruction{Name: MeasureName, Qubits: []int{q}, Clbits: []int{b}})
}

// AppendCircuit appends sub as a single composite instruction acting on qubits.
func (c *Circuit) AppendCircuit(sub *Circuit, qubits ...int) error {
	if sub.NumClbits != 0 {
		return errors.Errorf("%s: composite instructions cannot use clbits", sub.Name)
	}
	return c.Append(Instruction{Name: sub.Name, Qubits: qubits, Definition: sub})
}

// CountOps counts instructions by name without expanding composites.
func (c *Circuit) CountOps() map[string]int {
	ops := make(map[string]int)
	for _, in := range c.Instructions {
		ops[in.Name]++
	}
	return ops
}

// ActiveQubits returns the sorted set of qubits touched by any instruction.
func (c *Circuit) ActiveQubits() []int {
	used := make([]bool, c.NumQubits)
	for _, in := range c.Instructions {
		for _, q := range in.Qubits {
			used[q] = true
		}
	}
	active := []int{}
	for q, u := range used {
		if u {
			active = append(active, q)
		}
	}
	return active
}

// Duration returns the makespan of a timed circuit in dt.
func (c *Circuit) Duration() int64 {
	ends := make(map[int]int64)
	var total int64
	for _, in := range c.Instructions {
		var start int64
		for _, q := range in.Qubits {
			if ends[q] > start {
				start = ends[q]
			}
		}
		end := start + in.DurationDt()
		for _, q := range in.Qubits {
			ends[q] = end
		}
		if end > total {
			total = end
		}
	}
	return total
}
