package transpiler

import (
	"fmt"
	"sort"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/ddbench/backend"
	"github.com/oqtopus-team/ddbench/circuit"
	"go.uber.org/zap"
)

// Schedule holds start times in dt for the instructions of Circuit, whose durations
// have been resolved to dt.
type Schedule struct {
	Circuit *circuit.Circuit
	Start   []int64
	Length  int64
}

// ResolveDurations converts every instruction duration to dt using the target.
func ResolveDurations(c *circuit.Circuit, target *backend.Target) (*circuit.Circuit, error) {
	out := c.Clone()
	for i, in := range out.Instructions {
		var d int64
		switch {
		case in.Name == circuit.BarrierName:
			d = 0
		case in.Name == circuit.DelayName:
			switch in.Unit {
			case circuit.UnitUs:
				d = target.SecondsToDt(in.Duration * 1e-6)
			case circuit.UnitDt, circuit.UnitNone:
				d = in.DurationDt()
			default:
				return nil, errors.Errorf("delay on %v has unknown unit %q", in.Qubits, in.Unit)
			}
		default:
			var ok bool
			d, ok = target.DurationDt(in.Name, in.Qubits)
			if !ok {
				return nil, &CapabilityGapError{Gate: in.Name, Qubits: in.Qubits, Reason: "no duration on the device"}
			}
		}
		out.Instructions[i].Duration = float64(d)
		out.Instructions[i].Unit = circuit.UnitDt
	}
	return out, nil
}

// ScheduleALAP places every instruction as late as possible. Qubits and clbits are
// both treated as resources.
func ScheduleALAP(c *circuit.Circuit, target *backend.Target) (*Schedule, error) {
	resolved, err := ResolveDurations(c, target)
	if err != nil {
		return nil, err
	}
	n := len(resolved.Instructions)
	fromEnd := make([]int64, n)
	qAvail := map[int]int64{}
	cAvail := map[int]int64{}
	var length int64
	for i := n - 1; i >= 0; i-- {
		in := resolved.Instructions[i]
		var t int64
		for _, q := range in.Qubits {
			if qAvail[q] > t {
				t = qAvail[q]
			}
		}
		for _, b := range in.Clbits {
			if cAvail[b] > t {
				t = cAvail[b]
			}
		}
		begin := t + in.DurationDt()
		fromEnd[i] = begin
		for _, q := range in.Qubits {
			qAvail[q] = begin
		}
		for _, b := range in.Clbits {
			cAvail[b] = begin
		}
		if begin > length {
			length = begin
		}
	}
	start := make([]int64, n)
	for i := range start {
		start[i] = length - fromEnd[i]
	}
	zap.L().Debug(fmt.Sprintf("scheduled %s: %d instructions over %d dt", c.Name, n, length))
	return &Schedule{Circuit: resolved, Start: start, Length: length}, nil
}

// PadDelay materializes a schedule: instructions ordered by start time, and every
// idle window of an active qubit filled with an explicit delay.
func PadDelay(s *Schedule) *circuit.Circuit {
	src := s.Circuit
	order := make([]int, len(src.Instructions))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return s.Start[order[a]] < s.Start[order[b]]
	})

	out := circuit.New(src.Name, src.NumQubits, src.NumClbits)
	out.Layout = append([]int(nil), src.Layout...)
	out.Timed = true
	cursor := map[int]int64{}
	for _, idx := range order {
		in := src.Instructions[idx]
		t0 := s.Start[idx]
		for _, q := range in.Qubits {
			if cursor[q] < t0 {
				out.Instructions = append(out.Instructions, delayDt(q, t0-cursor[q]))
			}
		}
		out.Instructions = append(out.Instructions, in)
		for _, q := range in.Qubits {
			cursor[q] = t0 + in.DurationDt()
		}
	}
	for _, q := range src.ActiveQubits() {
		if cursor[q] < s.Length {
			out.Instructions = append(out.Instructions, delayDt(q, s.Length-cursor[q]))
		}
	}
	return out
}

func delayDt(q int, d int64) circuit.Instruction {
	return circuit.Instruction{
		Name:     circuit.DelayName,
		Qubits:   []int{q},
		Duration: float64(d),
		Unit:     circuit.UnitDt,
	}
}

// StartTimes recovers the start time of each instruction of a timed circuit.
func StartTimes(c *circuit.Circuit) []int64 {
	cursor := map[int]int64{}
	start := make([]int64, len(c.Instructions))
	for i, in := range c.Instructions {
		var t int64
		for _, q := range in.Qubits {
			if cursor[q] > t {
				t = cursor[q]
			}
		}
		start[i] = t
		for _, q := range in.Qubits {
			cursor[q] = t + in.DurationDt()
		}
	}
	return start
}
