package backend

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/mohae/deepcopy"
	"go.uber.org/zap"
)

// AnyQargs keys an entry that applies to every operand tuple of the instruction.
const AnyQargs = "*"

// DefaultGranularity is the timing granularity of IBM-style control electronics.
const DefaultGranularity = 8

type InstructionProperties struct {
	// Duration in seconds.
	Duration float64 `json:"duration" toml:"duration"`
	Error    float64 `json:"error" toml:"error"`
}

// Target describes what a device can execute and how long each operation takes.
type Target struct {
	NumQubits   int     `json:"num_qubits"`
	Dt          float64 `json:"dt"`
	Granularity int     `json:"granularity"`
	// Instructions maps an instruction name to its properties keyed by QargsKey.
	Instructions map[string]map[string]*InstructionProperties `json:"instructions"`
}

func NewTarget(numQubits int, dt float64) *Target {
	return &Target{
		NumQubits:    numQubits,
		Dt:           dt,
		Granularity:  DefaultGranularity,
		Instructions: map[string]map[string]*InstructionProperties{},
	}
}

func QargsKey(qargs []int) string {
	if qargs == nil {
		return AnyQargs
	}
	parts := make([]string, len(qargs))
	for i, q := range qargs {
		parts[i] = strconv.Itoa(q)
	}
	return strings.Join(parts, ",")
}

func ParseQargsKey(key string) ([]int, error) {
	if key == AnyQargs {
		return nil, nil
	}
	if key == "" {
		return []int{}, nil
	}
	parts := strings.Split(key, ",")
	qargs := make([]int, len(parts))
	for i, p := range parts {
		q, err := strconv.Atoi(p)
		if err != nil {
			return nil, errors.Wrapf(err, "qargs key %q", key)
		}
		qargs[i] = q
	}
	return qargs, nil
}

func (t *Target) Clone() *Target {
	return deepcopy.Copy(t).(*Target)
}

// AddInstruction registers properties for name keyed by operand tuple. A nil qargs
// key in props registers the wildcard entry.
func (t *Target) AddInstruction(name string, props map[string]*InstructionProperties) error {
	if _, ok := t.Instructions[name]; ok {
		return errors.Errorf("instruction %s is already in the target", name)
	}
	entry := make(map[string]*InstructionProperties, len(props))
	for key, p := range props {
		qargs, err := ParseQargsKey(key)
		if err != nil {
			return err
		}
		for _, q := range qargs {
			if q < 0 || q >= t.NumQubits {
				return errors.Errorf("instruction %s: qubit %d is not on the device", name, q)
			}
		}
		if p == nil {
			entry[key] = nil
			continue
		}
		cp := *p
		entry[key] = &cp
	}
	t.Instructions[name] = entry
	zap.L().Debug(fmt.Sprintf("added instruction %s with %d qargs to the target", name, len(entry)))
	return nil
}

func (t *Target) HasInstruction(name string) bool {
	_, ok := t.Instructions[name]
	return ok
}

// InstructionNames lists the declared instructions in sorted order.
func (t *Target) InstructionNames() []string {
	names := make([]string, 0, len(t.Instructions))
	for n := range t.Instructions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// BasisGates is InstructionNames without the always-supported non-unitary operations.
func (t *Target) BasisGates() []string {
	basis := []string{}
	for _, n := range t.InstructionNames() {
		switch n {
		case "delay", "barrier", "measure":
			continue
		}
		basis = append(basis, n)
	}
	return basis
}

// Properties resolves the entry for qargs, falling back to the wildcard entry.
func (t *Target) Properties(name string, qargs []int) (*InstructionProperties, bool) {
	entry, ok := t.Instructions[name]
	if !ok {
		return nil, false
	}
	if p, ok := entry[QargsKey(qargs)]; ok && p != nil {
		return p, true
	}
	if p, ok := entry[AnyQargs]; ok && p != nil {
		return p, true
	}
	return nil, false
}

// DurationDt returns the duration of name on qargs in device cycles.
func (t *Target) DurationDt(name string, qargs []int) (int64, bool) {
	p, ok := t.Properties(name, qargs)
	if !ok {
		return 0, false
	}
	return t.SecondsToDt(p.Duration), true
}

func (t *Target) SecondsToDt(seconds float64) int64 {
	if t.Dt <= 0 {
		return 0
	}
	return int64(math.Round(seconds / t.Dt))
}

// EnsureOperationAvailable registers name with the per-qubit properties of template
// when the target does not declare it yet. It reports whether the target changed.
func EnsureOperationAvailable(t *Target, name, template string) (bool, error) {
	if t.HasInstruction(name) {
		return false, nil
	}
	src, ok := t.Instructions[template]
	if !ok {
		return false, errors.Errorf("cannot add %s: template instruction %s is not in the target", name, template)
	}
	props := map[string]*InstructionProperties{}
	for q := 0; q < t.NumQubits; q++ {
		p, ok := t.Properties(template, []int{q})
		if !ok {
			continue
		}
		cp := *p
		props[QargsKey([]int{q})] = &cp
	}
	if len(props) == 0 {
		// template only has multi-qubit entries
		for k, p := range src {
			if p == nil {
				continue
			}
			cp := *p
			props[k] = &cp
		}
	}
	if err := t.AddInstruction(name, props); err != nil {
		return false, err
	}
	zap.L().Info(fmt.Sprintf("%s is not in the target; copied the properties of %s", name, template))
	return true, nil
}
