package transpiler

import (
	"fmt"
	"strings"
)

// CapabilityGapError reports an operation the target cannot express or time.
type CapabilityGapError struct {
	Gate   string
	Qubits []int
	Basis  []string
	Reason string
}

func (e *CapabilityGapError) Error() string {
	msg := fmt.Sprintf("cannot run %s on qubits %v", e.Gate, e.Qubits)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if len(e.Basis) > 0 {
		msg += fmt.Sprintf(" (basis: %s)", strings.Join(e.Basis, ", "))
	}
	return msg
}
