package circuit

import (
	"fmt"
	"strconv"
	"strings"
)

// gates available from stdgates.inc, everything else needs a gate definition
var stdGates = map[string]bool{
	"p": true, "x": true, "y": true, "z": true, "h": true, "s": true, "sdg": true,
	"t": true, "tdg": true, "sx": true, "rx": true, "ry": true, "rz": true,
	"cx": true, "cy": true, "cz": true, "cp": true, "crx": true, "cry": true,
	"crz": true, "ch": true, "swap": true, "ccx": true, "cswap": true, "cu": true,
	"id": true, "u1": true, "u2": true, "u3": true,
}

var builtinBodies = map[string]string{
	"ccz": "gate ccz a, b, c { h c; ccx a, b, c; h c; }",
}

// ToQASM3 renders the circuit as an OpenQASM 3 program. Composite instructions become
// gate definitions emitted before the body.
func (c *Circuit) ToQASM3() string {
	var defs []string
	defined := map[string]bool{}
	collectDefinitions(c, defined, &defs)

	var b strings.Builder
	b.WriteString("OPENQASM 3.0;\n")
	b.WriteString("include \"stdgates.inc\";\n")
	for _, d := range defs {
		b.WriteString(d)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "qubit[%d] q;\n", c.NumQubits)
	if c.NumClbits > 0 {
		fmt.Fprintf(&b, "bit[%d] c;\n", c.NumClbits)
	}
	for _, in := range c.Instructions {
		b.WriteString(statement(in, func(q int) string { return fmt.Sprintf("q[%d]", q) }))
		b.WriteString("\n")
	}
	return b.String()
}

func collectDefinitions(c *Circuit, defined map[string]bool, defs *[]string) {
	for _, in := range c.Instructions {
		if defined[in.Name] || stdGates[in.Name] || in.IsNonUnitary() {
			continue
		}
		if body, ok := builtinBodies[in.Name]; ok {
			defined[in.Name] = true
			*defs = append(*defs, body)
			continue
		}
		if in.Definition == nil {
			// left to the consumer, e.g. a device-native gate
			continue
		}
		collectDefinitions(in.Definition, defined, defs)
		defined[in.Name] = true
		*defs = append(*defs, gateDefinition(in.Name, in.Definition))
	}
}

func gateDefinition(name string, def *Circuit) string {
	args := make([]string, def.NumQubits)
	for i := range args {
		args[i] = fmt.Sprintf("q%d", i)
	}
	body := make([]string, 0, len(def.Instructions))
	for _, in := range def.Instructions {
		body = append(body, statement(in, func(q int) string { return args[q] }))
	}
	return fmt.Sprintf("gate %s %s { %s }", name, strings.Join(args, ", "), strings.Join(body, " "))
}

func statement(in Instruction, qubit func(int) string) string {
	operands := make([]string, len(in.Qubits))
	for i, q := range in.Qubits {
		operands[i] = qubit(q)
	}
	switch in.Name {
	case MeasureName:
		return fmt.Sprintf("c[%d] = measure %s;", in.Clbits[0], operands[0])
	case DelayName:
		return fmt.Sprintf("delay[%s%s] %s;", formatFloat(in.Duration), unitOrDt(in.Unit), strings.Join(operands, ", "))
	case BarrierName:
		if len(operands) == 0 {
			return "barrier;"
		}
		return fmt.Sprintf("barrier %s;", strings.Join(operands, ", "))
	}
	name := in.Name
	if len(in.Params) > 0 {
		ps := make([]string, len(in.Params))
		for i, p := range in.Params {
			ps[i] = formatFloat(p)
		}
		name = fmt.Sprintf("%s(%s)", name, strings.Join(ps, ", "))
	}
	return fmt.Sprintf("%s %s;", name, strings.Join(operands, ", "))
}

func unitOrDt(u Unit) string {
	if u == UnitNone {
		return string(UnitDt)
	}
	return string(u)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
