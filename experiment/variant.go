package experiment

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/ddbench/circuit"
)

type Mitigation int

const (
	MitigationNone Mitigation = iota
	MitigationDD
	MitigationSpacing
	MitigationDDAndSpacing
)

func (m Mitigation) String() string {
	switch m {
	case MitigationNone:
		return "none"
	case MitigationDD:
		return "dd"
	case MitigationSpacing:
		return "spacing"
	case MitigationDDAndSpacing:
		return "dd_spacing"
	default:
		return fmt.Sprintf("Mitigation(%d)", int(m))
	}
}

func (m Mitigation) HasDD() bool {
	return m == MitigationDD || m == MitigationDDAndSpacing
}

func (m Mitigation) HasSpacing() bool {
	return m == MitigationSpacing || m == MitigationDDAndSpacing
}

// VariantSpec selects one family of circuits. An attacking spec expands into one
// circuit per sweep index; a quiet spec into a single circuit.
type VariantSpec struct {
	Attack     bool
	Mitigation Mitigation
}

var (
	NoAttack                = VariantSpec{}
	NoAttackWithDD          = VariantSpec{Mitigation: MitigationDD}
	AttackWithoutMitigation = VariantSpec{Attack: true}
	AttackWithDD            = VariantSpec{Attack: true, Mitigation: MitigationDD}
	AttackWithSpacing       = VariantSpec{Attack: true, Mitigation: MitigationSpacing}
	AttackWithDDAndSpacing  = VariantSpec{Attack: true, Mitigation: MitigationDDAndSpacing}
)

// AllVariantSpecs lists the families in the order a full run builds them.
func AllVariantSpecs() []VariantSpec {
	return []VariantSpec{
		NoAttack,
		NoAttackWithDD,
		AttackWithoutMitigation,
		AttackWithDD,
		AttackWithSpacing,
		AttackWithDDAndSpacing,
	}
}

// Label is "attack" or "no_attack" followed by the mitigation, e.g. attack_dd_spacing.
func (s VariantSpec) Label() string {
	l := "no_attack"
	if s.Attack {
		l = "attack"
	}
	if s.Mitigation != MitigationNone {
		l += "_" + s.Mitigation.String()
	}
	return l
}

func ParseVariantSpec(label string) (VariantSpec, error) {
	for _, s := range AllVariantSpecs() {
		if s.Label() == label {
			return s, nil
		}
	}
	if label == (VariantSpec{Mitigation: MitigationSpacing}).Label() {
		return VariantSpec{Mitigation: MitigationSpacing}, nil
	}
	if label == (VariantSpec{Mitigation: MitigationDDAndSpacing}).Label() {
		return VariantSpec{Mitigation: MitigationDDAndSpacing}, nil
	}
	return VariantSpec{}, errors.Errorf("unknown variant %q", label)
}

// ParseVariantSpecs accepts labels or "all". Duplicates are kept; each adds circuits.
func ParseVariantSpecs(labels []string) ([]VariantSpec, error) {
	specs := []VariantSpec{}
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "all" {
			specs = append(specs, AllVariantSpecs()...)
			continue
		}
		s, err := ParseVariantSpec(l)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	return specs, nil
}

// Variant is one circuit of the collection. Final is what was submitted.
type Variant struct {
	Index      int
	Spec       VariantSpec
	SweepIndex int
	// Slots is the attack delay in microseconds, zero without attack.
	Slots   float64
	Logical *circuit.Circuit
	Final   *circuit.Circuit
}

func (v *Variant) Name() string {
	if !v.Spec.Attack {
		return v.Spec.Label()
	}
	return fmt.Sprintf("%s_%02d", v.Spec.Label(), v.SweepIndex)
}
