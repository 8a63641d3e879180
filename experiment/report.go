package experiment

import (
	"time"

	"github.com/go-faster/jx"
	"github.com/go-openapi/strfmt"
	"github.com/oqtopus-team/ddbench/core"
)

type VariantReport struct {
	Index      int         `json:"index"`
	Name       string      `json:"name"`
	Variant    string      `json:"variant"`
	Attack     bool        `json:"attack"`
	Mitigation string      `json:"mitigation"`
	SweepIndex int         `json:"sweep_index"`
	SlotsUs    float64     `json:"slots_us"`
	NumQubits  int         `json:"num_qubits"`
	Ops        int         `json:"num_instructions"`
	DurationDt int64       `json:"duration_dt"`
	Fidelity   *float64    `json:"fidelity,omitempty"`
	Counts     core.Counts `json:"counts,omitempty"`
}

// Report is a snapshot of an experiment suitable for JSON output.
type Report struct {
	ID           string          `json:"id"`
	Backend      string          `json:"backend"`
	State        string          `json:"state"`
	NumQubits    int             `json:"num_qubits"`
	InitialState string          `json:"initial_state"`
	DDSequence   string          `json:"dd_sequence"`
	Shots        int             `json:"shots"`
	Metric       string          `json:"metric"`
	Created      strfmt.DateTime `json:"created"`
	Ended        strfmt.DateTime `json:"ended,omitempty"`
	Variants     []VariantReport `json:"variants"`
}

func (e *Experiment) Report() *Report {
	r := &Report{
		ID:           e.id,
		Backend:      e.adapter.Name(),
		State:        e.state.String(),
		NumQubits:    e.cfg.NumQubits(),
		InitialState: e.cfg.InitialState().String(),
		DDSequence:   e.cfg.DDSequence().String(),
		Shots:        e.cfg.Shots(),
		Metric:       e.cfg.Metric().String(),
		Created:      strfmt.DateTime(e.created),
		Variants:     make([]VariantReport, 0, len(e.variants)),
	}
	if !e.ended.IsZero() {
		r.Ended = strfmt.DateTime(e.ended)
	}
	for i, v := range e.variants {
		vr := VariantReport{
			Index:      v.Index,
			Name:       v.Name(),
			Variant:    v.Spec.Label(),
			Attack:     v.Spec.Attack,
			Mitigation: v.Spec.Mitigation.String(),
			SweepIndex: v.SweepIndex,
			SlotsUs:    v.Slots,
			NumQubits:  v.Final.NumQubits,
			Ops:        len(v.Final.Instructions),
			DurationDt: v.Final.Duration(),
		}
		if e.state >= StateExecuted && i < len(e.results) {
			vr.Counts = e.results[i].Clone()
		}
		if e.state >= StateScored && i < len(e.fidelities) {
			f := e.fidelities[i]
			vr.Fidelity = &f
		}
		r.Variants = append(r.Variants, vr)
	}
	return r
}

func (r *Report) JSON() string {
	return core.ToPrettyJSON(r)
}

// Duration is zero until the circuits have been run.
func (r *Report) Duration() time.Duration {
	if time.Time(r.Ended).IsZero() {
		return 0
	}
	return time.Time(r.Ended).Sub(time.Time(r.Created))
}

type series struct {
	variant    string
	sweepIndex []int
	slots      []float64
	fidelity   []float64
}

// SeriesJSON groups the scored variants by family, in the order the families were
// added, for plotting fidelity against the attack delay:
//
//	{"metric":"one_minus_distance","series":[{"variant":"attack","sweep_index":[...],"slots_us":[...],"fidelity":[...]}]}
func (r *Report) SeriesJSON() []byte {
	order := []string{}
	byVariant := map[string]*series{}
	for _, v := range r.Variants {
		if v.Fidelity == nil {
			continue
		}
		s, ok := byVariant[v.Variant]
		if !ok {
			s = &series{variant: v.Variant}
			byVariant[v.Variant] = s
			order = append(order, v.Variant)
		}
		s.sweepIndex = append(s.sweepIndex, v.SweepIndex)
		s.slots = append(s.slots, v.SlotsUs)
		s.fidelity = append(s.fidelity, *v.Fidelity)
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("metric")
	e.Str(r.Metric)
	e.FieldStart("series")
	e.ArrStart()
	for _, name := range order {
		s := byVariant[name]
		e.ObjStart()
		e.FieldStart("variant")
		e.Str(s.variant)
		e.FieldStart("sweep_index")
		e.ArrStart()
		for _, i := range s.sweepIndex {
			e.Int(i)
		}
		e.ArrEnd()
		e.FieldStart("slots_us")
		e.ArrStart()
		for _, x := range s.slots {
			e.Float64(x)
		}
		e.ArrEnd()
		e.FieldStart("fidelity")
		e.ArrStart()
		for _, x := range s.fidelity {
			e.Float64(x)
		}
		e.ArrEnd()
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
	return e.Bytes()
}
