// Package experiment drives the timing side-channel study: it builds the circuit
// families, submits them in one batch and scores the results.
package experiment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/oqtopus-team/ddbench/attack"
	"github.com/oqtopus-team/ddbench/backend"
	"github.com/oqtopus-team/ddbench/builder"
	"github.com/oqtopus-team/ddbench/circuit"
	"github.com/oqtopus-team/ddbench/core"
	"github.com/oqtopus-team/ddbench/fidelity"
	"github.com/oqtopus-team/ddbench/mitig"
	"github.com/oqtopus-team/ddbench/transpiler"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	tracer = otel.Tracer("ddbench.experiment")
	meter  = otel.Meter("ddbench.experiment")
)

var (
	circuitsBuilt metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		circuitsBuilt, metricsErr = meter.Int64Counter(
			"ddbench_circuits_built_total",
			metric.WithDescription("Number of circuit variants built"),
		)
	})
	return metricsErr
}

type State int

const (
	StateEmpty State = iota
	StateBuilding
	StateExecuted
	StateScored
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateBuilding:
		return "building"
	case StateExecuted:
		return "executed"
	case StateScored:
		return "scored"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Experiment owns its circuit collection, results and fidelities. Index i of each
// refers to the same variant. It is not safe for concurrent use.
type Experiment struct {
	id         string
	adapter    *backend.Adapter
	cfg        *Config
	grover     *circuit.Circuit
	transpiler *transpiler.Transpiler
	pipeline   *mitig.Pipeline
	evaluator  *fidelity.Evaluator

	state      State
	variants   []*Variant
	results    []core.Counts
	fidelities []float64
	created    time.Time
	ended      time.Time
}

// New prepares the backend target, registering y with the properties of x when the
// device lacks it, since XYXY decoupling needs it.
func New(adapter *backend.Adapter, cfg *Config) (*Experiment, error) {
	if cfg == nil {
		var err error
		if cfg, err = NewConfig(); err != nil {
			return nil, err
		}
	}
	if _, err := adapter.EnsureOperationAvailable("y", "x"); err != nil {
		return nil, errors.Wrap(err, "prepare target")
	}
	if err := initMetrics(); err != nil {
		zap.L().Warn("failed to create the experiment metrics", zap.Error(err))
	}
	target := adapter.Target()
	lib := transpiler.StandardEquivalenceLibrary()
	e := &Experiment{
		id:         uuid.NewString(),
		adapter:    adapter,
		cfg:        cfg,
		grover:     builder.GroverOperator(),
		transpiler: transpiler.NewTranspiler(target, lib),
		pipeline:   mitig.NewPipeline(target, lib, mitig.WithSkipResetQubits(cfg.SkipResetQubits())),
		evaluator:  fidelity.NewEvaluator(cfg.Metric()),
		state:      StateEmpty,
		created:    time.Now(),
	}
	zap.L().Info(fmt.Sprintf("created experiment %s on %s with %d qubits", e.id, adapter.Name(), cfg.NumQubits()))
	return e, nil
}

func (e *Experiment) ID() string {
	return e.id
}

func (e *Experiment) Config() *Config {
	return e.cfg
}

func (e *Experiment) State() State {
	return e.state
}

// AddVariants builds the circuits of spec and appends them. Either every circuit of
// the family is appended or none. Adding after a run discards the previous results.
func (e *Experiment) AddVariants(ctx context.Context, spec VariantSpec) error {
	ctx, span := tracer.Start(ctx, "experiment.AddVariants",
		trace.WithAttributes(attribute.String("variant", spec.Label())))
	defer span.End()

	built := []*Variant{}
	if spec.Attack {
		for i := 0; i < attack.SweepLength; i++ {
			v, err := e.buildVariant(spec, i)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return err
			}
			built = append(built, v)
		}
	} else {
		v, err := e.buildVariant(spec, 0)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		built = append(built, v)
	}

	if e.state >= StateExecuted {
		zap.L().Warn(fmt.Sprintf("adding %s after a run; previous results are discarded", spec.Label()))
		e.results = nil
		e.fidelities = nil
	}
	for _, v := range built {
		v.Index = len(e.variants)
		e.variants = append(e.variants, v)
	}
	e.state = StateBuilding
	if circuitsBuilt != nil {
		circuitsBuilt.Add(ctx, int64(len(built)), metric.WithAttributes(attribute.String("variant", spec.Label())))
	}
	zap.L().Info(fmt.Sprintf("added %d %s circuits; %d in total", len(built), spec.Label(), len(e.variants)))
	return nil
}

func (e *Experiment) buildVariant(spec VariantSpec, sweepIndex int) (*Variant, error) {
	v := &Variant{Spec: spec}
	if spec.Attack {
		v.SweepIndex = sweepIndex
		v.Slots = attack.Slots(sweepIndex)
	}
	spacing := spec.Mitigation.HasSpacing()
	c, err := builder.BaseCircuit(v.Name(), e.cfg.NumQubits(), e.cfg.InitialState(), spacing, e.grover)
	if err != nil {
		return nil, err
	}
	if spec.Attack {
		if err := attack.Inject(c, e.cfg.NumQubits(), sweepIndex, spacing); err != nil {
			return nil, errors.Wrap(err, v.Name())
		}
	}
	if err := builder.Measure(c); err != nil {
		return nil, err
	}
	v.Logical = c

	layout := registerLayout(e.cfg.layoutFor(spacing), c.NumQubits)
	final, err := e.transpiler.Transpile(c, layout)
	if err != nil {
		return nil, errors.Wrapf(err, "transpile %s", v.Name())
	}
	if spec.Mitigation.HasDD() {
		final, err = e.pipeline.ApplyDD(final, e.cfg.DDSequence(), layout[:builder.NumDataQubits])
		if err != nil {
			return nil, errors.Wrapf(err, "decouple %s", v.Name())
		}
	}
	v.Final = final
	return v, nil
}

// registerLayout keeps the entries of layout that the register uses. Extra entries are
// allowed in the configuration and ignored here.
func registerLayout(layout []int, width int) []int {
	if len(layout) > width {
		return layout[:width]
	}
	return layout
}

func (e *Experiment) AddNoAttackCircuit(ctx context.Context) error {
	return e.AddVariants(ctx, NoAttack)
}

func (e *Experiment) AddNoAttackPlusDDCircuit(ctx context.Context) error {
	return e.AddVariants(ctx, NoAttackWithDD)
}

func (e *Experiment) AddAttackWithoutMitigationCircuits(ctx context.Context) error {
	return e.AddVariants(ctx, AttackWithoutMitigation)
}

func (e *Experiment) AddAttackWithDDCircuits(ctx context.Context) error {
	return e.AddVariants(ctx, AttackWithDD)
}

func (e *Experiment) AddAttackWithSpacingCircuits(ctx context.Context) error {
	return e.AddVariants(ctx, AttackWithSpacing)
}

func (e *Experiment) AddAttackWithDDAndSpacingCircuits(ctx context.Context) error {
	return e.AddVariants(ctx, AttackWithDDAndSpacing)
}

// RunAllCircuits submits the whole collection as one batch and keeps the results.
// Running again resubmits and replaces the results and fidelities.
func (e *Experiment) RunAllCircuits(ctx context.Context) error {
	if len(e.variants) == 0 {
		return errors.New("no circuits to run")
	}
	ctx, span := tracer.Start(ctx, "experiment.RunAllCircuits",
		trace.WithAttributes(
			attribute.Int("circuits", len(e.variants)),
			attribute.String("backend", e.adapter.Name()),
		))
	defer span.End()

	results, err := e.adapter.Submit(ctx, e.Circuits(), e.cfg.Shots())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	e.results = results
	e.fidelities = nil
	e.state = StateExecuted
	e.ended = time.Now()
	span.SetStatus(codes.Ok, "")
	return nil
}

// CalculateFidelityOfDataQubits scores every result against the ideal distribution.
func (e *Experiment) CalculateFidelityOfDataQubits(ctx context.Context) ([]float64, error) {
	if e.state < StateExecuted {
		return nil, errors.Errorf("cannot score an experiment in state %s", e.state)
	}
	_, span := tracer.Start(ctx, "experiment.CalculateFidelityOfDataQubits",
		trace.WithAttributes(attribute.String("metric", e.evaluator.Metric().String())))
	defer span.End()

	fidelities, err := e.evaluator.EvaluateAll(e.results)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	e.fidelities = fidelities
	e.state = StateScored
	return append([]float64{}, fidelities...), nil
}

// GetResult returns the raw results in circuit order, or an empty slice with a
// warning before RunAllCircuits.
func (e *Experiment) GetResult() []core.Counts {
	if e.state < StateExecuted {
		zap.L().Warn("no results yet; run the circuits first")
		return []core.Counts{}
	}
	return core.CloneCountsList(e.results)
}

// GetFidelities returns the fidelities in circuit order, or an empty slice with a
// warning before CalculateFidelityOfDataQubits.
func (e *Experiment) GetFidelities() []float64 {
	if e.state < StateScored {
		zap.L().Warn("no fidelities yet; calculate them first")
		return []float64{}
	}
	return append([]float64{}, e.fidelities...)
}

func (e *Experiment) Variants() []*Variant {
	return append([]*Variant{}, e.variants...)
}

// Circuits returns the submitted form of every variant.
func (e *Experiment) Circuits() []*circuit.Circuit {
	cs := make([]*circuit.Circuit, len(e.variants))
	for i, v := range e.variants {
		cs[i] = v.Final
	}
	return cs
}
