package experiment

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/ddbench/builder"
	"github.com/oqtopus-team/ddbench/core"
	"github.com/oqtopus-team/ddbench/fidelity"
	"github.com/oqtopus-team/ddbench/mitig"
	"go.uber.org/multierr"
)

func DefaultNumQubits() int {
	return 9
}

func DefaultInitialLayout() []int {
	return []int{4, 3, 5, 15, 22, 2, 1, 6, 7}
}

// DefaultInitialLayoutWithBuffer is the layout of the spacing variants. The register of
// those variants is wider; unlisted qubits are placed on the lowest free device qubits.
func DefaultInitialLayoutWithBuffer() []int {
	return []int{4, 3, 5, 22, 23, 1, 0, 7, 8}
}

// DefaultShots equals the total of the ideal distribution.
func DefaultShots() int {
	return 1024
}

// Config is immutable once built by NewConfig.
type Config struct {
	numQubits               int
	initialLayout           []int
	initialLayoutWithBuffer []int
	initialState            builder.InitialState
	ddSequence              mitig.DDSequence
	shots                   int
	metric                  fidelity.Metric
	skipResetQubits         bool
}

type options struct {
	numQubits               *int
	initialLayout           []int
	layoutSet               bool
	initialLayoutWithBuffer []int
	bufferSet               bool
	initialState            int
	ddSequenceType          int
	shots                   *int
	metric                  fidelity.Metric
	skipResetQubits         *bool
}

type Option func(*options)

func WithNumQubits(n int) Option {
	return func(o *options) { o.numQubits = &n }
}

// WithInitialLayout sets the physical qubits of the non-spacing variants. An empty
// layout is rejected by NewConfig.
func WithInitialLayout(layout []int) Option {
	return func(o *options) {
		o.initialLayout = append([]int{}, layout...)
		o.layoutSet = true
	}
}

func WithInitialLayoutWithBuffer(layout []int) Option {
	return func(o *options) {
		o.initialLayoutWithBuffer = append([]int{}, layout...)
		o.bufferSet = true
	}
}

// WithInitialState selects the preparation of the redundancy qubits: 0 |0>, 1 |1>, 2 |+>.
func WithInitialState(s int) Option {
	return func(o *options) { o.initialState = s }
}

// WithDDSequenceType selects 0 for XX and 1 for XYXY.
func WithDDSequenceType(t int) Option {
	return func(o *options) { o.ddSequenceType = t }
}

func WithShots(n int) Option {
	return func(o *options) { o.shots = &n }
}

func WithMetric(m fidelity.Metric) Option {
	return func(o *options) { o.metric = m }
}

// WithSkipResetQubits(false) also decouples the idle time before the first gate of a
// qubit, which is skipped by default.
func WithSkipResetQubits(skip bool) Option {
	return func(o *options) { o.skipResetQubits = &skip }
}

// ConfigError lists every invalid option.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid experiment config: %s", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func NewConfig(opts ...Option) (*Config, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	c := &Config{
		numQubits:               DefaultNumQubits(),
		initialLayout:           DefaultInitialLayout(),
		initialLayoutWithBuffer: DefaultInitialLayoutWithBuffer(),
		shots:                   DefaultShots(),
		metric:                  o.metric,
		skipResetQubits:         true,
	}
	if o.numQubits != nil {
		c.numQubits = *o.numQubits
	}
	if o.layoutSet {
		c.initialLayout = o.initialLayout
	}
	if o.bufferSet {
		c.initialLayoutWithBuffer = o.initialLayoutWithBuffer
	}
	if o.shots != nil {
		c.shots = *o.shots
	}
	if o.skipResetQubits != nil {
		c.skipResetQubits = *o.skipResetQubits
	}

	var errs error
	if c.numQubits < builder.NumDataQubits {
		errs = multierr.Append(errs, errors.Errorf("num_qubits must be at least %d, got %d", builder.NumDataQubits, c.numQubits))
	}
	switch {
	case len(c.initialLayout) == 0:
		errs = multierr.Append(errs, errors.New("initial layout is empty"))
	case len(c.initialLayout) < c.numQubits:
		errs = multierr.Append(errs, errors.Errorf("initial layout has %d entries for %d qubits", len(c.initialLayout), c.numQubits))
	}
	if len(c.initialLayoutWithBuffer) < builder.NumDataQubits {
		errs = multierr.Append(errs, errors.Errorf("initial layout with buffer needs at least %d entries, got %d",
			builder.NumDataQubits, len(c.initialLayoutWithBuffer)))
	}
	state, err := builder.ToInitialState(o.initialState)
	errs = multierr.Append(errs, err)
	c.initialState = state
	seq, err := mitig.ToDDSequence(o.ddSequenceType)
	errs = multierr.Append(errs, err)
	c.ddSequence = seq
	if c.shots <= 0 {
		errs = multierr.Append(errs, errors.Errorf("shots must be positive, got %d", c.shots))
	}
	if errs != nil {
		return nil, &ConfigError{Err: errs}
	}
	return c, nil
}

// ConfigFromSetting maps the [experiment] section onto options. Unset fields keep the
// defaults.
func ConfigFromSetting(s core.ExperimentSetting) (*Config, error) {
	opts := []Option{
		WithInitialState(s.InitialState),
		WithDDSequenceType(s.DDSequenceType),
	}
	if s.NumQubits != 0 {
		opts = append(opts, WithNumQubits(s.NumQubits))
	}
	if s.InitialLayout != nil {
		opts = append(opts, WithInitialLayout(s.InitialLayout))
	}
	if s.InitialLayoutWithBuffer != nil {
		opts = append(opts, WithInitialLayoutWithBuffer(s.InitialLayoutWithBuffer))
	}
	if s.Shots != 0 {
		opts = append(opts, WithShots(s.Shots))
	}
	m, err := fidelity.ToMetric(s.Metric)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	opts = append(opts, WithMetric(m))
	return NewConfig(opts...)
}

func (c *Config) NumQubits() int {
	return c.numQubits
}

func (c *Config) InitialLayout() []int {
	return append([]int{}, c.initialLayout...)
}

func (c *Config) InitialLayoutWithBuffer() []int {
	return append([]int{}, c.initialLayoutWithBuffer...)
}

func (c *Config) InitialState() builder.InitialState {
	return c.initialState
}

func (c *Config) DDSequence() mitig.DDSequence {
	return c.ddSequence
}

func (c *Config) Shots() int {
	return c.shots
}

func (c *Config) Metric() fidelity.Metric {
	return c.metric
}

func (c *Config) SkipResetQubits() bool {
	return c.skipResetQubits
}

// layoutFor returns the layout of the spacing or non-spacing variants.
func (c *Config) layoutFor(spacing bool) []int {
	if spacing {
		return c.initialLayoutWithBuffer
	}
	return c.initialLayout
}
