// Package fidelity scores measured distributions of the data qubits against the
// distribution expected from two Grover iterations.
package fidelity

import (
	"fmt"
	"math"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/ddbench/builder"
	"github.com/oqtopus-team/ddbench/core"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

type Metric int

const (
	// OneMinusDistance is 1 - H where H is the Hellinger distance.
	OneMinusDistance Metric = iota
	// HellingerFidelity is (1 - H^2)^2, the quantity reported by qiskit.
	HellingerFidelity
)

func (m Metric) String() string {
	switch m {
	case OneMinusDistance:
		return "one_minus_distance"
	case HellingerFidelity:
		return "hellinger_fidelity"
	default:
		return fmt.Sprintf("Metric(%d)", int(m))
	}
}

func ToMetric(s string) (Metric, error) {
	switch s {
	case "", "one_minus_distance":
		return OneMinusDistance, nil
	case "hellinger_fidelity":
		return HellingerFidelity, nil
	default:
		return 0, errors.Errorf("unknown fidelity metric %q", s)
	}
}

// IdealDistribution returns a fresh copy of the reference counts over 1024 shots.
func IdealDistribution() core.Counts {
	return core.Counts{
		"111": 968,
		"101": 8,
		"011": 8,
		"110": 8,
		"100": 8,
		"010": 8,
		"001": 8,
		"000": 8,
	}
}

// ReduceToDataQubits keeps the last three characters of each bitstring, i.e. the
// classical bits of the data qubits, and sums the counts that collide.
func ReduceToDataQubits(raw core.Counts) core.Counts {
	reduced := make(core.Counts)
	for k, v := range raw {
		reduced[lowerBits(k, builder.NumDataQubits)] += v
	}
	return reduced
}

func lowerBits(key string, n int) string {
	if len(key) <= n {
		return key
	}
	return key[len(key)-n:]
}

// NumOfBits returns the common key width of counts.
func NumOfBits(counts core.Counts) (int, error) {
	if len(counts) == 0 {
		return 0, errors.New("counts is empty")
	}
	width := -1
	for k := range counts {
		if width == -1 {
			width = len(k)
		} else if width != len(k) {
			return 0, errors.New("different length of keys in counts")
		}
	}
	return width, nil
}

// HellingerDistance of the two normalized count distributions over the union of keys.
func HellingerDistance(a, b core.Counts) (float64, error) {
	ta, tb := a.Total(), b.Total()
	if ta == 0 || tb == 0 {
		return 0, errors.New("cannot compare an empty distribution")
	}
	keys := map[string]struct{}{}
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}
	p := make([]float64, 0, len(keys))
	q := make([]float64, 0, len(keys))
	for k := range keys {
		p = append(p, float64(a[k])/float64(ta))
		q = append(q, float64(b[k])/float64(tb))
	}
	d := stat.Hellinger(p, q)
	if math.IsNaN(d) {
		// 1 - BC is slightly negative for identical distributions
		d = 0
	}
	return math.Min(d, 1), nil
}

// Score is 1 - HellingerDistance: 1 for identical distributions, 0 for disjoint ones.
func Score(a, b core.Counts) (float64, error) {
	d, err := HellingerDistance(a, b)
	if err != nil {
		return 0, err
	}
	return 1 - d, nil
}

// HellingerFidelityOf returns (1 - H^2)^2.
func HellingerFidelityOf(a, b core.Counts) (float64, error) {
	d, err := HellingerDistance(a, b)
	if err != nil {
		return 0, err
	}
	return math.Pow(1-d*d, 2), nil
}

type Evaluator struct {
	metric Metric
	ideal  core.Counts
}

func NewEvaluator(m Metric) *Evaluator {
	return &Evaluator{metric: m, ideal: IdealDistribution()}
}

func (e *Evaluator) Metric() Metric {
	return e.metric
}

// Evaluate reduces raw to the data qubits and scores it against the ideal distribution.
func (e *Evaluator) Evaluate(raw core.Counts) (float64, error) {
	if _, err := NumOfBits(raw); err != nil {
		return 0, err
	}
	reduced := ReduceToDataQubits(raw)
	switch e.metric {
	case HellingerFidelity:
		return HellingerFidelityOf(e.ideal, reduced)
	default:
		return Score(e.ideal, reduced)
	}
}

// EvaluateAll scores every result, keeping the order of results.
func (e *Evaluator) EvaluateAll(results []core.Counts) ([]float64, error) {
	fidelities := make([]float64, len(results))
	for i, r := range results {
		f, err := e.Evaluate(r)
		if err != nil {
			return nil, errors.Wrapf(err, "result %d", i)
		}
		fidelities[i] = f
	}
	zap.L().Debug(fmt.Sprintf("scored %d results with %s", len(results), e.metric))
	return fidelities, nil
}
