// Package qpu provides the backends the experiment submits to: an in-process statevector
// simulator and a gRPC gateway to a remote sampler.
package qpu

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/oqtopus-team/ddbench/backend"
	"github.com/oqtopus-team/ddbench/circuit"
	"github.com/oqtopus-team/ddbench/core"
	"github.com/oqtopus-team/ddbench/scheduler"
	"github.com/oqtopus-team/ddbench/transpiler"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat/distuv"
)

// asyncJob is filled once by the goroutine executing the batch.
type asyncJob struct {
	id      string
	done    chan struct{}
	results []core.Counts
	err     error
}

func newAsyncJob(id string) *asyncJob {
	return &asyncJob{id: id, done: make(chan struct{})}
}

func (j *asyncJob) finish(results []core.Counts, err error) {
	j.results = results
	j.err = err
	close(j.done)
}

func (j *asyncJob) ID() string {
	return j.id
}

func (j *asyncJob) Result(ctx context.Context) ([]core.Counts, error) {
	select {
	case <-j.done:
		if j.err != nil {
			return nil, j.err
		}
		return core.CloneCountsList(j.results), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Simulator samples circuits from their exact final state. Idle time has no effect, so
// every circuit reaches the ideal distribution.
type Simulator struct {
	setting *DeviceSetting
	target  *backend.Target
	pool    *scheduler.Pool
	seed    uint64
	batches atomic.Uint64
}

func NewSimulator(ds *DeviceSetting, pool *scheduler.Pool, seed uint64) (*Simulator, error) {
	target, err := ds.ToTarget()
	if err != nil {
		return nil, err
	}
	zap.L().Debug(fmt.Sprintf("setting up the simulator for %s with %d workers", ds.DeviceName, pool.Workers()))
	return &Simulator{
		setting: ds,
		target:  target,
		pool:    pool,
		seed:    seed,
	}, nil
}

func (s *Simulator) Name() string {
	return s.setting.DeviceName
}

func (s *Simulator) Target() *backend.Target {
	return s.target
}

func (s *Simulator) MaxShots() int {
	return s.setting.MaxShots
}

// Run validates the batch and simulates its pubs concurrently on the worker pool.
func (s *Simulator) Run(ctx context.Context, pubs []backend.Pub) (backend.Job, error) {
	if err := validatePubs(pubs, s.target.NumQubits, s.setting.MaxShots); err != nil {
		return nil, err
	}
	batch := s.batches.Add(1)
	job := newAsyncJob(uuid.NewString())
	zap.L().Info(fmt.Sprintf("[Simulator] starting batch %s with %d pubs", job.id, len(pubs)))
	go func() {
		results, err := scheduler.Map(ctx, s.pool, len(pubs), func(_ context.Context, i int) (core.Counts, error) {
			src := rand.NewPCG(s.seed, batch<<32|uint64(i))
			return Simulate(pubs[i].Circuit, pubs[i].Shots, src)
		})
		zap.L().Info(fmt.Sprintf("[Simulator] finished batch %s", job.id))
		job.finish(results, err)
	}()
	return job, nil
}

func validatePubs(pubs []backend.Pub, numQubits, maxShots int) error {
	for i, p := range pubs {
		if p.Circuit == nil {
			return errors.Errorf("pub %d has no circuit", i)
		}
		if p.Shots < 1 {
			return errors.Errorf("pub %d: the number of shots %d is less than 1", i, p.Shots)
		}
		if maxShots > 0 && p.Shots > maxShots {
			return errors.Errorf("pub %d: the number of shots %d is over the limit %d", i, p.Shots, maxShots)
		}
		if p.Circuit.NumQubits > numQubits {
			return errors.Errorf("pub %d: %s needs %d qubits but the device has %d",
				i, p.Circuit.Name, p.Circuit.NumQubits, numQubits)
		}
	}
	return nil
}

// Simulate runs c on the qubits it touches and samples shots outcomes. Bit i of
// each key, counted from the right, is clbit i.
func Simulate(c *circuit.Circuit, shots int, src rand.Source) (core.Counts, error) {
	flat := transpiler.Flatten(c)
	active := flat.ActiveQubits()
	local := make(map[int]int, len(active))
	for k, q := range active {
		local[q] = k
	}
	sv, err := newStatevector(len(active))
	if err != nil {
		return nil, err
	}
	measured := map[int]int{}
	collapsed := map[int]bool{}
	for _, in := range flat.Instructions {
		switch in.Name {
		case circuit.DelayName, circuit.BarrierName:
			continue
		case circuit.MeasureName:
			for i, q := range in.Qubits {
				measured[in.Clbits[i]] = local[q]
				collapsed[q] = true
			}
			continue
		}
		qs := make([]int, len(in.Qubits))
		for i, q := range in.Qubits {
			if collapsed[q] {
				return nil, errors.Errorf("%s: %s after a measurement is not supported", c.Name, in)
			}
			qs[i] = local[q]
		}
		if err := sv.applyGate(in, qs); err != nil {
			return nil, errors.Wrap(err, c.Name)
		}
	}

	cat := distuv.NewCategorical(sv.probabilities(), src)
	hist := map[int]uint32{}
	for i := 0; i < shots; i++ {
		hist[int(cat.Rand())]++
	}
	counts := make(core.Counts, len(hist))
	for idx, n := range hist {
		key := make([]byte, flat.NumClbits)
		for b := range key {
			key[b] = '0'
		}
		for clbit, lq := range measured {
			if idx>>lq&1 == 1 {
				key[flat.NumClbits-1-clbit] = '1'
			}
		}
		counts[string(key)] += n
	}
	return counts, nil
}
