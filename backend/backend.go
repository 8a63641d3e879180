// Package backend is the boundary between the experiment driver and a device that can
// sample circuits.
package backend

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/ddbench/circuit"
	"github.com/oqtopus-team/ddbench/core"
	"go.uber.org/zap"
)

//go:generate mockgen -source=backend.go -destination=mock_backend.go -package=backend

// Pub is one primitive unit of a batch: a circuit and the number of shots to take.
type Pub struct {
	Circuit *circuit.Circuit
	Shots   int
}

type Backend interface {
	Name() string
	Target() *Target
	Run(ctx context.Context, pubs []Pub) (Job, error)
}

type Job interface {
	ID() string
	// Result blocks until the batch finishes and returns counts in pub order.
	Result(ctx context.Context) ([]core.Counts, error)
}

// SubmissionError is returned when a batch fails as a whole. No partial results are kept.
type SubmissionError struct {
	JobID string
	Cause error
}

func (e *SubmissionError) Error() string {
	if e.JobID == "" {
		return fmt.Sprintf("batch submission failed: %s", e.Cause)
	}
	return fmt.Sprintf("batch %s failed: %s", e.JobID, e.Cause)
}

func (e *SubmissionError) Unwrap() error {
	return e.Cause
}

type Adapter struct {
	backend Backend
}

func NewAdapter(b Backend) *Adapter {
	return &Adapter{backend: b}
}

func (a *Adapter) Name() string {
	return a.backend.Name()
}

func (a *Adapter) Target() *Target {
	return a.backend.Target()
}

func (a *Adapter) EnsureOperationAvailable(name, template string) (bool, error) {
	return EnsureOperationAvailable(a.backend.Target(), name, template)
}

// Submit sends every circuit as its own pub in a single batch and waits for the
// result. Results are returned in circuit order.
func (a *Adapter) Submit(ctx context.Context, circuits []*circuit.Circuit, shots int) ([]core.Counts, error) {
	if shots <= 0 {
		return nil, errors.Errorf("shots must be positive, got %d", shots)
	}
	pubs := make([]Pub, len(circuits))
	for i, c := range circuits {
		pubs[i] = Pub{Circuit: c, Shots: shots}
	}
	zap.L().Info(fmt.Sprintf("submitting %d pubs with %d shots to %s", len(pubs), shots, a.backend.Name()))

	job, err := a.backend.Run(ctx, pubs)
	if err != nil {
		return nil, &SubmissionError{Cause: err}
	}
	results, err := job.Result(ctx)
	if err != nil {
		return nil, &SubmissionError{JobID: job.ID(), Cause: err}
	}
	if len(results) != len(circuits) {
		return nil, &SubmissionError{
			JobID: job.ID(),
			Cause: errors.Errorf("got %d results for %d circuits", len(results), len(circuits)),
		}
	}
	zap.L().Info(fmt.Sprintf("batch %s finished with %d results", job.ID(), len(results)))
	return results, nil
}
