//go:build unit
// +build unit

package qpu

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/ddbench/backend"
	"github.com/oqtopus-team/ddbench/circuit"
	"github.com/oqtopus-team/ddbench/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockGatewayAgent struct {
	target    *TargetResponse
	targetErr error
	sample    func(ctx context.Context, req *SampleRequest) (*SampleResponse, error)
	closed    bool
}

func (m *MockGatewayAgent) CallTarget(context.Context) (*TargetResponse, error) {
	return m.target, m.targetErr
}

func (m *MockGatewayAgent) CallSample(ctx context.Context, req *SampleRequest) (*SampleResponse, error) {
	return m.sample(ctx, req)
}

func (m *MockGatewayAgent) Close() {
	m.closed = true
}

func (m *MockGatewayAgent) GetAddress() string {
	return "dummy_address"
}

func mockTarget() *TargetResponse {
	target := backend.NewTarget(2, 1e-9)
	return &TargetResponse{Name: "remote", MaxShots: 100, Target: target}
}

func TestGatewayQPU(t *testing.T) {
	c := circuit.New("c", 2, 2)
	pubs := []backend.Pub{{Circuit: c, Shots: 10}, {Circuit: c, Shots: 20}}

	tests := []struct {
		name      string
		agent     *MockGatewayAgent
		wantSetup string
		wantRun   string
		wantErr   string
		want      []core.Counts
	}{
		{
			name: "success",
			agent: &MockGatewayAgent{
				target: mockTarget(),
				sample: func(_ context.Context, req *SampleRequest) (*SampleResponse, error) {
					counts := make([]core.Counts, len(req.Pubs))
					for i, p := range req.Pubs {
						counts[i] = core.Counts{"00": uint32(p.Shots)}
					}
					return &SampleResponse{JobID: "remote-1", Counts: counts}, nil
				},
			},
			want: []core.Counts{{"00": 10}, {"00": 20}},
		},
		{
			name:      "target unavailable",
			agent:     &MockGatewayAgent{targetErr: errors.New("connection refused")},
			wantSetup: "gateway dummy_address: connection refused",
			wantRun:   "Gateway QPU is not connected",
		},
		{
			name: "sample failure",
			agent: &MockGatewayAgent{
				target: mockTarget(),
				sample: func(context.Context, *SampleRequest) (*SampleResponse, error) {
					return nil, errors.New("device is in maintenance")
				},
			},
			wantErr: "device is in maintenance",
		},
		{
			name: "timeout",
			agent: &MockGatewayAgent{
				target: mockTarget(),
				sample: func(ctx context.Context, _ *SampleRequest) (*SampleResponse, error) {
					<-ctx.Done()
					return nil, ctx.Err()
				},
			},
			wantErr: "context deadline exceeded",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewGatewayQPU(tt.agent, 20*time.Millisecond)
			err := q.Setup(context.Background())
			if tt.wantSetup != "" {
				assert.EqualError(t, err, tt.wantSetup)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "remote", q.Name())
				assert.Equal(t, 2, q.Target().NumQubits)
			}

			job, err := q.Run(context.Background(), pubs)
			if tt.wantRun != "" {
				assert.EqualError(t, err, tt.wantRun)
				return
			}
			require.NoError(t, err)
			got, err := job.Result(context.Background())
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			q.Close()
			assert.True(t, tt.agent.closed)
		})
	}
}

func TestGatewayQPURejectsTooManyShots(t *testing.T) {
	q := NewGatewayQPU(&MockGatewayAgent{target: mockTarget()}, 0)
	require.NoError(t, q.Setup(context.Background()))
	_, err := q.Run(context.Background(), []backend.Pub{{Circuit: circuit.New("c", 1, 1), Shots: 101}})
	assert.EqualError(t, err, "pub 0: the number of shots 101 is over the limit 100")
}

func TestStructRoundTrip(t *testing.T) {
	c := circuit.New("c", 2, 2)
	require.NoError(t, c.Delay(1, 0.25, circuit.UnitUs))
	require.NoError(t, c.RZ(0.5, 0))
	require.NoError(t, c.Measure(0, 0))
	req := NewSampleRequest([]backend.Pub{{Circuit: c, Shots: 3}})

	s, err := ToStruct(req)
	require.NoError(t, err)
	decoded := &SampleRequest{}
	require.NoError(t, FromStruct(s, decoded))
	pubs := decoded.ToPubs()
	require.Len(t, pubs, 1)
	assert.Equal(t, 3, pubs[0].Shots)
	assert.Equal(t, c.Instructions, pubs[0].Circuit.Instructions)

	assert.EqualError(t, FromStruct(nil, decoded), "empty message")
}
