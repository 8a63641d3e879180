//go:build unit
// +build unit

package router

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/oqtopus-team/ddbench/backend"
	"github.com/oqtopus-team/ddbench/builder"
	"github.com/oqtopus-team/ddbench/circuit"
	"github.com/oqtopus-team/ddbench/qpu"
	"github.com/oqtopus-team/ddbench/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func startRouter(t *testing.T) *qpu.DefaultGatewayAgent {
	ds, err := qpu.DefaultDeviceSetting()
	require.NoError(t, err)
	pool := scheduler.NewPool(2)
	sim, err := qpu.NewSimulator(ds, pool, 1)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	srv := &SamplerGRPCServer{}
	srv.Serve(lis, sim)

	agent, err := qpu.NewGatewayAgentWithAddress("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() {
		agent.Close()
		srv.TearDown()
		pool.TearDown()
	})
	return agent
}

func TestGatewayThroughRouter(t *testing.T) {
	agent := startRouter(t)
	q := qpu.NewGatewayQPU(agent, 10*time.Second)
	require.NoError(t, q.Setup(context.Background()))
	assert.Equal(t, "ddbench_falcon", q.Name())
	assert.Equal(t, 27, q.Target().NumQubits)
	d, ok := q.Target().DurationDt("cx", []int{3, 4})
	require.True(t, ok)
	assert.Equal(t, int64(1408), d)

	c, err := builder.BaseCircuit("grover", 3, builder.StateZero, false, builder.GroverOperator())
	require.NoError(t, err)
	require.NoError(t, builder.Measure(c))

	results, err := backend.NewAdapter(q).Submit(context.Background(), []*circuit.Circuit{c, c}, 512)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, uint64(512), r.Total())
		assert.Greater(t, r["111"], uint32(400))
	}
}

func TestRouterRejectsInvalidRequests(t *testing.T) {
	agent := startRouter(t)
	tests := []struct {
		name string
		req  *qpu.SampleRequest
	}{
		{name: "no pubs", req: &qpu.SampleRequest{}},
		{name: "pub without a circuit", req: &qpu.SampleRequest{Pubs: []qpu.WirePub{{Shots: 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := agent.CallSample(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}
}

func TestGetTargetReportsMaxShots(t *testing.T) {
	agent := startRouter(t)
	res, err := agent.CallTarget(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100000, res.MaxShots)
	assert.Equal(t, []string{"cx", "id", "rz", "sx", "x"}, res.Target.BasisGates())
}
