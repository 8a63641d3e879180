package qpu

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/oqtopus-team/ddbench/backend"
	"github.com/oqtopus-team/ddbench/common"
	"github.com/oqtopus-team/ddbench/core"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

type GatewayAgent interface {
	CallTarget(ctx context.Context) (*TargetResponse, error)
	CallSample(ctx context.Context, req *SampleRequest) (*SampleResponse, error)
	Close()

	GetAddress() string
}

// DefaultGatewayAgent talks to a sampler service over a plain gRPC connection.
type DefaultGatewayAgent struct {
	address string
	conn    *grpc.ClientConn
}

func NewGatewayAgent(s core.GatewaySetting, opts ...grpc.DialOption) (*DefaultGatewayAgent, error) {
	address, err := common.ValidAddress(s.Host, s.Port)
	if err != nil {
		return nil, err
	}
	return NewGatewayAgentWithAddress(address, opts...)
}

func NewGatewayAgentWithAddress(address string, opts ...grpc.DialOption) (*DefaultGatewayAgent, error) {
	conn, err := common.GRPCConnection(address, opts...)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to create a gRPC client for %s/reason:%s", address, err))
		return nil, err
	}
	return &DefaultGatewayAgent{address: address, conn: conn}, nil
}

func (a *DefaultGatewayAgent) CallTarget(ctx context.Context) (*TargetResponse, error) {
	out := &structpb.Struct{}
	if err := a.conn.Invoke(ctx, GetTargetMethod, &structpb.Struct{}, out); err != nil {
		zap.L().Error(fmt.Sprintf("failed to get the target from %s/reason:%s", a.address, err))
		return nil, err
	}
	res := &TargetResponse{}
	if err := FromStruct(out, res); err != nil {
		return nil, err
	}
	if res.Target == nil {
		return nil, errors.Errorf("%s returned no target", a.address)
	}
	return res, nil
}

func (a *DefaultGatewayAgent) CallSample(ctx context.Context, req *SampleRequest) (*SampleResponse, error) {
	in, err := ToStruct(req)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := a.conn.Invoke(ctx, SampleMethod, in, out); err != nil {
		zap.L().Error(fmt.Sprintf("failed to sample in %s/reason:%s", a.address, err))
		return nil, err
	}
	res := &SampleResponse{}
	if err := FromStruct(out, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (a *DefaultGatewayAgent) Close() {
	if err := a.conn.Close(); err != nil {
		zap.L().Info(fmt.Sprintf("failed to close the connection to %s. Reason:%s", a.address, err))
	}
}

func (a *DefaultGatewayAgent) GetAddress() string {
	return a.address
}

// GatewayQPU is a backend whose circuits are sampled by a remote sampler service.
type GatewayQPU struct {
	agent    GatewayAgent
	name     string
	maxShots int
	target   *backend.Target
	timeout  time.Duration
}

func NewGatewayQPU(agent GatewayAgent, timeout time.Duration) *GatewayQPU {
	return &GatewayQPU{agent: agent, timeout: timeout}
}

// Setup fetches the target of the remote device. It must succeed before Run.
func (q *GatewayQPU) Setup(ctx context.Context) error {
	zap.L().Debug(fmt.Sprintf("Setting up Gateway QPU at %s", q.agent.GetAddress()))
	res, err := q.agent.CallTarget(ctx)
	if err != nil {
		return errors.Wrapf(err, "gateway %s", q.agent.GetAddress())
	}
	q.name = res.Name
	q.maxShots = res.MaxShots
	q.target = res.Target
	zap.L().Info(fmt.Sprintf("connected to %s (%d qubits) through %s",
		q.name, q.target.NumQubits, q.agent.GetAddress()))
	return nil
}

func (q *GatewayQPU) Name() string {
	return q.name
}

func (q *GatewayQPU) Target() *backend.Target {
	return q.target
}

func (q *GatewayQPU) Run(ctx context.Context, pubs []backend.Pub) (backend.Job, error) {
	if q.target == nil {
		return nil, errors.New("Gateway QPU is not connected")
	}
	if err := validatePubs(pubs, q.target.NumQubits, q.maxShots); err != nil {
		return nil, err
	}
	req := NewSampleRequest(pubs)
	job := newAsyncJob(uuid.NewString())
	go func() {
		callCtx := ctx
		if q.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, q.timeout)
			defer cancel()
		}
		startTime := time.Now()
		res, err := q.agent.CallSample(callCtx, req)
		if err != nil {
			job.finish(nil, err)
			return
		}
		zap.L().Debug(fmt.Sprintf("JobID:%s, RemoteJobID:%s, pubs:%d, ExecutionTime:%s",
			job.id, res.JobID, len(res.Counts), time.Since(startTime)))
		job.finish(res.Counts, nil)
	}()
	return job, nil
}

func (q *GatewayQPU) Close() {
	q.agent.Close()
}
