// Package router exposes a backend over gRPC as the sampler service that GatewayQPU
// clients connect to.
package router

import (
	"context"
	"fmt"
	"net"

	"github.com/oqtopus-team/ddbench/backend"
	"github.com/oqtopus-team/ddbench/common"
	"github.com/oqtopus-team/ddbench/core"
	"github.com/oqtopus-team/ddbench/qpu"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type SamplerServer interface {
	GetTarget(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Sample(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// MaxShotsReporter is implemented by backends with a per-pub shot limit.
type MaxShotsReporter interface {
	MaxShots() int
}

type GRPCRouter struct {
	backend backend.Backend
}

func NewGRPCRouter(b backend.Backend) *GRPCRouter {
	return &GRPCRouter{backend: b}
}

func (r *GRPCRouter) GetTarget(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	zap.L().Info("Received gRPC request of the target")
	res := &qpu.TargetResponse{
		Name:   r.backend.Name(),
		Target: r.backend.Target(),
	}
	if m, ok := r.backend.(MaxShotsReporter); ok {
		res.MaxShots = m.MaxShots()
	}
	out, err := qpu.ToStruct(res)
	if err != nil {
		zap.L().Error(fmt.Sprintf("Failed to encode the target. Reason:%s", err))
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (r *GRPCRouter) Sample(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := &qpu.SampleRequest{}
	if err := qpu.FromStruct(in, req); err != nil {
		zap.L().Info(fmt.Sprintf("Invalid request. Reason:%s", err))
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if len(req.Pubs) == 0 {
		return nil, status.Error(codes.InvalidArgument, "Invalid request. Reason: no pubs")
	}
	zap.L().Info(fmt.Sprintf("Received gRPC request of sampling %d pubs", len(req.Pubs)))
	job, err := r.backend.Run(ctx, req.ToPubs())
	if err != nil {
		zap.L().Info(fmt.Sprintf("Rejected the request. Reason:%s", err))
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	counts, err := job.Result(ctx)
	if err != nil {
		zap.L().Error(fmt.Sprintf("Failed to sample job %s. Reason:%s", job.ID(), err))
		return nil, status.Error(codes.Internal, err.Error())
	}
	out, err := qpu.ToStruct(&qpu.SampleResponse{JobID: job.ID(), Counts: counts})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func getTargetHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SamplerServer).GetTarget(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: qpu.GetTargetMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SamplerServer).GetTarget(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func sampleHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SamplerServer).Sample(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: qpu.SampleMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SamplerServer).Sample(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// SamplerServiceDesc registers SamplerServer without generated stubs; both methods
// carry google.protobuf.Struct.
var SamplerServiceDesc = grpc.ServiceDesc{
	ServiceName: qpu.SamplerServiceName,
	HandlerType: (*SamplerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetTarget", Handler: getTargetHandler},
		{MethodName: "Sample", Handler: sampleHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ddbench/sampler/v1/sampler.proto",
}

type SamplerGRPCServer struct {
	server   *grpc.Server
	listener net.Listener
	served   chan error
}

// Setup listens on the router setting's address and starts serving b.
func (m *SamplerGRPCServer) Setup(s core.RouterSetting, b backend.Backend) error {
	url, err := common.ValidAddress(s.Host, s.Port)
	if err != nil {
		return err
	}
	zap.L().Info(fmt.Sprintf("Starting up gRPC server. Listening on %s", url))
	listener, err := net.Listen("tcp", url)
	if err != nil {
		zap.L().Error(fmt.Sprintf("Failed to make gRPC server. Reason:%s", err))
		return err
	}
	m.Serve(listener, b)
	return nil
}

// Serve starts serving b on an existing listener.
func (m *SamplerGRPCServer) Serve(listener net.Listener, b backend.Backend) {
	m.listener = listener
	m.server = grpc.NewServer()
	m.server.RegisterService(&SamplerServiceDesc, NewGRPCRouter(b))
	m.served = make(chan error, 1)
	go func() {
		m.served <- m.server.Serve(listener)
	}()
}

func (m *SamplerGRPCServer) Addr() net.Addr {
	return m.listener.Addr()
}

// Wait blocks until the server stops.
func (m *SamplerGRPCServer) Wait() error {
	return <-m.served
}

func (m *SamplerGRPCServer) TearDown() {
	if m.server == nil {
		return
	}
	m.server.GracefulStop()
}
