package vertexd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/GoSim-25-26J-441/vertex-source/pkg/logger"
	"github.com/GoSim-25-26J-441/vertex-source/pkg/models"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "vertexsource.v1.VertexService"

const (
	describeMethod = "/" + ServiceName + "/Describe"
	generateMethod = "/" + ServiceName + "/Generate"
)

// VertexServiceServer is the server API for the vertex service. Messages
// are structpb.Struct so no generated stubs are needed.
type VertexServiceServer interface {
	Describe(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Generate(*structpb.Struct, VertexService_GenerateServer) error
}

// VertexService_GenerateServer is the server side of the Generate stream
type VertexService_GenerateServer interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

type vertexServiceGenerateServer struct {
	grpc.ServerStream
}

func (x *vertexServiceGenerateServer) Send(m *structpb.Struct) error {
	return x.ServerStream.SendMsg(m)
}

func describeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(VertexServiceServer).Describe(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: describeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(VertexServiceServer).Describe(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func generateHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(VertexServiceServer).Generate(in, &vertexServiceGenerateServer{stream})
}

// VertexServiceDesc describes the vertex service for grpc.Server
var VertexServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VertexServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Describe", Handler: describeHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Generate", Handler: generateHandler, ServerStreams: true},
	},
	Metadata: "vertexsource/v1/vertex.proto",
}

// RegisterVertexServiceServer registers srv on s
func RegisterVertexServiceServer(s grpc.ServiceRegistrar, srv VertexServiceServer) {
	s.RegisterService(&VertexServiceDesc, srv)
}

// GRPCServer implements VertexServiceServer on top of a Service
type GRPCServer struct {
	service *Service
}

// NewGRPCServer creates a gRPC front end for service
func NewGRPCServer(service *Service) *GRPCServer {
	return &GRPCServer{service: service}
}

func (s *GRPCServer) Describe(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	d := s.service.Describe()
	b := d.Source.Bounds
	out, err := structpb.NewStruct(map[string]any{
		"particle":           d.Particle,
		"mass_mev":           d.MassMeV,
		"weight_policy":      d.Weight,
		"state":              d.State,
		"error":              d.Error,
		"vertices_generated": float64(d.Generated),
		"source": map[string]any{
			"name":           d.Source.Name,
			"spatial_bins":   float64(d.Source.SpatialBins),
			"energy_bins":    float64(d.Source.EnergyBins),
			"direction_bins": float64(d.Source.DirectionBins),
			"total_yield":    d.Source.TotalYield,
			"energy_min_mev": d.Source.EnergyMin,
			"energy_max_mev": d.Source.EnergyMax,
			"bounds_min_mm":  []any{b.Min.X, b.Min.Y, b.Min.Z},
			"bounds_max_mm":  []any{b.Max.X, b.Max.Y, b.Max.Z},
		},
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *GRPCServer) Generate(req *structpb.Struct, stream VertexService_GenerateServer) error {
	count, t, err := parseGenerateRequest(req)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	client := "unknown"
	if p, ok := peer.FromContext(stream.Context()); ok && p.Addr != nil {
		client = clientHost(p.Addr.String())
	}
	if err := s.service.Admit(client); err != nil {
		return grpcError(err)
	}

	err = s.service.Stream(count, t, func(rec models.KinematicRecord) error {
		if err := stream.Context().Err(); err != nil {
			return err
		}
		msg, err := recordToStruct(rec)
		if err != nil {
			return err
		}
		return stream.Send(msg)
	})
	if err != nil {
		logger.Warn("generate stream failed", "count", count, "error", err)
		return grpcError(err)
	}
	return nil
}

func parseGenerateRequest(req *structpb.Struct) (int, float64, error) {
	fields := req.GetFields()
	count := fields["count"].GetNumberValue()
	if count != math.Trunc(count) || count < 1 || count > MaxBatch {
		return 0, 0, fmt.Errorf("%w: count must be an integer in [1, %d]", ErrInvalidRequest, MaxBatch)
	}
	return int(count), fields["time_ns"].GetNumberValue(), nil
}

func recordToStruct(rec models.KinematicRecord) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"particle":     rec.Particle,
		"position_mm":  []any{rec.Position.X, rec.Position.Y, rec.Position.Z},
		"momentum_mev": []any{rec.Momentum.X, rec.Momentum.Y, rec.Momentum.Z},
		"energy_mev":   rec.Energy,
		"weight":       rec.Weight,
		"time_ns":      rec.Time,
	})
}

func grpcError(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrRateLimited):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, ErrNotReady), errors.Is(err, ErrSourceFailed):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// Client is a thin client for the vertex service
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a client over cc
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Describe fetches the source description
func (c *Client) Describe(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, describeMethod, &structpb.Struct{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Generate requests count vertices at time t and drains the stream
func (c *Client) Generate(ctx context.Context, count int, t float64, opts ...grpc.CallOption) ([]*structpb.Struct, error) {
	req, err := structpb.NewStruct(map[string]any{"count": float64(count), "time_ns": t})
	if err != nil {
		return nil, err
	}
	stream, err := c.cc.NewStream(ctx, &VertexServiceDesc.Streams[0], generateMethod, opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}

	var out []*structpb.Struct
	for {
		msg := new(structpb.Struct)
		if err := stream.RecvMsg(msg); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, err
		}
		out = append(out, msg)
	}
}
