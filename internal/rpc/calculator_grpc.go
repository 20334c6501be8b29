// Package rpc exposes the calculators as the gRPC service
// maplecalc.v1.Calculator. Requests and responses are google.protobuf.Struct
// values carrying the same JSON records the HTTP API uses, so no generated
// message types are needed.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "maplecalc.v1.Calculator"

// Full method names.
const (
	MethodHunt      = "/" + ServiceName + "/Hunt"
	MethodBreakeven = "/" + ServiceName + "/Breakeven"
	MethodTitle     = "/" + ServiceName + "/Title"
	MethodAlphabet  = "/" + ServiceName + "/Alphabet"
	MethodSweep     = "/" + ServiceName + "/AlphabetSweep"
	MethodRequired  = "/" + ServiceName + "/AlphabetRequired"
	MethodBoss      = "/" + ServiceName + "/Boss"
)

// CalculatorServer is the server API for the Calculator service.
type CalculatorServer interface {
	Hunt(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Breakeven(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Title(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Alphabet(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AlphabetSweep(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AlphabetRequired(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Boss(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(CalculatorServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CalculatorServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CalculatorServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// CalculatorServiceDesc is the grpc.ServiceDesc for the Calculator service.
var CalculatorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CalculatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Hunt", Handler: unaryHandler(MethodHunt, CalculatorServer.Hunt)},
		{MethodName: "Breakeven", Handler: unaryHandler(MethodBreakeven, CalculatorServer.Breakeven)},
		{MethodName: "Title", Handler: unaryHandler(MethodTitle, CalculatorServer.Title)},
		{MethodName: "Alphabet", Handler: unaryHandler(MethodAlphabet, CalculatorServer.Alphabet)},
		{MethodName: "AlphabetSweep", Handler: unaryHandler(MethodSweep, CalculatorServer.AlphabetSweep)},
		{MethodName: "AlphabetRequired", Handler: unaryHandler(MethodRequired, CalculatorServer.AlphabetRequired)},
		{MethodName: "Boss", Handler: unaryHandler(MethodBoss, CalculatorServer.Boss)},
	},
	// No .proto file backs the service; every message is a structpb.Struct.
	Streams: []grpc.StreamDesc{},
}

// RegisterCalculatorServer registers srv on s.
func RegisterCalculatorServer(s grpc.ServiceRegistrar, srv CalculatorServer) {
	s.RegisterService(&CalculatorServiceDesc, srv)
}

// CalculatorClient is the client API for the Calculator service.
type CalculatorClient struct {
	cc grpc.ClientConnInterface
}

func NewCalculatorClient(cc grpc.ClientConnInterface) *CalculatorClient {
	return &CalculatorClient{cc: cc}
}

func (c *CalculatorClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CalculatorClient) Hunt(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodHunt, in, opts...)
}

func (c *CalculatorClient) Breakeven(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodBreakeven, in, opts...)
}

func (c *CalculatorClient) Title(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodTitle, in, opts...)
}

func (c *CalculatorClient) Alphabet(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodAlphabet, in, opts...)
}

func (c *CalculatorClient) AlphabetSweep(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodSweep, in, opts...)
}

func (c *CalculatorClient) AlphabetRequired(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodRequired, in, opts...)
}

func (c *CalculatorClient) Boss(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodBoss, in, opts...)
}
