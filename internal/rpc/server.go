package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/maplecalc/internal/alphabet"
	"github.com/xtding233/maplecalc/internal/calc"
)

// Server implements CalculatorServer on top of calc.Service.
type Server struct {
	svc *calc.Service
}

func NewServer(svc *calc.Service) *Server {
	return &Server{svc: svc}
}

func (s *Server) Hunt(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, s.svc.Hunt)
}

func (s *Server) Breakeven(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, s.svc.Breakeven)
}

func (s *Server) Title(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, s.svc.Title)
}

func (s *Server) Alphabet(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, func(ctx context.Context, req calc.AlphabetRequest) (alphabet.Estimate, error) {
		return s.svc.Alphabet(ctx, req, nil)
	})
}

// SweepResponse wraps the points; Struct messages must be objects.
type SweepResponse struct {
	Points []alphabet.SweepPoint `json:"points"`
}

func (s *Server) AlphabetSweep(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, func(ctx context.Context, req calc.SweepRequest) (SweepResponse, error) {
		points, err := s.svc.AlphabetSweep(ctx, req)
		return SweepResponse{Points: points}, err
	})
}

type RequiredResponse struct {
	Results []alphabet.SearchResult `json:"results"`
}

func (s *Server) AlphabetRequired(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, func(ctx context.Context, req calc.RequiredRequest) (RequiredResponse, error) {
		results, err := s.svc.AlphabetRequired(ctx, req)
		return RequiredResponse{Results: results}, err
	})
}

func (s *Server) Boss(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, s.svc.Boss)
}

var _ CalculatorServer = (*Server)(nil)

// handle converts the Struct into Req, runs fn and converts the result back.
func handle[Req, Resp any](ctx context.Context, in *structpb.Struct, fn func(context.Context, Req) (Resp, error)) (*structpb.Struct, error) {
	var req Req
	if err := decode(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	resp, err := fn(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := Encode(resp)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// decode goes through JSON so the request records keep one set of tags.
// encoding/json prints whole numbers without exponents, which integer
// fields require.
func decode(in *structpb.Struct, v any) error {
	b, err := json.Marshal(in.AsMap())
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding request: %w", err)
	}
	return nil
}

// Encode converts a JSON-encodable record into a Struct.
func Encode(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("encoding response: %w", err)
	}
	return structpb.NewStruct(m)
}

// Decode converts a Struct into a JSON-tagged record.
func Decode(in *structpb.Struct, v any) error {
	b, err := json.Marshal(in.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func toStatus(err error) error {
	switch {
	case calc.IsConfigurationError(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// LoggingInterceptor logs every call at info with its code and duration.
func LoggingInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Info("grpc call",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("elapsed", time.Since(start)),
		)
		return resp, err
	}
}
