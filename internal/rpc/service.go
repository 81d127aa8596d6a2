// Package rpc serves the equix verifier over gRPC. Messages are
// google.protobuf.Struct values so no generated code is needed; the field
// names match the REST API.
package rpc

import (
	"context"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"equix/internal/miner"
	"equix/internal/server"
	"equix/pkg/difficulty"
	"equix/pkg/equix"
	"equix/pkg/oracle"
)

var log = logrus.WithField("prefix", "rpc")

const (
	ServiceName = "equix.v1.Verifier"

	verifyMethod = "/" + ServiceName + "/Verify"
	solveMethod  = "/" + ServiceName + "/Solve"
)

// VerifierServer is the server API of the Verifier service
type VerifierServer interface {
	Verify(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Solve(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the Verifier service for grpc.Server.RegisterService
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VerifierServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Verify", Handler: unaryHandler(verifyMethod, VerifierServer.Verify)},
		{MethodName: "Solve", Handler: unaryHandler(solveMethod, VerifierServer.Solve)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "equix/v1/verifier.proto",
}

func unaryHandler(fullMethod string, call func(VerifierServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(VerifierServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(VerifierServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Policy decides which valid solutions Verify accepts
type Policy struct {
	// MinDifficulty is the score a valid solution needs to be accepted
	MinDifficulty uint32

	// RequireIssued rejects seeds the ledger did not issue or that expired
	RequireIssued bool
}

// Service implements VerifierServer
type Service struct {
	method oracle.Method
	pool   *miner.Pool
	ledger *server.Ledger
	policy Policy
}

var _ VerifierServer = (*Service)(nil)

// NewService creates the service. ledger may be shared with the REST server.
func NewService(method oracle.Method, pool *miner.Pool, ledger *server.Ledger, policy Policy) *Service {
	return &Service{
		method: method,
		pool:   pool,
		ledger: ledger,
		policy: policy,
	}
}

func (s *Service) Verify(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	challenge, err := challengeFrom(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	sol, err := equix.ParseSolution(stringField(req, "solution"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if s.policy.RequireIssued && !s.ledger.Issued(challenge.Seed()) {
		return nil, status.Error(codes.PermissionDenied, "seed was not issued or has expired")
	}

	result := equix.Verify(s.method, challenge, sol)
	s.ledger.Record(server.TransportGRPC, result)
	resp := map[string]interface{}{
		"result":   result.String(),
		"accepted": false,
	}
	if result != equix.ResultOk {
		return structpb.NewStruct(resp)
	}

	h := difficulty.NewHash(sol, challenge.Nonce())
	resp["difficulty"] = float64(h.Difficulty())
	resp["digest"] = h.String()
	if h.Meets(s.policy.MinDifficulty) {
		if !s.ledger.Redeem(challenge) {
			return nil, status.Error(codes.AlreadyExists, "challenge already redeemed")
		}
		resp["accepted"] = true
	}
	return structpb.NewStruct(resp)
}

func (s *Service) Solve(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	challenge, err := challengeFrom(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	e, err := s.pool.Get(ctx)
	if err != nil {
		return nil, status.FromContextError(err).Err()
	}
	defer s.pool.Put(e)

	solutions, err := e.Solve(challenge)
	if errors.Is(err, equix.ErrBuildFailed) {
		return nil, status.Error(codes.FailedPrecondition, err.Error())
	}
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	list := make([]interface{}, 0, len(solutions))
	for _, sol := range solutions {
		h := difficulty.NewHash(sol, challenge.Nonce())
		list = append(list, map[string]interface{}{
			"solution":   sol.Hex(),
			"difficulty": float64(h.Difficulty()),
			"digest":     h.String(),
		})
	}
	return structpb.NewStruct(map[string]interface{}{
		"nonce":     strconv.FormatUint(challenge.Nonce(), 10),
		"solutions": list,
	})
}

func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

// challengeFrom reads either "challenge" or "seed" plus "nonce". Nonces are
// carried as decimal strings because Struct numbers are doubles.
func challengeFrom(req *structpb.Struct) (equix.Challenge, error) {
	if c := stringField(req, "challenge"); c != "" {
		b, err := hex.DecodeString(strings.TrimPrefix(c, "0x"))
		if err != nil {
			return equix.Challenge{}, equix.ErrInvalidChallenge
		}
		return equix.ParseChallenge(b)
	}

	seed, err := equix.ParseSeed(stringField(req, "seed"))
	if err != nil {
		return equix.Challenge{}, err
	}
	var nonce uint64
	switch v := req.GetFields()["nonce"].GetKind().(type) {
	case *structpb.Value_StringValue:
		nonce, err = strconv.ParseUint(v.StringValue, 10, 64)
		if err != nil {
			return equix.Challenge{}, equix.ErrInvalidChallenge
		}
	case *structpb.Value_NumberValue:
		if v.NumberValue < 0 || v.NumberValue > 1<<53 || v.NumberValue != float64(uint64(v.NumberValue)) {
			return equix.Challenge{}, equix.ErrInvalidChallenge
		}
		nonce = uint64(v.NumberValue)
	}
	return equix.NewChallenge(seed, nonce), nil
}
