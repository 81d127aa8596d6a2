package rpc

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"equix/pkg/equix"
)

// VerifyReply is the decoded Verify response
type VerifyReply struct {
	Result     equix.Result
	Accepted   bool
	Difficulty uint32
	Digest     string
}

// SolvedSolution is one entry of a decoded Solve response
type SolvedSolution struct {
	Solution   equix.Solution
	Difficulty uint32
	Digest     string
}

// Client calls a remote Verifier service
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to target. Without options the connection is plaintext.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", target)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func challengeRequest(challenge equix.Challenge, extra map[string]interface{}) (*structpb.Struct, error) {
	fields := map[string]interface{}{"challenge": challenge.String()}
	for k, v := range extra {
		fields[k] = v
	}
	return structpb.NewStruct(fields)
}

// Verify submits a solution for challenge
func (c *Client) Verify(ctx context.Context, challenge equix.Challenge, sol equix.Solution) (*VerifyReply, error) {
	req, err := challengeRequest(challenge, map[string]interface{}{"solution": sol.Hex()})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, verifyMethod, req, out); err != nil {
		return nil, err
	}

	fields := out.GetFields()
	result, err := equix.ParseResult(fields["result"].GetStringValue())
	if err != nil {
		return nil, err
	}
	return &VerifyReply{
		Result:     result,
		Accepted:   fields["accepted"].GetBoolValue(),
		Difficulty: uint32(fields["difficulty"].GetNumberValue()),
		Digest:     fields["digest"].GetStringValue(),
	}, nil
}

// Solve asks the server to run one attempt for challenge
func (c *Client) Solve(ctx context.Context, challenge equix.Challenge) ([]SolvedSolution, error) {
	req, err := challengeRequest(challenge, nil)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, solveMethod, req, out); err != nil {
		return nil, err
	}

	if n := out.GetFields()["nonce"].GetStringValue(); n != strconv.FormatUint(challenge.Nonce(), 10) {
		return nil, errors.Errorf("response is for nonce %s, want %d", n, challenge.Nonce())
	}
	list := out.GetFields()["solutions"].GetListValue().GetValues()
	solutions := make([]SolvedSolution, 0, len(list))
	for _, v := range list {
		fields := v.GetStructValue().GetFields()
		sol, err := equix.ParseSolution(fields["solution"].GetStringValue())
		if err != nil {
			return nil, err
		}
		solutions = append(solutions, SolvedSolution{
			Solution:   sol,
			Difficulty: uint32(fields["difficulty"].GetNumberValue()),
			Digest:     fields["digest"].GetStringValue(),
		})
	}
	return solutions, nil
}
