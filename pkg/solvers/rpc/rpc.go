// Package rpc proxies the SyGuS/SMT ports to a solver-runner sidecar
// over gRPC, an alternative transport to the default subprocess adapter
// for a deployment where the solver binary runs on a separate host.
//
// No `.proto` file is compiled here (the toolchain is never invoked in
// this build): request/response messages are plain Go structs carried
// over a hand-registered gob `encoding.Codec` instead of the default
// protobuf codec, and the service itself is described by a manually
// written `grpc.ServiceDesc` in place of protoc-gen-go-grpc output.
// Grounded on the teacher's treatment of an external engine as an
// opaque, cancellable black box reached through context.Context, the
// same shape `pkg/solvers/subproc` uses for a local process.
package rpc

import (
	"bytes"
	"context"
	"encoding/gob"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"

	"github.com/rkestrel/synduce-go/pkg/solvers"
	"github.com/rkestrel/synduce-go/pkg/sygus"
	"github.com/rkestrel/synduce-go/pkg/synderr"
	"github.com/rkestrel/synduce-go/pkg/term"
)

func init() {
	gob.Register(term.Var{})
	gob.Register(term.Const{})
	gob.Register(term.Tup{})
	gob.Register(term.Bin{})
	gob.Register(term.Un{})
	gob.Register(term.Ite{})
	gob.Register(term.App{})
	gob.Register(term.Data{})
	gob.Register(term.Match{})
	gob.Register(term.Box{})
	gob.Register(term.Base{})
	gob.Register(term.TyVar{})
	gob.Register(term.Fun{})
	gob.Register(term.Tuple{})
	gob.Register(term.Cons{})
	encoding.RegisterCodec(gobCodec{})
}

// gobCodec carries Solve/CheckSat request and response structs as plain
// gob-encoded Go values instead of generated protobuf messages.
type gobCodec struct{}

func (gobCodec) Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gobCodec) Unmarshal(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

func (gobCodec) Name() string { return "gob" }

// SolveRequest/SolveResponse and CheckSatRequest/CheckSatResponse are
// the wire messages the hand-written ServiceDesc below carries.
type SolveRequest struct{ Commands []sygus.Command }
type SolveResponse struct{ Response solvers.Response }
type CheckSatRequest struct{ Check solvers.SMTCheck }
type CheckSatResponse struct{ Result solvers.SatResult }

// SolverServer is implemented by whatever runs the actual solver on the
// far side of the wire; Serve below adapts a local solvers.SyGuSPort +
// solvers.SMTPort pair into one.
type SolverServer interface {
	Solve(context.Context, *SolveRequest) (*SolveResponse, error)
	CheckSat(context.Context, *CheckSatRequest) (*CheckSatResponse, error)
}

// SolverClient is the client-side stub, wired to a grpc.ClientConnInterface.
type SolverClient interface {
	Solve(ctx context.Context, in *SolveRequest, opts ...grpc.CallOption) (*SolveResponse, error)
	CheckSat(ctx context.Context, in *CheckSatRequest, opts ...grpc.CallOption) (*CheckSatResponse, error)
}

type solverClient struct{ cc grpc.ClientConnInterface }

// NewSolverClient wraps an established connection as a SolverClient.
func NewSolverClient(cc grpc.ClientConnInterface) SolverClient { return &solverClient{cc} }

func (c *solverClient) Solve(ctx context.Context, in *SolveRequest, opts ...grpc.CallOption) (*SolveResponse, error) {
	out := new(SolveResponse)
	if err := c.cc.Invoke(ctx, "/synduce.solvers.Solver/Solve", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *solverClient) CheckSat(ctx context.Context, in *CheckSatRequest, opts ...grpc.CallOption) (*CheckSatResponse, error) {
	out := new(CheckSatResponse)
	if err := c.cc.Invoke(ctx, "/synduce.solvers.Solver/CheckSat", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func solveHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SolveRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SolverServer).Solve(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/synduce.solvers.Solver/Solve"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SolverServer).Solve(ctx, req.(*SolveRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func checkSatHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CheckSatRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SolverServer).CheckSat(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/synduce.solvers.Solver/CheckSat"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SolverServer).CheckSat(ctx, req.(*CheckSatRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc is the hand-written stand-in for protoc-gen-go-grpc's
// generated descriptor, registered on a *grpc.Server via RegisterServer.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: "synduce.solvers.Solver",
	HandlerType: (*SolverServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Solve", Handler: solveHandler},
		{MethodName: "CheckSat", Handler: checkSatHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pkg/solvers/rpc/rpc.go",
}

// RegisterServer registers impl as the handler for ServiceDesc on s.
func RegisterServer(s *grpc.Server, impl SolverServer) {
	s.RegisterService(&ServiceDesc, impl)
}

// localServer adapts an in-process solvers.SyGuSPort/SMTPort pair into
// a SolverServer, the shape a solver-runner sidecar's own main would use.
type localServer struct {
	syg solvers.SyGuSPort
	smt solvers.SMTPort
}

// NewLocalServer wraps syg/smt as a SolverServer for RegisterServer.
func NewLocalServer(syg solvers.SyGuSPort, smt solvers.SMTPort) SolverServer {
	return &localServer{syg: syg, smt: smt}
}

func (s *localServer) Solve(ctx context.Context, in *SolveRequest) (*SolveResponse, error) {
	if s.syg == nil {
		return nil, synderr.Internalf("rpc solver-runner has no SyGuSPort configured")
	}
	resp, err := s.syg.Solve(ctx, in.Commands)
	if err != nil {
		return nil, err
	}
	return &SolveResponse{Response: resp}, nil
}

func (s *localServer) CheckSat(ctx context.Context, in *CheckSatRequest) (*CheckSatResponse, error) {
	if s.smt == nil {
		return nil, synderr.Internalf("rpc solver-runner has no SMTPort configured")
	}
	res, err := s.smt.CheckSat(ctx, in.Check)
	if err != nil {
		return nil, err
	}
	return &CheckSatResponse{Result: res}, nil
}

// Adapter implements solvers.SyGuSPort/solvers.SMTPort by forwarding
// every call over an established gRPC connection.
type Adapter struct {
	client SolverClient
}

// NewAdapter wraps cc as a solvers.SyGuSPort/solvers.SMTPort pair.
func NewAdapter(cc grpc.ClientConnInterface) *Adapter {
	return &Adapter{client: NewSolverClient(cc)}
}

func (a *Adapter) Solve(ctx context.Context, cmds []sygus.Command) (solvers.Response, error) {
	resp, err := a.client.Solve(ctx, &SolveRequest{Commands: cmds}, grpc.ForceCodec(gobCodec{}))
	if err != nil {
		return solvers.Response{}, synderr.Solver(err)
	}
	return resp.Response, nil
}

func (a *Adapter) CheckSat(ctx context.Context, check solvers.SMTCheck) (solvers.SatResult, error) {
	resp, err := a.client.CheckSat(ctx, &CheckSatRequest{Check: check}, grpc.ForceCodec(gobCodec{}))
	if err != nil {
		return solvers.SatUnknown, synderr.Solver(err)
	}
	return resp.Result, nil
}
