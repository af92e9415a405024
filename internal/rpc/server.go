package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/mocap.stream/internal/capture"
	"github.com/banshee-data/mocap.stream/internal/monitoring"
	"github.com/banshee-data/mocap.stream/internal/units"
)

// maxMsgSize bounds request and response size. A frame with a few hundred
// subjects is well under this.
const maxMsgSize = 4 * 1024 * 1024

// FrameSource provides the most recent polled frame.
type FrameSource interface {
	Latest() (capture.Frame, bool)
}

// Ensure FrameService implements the gRPC interface.
var _ FrameServiceServer = (*FrameService)(nil)

// FrameService answers LatestFrame from a FrameSource.
type FrameService struct {
	frames FrameSource
	units  string
}

// NewFrameService returns a FrameService reporting positions in
// defaultUnits unless the request names others.
func NewFrameService(frames FrameSource, defaultUnits string) *FrameService {
	if !units.IsValid(defaultUnits) {
		defaultUnits = units.Meters
	}
	return &FrameService{frames: frames, units: defaultUnits}
}

// LatestFrame implements FrameServiceServer.
func (s *FrameService) LatestFrame(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	unit := s.units
	var subject string
	if req != nil {
		fields := req.GetFields()
		if v, ok := fields["units"]; ok && v.GetStringValue() != "" {
			unit = v.GetStringValue()
		}
		if v, ok := fields["subject"]; ok {
			subject = v.GetStringValue()
		}
	}
	if !units.IsValid(unit) {
		return nil, status.Errorf(codes.InvalidArgument, "invalid units %q: must be one of %s", unit, units.GetValidUnitsString())
	}

	frame, ok := s.frames.Latest()
	if !ok {
		return nil, status.Error(codes.Unavailable, "no frame received yet")
	}

	view := frame.View(unit)
	if subject != "" {
		filtered := view.Subjects[:0]
		for _, sv := range view.Subjects {
			if sv.Name == subject {
				filtered = append(filtered, sv)
			}
		}
		if len(filtered) == 0 {
			return nil, status.Errorf(codes.NotFound, "subject %q not in latest frame", subject)
		}
		view.Subjects = filtered
	}
	return viewToStruct(view)
}

func viewToStruct(view capture.FrameView) (*structpb.Struct, error) {
	b, err := json.Marshal(view)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode frame: %v", err)
	}
	out := &structpb.Struct{}
	if err := out.UnmarshalJSON(b); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode frame: %v", err)
	}
	return out, nil
}

// Server runs a gRPC server hosting FrameService.
type Server struct {
	server   *grpc.Server
	listener net.Listener
	running  atomic.Bool
	wg       sync.WaitGroup
}

// NewServer creates a gRPC server with svc registered.
func NewServer(svc FrameServiceServer) *Server {
	s := &Server{
		server: grpc.NewServer(
			grpc.MaxRecvMsgSize(maxMsgSize),
			grpc.MaxSendMsgSize(maxMsgSize),
		),
	}
	RegisterFrameServiceServer(s.server, svc)
	return s
}

// Start listens on addr and serves in the background.
func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(lis)
}

// Serve serves on lis in the background. It returns an error if the server
// is already running.
func (s *Server) Serve(lis net.Listener) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("gRPC server already running")
	}
	s.listener = lis
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		monitoring.Opsf("[gRPC] FrameService listening on %s", lis.Addr())
		if err := s.server.Serve(lis); err != nil && s.running.Load() {
			monitoring.Opsf("[gRPC] server error: %v", err)
		}
	}()
	return nil
}

// Addr returns the listening address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop gracefully stops the server and waits for Serve to return.
func (s *Server) Stop() {
	if !s.running.Swap(false) {
		return
	}
	s.server.GracefulStop()
	s.wg.Wait()
	monitoring.Diagf("[gRPC] server stopped")
}
