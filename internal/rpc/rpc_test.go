package rpc

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/mocap.stream/internal/capture"
	"github.com/banshee-data/mocap.stream/internal/vicon"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fakeSource struct {
	mu    sync.Mutex
	frame capture.Frame
	ok    bool
}

func (f *fakeSource) Latest() (capture.Frame, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frame, f.ok
}

func (f *fakeSource) set(frame capture.Frame) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frame, f.ok = frame, true
}

func testFrame() capture.Frame {
	return capture.Frame{
		Seq:  42,
		Time: epoch,
		Kind: vicon.Quaternion,
		Subjects: []vicon.Subject{
			{Name: "mob_6", Origin: r3.Vec{X: 1, Y: 2, Z: 0.5}, Rotation: vicon.IdentityQuaternion()},
			{Name: "wand", Origin: r3.Vec{X: -0.25}, Rotation: vicon.IdentityQuaternion()},
		},
	}
}

// startBufconn serves svc over an in-memory listener and returns a client.
func startBufconn(t *testing.T, svc FrameServiceServer) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewServer(svc)
	require.NoError(t, srv.Serve(lis))
	t.Cleanup(srv.Stop)

	client, err := Dial("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestLatestFrame_RoundTrip(t *testing.T) {
	source := &fakeSource{}
	source.set(testFrame())
	client := startBufconn(t, NewFrameService(source, "m"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	view, err := client.LatestFrame(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), view.Seq)
	assert.True(t, epoch.Equal(view.Time))
	assert.Equal(t, "m", view.Units)
	require.Len(t, view.Subjects, 2)
	assert.Equal(t, "mob_6", view.Subjects[0].Name)
	assert.Equal(t, [3]float64{1, 2, 0.5}, view.Subjects[0].Position)
	assert.Equal(t, "quaternion", view.Subjects[0].RotationKind)
	assert.Equal(t, []float64{1, 0, 0, 0}, view.Subjects[0].Rotation)

	view, err = client.LatestFrame(ctx, "mm", "wand")
	require.NoError(t, err)
	assert.Equal(t, "mm", view.Units)
	require.Len(t, view.Subjects, 1)
	assert.Equal(t, [3]float64{-250, 0, 0}, view.Subjects[0].Position)
}

func TestLatestFrame_Errors(t *testing.T) {
	tests := []struct {
		name    string
		source  *fakeSource
		unit    string
		subject string
		code    codes.Code
	}{
		{"no frame", &fakeSource{}, "", "", codes.Unavailable},
		{"bad units", &fakeSource{frame: testFrame(), ok: true}, "furlong", "", codes.InvalidArgument},
		{"unknown subject", &fakeSource{frame: testFrame(), ok: true}, "", "ghost", codes.NotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := startBufconn(t, NewFrameService(tt.source, "m"))
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			_, err := client.LatestFrame(ctx, tt.unit, tt.subject)
			require.Error(t, err)
			assert.Equal(t, tt.code, status.Code(err))
		})
	}
}

func TestLatestFrame_Direct(t *testing.T) {
	source := &fakeSource{}
	source.set(testFrame())
	svc := NewFrameService(source, "bogus")

	resp, err := svc.LatestFrame(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "m", resp.GetFields()["units"].GetStringValue(), "invalid default falls back to meters")
	assert.Equal(t, float64(42), resp.GetFields()["seq"].GetNumberValue())
	assert.Len(t, resp.GetFields()["subjects"].GetListValue().GetValues(), 2)
}

func TestLatestFrame_Interceptor(t *testing.T) {
	source := &fakeSource{}
	source.set(testFrame())

	var seen string
	interceptor := func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		seen = info.FullMethod
		return handler(ctx, req)
	}
	dec := func(v interface{}) error {
		in, err := structpb.NewStruct(map[string]interface{}{"units": "cm"})
		if err != nil {
			return err
		}
		v.(*structpb.Struct).Fields = in.Fields
		return nil
	}

	out, err := latestFrameHandler(NewFrameService(source, "m"), context.Background(), dec, interceptor)
	require.NoError(t, err)
	assert.Equal(t, "/mocap.v1.FrameService/LatestFrame", seen)
	assert.Equal(t, "cm", out.(*structpb.Struct).GetFields()["units"].GetStringValue())
}

func TestServer_StartStop(t *testing.T) {
	srv := NewServer(NewFrameService(&fakeSource{}, "m"))
	require.NoError(t, srv.Start("127.0.0.1:0"))
	require.NotNil(t, srv.Addr())
	assert.Error(t, srv.Serve(bufconn.Listen(1024)), "second serve must fail")
	srv.Stop()
	srv.Stop()
}
