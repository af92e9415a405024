package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/mocap.stream/internal/capture"
)

// Client calls a remote FrameService.
type Client struct {
	conn *grpc.ClientConn
}

// Dial creates a client for target. The connection is established lazily on
// the first call.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(maxMsgSize)),
	}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC client for %s: %w", target, err)
	}
	return &Client{conn: conn}, nil
}

// LatestFrame fetches the latest frame with positions in unit. An empty
// unit selects the server default and an empty subject returns all
// subjects.
func (c *Client) LatestFrame(ctx context.Context, unit, subject string) (capture.FrameView, error) {
	fields := map[string]interface{}{}
	if unit != "" {
		fields["units"] = unit
	}
	if subject != "" {
		fields["subject"] = subject
	}
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return capture.FrameView{}, err
	}

	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, latestFrameMethod, req, resp); err != nil {
		return capture.FrameView{}, err
	}

	b, err := resp.MarshalJSON()
	if err != nil {
		return capture.FrameView{}, fmt.Errorf("failed to decode frame: %w", err)
	}
	var view capture.FrameView
	if err := json.Unmarshal(b, &view); err != nil {
		return capture.FrameView{}, fmt.Errorf("failed to decode frame: %w", err)
	}
	return view, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
