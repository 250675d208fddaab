package ipc

import (
	"context"
	"errors"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"cutroom/internal/services"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		err := c.conn.Close()
		if errors.Is(err, net.ErrClosed) {
			return nil
		}
		return err
	}
	return nil
}

// call issues method and waits for the reply or ctx. A server-side error is
// rebuilt with its services marker.
func (c *Client) call(ctx context.Context, method string, req, resp any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	pending := c.client.Go(ServiceName+"."+method, req, resp, make(chan *rpc.Call, 1))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case done := <-pending.Done:
		return remoteError(done.Error)
	}
}

func remoteError(err error) error {
	var serverErr rpc.ServerError
	if errors.As(err, &serverErr) {
		return services.FromMessage(string(serverErr))
	}
	return err
}

// ImportVideo imports a source file through the daemon.
func (c *Client) ImportVideo(ctx context.Context, req ImportVideoRequest) (*VideoResponse, error) {
	var resp VideoResponse
	if err := c.call(ctx, "ImportVideo", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitEdit applies an edit. A failed application returns the record and
// the error together.
func (c *Client) SubmitEdit(ctx context.Context, req SubmitEditRequest) (*SubmitEditResponse, error) {
	var resp SubmitEditResponse
	if err := c.call(ctx, "SubmitEdit", req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return &resp, services.FromMessage(resp.Error)
	}
	return &resp, nil
}

// Render renders a video's completed edits.
func (c *Client) Render(ctx context.Context, videoID int64) (*VideoResponse, error) {
	var resp VideoResponse
	if err := c.call(ctx, "Render", RenderRequest{VideoID: videoID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetVideo returns a video with its edits.
func (c *Client) GetVideo(ctx context.Context, videoID int64) (*GetVideoResponse, error) {
	var resp GetVideoResponse
	if err := c.call(ctx, "GetVideo", GetVideoRequest{VideoID: videoID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListVideos lists videos filtered by status names.
func (c *Client) ListVideos(ctx context.Context, statuses []string) (*ListVideosResponse, error) {
	var resp ListVideosResponse
	if err := c.call(ctx, "ListVideos", ListVideosRequest{Statuses: statuses}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Export copies a video's artifact to a destination path.
func (c *Client) Export(ctx context.Context, req ExportRequest) (*ExportResponse, error) {
	var resp ExportResponse
	if err := c.call(ctx, "Export", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Sweep removes stale temp artifacts.
func (c *Client) Sweep(ctx context.Context) (*SweepResponse, error) {
	var resp SweepResponse
	if err := c.call(ctx, "Sweep", SweepRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Recover resets interrupted work.
func (c *Client) Recover(ctx context.Context) (*RecoverResponse, error) {
	var resp RecoverResponse
	if err := c.call(ctx, "Recover", RecoverRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call(ctx, "Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
