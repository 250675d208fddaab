package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"cutroom/internal/catalog"
	"cutroom/internal/daemon"
	"cutroom/internal/logging"
	"cutroom/internal/pipeline"
	"cutroom/internal/services"
)

// ServiceName is the JSON-RPC service prefix.
const ServiceName = "Cutroom"

// Server exposes the pipeline via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, pipeline: d.Pipeline(), logger: logger, ctx: serverCtx}
	if err := rpcServer.RegisterName(ServiceName, srv); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file. In-flight calls see a
// canceled context.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually"))
	}
}

type service struct {
	daemon   *daemon.Daemon
	pipeline *pipeline.Pipeline
	logger   *slog.Logger
	ctx      context.Context
}

func (s *service) ImportVideo(req ImportVideoRequest, resp *VideoResponse) error {
	video, err := s.pipeline.ImportVideo(s.ctx, pipeline.ImportRequest{
		SourcePath:  req.SourcePath,
		Title:       req.Title,
		Description: req.Description,
		Move:        req.Move,
	})
	if err != nil {
		return services.Portable(err)
	}
	resp.Video = video
	return nil
}

func (s *service) SubmitEdit(req SubmitEditRequest, resp *SubmitEditResponse) error {
	kind, ok := catalog.ParseEditType(req.Type)
	if !ok {
		return services.Wrap(services.ErrValidation, "ipc", "submit edit", fmt.Sprintf("unsupported edit type %q", req.Type), nil)
	}
	edit, err := s.pipeline.SubmitEdit(s.ctx, req.VideoID, kind, req.Params)
	if err != nil && edit == nil {
		return services.Portable(err)
	}
	resp.Edit = edit
	if err != nil {
		resp.Error = services.Portable(err).Error()
	}
	return nil
}

func (s *service) Render(req RenderRequest, resp *VideoResponse) error {
	video, err := s.pipeline.Render(s.ctx, req.VideoID)
	if err != nil {
		return services.Portable(err)
	}
	resp.Video = video
	return nil
}

func (s *service) GetVideo(req GetVideoRequest, resp *GetVideoResponse) error {
	detail, err := s.pipeline.GetVideo(s.ctx, req.VideoID)
	if err != nil {
		return services.Portable(err)
	}
	resp.Detail = detail
	return nil
}

func (s *service) ListVideos(req ListVideosRequest, resp *ListVideosResponse) error {
	statuses, err := ParseStatuses(req.Statuses)
	if err != nil {
		return services.Portable(err)
	}
	videos, err := s.pipeline.ListVideos(s.ctx, statuses...)
	if err != nil {
		return services.Portable(err)
	}
	resp.Videos = videos
	return nil
}

func (s *service) Export(req ExportRequest, resp *ExportResponse) error {
	result, err := s.pipeline.Export(s.ctx, req.VideoID, req.Destination, req.AllowOriginal)
	if err != nil {
		return services.Portable(err)
	}
	resp.Result = result
	return nil
}

func (s *service) Sweep(_ SweepRequest, resp *SweepResponse) error {
	*resp = NewSweepResponse(s.pipeline.Sweep(s.ctx))
	return nil
}

func (s *service) Recover(_ RecoverRequest, resp *RecoverResponse) error {
	result, err := s.pipeline.Recover(s.ctx)
	if err != nil {
		return services.Portable(err)
	}
	resp.Result = result
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	resp.Status = s.daemon.Status(s.ctx)
	return nil
}

// ParseStatuses converts user-supplied status names. Unknown names are a
// validation error rather than silently ignored.
func ParseStatuses(values []string) ([]catalog.VideoStatus, error) {
	statuses := make([]catalog.VideoStatus, 0, len(values))
	for _, value := range values {
		status, ok := catalog.ParseVideoStatus(value)
		if !ok {
			return nil, services.Wrap(services.ErrValidation, "ipc", "parse status", fmt.Sprintf("unknown status %q", value), nil)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
