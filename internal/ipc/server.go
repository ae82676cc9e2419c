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
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"clipwatch/internal/api"
	"clipwatch/internal/catalog"
	"clipwatch/internal/daemon"
	"clipwatch/internal/logging"
	"clipwatch/internal/logs"
	"clipwatch/internal/services"
)

const (
	maxEventWait = 25 * time.Second
	defaultWait  = time.Second
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// ServerOption customizes a Server.
type ServerOption func(*service)

// WithShutdown registers the function invoked by the Shutdown RPC. Without it
// Shutdown is rejected.
func WithShutdown(fn func()) ServerOption {
	return func(s *service) {
		s.shutdown = fn
	}
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger, opts ...ServerOption) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
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
	svc := &service{daemon: d, logger: logger, ctx: serverCtx}
	for _, opt := range opts {
		opt(svc)
	}

	rpcServer := rpc.NewServer()
	if err := rpcServer.RegisterName(ServiceName, svc); err != nil {
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

// Close stops the server and removes the socket file. Open client
// connections are served until the client hangs up.
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
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun clipwatch daemon stop"))
	}
}

type service struct {
	daemon   *daemon.Daemon
	logger   *slog.Logger
	ctx      context.Context
	shutdown func()
	once     sync.Once
}

// requestContext tags a mutating RPC with a correlation id so the daemon log
// lines it causes can be grouped.
func (s *service) requestContext() (context.Context, *slog.Logger) {
	ctx := services.WithRequestID(s.ctx, uuid.NewString())
	return ctx, logging.WithContext(ctx, s.logger)
}

func (s *service) Start(req StartRequest, resp *StartResponse) error {
	ctx, logger := s.requestContext()
	logger.Debug("recording start requested", logging.String("folder", req.Folder))
	session, err := s.daemon.StartRecording(ctx, req.Folder)
	if err != nil {
		return err
	}
	if active := api.FromActiveSession(&session, time.Now()); active != nil {
		resp.Session = *active
	}
	logger.Info("recording started via IPC",
		logging.String(logging.FieldEventType, "recording_start"),
		logging.String(logging.FieldSessionID, session.Name))
	return nil
}

func (s *service) Stop(req StopRequest, resp *StopResponse) error {
	ctx, logger := s.requestContext()
	logger.Debug("recording stop requested", logging.Bool("wait", req.Wait))
	session, err := s.daemon.StopRecording(ctx)
	if session.ID == "" && err != nil {
		return err
	}
	if active := api.FromActiveSession(&session, time.Now()); active != nil {
		resp.Session = *active
	}
	if err != nil {
		// The encoder did not exit cleanly but the session still moves on to
		// highlight processing.
		logging.WarnWithContext(logger, "recording stopped with error", "recording_stop_failed",
			logging.String(logging.FieldSessionID, session.Name),
			logging.Error(err))
	}
	logger.Info("recording stopped via IPC",
		logging.String(logging.FieldEventType, "recording_stop"),
		logging.String(logging.FieldSessionID, session.Name))
	if !req.Wait {
		return nil
	}
	if err := s.daemon.WaitIdle(ctx); err != nil {
		return err
	}
	row, err := s.daemon.Session(ctx, session.ID)
	if err != nil {
		return err
	}
	if row != nil {
		dto := api.FromSession(row)
		resp.Outcome = &dto
	}
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	*resp = s.daemon.Status(s.ctx).API()
	return nil
}

func (s *service) Events(req EventsRequest, resp *EventsResponse) error {
	ctx := s.ctx
	if req.Follow {
		wait := time.Duration(req.WaitMillis) * time.Millisecond
		if wait <= 0 {
			wait = defaultWait
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, min(wait, maxEventWait))
		defer cancel()
	}
	events, next, err := s.daemon.Events(ctx, req.Since, req.Limit, req.Follow)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	resp.Events = api.FromEvents(events)
	resp.Next = next
	return nil
}

func (s *service) SessionList(req SessionListRequest, resp *SessionListResponse) error {
	statuses := make([]catalog.Status, 0, len(req.Statuses))
	for _, name := range req.Statuses {
		parsed, ok := catalog.ParseStatus(name)
		if !ok {
			return fmt.Errorf("unknown session status %q", name)
		}
		statuses = append(statuses, parsed)
	}
	sessions, err := s.daemon.Sessions(s.ctx, req.Limit, statuses...)
	if err != nil {
		return err
	}
	resp.Sessions = api.FromSessions(sessions)
	return nil
}

func (s *service) SessionDescribe(req SessionDescribeRequest, resp *SessionDescribeResponse) error {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return errors.New("session id is required")
	}
	session, err := s.daemon.Session(s.ctx, id)
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("session %s not found", id)
	}
	resp.Session = api.FromSession(session)
	return nil
}

func (s *service) SessionRemove(req SessionRemoveRequest, resp *SessionRemoveResponse) error {
	if len(req.IDs) == 0 {
		return errors.New("session remove requires at least one id")
	}
	for _, id := range req.IDs {
		removed, err := s.daemon.RemoveSession(s.ctx, id)
		if err != nil {
			return fmt.Errorf("remove %s: %w", id, err)
		}
		if removed {
			resp.Removed++
		}
	}
	s.logger.Info("sessions removed",
		logging.String(logging.FieldEventType, "session_remove"),
		logging.Int("removed_count", resp.Removed))
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	logPath := s.daemon.LogPath()
	if logPath == "" {
		resp.Offset = 0
		return nil
	}
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait <= 0 && req.Follow {
		wait = defaultWait
	}
	options := logs.TailOptions{
		Offset: req.Offset,
		Limit:  req.Limit,
		Follow: req.Follow,
		Wait:   wait,
		Filter: logs.SessionFilter(req.SessionID),
	}
	ctx := s.ctx
	if req.Follow && wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, wait+500*time.Millisecond)
		defer cancel()
	}
	result, err := logs.Tail(ctx, logPath, options)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			resp.Offset = result.Offset
			return nil
		}
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}

func (s *service) Shutdown(_ ShutdownRequest, resp *ShutdownResponse) error {
	if s.shutdown == nil {
		return errors.New("shutdown is not supported by this daemon")
	}
	s.logger.Info("daemon shutdown requested via IPC",
		logging.String(logging.FieldEventType, "daemon_shutdown"))
	resp.Accepted = true
	// Reply before the process starts tearing down the socket.
	go s.once.Do(s.shutdown)
	return nil
}
