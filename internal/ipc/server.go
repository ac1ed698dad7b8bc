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
	"time"

	"gaelog/internal/daemon"
	"gaelog/internal/logging"
	"gaelog/internal/logs"
	"gaelog/internal/session"
	"gaelog/internal/store"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
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

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Gaelog", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
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
				s.logger.Warn("accept failed", logging.Error(err))
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

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func fromSnapshot(snap session.Snapshot) SessionInfo {
	return SessionInfo{
		ID:          snap.ID,
		ProjectID:   snap.ProjectID,
		Mode:        snap.Mode,
		StartedAt:   snap.StartedAt,
		Lines:       snap.Lines,
		Bytes:       snap.Bytes,
		File:        snap.CurrentFile,
		Status:      string(store.StatusRunning),
		Active:      snap.Active,
		CurrentSize: snap.CurrentSize,
	}
}

func fromRecord(record *store.Session) SessionInfo {
	if record == nil {
		return SessionInfo{}
	}
	return SessionInfo{
		ID:        record.ID,
		ProjectID: record.ProjectID,
		Mode:      record.Mode,
		StartedAt: record.StartedAt,
		StoppedAt: record.StoppedAt,
		Lines:     record.Lines,
		Bytes:     record.Bytes,
		File:      record.LastFile,
		Status:    string(record.Status),
		Error:     record.Error,
		Active:    record.Status == store.StatusRunning,
	}
}

func (s *service) Start(req StartRequest, resp *StartResponse) error {
	s.logger.Debug("session start requested", logging.String("project", req.Project))
	snap, err := s.daemon.StartSession(s.ctx, req.Project)
	if err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "session started"
	resp.Session = fromSnapshot(snap)
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Debug("session stop requested")
	snap, err := s.daemon.StopSession(s.ctx)
	if err != nil {
		resp.Stopped = false
		resp.Message = err.Error()
		return nil
	}
	resp.Stopped = true
	resp.Message = "session stopped"
	resp.Session = fromSnapshot(snap)
	resp.Session.Active = false
	resp.Session.Status = string(store.StatusStopped)
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.Session = fromSnapshot(status.Session)
	resp.LockPath = status.LockFilePath
	resp.StoreDBPath = status.StoreDBPath
	resp.LogDir = status.LogDir
	resp.OutputDir = status.OutputDir
	resp.SessionStats = make(map[string]int, len(status.SessionStats))
	for k, v := range status.SessionStats {
		resp.SessionStats[string(k)] = v
	}
	resp.Dependencies = make([]DependencyStatus, 0, len(status.Dependencies))
	for _, dep := range status.Dependencies {
		resp.Dependencies = append(resp.Dependencies, DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		})
	}
	return nil
}

func (s *service) SessionList(req SessionListRequest, resp *SessionListResponse) error {
	sessions, err := s.daemon.ListSessions(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Sessions = make([]SessionInfo, 0, len(sessions))
	for _, record := range sessions {
		resp.Sessions = append(resp.Sessions, fromRecord(record))
	}
	return nil
}

func (s *service) SessionDescribe(req SessionDescribeRequest, resp *SessionDescribeResponse) error {
	if req.ID == "" {
		return errors.New("session id is required")
	}
	record, err := s.daemon.GetSession(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Session = fromRecord(record)
	return nil
}

func (s *service) SessionClear(_ SessionClearRequest, resp *SessionClearResponse) error {
	s.logger.Debug("session clear requested")
	removed, err := s.daemon.ClearSessions(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.logger.Info("session history cleared", logging.Int64("removed", removed))
	return nil
}

func (s *service) Shutdown(_ ShutdownRequest, resp *ShutdownResponse) error {
	s.logger.Info("daemon shutdown requested")
	resp.Stopping = true
	s.daemon.RequestShutdown()
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	logPath := s.daemon.OutputLogPath(s.ctx)
	if req.Daemon {
		logPath = s.daemon.LogPath()
	}
	resp.Path = logPath
	if logPath == "" {
		resp.Offset = 0
		return nil
	}
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait <= 0 && req.Follow {
		wait = time.Second
	}
	options := logs.TailOptions{
		Offset: req.Offset,
		Limit:  req.Limit,
		Follow: req.Follow,
		Wait:   wait,
	}
	ctx := s.ctx
	if req.Follow && wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, wait+500*time.Millisecond)
		defer cancel()
	}
	result, err := logs.Tail(ctx, logPath, options)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			resp.Offset = result.Offset
			return nil
		}
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	return nil
}
