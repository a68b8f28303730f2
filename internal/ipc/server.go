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

	"tapedeck/internal/daemon"
	"tapedeck/internal/logging"
	"tapedeck/internal/recording"
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

// NewServer configures the IPC server at the given socket path. The shutdown
// callback is invoked when a client requests Stop.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, shutdown func(), logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	logger = logging.WithComponent(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, shutdown: shutdown, logger: logger}
	if err := rpcServer.RegisterName("Tapedeck", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
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
	s.logger.Debug("listening", logging.String("socket", s.path))
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
	daemon   *daemon.Daemon
	shutdown func()
	logger   *slog.Logger
}

func (s *service) Add(req AddRequest, resp *AddResponse) error {
	stored, err := s.daemon.AddRecording(req.toEntry())
	if err != nil {
		return err
	}
	resp.Recording = fromEntry(stored)
	return nil
}

func (s *service) AddSeries(req AddSeriesRequest, resp *AddSeriesResponse) error {
	anchor := req.toEntry()
	kind, ok := recording.ParseRecurrenceType(req.Rule.Type)
	if !ok {
		return fmt.Errorf("unknown recurrence type %q", req.Rule.Type)
	}
	mangling, ok := recording.ParseManglingMode(req.Rule.Mangling)
	if !ok {
		return fmt.Errorf("unknown mangling mode %q", req.Rule.Mangling)
	}
	anchor.IsRecurring = true
	anchor.Recurrence = kind
	anchor.Count = req.Rule.Count
	anchor.StartNumber = req.Rule.StartNumber
	anchor.Mangling = mangling
	anchor.ManglingPrefix = req.Rule.Prefix

	occurrences, err := s.daemon.AddSeries(anchor)
	if err != nil {
		return err
	}
	resp.Occurrences = fromEntries(occurrences)
	return nil
}

func (s *service) Remove(req RemoveRequest, resp *RemoveResponse) error {
	removed, err := s.daemon.RemoveRecording(req.ID, req.Series)
	if err != nil {
		return err
	}
	resp.Removed = fromEntries(removed)
	return nil
}

func (s *service) List(req ListRequest, resp *ListResponse) error {
	entries, err := s.daemon.Recordings(req.Card)
	if err != nil {
		return err
	}
	resp.Recordings = fromEntries(entries)
	return nil
}

func (s *service) Profiles(_ ProfilesRequest, resp *ProfilesResponse) error {
	profiles := s.daemon.Profiles()
	resp.Profiles = make([]ProfileInfo, 0, len(profiles))
	for _, p := range profiles {
		resp.Profiles = append(resp.Profiles, ProfileInfo{
			Name:         p.Name,
			VideoBitrate: p.VideoBitrate,
			AudioBitrate: p.AudioBitrate,
			FrameWidth:   p.FrameWidth,
			FrameHeight:  p.FrameHeight,
			VideoCodec:   p.VideoCodec,
			AudioCodec:   p.AudioCodec,
			Passes:       p.Passes,
			Extension:    p.Extension,
			Default:      p.Name == s.daemon.DefaultProfile(),
		})
	}
	return nil
}

func (s *service) Jobs(_ JobsRequest, resp *JobsResponse) error {
	statuses := s.daemon.Jobs()
	resp.Jobs = make([]JobStatus, 0, len(statuses))
	for _, st := range statuses {
		resp.Jobs = append(resp.Jobs, JobStatus{
			ID:             st.ID,
			Slot:           st.Slot,
			Source:         st.Source,
			Output:         st.Output,
			Profile:        st.Profile,
			State:          string(st.State),
			ElapsedSeconds: st.Elapsed.Seconds(),
		})
	}
	return nil
}

func (s *service) Kill(req KillRequest, resp *KillResponse) error {
	signaled, err := s.daemon.KillJob(req.Slot)
	if err != nil {
		return err
	}
	resp.Signaled = signaled
	if signaled {
		resp.Message = fmt.Sprintf("job on slot %d signaled", req.Slot)
	} else {
		resp.Message = fmt.Sprintf("slot %d is idle, nothing to kill", req.Slot)
	}
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	st := s.daemon.Status()
	resp.Running = st.Running
	resp.PID = st.PID
	resp.UptimeSeconds = st.Uptime.Seconds()
	resp.Cards = st.CardCount
	resp.Entries = st.EntryCount
	resp.Workers = st.Workers
	resp.Completed = st.Completed
	resp.Failed = st.Failed
	resp.Killed = st.Killed
	resp.CatalogPath = st.CatalogPath
	resp.LockPath = st.LockPath
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Info("shutdown requested via ipc")
	resp.Stopped = true
	if s.shutdown != nil {
		// Asynchronous so the reply reaches the client before teardown.
		go s.shutdown()
	}
	return nil
}
