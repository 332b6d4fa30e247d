package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"log/slog"

	"docent/internal/daemon"
	"docent/internal/experience"
	"docent/internal/logging"
	"docent/internal/logs"
	"docent/internal/outcome"
	"docent/internal/sessions"
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

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logging.NewComponentLogger(logger, "ipc"), ctx: ctx}
	if err := rpcServer.RegisterName("Docent", srv); err != nil {
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
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
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
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun docent stop"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func summarizeExperience(exp *experience.Experience) ExperienceSummary {
	summary := ExperienceSummary{
		ID:          exp.ID,
		Title:       exp.Title,
		OutcomeType: string(exp.Outcome.Type),
		Published:   exp.Published,
		UpdatedAt:   exp.UpdatedAt,
	}
	if summary.OutcomeType == "" {
		summary.OutcomeType = string(experience.OutcomeSurvey)
	}
	summary.Steps = make([]StepSummary, 0, len(exp.Steps))
	for _, step := range exp.Steps {
		summary.Steps = append(summary.Steps, StepSummary{
			ID:    step.ID,
			Type:  string(step.Type),
			Title: step.Title,
		})
	}
	return summary
}

func convertIssues(result outcome.Result) []ValidationIssue {
	if len(result.Errors) == 0 {
		return nil
	}
	issues := make([]ValidationIssue, 0, len(result.Errors))
	for _, e := range result.Errors {
		issues = append(issues, ValidationIssue{Field: e.Field, Message: e.Message, StepID: e.StepID})
	}
	return issues
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.logger.Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.LockPath = status.LockFilePath
	resp.DBPath = status.DBPath
	resp.SocketPath = status.SocketPath
	resp.LiveSessions = status.LiveSessions
	resp.CameraWatch = status.CameraWatch
	resp.SessionCounts = map[string]int{
		string(sessions.StatusPending):   status.Sessions.Pending,
		string(sessions.StatusActive):    status.Sessions.Active,
		string(sessions.StatusCompleted): status.Sessions.Completed,
		string(sessions.StatusAbandoned): status.Sessions.Abandoned,
	}
	return nil
}

func (s *service) ExperienceList(_ ExperienceListRequest, resp *ExperienceListResponse) error {
	list, err := s.daemon.ListExperiences(s.ctx)
	if err != nil {
		return err
	}
	resp.Experiences = make([]ExperienceSummary, 0, len(list))
	for _, exp := range list {
		resp.Experiences = append(resp.Experiences, summarizeExperience(exp))
	}
	return nil
}

func (s *service) ExperienceShow(req ExperienceShowRequest, resp *ExperienceShowResponse) error {
	exp, err := s.daemon.GetExperience(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Experience = summarizeExperience(exp)
	return nil
}

func (s *service) ExperienceImport(req ExperienceImportRequest, resp *ExperienceImportResponse) error {
	var exp experience.Experience
	if err := json.Unmarshal(req.Definition, &exp); err != nil {
		return fmt.Errorf("parse experience definition: %w", err)
	}
	if err := s.daemon.SaveExperience(s.ctx, &exp); err != nil {
		return err
	}
	resp.ID = exp.ID
	s.logger.Info("experience imported",
		logging.String(logging.FieldExperienceID, exp.ID),
		logging.String(logging.FieldEventType, "experience_import"))
	return nil
}

func (s *service) ExperienceValidate(req ExperienceValidateRequest, resp *ExperienceValidateResponse) error {
	result, err := s.daemon.ValidateExperience(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Valid = result.Valid
	resp.Errors = convertIssues(result)
	return nil
}

func (s *service) ExperiencePublish(req ExperiencePublishRequest, resp *ExperiencePublishResponse) error {
	result, err := s.daemon.PublishExperience(s.ctx, req.ID, req.Published)
	resp.Valid = result.Valid
	resp.Errors = convertIssues(result)
	if err != nil {
		// Validation refusals travel in the response body so the CLI can
		// render the error table; other failures stay RPC errors.
		if !result.Valid {
			resp.Published = false
			return nil
		}
		return err
	}
	resp.Published = req.Published
	s.logger.Info("experience publish state changed",
		logging.String(logging.FieldExperienceID, req.ID),
		logging.Bool("published", req.Published),
		logging.String(logging.FieldEventType, "experience_publish"))
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

func (s *service) SessionList(req SessionListRequest, resp *SessionListResponse) error {
	statuses := make([]sessions.Status, 0, len(req.Statuses))
	for _, raw := range req.Statuses {
		status := sessions.Status(raw)
		if !status.Valid() {
			continue
		}
		statuses = append(statuses, status)
	}
	list, err := s.daemon.ListSessions(s.ctx, statuses...)
	if err != nil {
		return err
	}
	resp.Sessions = make([]SessionSummary, 0, len(list))
	for _, row := range list {
		resp.Sessions = append(resp.Sessions, SessionSummary{
			ID:           row.ID,
			ExperienceID: row.ExperienceID,
			OwnerID:      row.OwnerID,
			Status:       string(row.Status),
			StepIndex:    row.StepIndex,
			Reason:       row.Reason,
			UpdatedAt:    row.UpdatedAt,
		})
	}
	return nil
}

func (s *service) SessionAbandon(req SessionAbandonRequest, resp *SessionAbandonResponse) error {
	if req.ID == "" {
		return errors.New("session abandon requires an id")
	}
	reason := req.Reason
	if reason == "" {
		reason = "Abandoned by operator"
	}
	if err := s.daemon.EndSession(s.ctx, req.ID, reason); err != nil {
		return err
	}
	resp.Abandoned = true
	s.logger.Info("session abandoned via IPC",
		logging.String(logging.FieldSessionID, req.ID),
		logging.String(logging.FieldEventType, "session_abandon"))
	return nil
}
