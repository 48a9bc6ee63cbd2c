// Package service provides the business logic layer for restreamr
// operations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmylchreest/restreamr/internal/hub"
	"github.com/jmylchreest/restreamr/internal/models"
	"github.com/jmylchreest/restreamr/internal/repository"
	"github.com/jmylchreest/restreamr/internal/restream"
)

// StreamService drives stream session lifecycle: start, stop and status.
// Starting and stopping return once the immediate state transition is
// committed; the encoder itself runs under the supervisor's background
// tasks.
type StreamService struct {
	sessions   repository.StreamSessionRepository
	activity   repository.ActivityLogRepository
	supervisor *restream.Supervisor
	events     *hub.Hub
	logger     *slog.Logger
}

// NewStreamService creates a StreamService.
func NewStreamService(sessions repository.StreamSessionRepository, activity repository.ActivityLogRepository, supervisor *restream.Supervisor, events *hub.Hub) *StreamService {
	return &StreamService{
		sessions:   sessions,
		activity:   activity,
		supervisor: supervisor,
		events:     events,
		logger:     slog.Default(),
	}
}

// WithLogger sets the logger for the service.
func (s *StreamService) WithLogger(logger *slog.Logger) *StreamService {
	s.logger = logger
	return s
}

// StartRequest describes a new stream session.
type StartRequest struct {
	UserID      *models.ULID
	SourceType  models.SourceType
	SourceID    models.ULID
	Destination string
	Mode        models.StreamMode
}

// Start creates a session record and launches its encoder. On a resolve or
// spawn failure the session is left stopped with no pid and the error is
// returned.
func (s *StreamService) Start(ctx context.Context, req StartRequest) (*models.StreamSession, error) {
	session := &models.StreamSession{
		UserID:      req.UserID,
		SourceType:  req.SourceType,
		SourceID:    req.SourceID,
		Destination: req.Destination,
		Mode:        req.Mode,
		Status:      models.StatusStopped,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	if err := s.supervisor.Launch(ctx, session); err != nil {
		return session, err
	}

	s.recordActivity(ctx, req.UserID, models.ActionStreamStarted,
		fmt.Sprintf("session %s streaming to %s", session.ID, session.Destination))

	// Re-read so the caller sees the committed pid/start time.
	launched, err := s.sessions.GetByID(ctx, session.ID)
	if err != nil {
		return session, err
	}
	if launched != nil {
		return launched, nil
	}
	return session, nil
}

// Stop terminates a session's encoder and immediately commits the stopped
// state, ahead of the background task observing the process exit. Stopping
// an already-stopped session is a no-op.
func (s *StreamService) Stop(ctx context.Context, id models.ULID) (*models.StreamSession, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, models.ErrSessionNotFound
	}

	if session.Status != models.StatusRunning {
		return session, nil
	}

	pid := 0
	if session.PID != nil {
		pid = *session.PID
	}

	// State first, then the signal: the pid guard in the exit path sees
	// the cleared pid and leaves this transition alone.
	if err := s.sessions.MarkStoppedNow(ctx, id, time.Now()); err != nil {
		return nil, err
	}
	if pid != 0 {
		if err := s.supervisor.Terminate(pid); err != nil {
			s.logger.Warn("terminating encoder failed",
				slog.String("session_id", id.String()),
				slog.Int("pid", pid),
				slog.String("error", err.Error()),
			)
		}
	}

	s.events.Publish(id.String(), hub.NewStatusEvent(string(models.StatusStopped), session.Destination, derefOr(session.AvgBitrate, "")))
	s.events.ForgetSession(id.String())

	s.recordActivity(ctx, session.UserID, models.ActionStreamStopped,
		fmt.Sprintf("session %s stopped", session.ID))

	return s.sessions.GetByID(ctx, id)
}

// Get returns one session.
func (s *StreamService) Get(ctx context.Context, id models.ULID) (*models.StreamSession, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, models.ErrSessionNotFound
	}
	return session, nil
}

// List returns all sessions.
func (s *StreamService) List(ctx context.Context) ([]*models.StreamSession, error) {
	return s.sessions.GetAll(ctx)
}

// Active returns sessions currently running.
func (s *StreamService) Active(ctx context.Context) ([]*models.StreamSession, error) {
	return s.sessions.GetRunning(ctx)
}

// LatestStats returns the most recent telemetry snapshot for a session, if
// one has been published since it started.
func (s *StreamService) LatestStats(id models.ULID) (hub.StatsEvent, bool) {
	return s.events.LatestStats(id.String())
}

func (s *StreamService) recordActivity(ctx context.Context, userID *models.ULID, action, details string) {
	if s.activity == nil {
		return
	}
	entry := &models.ActivityLog{UserID: userID, Action: action, Details: details}
	if err := s.activity.Create(ctx, entry); err != nil {
		s.logger.Warn("recording activity failed",
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
