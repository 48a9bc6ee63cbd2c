// Package startup contains tasks run once when the orchestrator boots.
package startup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmylchreest/restreamr/internal/models"
	"github.com/jmylchreest/restreamr/internal/repository"
	"github.com/jmylchreest/restreamr/internal/restream"
)

// Recovery relaunches sessions left running by a prior orchestrator
// process. Their persisted pids belong to a previous process generation
// and cannot be trusted, so each is cleared before the relaunch.
type Recovery struct {
	sessions   repository.StreamSessionRepository
	activity   repository.ActivityLogRepository
	supervisor *restream.Supervisor
	logger     *slog.Logger
}

// NewRecovery creates a Recovery sweep. The activity repository may be nil.
func NewRecovery(sessions repository.StreamSessionRepository, activity repository.ActivityLogRepository, supervisor *restream.Supervisor, logger *slog.Logger) *Recovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recovery{
		sessions:   sessions,
		activity:   activity,
		supervisor: supervisor,
		logger:     logger,
	}
}

// Run performs the sweep once. Each session recovers independently: a
// failure (source deleted, playlist emptied, spawn error) is logged and
// the sweep continues. Returns the number of recovered and failed
// sessions; the error covers only the initial query.
func (r *Recovery) Run(ctx context.Context) (recovered, failed int, err error) {
	stale, err := r.sessions.GetRunning(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("querying running sessions: %w", err)
	}
	if len(stale) == 0 {
		return 0, 0, nil
	}

	r.logger.Info("recovering sessions from previous run", slog.Int("count", len(stale)))

	for _, session := range stale {
		if err := r.recoverOne(ctx, session); err != nil {
			failed++
			r.logger.Error("session recovery failed",
				slog.String("session_id", session.ID.String()),
				slog.String("destination", session.Destination),
				slog.String("error", err.Error()),
			)
			continue
		}
		recovered++
	}

	r.logger.Info("recovery sweep finished",
		slog.Int("recovered", recovered),
		slog.Int("failed", failed),
	)
	return recovered, failed, nil
}

func (r *Recovery) recoverOne(ctx context.Context, session *models.StreamSession) error {
	if session.PID != nil {
		r.logger.Debug("clearing stale pid",
			slog.String("session_id", session.ID.String()),
			slog.Int("pid", *session.PID),
		)
		if err := r.sessions.ClearPID(ctx, session.ID); err != nil {
			return err
		}
		session.PID = nil
	}

	if err := r.supervisor.Launch(ctx, session); err != nil {
		return err
	}

	if r.activity != nil {
		entry := &models.ActivityLog{
			UserID:  session.UserID,
			Action:  models.ActionStreamRecovered,
			Details: fmt.Sprintf("session %s relaunched to %s", session.ID, session.Destination),
		}
		if err := r.activity.Create(ctx, entry); err != nil {
			r.logger.Warn("recording recovery activity failed",
				slog.String("session_id", session.ID.String()),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}
