package restream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/jmylchreest/restreamr/internal/config"
	"github.com/jmylchreest/restreamr/internal/ffmpeg"
	"github.com/jmylchreest/restreamr/internal/hub"
	"github.com/jmylchreest/restreamr/internal/models"
	"github.com/jmylchreest/restreamr/internal/repository"
)

// Supervisor owns the encoder processes. It builds and launches one FFmpeg
// process per running session, pumps its stderr through the telemetry
// parser into the hub, and commits session state transitions. Background
// pump goroutines are tracked in a registry keyed by session id so
// process-wide teardown can wait for them.
type Supervisor struct {
	sessions repository.StreamSessionRepository
	resolver *SourceResolver
	events   *hub.Hub
	encoder  config.EncoderConfig
	binary   string
	logger   *slog.Logger

	baseCtx context.Context
	cancel  context.CancelFunc

	mu    sync.Mutex
	tasks map[models.ULID]struct{}
	wg    sync.WaitGroup
}

// NewSupervisor creates a Supervisor. The binary path must already be
// resolved (see ffmpeg.FindBinary).
func NewSupervisor(sessions repository.StreamSessionRepository, resolver *SourceResolver, events *hub.Hub, encoder config.EncoderConfig, binary string, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Supervisor{
		sessions: sessions,
		resolver: resolver,
		events:   events,
		encoder:  encoder,
		binary:   binary,
		logger:   logger,
		baseCtx:  ctx,
		cancel:   cancel,
		tasks:    make(map[models.ULID]struct{}),
	}
}

// Launch resolves the session's source, spawns the encoder process and
// commits the running state before any telemetry is emitted. The returned
// error covers the immediate transition only; the process then runs under
// a background pump goroutine decoupled from the caller.
//
// A spawn or resolve failure leaves the session stopped with no pid, never
// running without a backing process.
func (s *Supervisor) Launch(ctx context.Context, session *models.StreamSession) error {
	in, err := s.resolver.Resolve(ctx, session)
	if err != nil {
		if markErr := s.sessions.MarkStoppedNow(ctx, session.ID, time.Now()); markErr != nil {
			s.logger.Error("marking session stopped after resolve failure",
				slog.String("session_id", session.ID.String()),
				slog.String("error", markErr.Error()),
			)
		}
		return fmt.Errorf("resolving source for session %s: %w", session.ID, err)
	}

	cmd := s.buildCommand(in, session.Destination)
	stderr, err := cmd.Start(s.baseCtx)
	if err != nil {
		s.resolver.CleanupIndex(in.IndexPath)
		if markErr := s.sessions.MarkStoppedNow(ctx, session.ID, time.Now()); markErr != nil {
			s.logger.Error("marking session stopped after spawn failure",
				slog.String("session_id", session.ID.String()),
				slog.String("error", markErr.Error()),
			)
		}
		return fmt.Errorf("spawning encoder for session %s: %w", session.ID, err)
	}

	pid := cmd.PID()
	if err := s.sessions.MarkLaunched(ctx, session.ID, pid, time.Now()); err != nil {
		_ = s.Terminate(pid)
		s.resolver.CleanupIndex(in.IndexPath)
		return fmt.Errorf("persisting launch for session %s: %w", session.ID, err)
	}

	s.logger.Info("encoder launched",
		slog.String("session_id", session.ID.String()),
		slog.Int("pid", pid),
		slog.String("destination", session.Destination),
	)

	// The running lifecycle event goes out before any telemetry so a
	// subscriber connecting now sees current state immediately.
	s.events.Publish(session.ID.String(), hub.NewStatusEvent(string(models.StatusRunning), session.Destination, ""))

	s.track(session.ID)
	go s.pump(session, cmd, stderr, in.IndexPath)
	return nil
}

// buildCommand assembles the full encoder command line for a live FLV
// destination: re-encode video at a bounded bitrate tuned for low latency,
// re-encode audio, discard stdout, stats on stderr.
func (s *Supervisor) buildCommand(in *InputSource, destination string) *ffmpeg.Command {
	return ffmpeg.NewCommandBuilder(s.binary).
		HideBanner().
		LogLevel("info").
		Stats().
		InputArgs(in.Args...).
		Input(in.Input).
		Overwrite().
		VideoCodec("libx264").
		VideoPreset(s.encoder.Preset).
		Tune("zerolatency").
		VideoBitrate(s.encoder.VideoBitrate).
		AudioCodec("aac").
		AudioBitrate(s.encoder.AudioBitrate).
		Format("flv").
		Output(destination).
		Build()
}

// pump is the per-session background task. It alone reads the process's
// stderr, forwards parsed telemetry to the hub, awaits exit and commits the
// terminal state. For loop_playlist sessions a natural exit relaunches the
// encoder instead of finalizing.
func (s *Supervisor) pump(session *models.StreamSession, cmd *ffmpeg.Command, stderr io.ReadCloser, indexPath string) {
	defer s.untrack(session.ID)

	for {
		pid := cmd.PID()
		lastBitrate := s.readTelemetry(session, stderr)
		waitErr := cmd.Wait()

		if waitErr != nil {
			s.logger.Warn("encoder exited with error",
				slog.String("session_id", session.ID.String()),
				slog.Int("pid", pid),
				slog.String("error", waitErr.Error()),
			)
		}

		if session.Mode == models.ModeLoopPlaylist && waitErr == nil && s.baseCtx.Err() == nil {
			next, nextStderr, nextIndex, ok := s.relaunch(session, pid)
			if ok {
				s.resolver.CleanupIndex(indexPath)
				cmd, stderr, indexPath = next, nextStderr, nextIndex
				continue
			}
		}

		s.finalize(session, pid, lastBitrate)
		s.resolver.CleanupIndex(indexPath)
		return
	}
}

// readTelemetry reads the stderr stream to end-of-stream, publishing every
// parsed stats line and returning the last observed bitrate. The scanner
// tolerates arbitrary chunk boundaries and flushes a final unterminated
// fragment; undecodable bytes pass through as-is rather than failing the
// pipeline.
func (s *Supervisor) readTelemetry(session *models.StreamSession, stderr io.Reader) *string {
	scanner := bufio.NewScanner(stderr)
	scanner.Split(ffmpeg.ScanLinesCR)

	var lastBitrate *string
	for scanner.Scan() {
		progress, ok := ffmpeg.ParseProgressLine(scanner.Text())
		if !ok {
			continue
		}
		bitrate := progress.Bitrate
		lastBitrate = &bitrate

		s.events.Publish(session.ID.String(), hub.NewStatsEvent(
			progress.Bitrate,
			progress.FPS,
			progress.DroppedFrames,
			session.Destination,
			string(models.StatusRunning),
		))
	}
	if err := scanner.Err(); err != nil {
		s.logger.Debug("telemetry stream ended with error",
			slog.String("session_id", session.ID.String()),
			slog.String("error", err.Error()),
		)
	}
	return lastBitrate
}

// relaunch spawns a fresh encoder for a looping session and swaps the pid
// under the old-pid guard. If the guard is refused a stop request won the
// race and the fresh process is terminated again.
func (s *Supervisor) relaunch(session *models.StreamSession, oldPID int) (*ffmpeg.Command, io.ReadCloser, string, bool) {
	in, err := s.resolver.Resolve(s.baseCtx, session)
	if err != nil {
		s.logger.Warn("relaunch resolve failed",
			slog.String("session_id", session.ID.String()),
			slog.String("error", err.Error()),
		)
		return nil, nil, "", false
	}

	cmd := s.buildCommand(in, session.Destination)
	stderr, err := cmd.Start(s.baseCtx)
	if err != nil {
		s.resolver.CleanupIndex(in.IndexPath)
		s.logger.Warn("relaunch spawn failed",
			slog.String("session_id", session.ID.String()),
			slog.String("error", err.Error()),
		)
		return nil, nil, "", false
	}

	newPID := cmd.PID()
	swapped, err := s.sessions.SwapPID(s.baseCtx, session.ID, oldPID, newPID, time.Now())
	if err != nil || !swapped {
		if err != nil {
			s.logger.Error("relaunch pid swap failed",
				slog.String("session_id", session.ID.String()),
				slog.String("error", err.Error()),
			)
		}
		_ = s.Terminate(newPID)
		_ = cmd.Wait()
		s.resolver.CleanupIndex(in.IndexPath)
		return nil, nil, "", false
	}

	s.logger.Info("looping session relaunched",
		slog.String("session_id", session.ID.String()),
		slog.Int("old_pid", oldPID),
		slog.Int("pid", newPID),
	)
	s.events.Publish(session.ID.String(), hub.NewStatusEvent(string(models.StatusRunning), session.Destination, ""))
	return cmd, stderr, in.IndexPath, true
}

// finalize commits the terminal state for a natural exit, guarded on the
// session's pid still matching the exited process. When a stop request or
// newer launch already moved the session on, the guard refuses and no
// event is emitted.
func (s *Supervisor) finalize(session *models.StreamSession, pid int, lastBitrate *string) {
	done, err := s.sessions.FinalizeExit(s.baseCtx, session.ID, pid, time.Now(), lastBitrate)
	if err != nil {
		s.logger.Error("finalizing session exit",
			slog.String("session_id", session.ID.String()),
			slog.Int("pid", pid),
			slog.String("error", err.Error()),
		)
		return
	}
	if !done {
		s.logger.Debug("stale exit ignored",
			slog.String("session_id", session.ID.String()),
			slog.Int("pid", pid),
		)
		return
	}

	avg := ""
	if lastBitrate != nil {
		avg = *lastBitrate
	}
	s.events.Publish(session.ID.String(), hub.NewStatusEvent(string(models.StatusStopped), session.Destination, avg))
	s.events.ForgetSession(session.ID.String())

	s.logger.Info("session finished",
		slog.String("session_id", session.ID.String()),
		slog.Int("pid", pid),
		slog.String("avg_bitrate", avg),
	)
}

// Terminate sends a graceful termination signal to the process. A process
// that no longer exists counts as already stopped, not an error.
func (s *Supervisor) Terminate(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	err = proc.Signal(syscall.SIGTERM)
	if err == nil || errors.Is(err, os.ErrProcessDone) || errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return fmt.Errorf("signaling process %d: %w", pid, err)
}

// ActiveSessions returns the session ids with a live pump goroutine.
func (s *Supervisor) ActiveSessions() []models.ULID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]models.ULID, 0, len(s.tasks))
	for id := range s.tasks {
		ids = append(ids, id)
	}
	return ids
}

func (s *Supervisor) track(id models.ULID) {
	s.mu.Lock()
	s.tasks[id] = struct{}{}
	s.mu.Unlock()
	s.wg.Add(1)
}

func (s *Supervisor) untrack(id models.ULID) {
	s.mu.Lock()
	delete(s.tasks, id)
	s.mu.Unlock()
	s.wg.Done()
}

// Shutdown kills all encoder processes and waits for their pump goroutines
// to finish, or until ctx expires.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for encoder tasks: %w", ctx.Err())
	}
}
