// Package timer implements the session timer state machine: start, pause,
// resume, stop, the 1 Hz tick, lifecycle hooks for backgrounding, and crash
// recovery of orphaned sessions.
package timer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/focuskeeper/internal/common"
	"github.com/dmitrijs2005/focuskeeper/internal/logging"
	"github.com/dmitrijs2005/focuskeeper/internal/repositories/appstate"
	"github.com/dmitrijs2005/focuskeeper/internal/storage"
	"github.com/goccy/go-json"
)

// state is the engine's top-level state. autoPaused is a sub-flag of
// statePaused, never a state of its own: resume-on-foreground applies only to
// pauses the engine made itself.
type state int

const (
	stateIdle state = iota
	stateRunning
	statePaused
)

// Engine is the single writer of open sessions for its user. All mutation of
// the "current session" goes through it, which is what keeps the at-most-one-
// open-session invariant without store-level locking.
type Engine struct {
	store  *storage.Store
	userID string
	log    logging.Logger
	now    func() time.Time

	mu              sync.Mutex
	state           state
	autoPaused      bool
	sessionID       int64
	topic           string
	folderID        *int64
	folderName      string
	allowBackground bool
	startTime       time.Time
	pausedAt        time.Time
	elapsed         int64
	recovered       bool
}

// snapshot is the JSON document persisted under the timer_state key so the
// live session survives process death. Recovery only needs to know that an
// open session existed; the rest is carried for diagnostics.
type snapshot struct {
	SessionID  int64      `json:"session_id"`
	Topic      string     `json:"topic"`
	FolderID   *int64     `json:"folder_id,omitempty"`
	State      string     `json:"state"`
	AutoPaused bool       `json:"auto_paused"`
	StartTime  time.Time  `json:"start_time"`
	PausedAt   *time.Time `json:"paused_at,omitempty"`
}

// NewEngine returns an idle engine for userID. Call Recover once before any
// other operation.
func NewEngine(store *storage.Store, userID string, log logging.Logger) *Engine {
	return &Engine{
		store:  store,
		userID: userID,
		log:    log.With("component", "timer"),
		now:    time.Now,
	}
}

// Start begins timing topic, closing any live session first (auto-save-and-
// switch: switching topics never discards unsaved time). When folderID is nil
// the topic's configured folder, if any, is used.
func (e *Engine) Start(ctx context.Context, topic string, folderID *int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != stateIdle {
		if err := e.stopLocked(ctx); err != nil {
			return err
		}
	}

	allowBackground := false
	tc, err := e.store.Topics.GetByTopic(ctx, e.userID, topic)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return err
	}
	if tc != nil {
		allowBackground = tc.AllowBackground
		if folderID == nil {
			folderID = tc.FolderID
		}
	}

	folderName := ""
	if folderID != nil {
		f, err := e.store.Folders.GetByID(ctx, *folderID)
		if err != nil {
			return err
		}
		folderName = f.Name
	}

	now := e.now()
	id, err := e.store.Sessions.Create(ctx, e.userID, topic, "", folderID, now)
	if err != nil {
		return err
	}

	e.state = stateRunning
	e.autoPaused = false
	e.sessionID = id
	e.topic = topic
	e.folderID = folderID
	e.folderName = folderName
	e.allowBackground = allowBackground
	e.startTime = now
	e.pausedAt = time.Time{}
	e.elapsed = 0

	e.snapshotLocked(ctx)
	return nil
}

// Pause suspends timing. No-op unless running.
func (e *Engine) Pause(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pauseLocked(ctx, false)
}

func (e *Engine) pauseLocked(ctx context.Context, auto bool) {
	if e.state != stateRunning {
		return
	}
	e.state = statePaused
	e.autoPaused = auto
	e.pausedAt = e.now()
	e.snapshotLocked(ctx)
}

// Resume continues timing after a pause. The start time is shifted forward by
// the pause duration, so elapsed time (always now − startTime) skips the
// pause without a separate accumulator. No-op unless paused.
func (e *Engine) Resume(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resumeLocked(ctx)
}

func (e *Engine) resumeLocked(ctx context.Context) {
	if e.state != statePaused {
		return
	}
	now := e.now()
	e.startTime = e.startTime.Add(now.Sub(e.pausedAt))
	e.pausedAt = time.Time{}
	e.autoPaused = false
	e.state = stateRunning
	e.elapsed = int64(now.Sub(e.startTime) / time.Second)
	e.snapshotLocked(ctx)
}

// Stop closes the live session and returns the engine to idle. No-op when
// already idle.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == stateIdle {
		return nil
	}
	return e.stopLocked(ctx)
}

func (e *Engine) stopLocked(ctx context.Context) error {
	// A session stopped while paused ends at the pause point, so the trailing
	// paused stretch is never credited.
	end := e.now()
	if e.state == statePaused {
		end = e.pausedAt
	}

	if err := e.store.Sessions.End(ctx, e.sessionID, end); err != nil {
		return err
	}

	if err := e.store.AppState.Delete(ctx, appstate.KeyTimerState); err != nil {
		e.log.Warn(ctx, "failed to clear timer snapshot", "error", err)
	}

	e.state = stateIdle
	e.autoPaused = false
	e.sessionID = 0
	e.topic = ""
	e.folderID = nil
	e.folderName = ""
	e.allowBackground = false
	e.startTime = time.Time{}
	e.pausedAt = time.Time{}
	e.elapsed = 0
	return nil
}

// Tick recomputes the elapsed seconds. No effect unless running.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != stateRunning {
		return
	}
	e.elapsed = int64(e.now().Sub(e.startTime) / time.Second)
}

// OnBackground handles the app moving to the background. The heartbeat and
// snapshot are written unconditionally (crash recovery needs them regardless
// of pause policy); the session is then auto-paused unless its topic allows
// background timing.
func (e *Engine) OnBackground(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.AppState.SetTime(ctx, appstate.KeyLastActive, e.now()); err != nil {
		e.log.Warn(ctx, "failed to write heartbeat", "error", err)
	}
	e.snapshotLocked(ctx)

	if e.state == stateRunning && !e.allowBackground {
		e.pauseLocked(ctx, true)
	}
}

// OnForeground handles the app returning to the foreground: resumes a session
// the engine auto-paused (never a user pause) and refreshes the elapsed value
// so the display is never stale.
func (e *Engine) OnForeground(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == statePaused && e.autoPaused {
		e.resumeLocked(ctx)
	}
	if e.state == stateRunning {
		e.elapsed = int64(e.now().Sub(e.startTime) / time.Second)
	}
}

// Recover finalizes sessions orphaned by an unclean shutdown. An orphan is
// closed, never resumed: its end time is the last heartbeat when one exists,
// else its own start time (zero duration rather than a guess). Runs at most
// once per process, and runs even when the snapshot is missing or corrupt.
func (e *Engine) Recover(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.recovered {
		return nil
	}
	e.recovered = true

	raw, err := e.store.AppState.Get(ctx, appstate.KeyTimerState)
	if err != nil {
		return err
	}
	if raw != "" {
		var snap snapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			// corrupt snapshot; the orphan scan below handles it anyway
			e.log.Warn(ctx, "corrupt timer snapshot", "error", err)
		}
	}

	heartbeat, hasHeartbeat, err := e.store.AppState.GetTime(ctx, appstate.KeyLastActive)
	if err != nil {
		return err
	}

	orphans, err := e.store.Sessions.ListOpen(ctx, e.userID)
	if err != nil {
		return err
	}

	for _, o := range orphans {
		end := o.StartTime
		if hasHeartbeat && heartbeat.After(o.StartTime) {
			end = heartbeat
		}
		if err := e.store.Sessions.End(ctx, o.ID, end); err != nil {
			return err
		}
		e.log.Info(ctx, "finalized orphaned session",
			"session_id", o.ID, "topic", o.Topic, "end", end)
	}

	if err := e.store.AppState.Delete(ctx, appstate.KeyTimerState); err != nil {
		e.log.Warn(ctx, "failed to clear timer snapshot", "error", err)
	}
	return nil
}

// RunTicker drives Tick at 1 Hz until ctx is cancelled.
func (e *Engine) RunTicker(ctx context.Context) {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			e.Tick()
		}
	}
}

// snapshotLocked persists the current state under the timer_state key. The
// write is best-effort: a failure only degrades crash-recovery precision, so
// it is logged and swallowed.
func (e *Engine) snapshotLocked(ctx context.Context) {
	if e.state == stateIdle {
		return
	}

	snap := snapshot{
		SessionID:  e.sessionID,
		Topic:      e.topic,
		FolderID:   e.folderID,
		AutoPaused: e.autoPaused,
		StartTime:  e.startTime,
	}
	switch e.state {
	case stateRunning:
		snap.State = "running"
	case statePaused:
		snap.State = "paused"
		p := e.pausedAt
		snap.PausedAt = &p
	}

	b, err := json.Marshal(snap)
	if err != nil {
		e.log.Warn(ctx, "failed to encode timer snapshot", "error", err)
		return
	}
	if err := e.store.AppState.Set(ctx, appstate.KeyTimerState, string(b)); err != nil {
		e.log.Warn(ctx, "failed to write timer snapshot", "error", err)
	}
}

// IsRunning reports whether a session is being timed right now.
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == stateRunning
}

// IsPaused reports whether the live session is paused.
func (e *Engine) IsPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == statePaused
}

// ElapsedSeconds returns the last computed elapsed value.
func (e *Engine) ElapsedSeconds() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.elapsed
}

// CurrentTopic returns the live session's topic, or "".
func (e *Engine) CurrentTopic() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.topic
}

// CurrentFolderName returns the live session's folder name, or "".
func (e *Engine) CurrentFolderName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.folderName
}
