// Package sync reconciles the local store with the remote row store. A sync
// pass runs deduplication, upload, and download phases in entity dependency
// order and advances the watermark only after a fully clean pass.
package sync

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/focuskeeper/internal/logging"
	"github.com/dmitrijs2005/focuskeeper/internal/remote"
	"github.com/dmitrijs2005/focuskeeper/internal/repositories/appstate"
	"github.com/dmitrijs2005/focuskeeper/internal/storage"
)

// Result summarizes one sync pass.
type Result struct {
	Deduped    int
	Uploaded   int
	Downloaded int

	// Skipped is true when the pass did not run: another pass was in flight,
	// or the remote was unreachable. Neither is an error; local data is always
	// valid standalone.
	Skipped bool
}

// Engine coordinates sync passes. At most one pass runs at a time; re-entrant
// triggers are dropped, not queued.
type Engine struct {
	store  *storage.Store
	client remote.Client
	userID string
	log    logging.Logger
	now    func() time.Time

	inFlight atomic.Bool
	syncers  []entitySyncer
}

// NewEngine returns a sync engine for userID backed by store and client.
func NewEngine(store *storage.Store, client remote.Client, userID string, log logging.Logger) *Engine {
	e := &Engine{
		store:  store,
		client: client,
		userID: userID,
		log:    log.With("component", "sync"),
		now:    time.Now,
	}
	// dependency order: sessions and topic configs reference folders
	e.syncers = []entitySyncer{
		&folderSyncer{e: e},
		&sessionSyncer{e: e},
		&topicConfigSyncer{e: e},
	}
	return e
}

// Sync runs one pass: dedupe, upload, download, advance watermark. A failed
// authorization degrades the whole pass to a skipped no-op. Any other failure
// aborts the pass with the watermark untouched, so the next pass retries the
// same range; the watermark is the only state that could cause
// double-processing and it only moves after a clean pass.
func (e *Engine) Sync(ctx context.Context) (Result, error) {
	if !e.inFlight.CompareAndSwap(false, true) {
		return Result{Skipped: true}, nil
	}
	defer e.inFlight.Store(false)

	if err := e.client.Authorize(ctx); err != nil {
		e.log.Info(ctx, "sync skipped, remote unavailable", "error", err)
		return Result{Skipped: true}, nil
	}

	var res Result

	for _, s := range e.syncers {
		n, err := s.dedupe(ctx, &pass{})
		res.Deduped += n
		if err != nil {
			return res, err
		}
	}

	watermark, _, err := e.store.AppState.GetTime(ctx, appstate.KeyLastSyncTime)
	if err != nil {
		return res, err
	}

	p := &pass{folderMap: map[int64]int64{}}

	for _, s := range e.syncers {
		n, err := s.upload(ctx, p, watermark)
		res.Uploaded += n
		if err != nil {
			return res, err
		}
	}

	for _, s := range e.syncers {
		since, err := e.downloadSince(ctx, s, watermark)
		if err != nil {
			return res, err
		}
		n, err := s.download(ctx, p, since)
		res.Downloaded += n
		if err != nil {
			return res, err
		}
	}

	if err := e.store.AppState.SetTime(ctx, appstate.KeyLastSyncTime, e.now()); err != nil {
		return res, err
	}

	e.log.Debug(ctx, "sync pass finished",
		"deduped", res.Deduped, "uploaded", res.Uploaded, "downloaded", res.Downloaded)
	return res, nil
}

// downloadSince self-heals a wiped local table: an empty table despite a
// non-zero watermark means local state was lost, so that entity is refetched
// in full.
func (e *Engine) downloadSince(ctx context.Context, s entitySyncer, watermark time.Time) (time.Time, error) {
	if watermark.IsZero() {
		return watermark, nil
	}
	count, err := s.count(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if count == 0 {
		e.log.Warn(ctx, "local table empty despite watermark, full refetch", "entity", s.name())
		return time.Time{}, nil
	}
	return watermark, nil
}

// RunPeriodic loops Sync on a ticker until ctx is cancelled. Pass failures
// are logged and retried on the next tick.
func (e *Engine) RunPeriodic(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := e.Sync(ctx); err != nil {
				e.log.Warn(ctx, "sync pass failed", "error", err)
			}
		}
	}
}
