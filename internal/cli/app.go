// Package cli is the interactive front end: a small REPL over the timer
// engine, the local store queries, and the sync engine. It is thin view glue;
// the invariants live in the packages it calls.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	gosync "sync"

	"github.com/dmitrijs2005/focuskeeper/internal/auth"
	"github.com/dmitrijs2005/focuskeeper/internal/config"
	"github.com/dmitrijs2005/focuskeeper/internal/logging"
	"github.com/dmitrijs2005/focuskeeper/internal/remote"
	"github.com/dmitrijs2005/focuskeeper/internal/storage"
	"github.com/dmitrijs2005/focuskeeper/internal/sync"
	"github.com/dmitrijs2005/focuskeeper/internal/timer"
)

// App wires the engines together for one user and owns their lifecycles.
type App struct {
	cfg    *config.Config
	log    logging.Logger
	store  *storage.Store
	client remote.Client
	timer  *timer.Engine
	syncer *sync.Engine
	userID string
	out    io.Writer
}

// NewApp opens the local store and constructs the engines. With no token
// endpoint configured the app runs local-only: sync passes degrade to no-ops
// because no credential can be acquired.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	var provider auth.Provider
	var err error
	if cfg.TokenEndpointAddr != "" {
		provider, err = auth.NewHTTPProvider(cfg.TokenEndpointAddr, cfg.UserID, cfg.TokenTimeout)
	} else {
		provider, err = auth.NewStaticProvider(cfg.UserID, "")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set up auth provider: %w", err)
	}

	store, err := storage.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	client := remote.NewRESTClient(cfg.RemoteEndpointAddr, provider, cfg.RemoteTimeout)

	return &App{
		cfg:    cfg,
		log:    log,
		store:  store,
		client: client,
		timer:  timer.NewEngine(store, provider.UserID(), log),
		syncer: sync.NewEngine(store, client, provider.UserID(), log),
		userID: provider.UserID(),
		out:    os.Stdout,
	}, nil
}

// Run recovers orphaned sessions, starts the tick and periodic-sync loops,
// and enters the REPL. It returns when the user quits or input reaches EOF.
func (a *App) Run(ctx context.Context) error {
	if err := a.timer.Recover(ctx); err != nil {
		return fmt.Errorf("recovery failed: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg gosync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		a.timer.RunTicker(ctx)
	}()
	go func() {
		defer wg.Done()
		a.syncer.RunPeriodic(ctx, a.cfg.SyncInterval)
	}()

	a.runREPL(ctx, os.Stdin)

	cancel()
	wg.Wait()

	if err := a.client.Close(); err != nil {
		a.log.Warn(ctx, "failed to close remote client", "error", err)
	}
	return a.store.Close()
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format+"\n", args...)
}
